package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/db"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/indexer"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/observability"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/utils"
)

// ConfigFileEnv names a YAML file whose keys (the environment variable names, in any
// case) supply defaults. Environment variables still win.
const ConfigFileEnv = "KOLOMONI_CONFIG"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	LogMode  string
	HTTPAddr string

	DBDriver   string
	Postgres   db.PostgresConfig
	SQLitePath string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	RedisAddr    string
	RedisChannel string

	Indexer indexer.Config

	MetricsEnabled bool
	MetricsAddr    string
	CORSOrigins    []string

	Otel observability.OtelConfig
}

func LoadConfig(log *logger.Logger) (Config, error) {
	src, err := newConfigSource(log, strings.TrimSpace(os.Getenv(ConfigFileEnv)))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogMode:  src.str("LOG_MODE", "development"),
		HTTPAddr: src.str("HTTP_ADDR", ":8080"),

		DBDriver: strings.ToLower(src.str("DB_DRIVER", DriverPostgres)),
		Postgres: db.PostgresConfig{
			URL:      src.str("DATABASE_URL", ""),
			Host:     src.str("POSTGRES_HOST", "localhost"),
			Port:     src.str("POSTGRES_PORT", "5432"),
			User:     src.str("POSTGRES_USER", "kolomoni"),
			Password: src.str("POSTGRES_PASSWORD", ""),
			Name:     src.str("POSTGRES_NAME", "kolomoni"),
			MaxConns: src.integer("POSTGRES_MAX_CONNS", 20),
		},
		SQLitePath: src.str("SQLITE_PATH", "kolomoni.db"),

		JWTSecretKey:   src.str("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL: src.duration("ACCESS_TOKEN_TTL", time.Hour),

		RedisAddr:    src.str("REDIS_ADDR", ""),
		RedisChannel: src.str("REDIS_CHANNEL", ""),

		Indexer: indexer.Config{
			Consumer:     src.str("INDEXER_CONSUMER", indexer.DefaultConsumer),
			Owner:        src.str("INDEXER_OWNER", ""),
			BatchSize:    src.integer("INDEXER_BATCH_SIZE", 100),
			PollInterval: src.duration("INDEXER_POLL_INTERVAL", 2*time.Second),
			LeaseTTL:     src.duration("INDEXER_LEASE_TTL", 30*time.Second),
			SnapshotPath: src.str("SEARCH_SNAPSHOT_PATH", ""),
		},

		MetricsEnabled: src.boolean("METRICS_ENABLED", false),
		MetricsAddr:    src.str("METRICS_ADDR", ""),
		CORSOrigins:    splitList(src.str("CORS_ALLOWED_ORIGINS", "")),

		Otel: observability.OtelConfig{
			Enabled:     src.boolean("OTEL_ENABLED", false),
			ServiceName: src.str("OTEL_SERVICE_NAME", "kolomoni"),
			Environment: src.str("APP_ENV", "development"),
			Version:     src.str("APP_VERSION", "dev"),
			Endpoint:    src.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    src.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
			Headers:     observability.ParseHeaders(src.str("OTEL_EXPORTER_OTLP_HEADERS", "")),
			SampleRatio: src.float("OTEL_SAMPLE_RATIO", 1),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}

// configSource resolves a key from the environment, then the config file, then the
// built-in default.
type configSource struct {
	log  *logger.Logger
	file map[string]string
}

func newConfigSource(log *logger.Logger, path string) (*configSource, error) {
	src := &configSource{log: log, file: map[string]string{}}
	if path == "" {
		return src, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ConfigFileEnv, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range doc {
		if v == nil {
			continue
		}
		switch tv := v.(type) {
		case []any:
			parts := make([]string, 0, len(tv))
			for _, p := range tv {
				parts = append(parts, fmt.Sprint(p))
			}
			src.file[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			src.file[strings.ToUpper(k)] = fmt.Sprint(tv)
		}
	}
	if log != nil {
		log.Info("Loaded config file", "path", path, "keys", len(src.file))
	}
	return src, nil
}

func (s *configSource) str(key, def string) string {
	if v, ok := s.file[key]; ok {
		def = v
	}
	return utils.GetEnv(key, def, s.log)
}

func (s *configSource) integer(key string, def int) int {
	if v, ok := s.file[key]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			def = n
		} else {
			s.warnFile(key, v, err)
		}
	}
	return utils.GetEnvAsInt(key, def, s.log)
}

func (s *configSource) boolean(key string, def bool) bool {
	if v, ok := s.file[key]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			def = b
		} else {
			s.warnFile(key, v, err)
		}
	}
	return utils.GetEnvAsBool(key, def, s.log)
}

func (s *configSource) duration(key string, def time.Duration) time.Duration {
	if v, ok := s.file[key]; ok {
		v = strings.TrimSpace(v)
		if secs, err := strconv.Atoi(v); err == nil {
			def = time.Duration(secs) * time.Second
		} else if d, err := time.ParseDuration(v); err == nil {
			def = d
		} else {
			s.warnFile(key, v, err)
		}
	}
	return utils.GetEnvAsDuration(key, def, s.log)
}

func (s *configSource) float(key string, def float64) float64 {
	raw := s.str(key, strconv.FormatFloat(def, 'f', -1, 64))
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		if s.log != nil {
			s.log.Warn("config value is not a number, using default", "key", key, "value", raw)
		}
		return def
	}
	return f
}

func (s *configSource) warnFile(key, value string, err error) {
	if s.log != nil {
		s.log.Warn("config file value ignored", "key", key, "value", value, "error", err)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
