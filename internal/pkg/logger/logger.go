package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a key-value logger over zap's SugaredLogger.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a logger for mode ("production", "development" or "test"). LOG_LEVEL, when
// set to a zap level name, overrides the mode's default level.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	level := zapcore.DebugLevel
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		level = zapcore.InfoLevel
	case "test":
		cfg = zap.NewDevelopmentConfig()
		level = zapcore.WarnLevel
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		parsed, err := zapcore.ParseLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		level = parsed
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: z.Sugar()}, nil
}

func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() { _ = l.SugaredLogger.Sync() }

func (l *Logger) Debug(msg string, kv ...interface{}) {
	l.SugaredLogger.Debugw(msg, sanitizeKVs(kv)...)
}
func (l *Logger) Info(msg string, kv ...interface{}) {
	l.SugaredLogger.Infow(msg, sanitizeKVs(kv)...)
}
func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.SugaredLogger.Warnw(msg, sanitizeKVs(kv)...)
}
func (l *Logger) Error(msg string, kv ...interface{}) {
	l.SugaredLogger.Errorw(msg, sanitizeKVs(kv)...)
}
func (l *Logger) Fatal(msg string, kv ...interface{}) {
	l.SugaredLogger.Fatalw(msg, sanitizeKVs(kv)...)
}

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(sanitizeKVs(kv)...)}
}

// Printf makes Logger usable as a gorm logger writer. gorm only prints slow queries and
// errors at the level it is configured with, so every line is a warning.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.SugaredLogger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

const redacted = "[REDACTED]"

// sensitiveKeys are matched as substrings of the lower-cased key.
var sensitiveKeys = []string{"token", "authorization", "password", "secret", "cookie"}

var (
	redactOnce sync.Once
	redactOn   bool
)

// redactionEnabled is read once from LOG_REDACTION_ENABLED (default on).
func redactionEnabled() bool {
	redactOnce.Do(func() {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
			redactOn = false
		default:
			redactOn = true
		}
	})
	return redactOn
}

func sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 || !redactionEnabled() {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		out[i+1] = sanitizeValue(keyString(out[i]), out[i+1])
	}
	return out
}

func sanitizeValue(key string, val interface{}) interface{} {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, k := range sensitiveKeys {
		if key != "" && strings.Contains(key, k) {
			return redacted
		}
	}
	if s, ok := val.(string); ok && looksLikeJWT(s) {
		return redacted
	}
	return val
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func keyString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(v)
	}
}
