package app

import (
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	kolhttp "github.com/Stari-kolomoni/kolomoni-backend/internal/http"
	httpH "github.com/Stari-kolomoni/kolomoni-backend/internal/http/handlers"
	httpMW "github.com/Stari-kolomoni/kolomoni-backend/internal/http/middleware"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/observability"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	User        *httpH.UserHandler
	Word        *httpH.WordHandler
	Meaning     *httpH.MeaningHandler
	Category    *httpH.CategoryHandler
	Translation *httpH.TranslationHandler
	Search      *httpH.SearchHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, set repos.Set, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(db, services.Index),
		Auth:        httpH.NewAuthHandler(services.Auth),
		User:        httpH.NewUserHandler(services.Users, set),
		Word:        httpH.NewWordHandler(services.Lexicon, set),
		Meaning:     httpH.NewMeaningHandler(services.Lexicon, set),
		Category:    httpH.NewCategoryHandler(services.Lexicon, set),
		Translation: httpH.NewTranslationHandler(services.Lexicon, set),
		Search:      httpH.NewSearchHandler(services.Index, services.Indexer),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *kolhttp.Server {
	tracing := ""
	if cfg.Otel.Enabled {
		tracing = cfg.Otel.ServiceName
	}
	return kolhttp.NewServer(kolhttp.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		TracingService:     tracing,
		CORSOrigins:        cfg.CORSOrigins,
		AuthMiddleware:     middleware.Auth,
		AuthHandler:        handlers.Auth,
		UserHandler:        handlers.User,
		WordHandler:        handlers.Word,
		MeaningHandler:     handlers.Meaning,
		CategoryHandler:    handlers.Category,
		TranslationHandler: handlers.Translation,
		SearchHandler:      handlers.Search,
		HealthHandler:      handlers.Health,
	})
}
