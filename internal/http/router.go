package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Stari-kolomoni/kolomoni-backend/internal/http/handlers"
	httpMW "github.com/Stari-kolomoni/kolomoni-backend/internal/http/middleware"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/observability"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// TracingService enables otelgin spans under this service name when set.
	TracingService string
	CORSOrigins    []string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler        *httpH.AuthHandler
	UserHandler        *httpH.UserHandler
	WordHandler        *httpH.WordHandler
	MeaningHandler     *httpH.MeaningHandler
	CategoryHandler    *httpH.CategoryHandler
	TranslationHandler *httpH.TranslationHandler
	SearchHandler      *httpH.SearchHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, "/healthz", "/metrics"))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Probes
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api/v1")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.Authenticate())
	}

	// Public: login, registration, search and dictionary reads
	if cfg.AuthHandler != nil {
		api.POST("/login", cfg.AuthHandler.Login)
	}
	if cfg.UserHandler != nil {
		api.POST("/users", cfg.UserHandler.Register)
	}
	if cfg.SearchHandler != nil {
		api.GET("/search", cfg.SearchHandler.Search)
	}

	dict := api.Group("/dictionary")
	{
		if cfg.WordHandler != nil {
			dict.GET("/words", cfg.WordHandler.List)
			dict.GET("/words/:wordID", cfg.WordHandler.Get)
			dict.GET("/words/:wordID/history", cfg.WordHandler.History)
			dict.GET("/lemma/:language/:lemma", cfg.WordHandler.GetByLemma)
		}
		if cfg.MeaningHandler != nil {
			dict.GET("/meanings/:meaningID", cfg.MeaningHandler.Get)
			dict.GET("/meanings/:meaningID/history", cfg.MeaningHandler.History)
		}
		if cfg.CategoryHandler != nil {
			dict.GET("/categories", cfg.CategoryHandler.List)
			dict.GET("/categories/:categoryID", cfg.CategoryHandler.Get)
			dict.GET("/categories/:categoryID/history", cfg.CategoryHandler.History)
		}
		if cfg.TranslationHandler != nil {
			dict.GET("/translations/:sloveneMeaningID/:englishMeaningID", cfg.TranslationHandler.Get)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Words
		if cfg.WordHandler != nil {
			protected.POST("/dictionary/words", cfg.WordHandler.Create)
			protected.PATCH("/dictionary/words/:wordID", cfg.WordHandler.Update)
			protected.DELETE("/dictionary/words/:wordID", cfg.WordHandler.Delete)
		}

		// Meanings
		if cfg.MeaningHandler != nil {
			protected.POST("/dictionary/words/:wordID/meanings", cfg.MeaningHandler.Create)
			protected.PATCH("/dictionary/meanings/:meaningID", cfg.MeaningHandler.Update)
			protected.DELETE("/dictionary/meanings/:meaningID", cfg.MeaningHandler.Delete)
			protected.PUT("/dictionary/meanings/:meaningID/categories/:categoryID", cfg.MeaningHandler.LinkCategory)
			protected.DELETE("/dictionary/meanings/:meaningID/categories/:categoryID", cfg.MeaningHandler.UnlinkCategory)
		}

		// Categories
		if cfg.CategoryHandler != nil {
			protected.POST("/dictionary/categories", cfg.CategoryHandler.Create)
			protected.PATCH("/dictionary/categories/:categoryID", cfg.CategoryHandler.Update)
			protected.DELETE("/dictionary/categories/:categoryID", cfg.CategoryHandler.Delete)
		}

		// Translations
		if cfg.TranslationHandler != nil {
			protected.POST("/dictionary/translations", cfg.TranslationHandler.Create)
			protected.PATCH("/dictionary/translations/:sloveneMeaningID/:englishMeaningID", cfg.TranslationHandler.Update)
			protected.DELETE("/dictionary/translations/:sloveneMeaningID/:englishMeaningID", cfg.TranslationHandler.Delete)
		}

		// Users
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.GET("/users", cfg.UserHandler.List)
			protected.GET("/users/:userID", cfg.UserHandler.Get)
			protected.GET("/users/:userID/edits", cfg.UserHandler.Edits)
			protected.PATCH("/users/:userID", cfg.UserHandler.Update)
			protected.DELETE("/users/:userID", cfg.UserHandler.Delete)
			protected.POST("/users/:userID/roles", cfg.UserHandler.AssignRole)
			protected.DELETE("/users/:userID/roles/:role", cfg.UserHandler.RevokeRole)
		}
	}

	return r
}
