package app

import (
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/indexer"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/observability"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/search"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/services"
)

type Services struct {
	// Aggregates
	Lexicon domainagg.LexiconAggregate
	Users   domainagg.UserAggregate

	// Auth
	Auth services.AuthService

	// Search
	Index   *search.MemoryIndex
	Indexer *indexer.Indexer
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, set repos.Set, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	index := search.NewMemoryIndex(log)
	deps := indexer.Deps{Log: log, Repos: set, Index: index}
	notifiers := aggregates.FeedNotifiers{}
	if clients.FeedBus != nil {
		deps.Bus = clients.FeedBus
	}
	ix := indexer.New(deps, cfg.Indexer)
	notifiers = append(notifiers, ix)
	if clients.FeedBus != nil {
		notifiers = append(notifiers, clients.FeedBus)
	}

	base := aggregates.BaseDeps{
		DB:       db,
		Log:      log,
		Hooks:    aggregates.NewObservabilityHooks(metrics),
		Repos:    set,
		Notifier: notifiers,
	}
	lexicon := aggregates.NewLexiconAggregate(aggregates.LexiconAggregateDeps{Base: base})
	users := aggregates.NewUserAggregate(aggregates.UserAggregateDeps{Base: base})

	return Services{
		Lexicon: lexicon,
		Users:   users,
		Auth:    services.NewAuthService(log, set, users, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Index:   index,
		Indexer: ix,
	}
}
