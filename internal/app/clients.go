package app

import (
	"fmt"
	"strings"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/clients/redis"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type Clients struct {
	// FeedBus is nil when REDIS_ADDR is unset; the indexer then relies on local
	// notifications and polling.
	FeedBus redis.FeedBus
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var bus redis.FeedBus
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err := redis.NewFeedBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis feed bus: %w", err)
		}
		bus = b
	}
	return Clients{FeedBus: bus}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.FeedBus != nil {
		_ = c.FeedBus.Close()
	}
}
