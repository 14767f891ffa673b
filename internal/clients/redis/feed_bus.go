package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

const DefaultFeedChannel = "kolomoni:feed"

// FeedBus fans committed feed sequences out to every process, so an indexer running
// elsewhere wakes without waiting for its poll interval. Messages carry no data.
type FeedBus interface {
	Publish(ctx context.Context, seq int64) error
	// Notify is Publish for callers that cannot act on a failure.
	Notify(ctx context.Context, seq int64)
	StartForwarder(ctx context.Context, onSeq func(seq int64)) error
	Client() goredis.UniversalClient
	Close() error
}

type feedSignal struct {
	Seq int64 `json:"seq"`
}

type feedBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

func NewFeedBus(log *logger.Logger, addr, channel string) (FeedBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewFeedBusWithClient(log, rdb, channel), nil
}

func NewFeedBusWithClient(log *logger.Logger, rdb goredis.UniversalClient, channel string) FeedBus {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultFeedChannel
	}
	return &feedBus{
		log:     log.With("service", "RedisFeedBus"),
		rdb:     rdb,
		channel: channel,
	}
}

func (b *feedBus) Client() goredis.UniversalClient { return b.rdb }

func (b *feedBus) Publish(ctx context.Context, seq int64) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis feed bus not initialized")
	}
	raw, err := encodeSignal(seq)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *feedBus) Notify(ctx context.Context, seq int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := b.Publish(ctx, seq); err != nil {
		b.log.Warn("feed signal publish failed", "seq", seq, "error", err)
	}
}

func (b *feedBus) StartForwarder(ctx context.Context, onSeq func(seq int64)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis feed bus not initialized")
	}
	if onSeq == nil {
		return fmt.Errorf("onSeq callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				seq, err := decodeSignal(m.Payload)
				if err != nil {
					b.log.Warn("bad redis feed payload", "error", err)
					continue
				}
				onSeq(seq)
			}
		}
	}()
	return nil
}

func (b *feedBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func encodeSignal(seq int64) ([]byte, error) {
	if seq <= 0 {
		return nil, fmt.Errorf("invalid feed seq %d", seq)
	}
	return json.Marshal(feedSignal{Seq: seq})
}

func decodeSignal(payload string) (int64, error) {
	var sig feedSignal
	if err := json.Unmarshal([]byte(payload), &sig); err != nil {
		return 0, err
	}
	if sig.Seq <= 0 {
		return 0, fmt.Errorf("invalid feed seq %d", sig.Seq)
	}
	return sig.Seq, nil
}
