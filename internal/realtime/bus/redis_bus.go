package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/learny-backend/internal/pkg/logger"
	"github.com/yungbote/learny-backend/internal/realtime"
)

const (
	DefaultChannel = "learny:sse"
	dialTimeout    = 5 * time.Second
)

// RedisConfig points the event bus at a Redis server. An empty Addr means the
// service runs as a single instance and no bus is created.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

func (c RedisConfig) normalized() (RedisConfig, error) {
	c.Addr = strings.TrimSpace(c.Addr)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Addr == "" {
		return c, errors.New("missing redis addr")
	}
	if c.Channel == "" {
		c.Channel = DefaultChannel
	}
	return c, nil
}

// eventBus relays conversation snapshots and course-library events between
// instances over one Redis pub/sub channel. Every instance, the publisher
// included, receives each event exactly once through its forwarder.
type eventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisBus(log *logger.Logger, cfg RedisConfig) (Bus, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Addr, DialTimeout: dialTimeout})
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	log.Info("Event bus connected", "addr", cfg.Addr, "channel", cfg.Channel)
	return &eventBus{
		log:     log.With("service", "ConversationEventBus"),
		rdb:     rdb,
		channel: cfg.Channel,
	}, nil
}

// Publish sends one conversation or course event to every instance.
func (b *eventBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if !msg.Event.Known() {
		return fmt.Errorf("publish unknown event %q", msg.Event)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s for channel %s: %w", msg.Event, msg.Channel, err)
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes and hands each received event to deliver until
// ctx ends. Payloads that do not decode, or carry an event this build does
// not know, are logged and skipped.
func (b *eventBus) StartForwarder(ctx context.Context, deliver func(m realtime.SSEMessage)) error {
	if deliver == nil {
		return errors.New("deliver callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	go func() {
		defer sub.Close()
		events := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-events:
				if !ok || m == nil {
					return
				}
				msg, err := decodeEvent(m.Payload)
				if err != nil {
					b.log.Warn("Dropping relayed event", "error", err)
					continue
				}
				deliver(msg)
			}
		}
	}()
	return nil
}

func (b *eventBus) Close() error {
	return b.rdb.Close()
}

func decodeEvent(payload string) (realtime.SSEMessage, error) {
	var msg realtime.SSEMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return msg, fmt.Errorf("decode event: %w", err)
	}
	if !msg.Event.Known() {
		return msg, fmt.Errorf("unknown event %q", msg.Event)
	}
	return msg, nil
}
