package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
)

// Redis wraps the go-redis client. A Redis without a client is valid and
// means the stream fan-out is disabled.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. An empty
// address disables Redis.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not provided; notification stream disabled")
		return &Redis{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Enabled reports whether a client is configured.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return errNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}

// NotificationStream appends stored inbox entries to a capped Redis stream
// so external consumers (mail, push) can pick them up.
type NotificationStream struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewNotificationStream returns nil when Redis is disabled.
func NewNotificationStream(r *Redis, cfg config.NotificationConfig) *NotificationStream {
	if !r.Enabled() || cfg.StreamKey == "" {
		return nil
	}
	return &NotificationStream{client: r.Client, key: cfg.StreamKey, maxLen: cfg.StreamMaxLen}
}

// Publish XADDs one notification.
func (s *NotificationStream) Publish(ctx context.Context, n domain.Notification) error {
	args := &redis.XAddArgs{
		Stream: s.key,
		Values: map[string]interface{}{
			"id":           n.ID,
			"recipient_id": n.RecipientID,
			"request_id":   n.RequestID,
			"message":      n.Message,
			"created_at":   n.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.key, err)
	}
	return nil
}
