package persistence

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/config"
)

func TestDisabledBackends(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	pg, err := NewPostgres(ctx, config.PostgresConfig{}, logger)
	if err != nil {
		t.Fatalf("new postgres: %v", err)
	}
	if pg.Enabled() || pg.Ping(ctx) == nil {
		t.Fatal("postgres without DSN should be disabled")
	}
	if err := RunMigrations(ctx, pg.PoolHandle(), "", logger); err != nil {
		t.Fatalf("migrations without pool: %v", err)
	}

	r := NewRedis(config.RedisConfig{}, logger)
	if r.Enabled() || r.Ping(ctx) == nil {
		t.Fatal("redis without addr should be disabled")
	}
	if s := NewNotificationStream(r, config.NotificationConfig{StreamKey: "k"}); s != nil {
		t.Fatal("stream should be nil when redis is disabled")
	}
	r.Close()
	pg.Close()
}
