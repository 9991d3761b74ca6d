// Package eventbus selects the live-update transport from settings.
package eventbus

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/eventbus/memory"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/eventbus/redis"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// New creates the event bus named by settings. An empty backend uses memory.
func New(ctx context.Context, settings domain.EventSettings) (driven.EventBus, error) {
	switch settings.Backend {
	case "", domain.EventBackendMemory:
		return memory.New(), nil
	case domain.EventBackendRedis:
		client, err := redis.NewClient(ctx, settings.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("creating redis event bus: %w", err)
		}
		logger.Debug("Using redis event bus")
		return redis.New(client), nil
	default:
		return nil, fmt.Errorf("%w: event backend %q", domain.ErrUnsupportedType, settings.Backend)
	}
}
