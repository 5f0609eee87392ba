package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"bizplanner/internal/model"
)

// GenerationCache stores the last polled generation status per session
type GenerationCache interface {
	Set(ctx context.Context, sessionID string, status *model.GenerationStatus) error
	Get(ctx context.Context, sessionID string) (*model.GenerationStatus, error)
	Delete(ctx context.Context, sessionID string) error
}

type generationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGenerationCache creates a new generation status cache
func NewGenerationCache(client *redis.Client, ttl time.Duration) GenerationCache {
	return &generationCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *generationCache) key(sessionID string) string {
	return fmt.Sprintf("wizard:%s:generation", sessionID)
}

func (c *generationCache) Set(ctx context.Context, sessionID string, status *model.GenerationStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return eris.Wrap(err, "marshal generation status")
	}
	return eris.Wrapf(c.client.Set(ctx, c.key(sessionID), data, c.ttl).Err(), "cache generation %s", sessionID)
}

func (c *generationCache) Get(ctx context.Context, sessionID string) (*model.GenerationStatus, error) {
	data, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "get generation %s", sessionID)
	}
	var status model.GenerationStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, eris.Wrapf(err, "decode generation %s", sessionID)
	}
	return &status, nil
}

func (c *generationCache) Delete(ctx context.Context, sessionID string) error {
	return eris.Wrapf(c.client.Del(ctx, c.key(sessionID)).Err(), "delete generation %s", sessionID)
}
