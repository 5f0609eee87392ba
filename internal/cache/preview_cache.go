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

// PreviewCache holds the last rendered preview per session so a reconnecting
// client gets the current pane without waiting for the next recompute
type PreviewCache interface {
	Set(ctx context.Context, p *model.Preview) error
	Get(ctx context.Context, sessionID string) (*model.Preview, error)
	Delete(ctx context.Context, sessionID string) error
}

type previewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPreviewCache creates a new preview cache
func NewPreviewCache(client *redis.Client, ttl time.Duration) PreviewCache {
	return &previewCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *previewCache) key(sessionID string) string {
	return fmt.Sprintf("preview:%s", sessionID)
}

func (c *previewCache) Set(ctx context.Context, p *model.Preview) error {
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "marshal preview")
	}
	return eris.Wrapf(c.client.Set(ctx, c.key(p.SessionID), data, c.ttl).Err(), "cache preview %s", p.SessionID)
}

func (c *previewCache) Get(ctx context.Context, sessionID string) (*model.Preview, error) {
	data, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "get preview %s", sessionID)
	}
	var p model.Preview
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, eris.Wrapf(err, "decode preview %s", sessionID)
	}
	return &p, nil
}

func (c *previewCache) Delete(ctx context.Context, sessionID string) error {
	return eris.Wrapf(c.client.Del(ctx, c.key(sessionID)).Err(), "delete preview %s", sessionID)
}
