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

// SessionCache keeps wizard state in Redis so a user can resume where they left off
type SessionCache interface {
	Set(ctx context.Context, session *model.WizardSession) error
	Get(ctx context.Context, id string) (*model.WizardSession, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]string, error)
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new wizard session cache
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("wizard:%s", id)
}

func (c *sessionCache) userKey(userID string) string {
	return fmt.Sprintf("user:%s:wizards", userID)
}

func (c *sessionCache) Set(ctx context.Context, session *model.WizardSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return eris.Wrap(err, "marshal wizard session")
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(session.ID), data, c.ttl)
	if session.UserID != "" {
		pipe.SAdd(ctx, c.userKey(session.UserID), session.ID)
		pipe.Expire(ctx, c.userKey(session.UserID), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrapf(err, "cache wizard %s", session.ID)
	}
	return nil
}

// Get returns nil, nil when the session is not cached
func (c *sessionCache) Get(ctx context.Context, id string) (*model.WizardSession, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "get wizard %s", id)
	}
	var session model.WizardSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, eris.Wrapf(err, "decode wizard %s", id)
	}
	if session.Answers == nil {
		session.Answers = model.AnswerMap{}
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	session, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.key(id))
	if session != nil && session.UserID != "" {
		pipe.SRem(ctx, c.userKey(session.UserID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrapf(err, "delete wizard %s", id)
	}
	return nil
}

// ListByUser returns the ids of the user's cached wizards
func (c *sessionCache) ListByUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := c.client.SMembers(ctx, c.userKey(userID)).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "list wizards for %s", userID)
	}
	return ids, nil
}
