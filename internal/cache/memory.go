package cache

import (
	"context"
	"sync"

	"bizplanner/internal/model"
)

// In-memory caches back a single-process deployment (cache.backend: memory).
// Entries never expire.

// MemorySessionCache is a process-local SessionCache
type MemorySessionCache struct {
	mu       sync.Mutex
	sessions map[string]model.WizardSession
	byUser   map[string]map[string]bool
}

// NewMemorySessionCache creates an empty in-memory session cache
func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{
		sessions: make(map[string]model.WizardSession),
		byUser:   make(map[string]map[string]bool),
	}
}

func copySession(s *model.WizardSession) model.WizardSession {
	out := *s
	out.Questions = append([]model.Question(nil), s.Questions...)
	out.Answers = s.Answers.Clone()
	return out
}

func (c *MemorySessionCache) Set(_ context.Context, session *model.WizardSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.ID] = copySession(session)
	if session.UserID != "" {
		if c.byUser[session.UserID] == nil {
			c.byUser[session.UserID] = make(map[string]bool)
		}
		c.byUser[session.UserID][session.ID] = true
	}
	return nil
}

func (c *MemorySessionCache) Get(_ context.Context, id string) (*model.WizardSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, nil
	}
	out := copySession(&s)
	return &out, nil
}

func (c *MemorySessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[id]; ok {
		delete(c.byUser[s.UserID], id)
	}
	delete(c.sessions, id)
	return nil
}

func (c *MemorySessionCache) ListByUser(_ context.Context, userID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.byUser[userID]))
	for id := range c.byUser[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

// MemoryPreviewCache is a process-local PreviewCache
type MemoryPreviewCache struct {
	mu       sync.Mutex
	previews map[string]model.Preview
}

// NewMemoryPreviewCache creates an empty in-memory preview cache
func NewMemoryPreviewCache() *MemoryPreviewCache {
	return &MemoryPreviewCache{previews: make(map[string]model.Preview)}
}

func (c *MemoryPreviewCache) Set(_ context.Context, p *model.Preview) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previews[p.SessionID] = *p
	return nil
}

func (c *MemoryPreviewCache) Get(_ context.Context, sessionID string) (*model.Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.previews[sessionID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *MemoryPreviewCache) Delete(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.previews, sessionID)
	return nil
}

// MemoryGenerationCache is a process-local GenerationCache
type MemoryGenerationCache struct {
	mu       sync.Mutex
	statuses map[string]model.GenerationStatus
}

// NewMemoryGenerationCache creates an empty in-memory generation cache
func NewMemoryGenerationCache() *MemoryGenerationCache {
	return &MemoryGenerationCache{statuses: make(map[string]model.GenerationStatus)}
}

func (c *MemoryGenerationCache) Set(_ context.Context, sessionID string, status *model.GenerationStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[sessionID] = *status
	return nil
}

func (c *MemoryGenerationCache) Get(_ context.Context, sessionID string) (*model.GenerationStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.statuses[sessionID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *MemoryGenerationCache) Delete(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, sessionID)
	return nil
}

var (
	_ SessionCache    = (*MemorySessionCache)(nil)
	_ PreviewCache    = (*MemoryPreviewCache)(nil)
	_ GenerationCache = (*MemoryGenerationCache)(nil)
)
