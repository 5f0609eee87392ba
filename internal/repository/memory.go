package repository

import (
	"context"
	"sync"
	"time"

	"bizplanner/internal/model"
	"bizplanner/internal/templates"
)

// MemoryTemplateRepo serves questionnaires from a loaded template set
// (storage.backend: memory)
type MemoryTemplateRepo struct {
	mu  sync.RWMutex
	set templates.Set
}

// NewMemoryTemplateRepo creates a template repository over a template set
func NewMemoryTemplateRepo(set templates.Set) *MemoryTemplateRepo {
	if set == nil {
		set = templates.Set{}
	}
	return &MemoryTemplateRepo{set: set}
}

func (r *MemoryTemplateRepo) ListTemplates(_ context.Context, persona model.Persona) ([]model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Question(nil), r.set[persona]...), nil
}

func (r *MemoryTemplateRepo) ReplacePersona(_ context.Context, persona model.Persona, questions []model.Question) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Question, len(questions))
	for i, q := range questions {
		q.Persona = persona
		out[i] = q
	}
	r.set[persona] = out
	return len(out), nil
}

// MemoryResponseRepo keeps saved answers in process memory
type MemoryResponseRepo struct {
	mu        sync.Mutex
	responses map[string]map[string]model.Response
}

// NewMemoryResponseRepo creates an empty in-memory response repository
func NewMemoryResponseRepo() *MemoryResponseRepo {
	return &MemoryResponseRepo{responses: make(map[string]map[string]model.Response)}
}

func (r *MemoryResponseRepo) SaveResponse(_ context.Context, response *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if response.UpdatedAt.IsZero() {
		response.UpdatedAt = time.Now()
	}
	if r.responses[response.SessionID] == nil {
		r.responses[response.SessionID] = make(map[string]model.Response)
	}
	r.responses[response.SessionID][response.QuestionTemplateID] = *response
	return nil
}

func (r *MemoryResponseRepo) ListBySession(_ context.Context, sessionID string) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Response, 0, len(r.responses[sessionID]))
	for _, resp := range r.responses[sessionID] {
		resp := resp
		out = append(out, &resp)
	}
	return out, nil
}

func (r *MemoryResponseRepo) DeleteBySession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.responses, sessionID)
	return nil
}

var (
	_ TemplateRepo = (*MemoryTemplateRepo)(nil)
	_ ResponseRepo = (*MemoryResponseRepo)(nil)
)
