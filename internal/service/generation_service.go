package service

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bizplanner/internal/cache"
	"bizplanner/internal/logging"
	"bizplanner/internal/model"
	"bizplanner/internal/render"
)

// PlanGenerator is the AI plan generator collaborator
type PlanGenerator interface {
	StartGeneration(ctx context.Context, req *model.GenerateRequest) (*model.GenerationJob, error)
	GenerationStatus(ctx context.Context, jobID string) (*model.GenerationStatus, error)
	PlanSections(ctx context.Context, planID string) ([]model.PlanSection, error)
}

// GenerationService starts plan generations and polls them until they finish
type GenerationService struct {
	generator   PlanGenerator
	wizard      *WizardService
	cache       cache.GenerationCache
	renderer    *render.PlanRenderer
	broadcaster Broadcaster
	interval    time.Duration
	log         *zap.Logger

	mu      sync.Mutex
	running map[string]bool
}

// NewGenerationService creates a new generation service
func NewGenerationService(
	generator PlanGenerator,
	wizard *WizardService,
	generationCache cache.GenerationCache,
	renderer *render.PlanRenderer,
	interval time.Duration,
) *GenerationService {
	return &GenerationService{
		generator: generator,
		wizard:    wizard,
		cache:     generationCache,
		renderer:  renderer,
		interval:  interval,
		log:       logging.Component("generation"),
		running:   make(map[string]bool),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *GenerationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start submits the session's answers to the generator and polls the job
// until it completes, fails or the session is torn down
func (s *GenerationService) Start(ctx context.Context, sessionID, userID string) (*model.GenerationStatus, error) {
	session, err := s.wizard.Get(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.running[sessionID] {
		s.mu.Unlock()
		return nil, ErrGenerationRunning
	}
	s.running[sessionID] = true
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.running, sessionID)
		s.mu.Unlock()
	}

	job, err := s.generator.StartGeneration(ctx, &model.GenerateRequest{
		SessionID: session.ID,
		Persona:   session.Persona,
		Locale:    session.Locale,
		Answers:   session.Answers,
	})
	if err != nil {
		release()
		return nil, eris.Wrapf(err, "start generation for %s", sessionID)
	}

	sessionCtx, err := s.wizard.SessionContext(sessionID)
	if err != nil {
		release()
		return nil, err
	}

	status := &model.GenerationStatus{
		JobID:     job.JobID,
		Status:    model.GenerationPending,
		CheckedAt: time.Now(),
	}
	s.record(ctx, sessionID, status)
	s.wizard.SetStatus(sessionID, model.SessionGenerating)
	s.log.Info("generation started", zap.String("session", sessionID), zap.String("job", job.JobID))

	go func() {
		defer release()
		s.poll(sessionCtx, sessionID, job.JobID)
	}()
	return status, nil
}

func (s *GenerationService) poll(ctx context.Context, sessionID, jobID string) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := s.generator.GenerationStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("generation status failed", zap.String("session", sessionID), zap.String("job", jobID), zap.Error(err))
			continue
		}

		s.record(ctx, sessionID, status)
		if status.Status.Terminal() {
			s.wizard.SetStatus(sessionID, model.SessionActive)
			s.log.Info("generation finished",
				zap.String("session", sessionID),
				zap.String("job", jobID),
				zap.String("status", string(status.Status)),
			)
			return
		}
	}
}

func (s *GenerationService) record(ctx context.Context, sessionID string, status *model.GenerationStatus) {
	if err := s.cache.Set(ctx, sessionID, status); err != nil {
		s.log.Warn("cache generation status failed", zap.String("session", sessionID), zap.Error(err))
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, MsgGenerationStatus, status)
	}
}

// Status returns the last polled status of the session's generation
func (s *GenerationService) Status(ctx context.Context, sessionID, userID string) (*model.GenerationStatus, error) {
	if _, err := s.wizard.Get(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	status, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, ErrNoGeneration
	}
	return status, nil
}

// Sections fetches a generated plan and renders its sections to HTML
func (s *GenerationService) Sections(ctx context.Context, planID string) ([]model.PlanSection, error) {
	sections, err := s.generator.PlanSections(ctx, planID)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch plan %s", planID)
	}
	return s.renderer.RenderSections(sections)
}

// SessionStarted drops the cached status once the session is torn down
// (implements SessionObserver)
func (s *GenerationService) SessionStarted(ctx context.Context, sessionID string) {
	go func() {
		<-ctx.Done()
		if !eris.Is(context.Cause(ctx), ErrSessionClosed) {
			return
		}
		if err := s.cache.Delete(context.Background(), sessionID); err != nil {
			s.log.Warn("delete cached generation failed", zap.String("session", sessionID), zap.Error(err))
		}
	}()
}

// AnswersChanged implements SessionObserver
func (s *GenerationService) AnswersChanged(string) {}
