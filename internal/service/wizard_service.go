package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bizplanner/internal/cache"
	"bizplanner/internal/debounce"
	"bizplanner/internal/logging"
	"bizplanner/internal/model"
	"bizplanner/internal/preview"
)

// TemplateSource loads the questionnaire for a persona
type TemplateSource interface {
	ListTemplates(ctx context.Context, persona model.Persona) ([]model.Question, error)
}

// ResponseStore persists one debounced answer
type ResponseStore interface {
	SaveResponse(ctx context.Context, response *model.Response) error
}

// SessionObserver is told about wizard lifecycle events. The context given
// to SessionStarted is cancelled when the session goes away; its cause is
// ErrSessionClosed or ErrShuttingDown.
type SessionObserver interface {
	SessionStarted(ctx context.Context, sessionID string)
	AnswersChanged(sessionID string)
}

// WizardOptions tunes the wizard lifecycle
type WizardOptions struct {
	SaveDebounce time.Duration
	SaveTimeout  time.Duration
	Locale       string
}

type wizardState struct {
	mu      sync.Mutex
	session *model.WizardSession
	// storeMu orders cache writes against the delete in Teardown.
	storeMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelCauseFunc
	saves   *debounce.Debouncer
}

// WizardService owns live wizard sessions: questions, the answer map,
// the resume step and the debounced persistence of answers
type WizardService struct {
	templates   TemplateSource
	responses   ResponseStore
	cache       cache.SessionCache
	broadcaster Broadcaster
	observers   []SessionObserver
	opts        WizardOptions
	log         *zap.Logger

	mu       sync.Mutex
	sessions map[string]*wizardState
}

// NewWizardService creates a new wizard service
func NewWizardService(templates TemplateSource, responses ResponseStore, sessionCache cache.SessionCache, opts WizardOptions) *WizardService {
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 30 * time.Second
	}
	if opts.Locale == "" {
		opts.Locale = "en"
	}
	return &WizardService{
		templates: templates,
		responses: responses,
		cache:     sessionCache,
		opts:      opts,
		log:       logging.Component("wizard"),
		sessions:  make(map[string]*wizardState),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *WizardService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Subscribe registers an observer. Call before serving requests.
func (s *WizardService) Subscribe(o SessionObserver) {
	s.observers = append(s.observers, o)
}

// Create starts a wizard for the persona with its questionnaire template
func (s *WizardService) Create(ctx context.Context, userID string, req *model.CreateSessionRequest) (*model.WizardSession, error) {
	if !req.Persona.Valid() {
		return nil, ErrInvalidPersona
	}
	locale := req.Locale
	if locale == "" {
		locale = s.opts.Locale
	}
	if locale != "en" && locale != "fr" {
		return nil, ErrInvalidLocale
	}

	questions, err := s.templates.ListTemplates(ctx, req.Persona)
	if err != nil {
		return nil, eris.Wrapf(err, "load template for %s", req.Persona)
	}
	if len(questions) == 0 {
		return nil, ErrNoTemplates
	}

	now := time.Now()
	session := &model.WizardSession{
		ID:          uuid.New().String(),
		UserID:      userID,
		Persona:     req.Persona,
		Locale:      locale,
		CurrentStep: 1,
		Status:      model.SessionActive,
		Questions:   preview.SortQuestions(questions),
		Answers:     model.AnswerMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	st := s.activate(session)
	s.store(ctx, st)
	s.log.Info("wizard started",
		zap.String("session", session.ID),
		zap.String("persona", string(session.Persona)),
		zap.Int("questions", len(questions)),
	)
	return s.snapshot(st), nil
}

// activate makes a session live and notifies observers. A session that is
// already live is returned as is.
func (s *WizardService) activate(session *model.WizardSession) *wizardState {
	s.mu.Lock()
	if existing, ok := s.sessions[session.ID]; ok {
		s.mu.Unlock()
		return existing
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	st := &wizardState{
		session: session,
		ctx:     ctx,
		cancel:  cancel,
		saves:   debounce.New(s.opts.SaveDebounce),
	}
	s.sessions[session.ID] = st
	s.mu.Unlock()

	for _, o := range s.observers {
		o.SessionStarted(ctx, session.ID)
	}
	return st
}

func (s *WizardService) live(id string) *wizardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// state returns the live session, resuming it from the cache if needed
func (s *WizardService) state(ctx context.Context, id, userID string) (*wizardState, error) {
	st := s.live(id)
	if st == nil {
		session, err := s.cache.Get(ctx, id)
		if err != nil {
			return nil, eris.Wrapf(err, "resume wizard %s", id)
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
		st = s.activate(session)
		s.log.Info("wizard resumed", zap.String("session", id))
	}

	st.mu.Lock()
	owner := st.session.UserID
	st.mu.Unlock()
	if owner != userID {
		return nil, ErrForbidden
	}
	return st, nil
}

func (s *WizardService) snapshot(st *wizardState) *model.WizardSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := *st.session
	out.Questions = append([]model.Question(nil), st.session.Questions...)
	out.Answers = st.session.Answers.Clone()
	return &out
}

// store writes the session to the cache. Failures are logged: the in-memory
// answer map stays the source of truth. A session that has been torn down
// or shut down is never written back.
func (s *WizardService) store(ctx context.Context, st *wizardState) {
	st.storeMu.Lock()
	defer st.storeMu.Unlock()
	if st.ctx.Err() != nil {
		return
	}
	snap := s.snapshot(st)
	if err := s.cache.Set(ctx, snap); err != nil {
		s.log.Warn("cache wizard failed", zap.String("session", snap.ID), zap.Error(err))
	}
}

// Get returns a copy of the user's session
func (s *WizardService) Get(ctx context.Context, id, userID string) (*model.WizardSession, error) {
	st, err := s.state(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(st), nil
}

// Snapshot returns a copy of a live session without an ownership check
func (s *WizardService) Snapshot(id string) (*model.WizardSession, error) {
	st := s.live(id)
	if st == nil {
		return nil, ErrSessionNotFound
	}
	return s.snapshot(st), nil
}

// SessionContext returns the context cancelled when the session goes away
func (s *WizardService) SessionContext(id string) (context.Context, error) {
	st := s.live(id)
	if st == nil {
		return nil, ErrSessionNotFound
	}
	return st.ctx, nil
}

// List returns the user's resumable sessions, most recently updated first
func (s *WizardService) List(ctx context.Context, userID string) ([]*model.WizardSession, error) {
	ids, err := s.cache.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.WizardSession, 0, len(ids))
	for _, id := range ids {
		if st := s.live(id); st != nil {
			sessions = append(sessions, s.snapshot(st))
			continue
		}
		session, err := s.cache.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if session != nil && session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// UpdateAnswer records an edit, schedules its debounced save and tells
// observers the answer map changed
func (s *WizardService) UpdateAnswer(ctx context.Context, id, userID, questionID, text string) error {
	st, err := s.state(ctx, id, userID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	if questionIndex(st.session.Questions, questionID) < 0 {
		st.mu.Unlock()
		return ErrQuestionNotFound
	}
	st.session.Answers[questionID] = text
	st.session.UpdatedAt = time.Now()
	st.mu.Unlock()

	s.store(ctx, st)
	for _, o := range s.observers {
		o.AnswersChanged(id)
	}
	st.saves.Trigger(questionID, func() { s.persist(id, st, questionID) })
	return nil
}

// persist saves the latest text of one answer and reports the outcome
func (s *WizardService) persist(id string, st *wizardState, questionID string) {
	st.mu.Lock()
	text := st.session.Answers[questionID]
	st.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
	defer cancel()

	now := time.Now()
	err := s.responses.SaveResponse(ctx, &model.Response{
		SessionID:          id,
		QuestionTemplateID: questionID,
		ResponseText:       text,
		UpdatedAt:          now,
	})

	status := model.SaveStatus{QuestionID: questionID, OK: err == nil, SavedAt: now}
	if err != nil {
		s.log.Error("save answer failed",
			zap.String("session", id),
			zap.String("question", questionID),
			zap.Error(err),
		)
		status.Error = SaveFailedMessage
	} else if s.live(id) == st {
		st.mu.Lock()
		if i := questionIndex(st.session.Questions, questionID); i >= 0 {
			st.session.Questions[i].ResponseText = text
			st.session.Questions[i].IsAnswered = strings.TrimSpace(text) != ""
		}
		st.mu.Unlock()
		s.store(ctx, st)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(id, MsgSaveStatus, status)
	}
}

// SetStep records the step the user is on so the wizard can resume there
func (s *WizardService) SetStep(ctx context.Context, id, userID string, step int) (*model.WizardSession, error) {
	if step < 1 || step > model.StepCount {
		return nil, ErrInvalidStep
	}
	st, err := s.state(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.session.CurrentStep = step
	st.session.UpdatedAt = time.Now()
	st.mu.Unlock()

	s.store(ctx, st)
	return s.snapshot(st), nil
}

// SetStatus changes the lifecycle status of a live session
func (s *WizardService) SetStatus(id string, status model.SessionStatus) {
	st := s.live(id)
	if st == nil {
		return
	}
	st.mu.Lock()
	st.session.Status = status
	st.session.UpdatedAt = time.Now()
	st.mu.Unlock()
	s.store(context.Background(), st)
}

// Teardown ends a session: pending saves are dropped, the session context
// is cancelled and subscribers are disconnected
func (s *WizardService) Teardown(ctx context.Context, id, userID string) error {
	st, err := s.state(ctx, id, userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.sessions[id] == st {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	st.saves.Stop()
	st.cancel(ErrSessionClosed)

	// Waits for an in-flight store so it cannot recreate the entry.
	st.storeMu.Lock()
	err = s.cache.Delete(ctx, id)
	st.storeMu.Unlock()
	if err != nil {
		s.log.Warn("delete cached wizard failed", zap.String("session", id), zap.Error(err))
	}
	if s.broadcaster != nil {
		s.broadcaster.DisconnectSession(id)
	}
	s.log.Info("wizard closed", zap.String("session", id))
	return nil
}

// Shutdown flushes pending saves and stops every live session. Session
// state stays cached so users can resume after a restart.
func (s *WizardService) Shutdown() {
	s.mu.Lock()
	states := make([]*wizardState, 0, len(s.sessions))
	for _, st := range s.sessions {
		states = append(states, st)
	}
	s.mu.Unlock()

	for _, st := range states {
		st.mu.Lock()
		ids := make([]string, 0, len(st.session.Questions))
		for _, q := range st.session.Questions {
			ids = append(ids, q.ID)
		}
		st.mu.Unlock()

		for _, qid := range ids {
			st.saves.Flush(qid)
		}
		st.saves.Stop()
		st.cancel(ErrShuttingDown)
	}

	s.mu.Lock()
	for _, st := range states {
		if s.sessions[st.session.ID] == st {
			delete(s.sessions, st.session.ID)
		}
	}
	s.mu.Unlock()
}

func questionIndex(questions []model.Question, id string) int {
	for i := range questions {
		if questions[i].ID == id {
			return i
		}
	}
	return -1
}
