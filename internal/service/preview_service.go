package service

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"bizplanner/internal/cache"
	"bizplanner/internal/logging"
	"bizplanner/internal/model"
	"bizplanner/internal/preview"
)

// SessionSnapshotter returns a copy of a live wizard session
type SessionSnapshotter interface {
	Snapshot(id string) (*model.WizardSession, error)
}

// PreviewOptions tunes the preview pipeline
type PreviewOptions struct {
	// PollInterval re-renders on a timer as well as on answer changes. Zero
	// turns the timer off.
	PollInterval    time.Duration
	MinAnswerLength int
	AllowRawHTML    bool
}

type previewRun struct {
	wake chan struct{}

	mu     sync.Mutex
	latest *model.Preview
}

// PreviewService keeps each live session's preview pane current and pushes
// changes to its websocket subscribers
type PreviewService struct {
	sessions    SessionSnapshotter
	cache       cache.PreviewCache
	broadcaster Broadcaster
	opts        PreviewOptions
	log         *zap.Logger

	mu   sync.Mutex
	runs map[string]*previewRun
}

// NewPreviewService creates a new preview service
func NewPreviewService(sessions SessionSnapshotter, previewCache cache.PreviewCache, opts PreviewOptions) *PreviewService {
	return &PreviewService{
		sessions: sessions,
		cache:    previewCache,
		opts:     opts,
		log:      logging.Component("preview"),
		runs:     make(map[string]*previewRun),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *PreviewService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *PreviewService) options(locale string) preview.Options {
	return preview.Options{
		Locale:          locale,
		MinAnswerLength: s.opts.MinAnswerLength,
		AllowRawHTML:    s.opts.AllowRawHTML,
	}
}

// Build runs the aggregator and formatter over a session
func (s *PreviewService) Build(session *model.WizardSession) *model.Preview {
	opts := s.options(session.Locale)
	doc := preview.BuildDocument(session.Questions, session.Answers, opts)
	html := preview.Format(doc, opts)
	return &model.Preview{
		SessionID: session.ID,
		Document:  doc,
		HTML:      html,
		Hash:      contentHash(html),
		WordCount: preview.WordCount(session.Questions, session.Answers, opts),
		UpdatedAt: time.Now(),
	}
}

// Document aggregates answers without a session
func (s *PreviewService) Document(req *model.DocumentRequest) string {
	return preview.BuildDocument(req.Questions, req.Answers, s.options(req.Locale))
}

// Render formats a document, or aggregates answers first when no document is given
func (s *PreviewService) Render(req *model.RenderRequest) string {
	opts := s.options(req.Locale)
	doc := req.Document
	if doc == "" && len(req.Questions) > 0 {
		doc = preview.BuildDocument(req.Questions, req.Answers, opts)
	}
	return preview.Format(doc, opts)
}

// SessionStarted starts the session's refresh loop (implements SessionObserver)
func (s *PreviewService) SessionStarted(ctx context.Context, sessionID string) {
	run := &previewRun{wake: make(chan struct{}, 1)}

	s.mu.Lock()
	if _, ok := s.runs[sessionID]; ok {
		s.mu.Unlock()
		return
	}
	s.runs[sessionID] = run
	s.mu.Unlock()

	go s.loop(ctx, sessionID, run)
}

// AnswersChanged wakes the session's refresh loop (implements SessionObserver)
func (s *PreviewService) AnswersChanged(sessionID string) {
	s.mu.Lock()
	run := s.runs[sessionID]
	s.mu.Unlock()
	if run == nil {
		return
	}
	select {
	case run.wake <- struct{}{}:
	default:
	}
}

func (s *PreviewService) loop(ctx context.Context, sessionID string, run *previewRun) {
	var tick <-chan time.Time
	if s.opts.PollInterval > 0 {
		ticker := time.NewTicker(s.opts.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	s.refresh(ctx, sessionID, run)
	for {
		select {
		case <-ctx.Done():
			s.stop(ctx, sessionID, run)
			return
		case <-tick:
			s.refresh(ctx, sessionID, run)
		case <-run.wake:
			s.refresh(ctx, sessionID, run)
		}
	}
}

func (s *PreviewService) stop(ctx context.Context, sessionID string, run *previewRun) {
	s.mu.Lock()
	if s.runs[sessionID] == run {
		delete(s.runs, sessionID)
	}
	s.mu.Unlock()

	if eris.Is(context.Cause(ctx), ErrSessionClosed) {
		if err := s.cache.Delete(context.Background(), sessionID); err != nil {
			s.log.Warn("delete cached preview failed", zap.String("session", sessionID), zap.Error(err))
		}
	}
}

// refresh recomputes the preview and publishes it when the HTML changed
func (s *PreviewService) refresh(ctx context.Context, sessionID string, run *previewRun) {
	session, err := s.sessions.Snapshot(sessionID)
	if err != nil {
		return
	}
	p := s.Build(session)

	run.mu.Lock()
	unchanged := run.latest != nil && run.latest.Hash == p.Hash
	if !unchanged {
		run.latest = p
	}
	run.mu.Unlock()
	if unchanged {
		return
	}

	if err := s.cache.Set(ctx, p); err != nil && ctx.Err() == nil {
		s.log.Warn("cache preview failed", zap.String("session", sessionID), zap.Error(err))
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, MsgPreviewUpdate, p)
	}
}

// Current returns the latest preview of a session: the live one, a fresh
// render of the session, or the cached one from before a restart
func (s *PreviewService) Current(ctx context.Context, sessionID string) (*model.Preview, error) {
	s.mu.Lock()
	run := s.runs[sessionID]
	s.mu.Unlock()
	if run != nil {
		run.mu.Lock()
		latest := run.latest
		run.mu.Unlock()
		if latest != nil {
			out := *latest
			return &out, nil
		}
	}

	if session, err := s.sessions.Snapshot(sessionID); err == nil {
		return s.Build(session), nil
	}

	p, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrSessionNotFound
	}
	return p, nil
}

func contentHash(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
