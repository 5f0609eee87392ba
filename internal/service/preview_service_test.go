package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizplanner/internal/cache"
	"bizplanner/internal/model"
)

type staticSessions struct {
	mu      sync.Mutex
	session *model.WizardSession
}

func (s *staticSessions) Snapshot(id string) (*model.WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.ID != id {
		return nil, ErrSessionNotFound
	}
	out := *s.session
	out.Answers = s.session.Answers.Clone()
	return &out, nil
}

func (s *staticSessions) answer(qid, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Answers[qid] = text
}

func defaultPreviewOptions() PreviewOptions {
	return PreviewOptions{MinAnswerLength: 10}
}

func TestPreviewBuild(t *testing.T) {
	svc := NewPreviewService(&staticSessions{}, cache.NewMemoryPreviewCache(), defaultPreviewOptions())
	p := svc.Build(&model.WizardSession{
		ID:        "s1",
		Locale:    "en",
		Questions: sampleQuestions(),
		Answers:   model.AnswerMap{"q1": "This is a sufficiently long answer text.", "q3": "tiny"},
	})

	assert.Equal(t, "s1", p.SessionID)
	assert.Equal(t, "# Project Overview\n\n## Q1: What is your business?\n\nThis is a sufficiently long answer text.\n\n", p.Document)
	assert.Contains(t, p.HTML, "preview-question-card")
	assert.Len(t, p.Hash, 64)
	assert.Equal(t, 7, p.WordCount)
}

func TestPreviewRecomputesOnAnswerChange(t *testing.T) {
	f := newWizardFixture(time.Hour)
	previews := cache.NewMemoryPreviewCache()
	svc := NewPreviewService(f.svc, previews, defaultPreviewOptions())
	svc.SetBroadcaster(f.bc)
	f.svc.Subscribe(svc)

	s := f.create(t)
	ctx := context.Background()

	// The initial render is the empty placeholder.
	require.Eventually(t, func() bool { return len(f.bc.ofType(MsgPreviewUpdate)) == 1 }, time.Second, 5*time.Millisecond)
	first := f.bc.ofType(MsgPreviewUpdate)[0].Payload.(*model.Preview)
	assert.Contains(t, first.HTML, "preview-empty")

	require.NoError(t, f.svc.UpdateAnswer(ctx, s.ID, "user_1", "q1", "We bake sourdough bread every morning"))
	require.Eventually(t, func() bool { return len(f.bc.ofType(MsgPreviewUpdate)) == 2 }, time.Second, 5*time.Millisecond)
	second := f.bc.ofType(MsgPreviewUpdate)[1].Payload.(*model.Preview)
	assert.Contains(t, second.HTML, "We bake sourdough bread every morning")

	// Too short to show up: the HTML is unchanged so nothing is pushed.
	require.NoError(t, f.svc.UpdateAnswer(ctx, s.ID, "user_1", "q2", "short"))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.bc.ofType(MsgPreviewUpdate), 2)

	current, err := svc.Current(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Hash, current.Hash)
	assert.True(t, hasPreview(previews, s.ID))
}

func TestPreviewPollsOnInterval(t *testing.T) {
	sessions := &staticSessions{session: &model.WizardSession{
		ID: "s1", Locale: "fr", Questions: sampleQuestions(), Answers: model.AnswerMap{},
	}}
	bc := &recordingBroadcaster{}
	svc := NewPreviewService(sessions, cache.NewMemoryPreviewCache(), PreviewOptions{PollInterval: 20 * time.Millisecond, MinAnswerLength: 10})
	svc.SetBroadcaster(bc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.SessionStarted(ctx, "s1")
	require.Eventually(t, func() bool { return len(bc.ofType(MsgPreviewUpdate)) == 1 }, time.Second, 5*time.Millisecond)

	// No AnswersChanged call: only the ticker can notice this.
	sessions.answer("q3", "Deux boulangeries dans le quartier")
	require.Eventually(t, func() bool { return len(bc.ofType(MsgPreviewUpdate)) == 2 }, time.Second, 5*time.Millisecond)

	p := bc.ofType(MsgPreviewUpdate)[1].Payload.(*model.Preview)
	assert.True(t, strings.Contains(p.HTML, "Analyse de marché"))
}

func TestPreviewStopsWithSession(t *testing.T) {
	f := newWizardFixture(time.Hour)
	previews := cache.NewMemoryPreviewCache()
	svc := NewPreviewService(f.svc, previews, defaultPreviewOptions())
	f.svc.Subscribe(svc)
	ctx := context.Background()

	closed := f.create(t)
	kept := f.create(t)
	require.Eventually(t, func() bool { return hasPreview(previews, closed.ID) && hasPreview(previews, kept.ID) }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.svc.Teardown(ctx, closed.ID, "user_1"))
	require.Eventually(t, func() bool { return !hasPreview(previews, closed.ID) }, time.Second, 5*time.Millisecond)

	_, err := svc.Current(ctx, closed.ID)
	assert.True(t, eris.Is(err, ErrSessionNotFound))

	// Shutdown keeps the cached pane for a later resume.
	f.svc.Shutdown()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, hasPreview(previews, kept.ID))

	p, err := svc.Current(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, kept.ID, p.SessionID)
}

func TestPreviewStatelessHelpers(t *testing.T) {
	svc := NewPreviewService(&staticSessions{}, cache.NewMemoryPreviewCache(), defaultPreviewOptions())
	answers := model.AnswerMap{"q1": "This is a sufficiently long answer text."}

	doc := svc.Document(&model.DocumentRequest{Questions: sampleQuestions(), Answers: answers})
	assert.True(t, strings.HasPrefix(doc, "# Project Overview"))

	fromDoc := svc.Render(&model.RenderRequest{Document: doc})
	fromAnswers := svc.Render(&model.RenderRequest{Questions: sampleQuestions(), Answers: answers})
	assert.Equal(t, fromDoc, fromAnswers)

	assert.Contains(t, svc.Render(&model.RenderRequest{Locale: "fr"}), "Aucun contenu")
}

func hasPreview(c *cache.MemoryPreviewCache, id string) bool {
	p, _ := c.Get(context.Background(), id)
	return p != nil
}
