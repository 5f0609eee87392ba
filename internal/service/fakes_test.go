package service

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"bizplanner/internal/model"
)

type fakeTemplates struct {
	questions []model.Question
	err       error
}

func (f *fakeTemplates) ListTemplates(_ context.Context, persona model.Persona) ([]model.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Question, 0, len(f.questions))
	for _, q := range f.questions {
		q.Persona = persona
		out = append(out, q)
	}
	return out, nil
}

type fakeResponses struct {
	mu    sync.Mutex
	saved []model.Response
	fail  bool
}

func (f *fakeResponses) SaveResponse(_ context.Context, r *model.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return eris.New("storage unavailable")
	}
	f.saved = append(f.saved, *r)
	return nil
}

func (f *fakeResponses) all() []model.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Response(nil), f.saved...)
}

func (f *fakeResponses) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

type sentMessage struct {
	SessionID string
	Type      string
	Payload   interface{}
}

type recordingBroadcaster struct {
	mu           sync.Mutex
	messages     []sentMessage
	disconnected []string
}

func (b *recordingBroadcaster) BroadcastToSession(sessionID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, sentMessage{SessionID: sessionID, Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) DisconnectSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, sessionID)
}

func (b *recordingBroadcaster) ofType(msgType string) []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []sentMessage
	for _, m := range b.messages {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (b *recordingBroadcaster) disconnects() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.disconnected...)
}

func sampleQuestions() []model.Question {
	return []model.Question{
		{ID: "q3", StepNumber: 2, Order: 1, QuestionText: "Who are your competitors?", QuestionType: model.QuestionTypeText},
		{ID: "q1", StepNumber: 1, Order: 1, QuestionText: "What is your business?", QuestionType: model.QuestionTypeText},
		{ID: "q2", StepNumber: 1, Order: 2, QuestionText: "What problem do you solve?", QuestionType: model.QuestionTypeLongText},
	}
}
