package model

import "time"

// AnswerMap maps a question id to its current free-text answer
type AnswerMap map[string]string

// Clone returns an independent copy safe to read outside the session lock
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Response is a persisted answer for one question of one wizard session
type Response struct {
	SessionID          string    `json:"sessionId" bson:"sessionId"`
	QuestionTemplateID string    `json:"questionTemplateId" bson:"questionTemplateId"`
	ResponseText       string    `json:"responseText" bson:"responseText"`
	UpdatedAt          time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SaveStatus is pushed to the client after a debounced save completes
type SaveStatus struct {
	QuestionID string    `json:"questionId"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	SavedAt    time.Time `json:"savedAt"`
}

// UpdateAnswerRequest is the request body for an answer edit
type UpdateAnswerRequest struct {
	Text string `json:"text"`
}
