package model

import "time"

// Preview is the last rendered state of a session's preview pane
type Preview struct {
	SessionID string    `json:"sessionId"`
	Document  string    `json:"document"`
	HTML      string    `json:"html"`
	Hash      string    `json:"hash"`
	WordCount int       `json:"wordCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DocumentRequest asks for a stateless aggregation
type DocumentRequest struct {
	Questions []Question `json:"questions"`
	Answers   AnswerMap  `json:"answers"`
	Locale    string     `json:"locale,omitempty"`
}

// RenderRequest asks for a stateless render of a document or of raw answers
type RenderRequest struct {
	Document  string     `json:"document,omitempty"`
	Questions []Question `json:"questions,omitempty"`
	Answers   AnswerMap  `json:"answers,omitempty"`
	Locale    string     `json:"locale,omitempty"`
}
