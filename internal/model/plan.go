package model

import "time"

type GenerationState string

const (
	GenerationPending   GenerationState = "pending"
	GenerationRunning   GenerationState = "running"
	GenerationCompleted GenerationState = "completed"
	GenerationFailed    GenerationState = "failed"
)

// Terminal reports whether polling should stop
func (s GenerationState) Terminal() bool {
	return s == GenerationCompleted || s == GenerationFailed
}

// GenerationJob is returned by the generator when a plan generation starts
type GenerationJob struct {
	JobID string `json:"jobId"`
}

// GenerationStatus is the polled state of a plan generation
type GenerationStatus struct {
	JobID     string          `json:"jobId"`
	Status    GenerationState `json:"status"`
	Progress  int             `json:"progress"` // 0-100
	PlanID    string          `json:"planId,omitempty"`
	Error     string          `json:"error,omitempty"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// GenerateRequest is the payload sent to the generator
type GenerateRequest struct {
	SessionID string    `json:"sessionId"`
	Persona   Persona   `json:"persona"`
	Locale    string    `json:"locale"`
	Answers   AnswerMap `json:"answers"`
}

// PlanSection is one markdown section of a generated business plan
type PlanSection struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html,omitempty"`
	Order    int    `json:"order"`
}
