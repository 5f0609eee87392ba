package model

import "time"

// Persona is the user segment that selects the question set
type Persona string

const (
	PersonaEntrepreneur Persona = "entrepreneur"
	PersonaConsultant   Persona = "consultant"
	PersonaOBNL         Persona = "obnl" // Non-profit organizations
)

// Valid reports whether p is a known persona
func (p Persona) Valid() bool {
	switch p {
	case PersonaEntrepreneur, PersonaConsultant, PersonaOBNL:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionActive     SessionStatus = "active"
	SessionGenerating SessionStatus = "generating"
	SessionClosed     SessionStatus = "closed"
)

// WizardSession is the explicit state of one questionnaire wizard
type WizardSession struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	Persona     Persona       `json:"persona"`
	Locale      string        `json:"locale"`
	CurrentStep int           `json:"currentStep"`
	Status      SessionStatus `json:"status"`
	Questions   []Question    `json:"questions"`
	Answers     AnswerMap     `json:"answers"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// CreateSessionRequest is the request body for starting a wizard
type CreateSessionRequest struct {
	Persona Persona `json:"persona"`
	Locale  string  `json:"locale,omitempty"`
}

// SetStepRequest records where the user is in the wizard
type SetStepRequest struct {
	Step int `json:"step"`
}
