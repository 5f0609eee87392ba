package service

import "github.com/rotisserie/eris"

var (
	ErrInvalidCredentials = eris.New("invalid username or password")
	ErrInvalidToken       = eris.New("invalid or expired token")

	ErrSessionNotFound   = eris.New("wizard session not found")
	ErrForbidden         = eris.New("wizard session belongs to another user")
	ErrQuestionNotFound  = eris.New("question not found in session")
	ErrInvalidPersona    = eris.New("persona must be entrepreneur, consultant or obnl")
	ErrInvalidLocale     = eris.New("locale must be en or fr")
	ErrInvalidStep       = eris.New("step must be between 1 and 7")
	ErrNoTemplates       = eris.New("no questionnaire template for persona")
	ErrGenerationRunning = eris.New("a plan generation is already running")
	ErrNoGeneration      = eris.New("no plan generation started for session")

	// ErrSessionClosed is the cancel cause of a torn down session's context
	ErrSessionClosed = eris.New("wizard session closed")
	// ErrShuttingDown is the cancel cause when the server stops; state stays cached
	ErrShuttingDown = eris.New("server shutting down")
)

// SaveFailedMessage is shown to the user when a debounced save fails
const SaveFailedMessage = "Unable to save your answer. Please try again."
