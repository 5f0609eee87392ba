package model

// QuestionType defines how a question is answered in the wizard
type QuestionType string

const (
	QuestionTypeText     QuestionType = "TEXT"     // Free text, feeds the preview
	QuestionTypeLongText QuestionType = "LONGTEXT" // Multi-paragraph free text
	QuestionTypeNumber   QuestionType = "NUMBER"   // Financial drivers and other figures
	QuestionTypeChoice   QuestionType = "CHOICE"   // Single choice among options
)

// Question is one questionnaire entry loaded from the template for a persona
type Question struct {
	ID           string       `json:"id" bson:"_id,omitempty"`
	Persona      Persona      `json:"persona,omitempty" bson:"persona,omitempty"`
	QuestionText string       `json:"questionText" bson:"questionText"`
	HelpText     string       `json:"helpText,omitempty" bson:"helpText,omitempty"`
	QuestionType QuestionType `json:"questionType" bson:"questionType"`
	Order        int          `json:"order" bson:"order"`
	IsRequired   bool         `json:"isRequired" bson:"isRequired"`
	StepNumber   int          `json:"stepNumber" bson:"stepNumber"` // 1..7
	ResponseText string       `json:"responseText,omitempty" bson:"-"`
	IsAnswered   bool         `json:"isAnswered" bson:"-"`
}

// Step is a derived grouping of questions sharing a StepNumber
type Step struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// StepCount is the number of fixed wizard stages
const StepCount = 7
