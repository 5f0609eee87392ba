package templates

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"bizplanner/internal/model"
	"bizplanner/internal/preview"
)

// Fixture is an offline questionnaire with answers, used to preview a plan
// without a running server
type Fixture struct {
	Locale    string
	Questions []model.Question
	Answers   model.AnswerMap
}

type fixtureFile struct {
	Locale    string            `yaml:"locale"`
	Questions []entry           `yaml:"questions"`
	Answers   map[string]string `yaml:"answers"`
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read fixture %s", path)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, eris.Wrapf(err, "fixture %s", path)
	}
	return f, nil
}

// ParseFixture decodes a fixture document. Answers to unknown questions are
// kept; the aggregator ignores them.
func ParseFixture(data []byte) (*Fixture, error) {
	var raw fixtureFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "decode fixture")
	}
	if len(raw.Questions) == 0 {
		return nil, eris.New("fixture has no questions")
	}

	questions := make([]model.Question, 0, len(raw.Questions))
	for i, e := range raw.Questions {
		if e.ID == "" {
			return nil, eris.Errorf("questions[%d]: id is required", i)
		}
		step := e.Step
		if step == 0 {
			step = 1
		}
		questions = append(questions, model.Question{
			ID:           e.ID,
			QuestionText: e.Text,
			HelpText:     e.Help,
			QuestionType: e.Type,
			Order:        e.Order,
			IsRequired:   e.Required,
			StepNumber:   step,
		})
	}

	return &Fixture{
		Locale:    raw.Locale,
		Questions: preview.SortQuestions(questions),
		Answers:   model.AnswerMap(raw.Answers),
	}, nil
}
