// Package templates loads questionnaire templates from YAML.
package templates

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"bizplanner/internal/model"
	"bizplanner/internal/preview"
)

//go:embed default.yaml
var defaultTemplates []byte

// Set holds one question list per persona
type Set map[model.Persona][]model.Question

type entry struct {
	ID       string             `yaml:"id"`
	Step     int                `yaml:"step"`
	Order    int                `yaml:"order"`
	Type     model.QuestionType `yaml:"type"`
	Required bool               `yaml:"required"`
	Text     string             `yaml:"text"`
	Help     string             `yaml:"help"`
}

// Default returns the built-in questionnaire.
func Default() Set {
	set, err := Parse(defaultTemplates)
	if err != nil {
		panic(fmt.Sprintf("templates: built-in questionnaire is invalid: %v", err))
	}
	return set
}

// LoadFile reads a questionnaire file. An empty path yields the built-in one.
func LoadFile(path string) (Set, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read templates %s", path)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "templates %s", path)
	}
	return set, nil
}

// Parse decodes and validates a questionnaire document.
func Parse(data []byte) (Set, error) {
	var raw map[model.Persona][]entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "decode templates")
	}

	var problems []string
	seen := map[string]bool{}
	set := make(Set, len(raw))
	for persona, entries := range raw {
		if !persona.Valid() {
			problems = append(problems, fmt.Sprintf("unknown persona %q", persona))
			continue
		}
		questions := make([]model.Question, 0, len(entries))
		for i, e := range entries {
			where := fmt.Sprintf("%s[%d]", persona, i)
			switch {
			case e.ID == "":
				problems = append(problems, where+": id is required")
			case seen[e.ID]:
				problems = append(problems, fmt.Sprintf("%s: duplicate id %q", where, e.ID))
			}
			seen[e.ID] = true
			if strings.TrimSpace(e.Text) == "" {
				problems = append(problems, where+": text is required")
			}
			if e.Step < 1 || e.Step > model.StepCount {
				problems = append(problems, fmt.Sprintf("%s: step must be between 1 and %d", where, model.StepCount))
			}
			qt := e.Type
			if qt == "" {
				qt = model.QuestionTypeText
			}
			questions = append(questions, model.Question{
				ID:           e.ID,
				Persona:      persona,
				QuestionText: e.Text,
				HelpText:     e.Help,
				QuestionType: qt,
				Order:        e.Order,
				IsRequired:   e.Required,
				StepNumber:   e.Step,
			})
		}
		set[persona] = preview.SortQuestions(questions)
	}

	if len(problems) > 0 {
		return nil, eris.New("invalid templates: " + strings.Join(problems, "; "))
	}
	return set, nil
}

// Personas returns the personas present in the set in a stable order.
func (s Set) Personas() []model.Persona {
	var out []model.Persona
	for _, p := range []model.Persona{model.PersonaEntrepreneur, model.PersonaConsultant, model.PersonaOBNL} {
		if _, ok := s[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
