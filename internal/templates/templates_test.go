package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizplanner/internal/model"
)

func TestDefaultCoversEveryPersona(t *testing.T) {
	set := Default()
	assert.Equal(t, []model.Persona{model.PersonaEntrepreneur, model.PersonaConsultant, model.PersonaOBNL}, set.Personas())

	for persona, questions := range set {
		steps := map[int]bool{}
		for _, q := range questions {
			assert.Equal(t, persona, q.Persona)
			steps[q.StepNumber] = true
		}
		assert.Len(t, steps, model.StepCount, "persona %s", persona)
	}
}

func TestParseSortsAndDefaultsType(t *testing.T) {
	set, err := Parse([]byte(`
obnl:
  - id: b
    step: 2
    order: 1
    text: Second
  - id: a
    step: 1
    order: 5
    text: First
    type: LONGTEXT
    required: true
`))
	require.NoError(t, err)

	questions := set[model.PersonaOBNL]
	require.Len(t, questions, 2)
	assert.Equal(t, "a", questions[0].ID)
	assert.True(t, questions[0].IsRequired)
	assert.Equal(t, model.QuestionTypeLongText, questions[0].QuestionType)
	assert.Equal(t, model.QuestionTypeText, questions[1].QuestionType)
}

func TestParseReportsEveryProblem(t *testing.T) {
	_, err := Parse([]byte(`
pirate:
  - id: x
    step: 1
    text: Arr
entrepreneur:
  - id: dup
    step: 0
    text: One
  - id: dup
    step: 1
    text: "  "
`))
	require.Error(t, err)
	for _, want := range []string{
		`unknown persona "pirate"`,
		"entrepreneur[0]: step must be between 1 and 7",
		`entrepreneur[1]: duplicate id "dup"`,
		"entrepreneur[1]: text is required",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("consultant:\n  - id: c1\n    step: 3\n    text: Portfolio?\n"), 0o600))

	set, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, set[model.PersonaConsultant], 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := LoadFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, def[model.PersonaEntrepreneur])
}

func TestParseFixture(t *testing.T) {
	f, err := ParseFixture([]byte(`
locale: fr
questions:
  - id: b
    step: 2
    text: Second
  - id: a
    text: First
answers:
  a: Une réponse assez longue
`))
	require.NoError(t, err)

	assert.Equal(t, "fr", f.Locale)
	require.Len(t, f.Questions, 2)
	assert.Equal(t, "a", f.Questions[0].ID)
	assert.Equal(t, 1, f.Questions[0].StepNumber)
	assert.Equal(t, "Une réponse assez longue", f.Answers["a"])
}

func TestParseFixtureRejectsEmpty(t *testing.T) {
	_, err := ParseFixture([]byte("locale: en\n"))
	assert.Error(t, err)

	_, err = ParseFixture([]byte("questions:\n  - text: no id\n"))
	assert.Error(t, err)
}
