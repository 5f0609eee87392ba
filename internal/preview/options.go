// Package preview turns in-progress questionnaire answers into the live
// preview pane: answers are aggregated into a pseudo-markdown document,
// which is then formatted into question and answer cards.
package preview

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMinAnswerLength is the trimmed length an answer needs to show up.
const DefaultMinAnswerLength = 10

// Options controls both halves of the pipeline.
type Options struct {
	Locale          string
	MinAnswerLength int
	// AllowRawHTML passes HTML typed into answers through instead of
	// escaping it. The final fragment is then sanitized.
	AllowRawHTML bool
}

// DefaultOptions returns English output with the standard answer threshold.
func DefaultOptions() Options {
	return Options{Locale: "en", MinAnswerLength: DefaultMinAnswerLength}
}

// Qualifies reports whether an answer is long enough to appear in the document.
func Qualifies(answer string, minLength int) bool {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return false
	}
	return utf8.RuneCountInString(trimmed) >= minLength
}

var stepTitles = map[string][]string{
	"en": {
		"Project Overview",
		"Market Analysis",
		"Products and Services",
		"Marketing Strategy",
		"Operations",
		"Team and Management",
		"Financial Plan",
	},
	"fr": {
		"Présentation du projet",
		"Analyse de marché",
		"Produits et services",
		"Stratégie marketing",
		"Opérations",
		"Équipe et gestion",
		"Plan financier",
	},
}

// StepTitle returns the display title of a wizard step.
func StepTitle(locale string, step int) string {
	titles, ok := stepTitles[locale]
	if !ok {
		titles = stepTitles["en"]
	}
	if step < 1 || step > len(titles) {
		if locale == "fr" {
			return fmt.Sprintf("Étape %d", step)
		}
		return fmt.Sprintf("Step %d", step)
	}
	return titles[step-1]
}

func placeholderText(locale string) string {
	if locale == "fr" {
		return "Aucun contenu pour le moment. Répondez aux questions pour voir l'aperçu de votre plan d'affaires."
	}
	return "No content yet. Start answering questions to see your business plan preview."
}

func statsText(locale string, words, chars int) string {
	if locale == "fr" {
		return fmt.Sprintf("%d %s · %d %s", words, plural(words, "mot", "mots"), chars, plural(chars, "caractère", "caractères"))
	}
	return fmt.Sprintf("%d %s · %d %s", words, plural(words, "word", "words"), chars, plural(chars, "character", "characters"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
