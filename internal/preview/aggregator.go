package preview

import (
	"fmt"
	"sort"
	"strings"

	"bizplanner/internal/model"
)

// SortQuestions orders questions by step, then by order within the step.
// The input slice is not modified.
func SortQuestions(questions []model.Question) []model.Question {
	sorted := make([]model.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StepNumber != sorted[j].StepNumber {
			return sorted[i].StepNumber < sorted[j].StepNumber
		}
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// BuildDocument collects qualifying answers into the preview document.
//
// Each step with at least one qualifying answer gets a "# <title>" heading,
// followed by "## Q<n>: <question>" and the raw answer for every qualifying
// question. n is the question's 1-based position across all steps, so
// numbering stays stable while the user fills the wizard out of order.
func BuildDocument(questions []model.Question, answers model.AnswerMap, opts Options) string {
	sorted := SortQuestions(questions)

	var b strings.Builder
	for start := 0; start < len(sorted); {
		step := sorted[start].StepNumber
		end := start
		for end < len(sorted) && sorted[end].StepNumber == step {
			end++
		}

		headed := false
		for i := start; i < end; i++ {
			q := sorted[i]
			answer, ok := answers[q.ID]
			if !ok || !Qualifies(answer, opts.MinAnswerLength) {
				continue
			}
			if !headed {
				fmt.Fprintf(&b, "# %s\n\n", StepTitle(opts.Locale, step))
				headed = true
			}
			fmt.Fprintf(&b, "## Q%d: %s\n\n%s\n\n", i+1, q.QuestionText, answer)
		}
		start = end
	}
	return b.String()
}

// Steps groups questions into wizard steps in ascending order.
func Steps(questions []model.Question, locale string) []model.Step {
	var steps []model.Step
	for _, q := range SortQuestions(questions) {
		if len(steps) == 0 || steps[len(steps)-1].Number != q.StepNumber {
			steps = append(steps, model.Step{Number: q.StepNumber, Title: StepTitle(locale, q.StepNumber)})
		}
		last := &steps[len(steps)-1]
		last.Questions = append(last.Questions, q)
	}
	return steps
}

// WordCount totals the words of every answer that would appear in the document.
func WordCount(questions []model.Question, answers model.AnswerMap, opts Options) int {
	total := 0
	for _, q := range questions {
		answer, ok := answers[q.ID]
		if !ok || !Qualifies(answer, opts.MinAnswerLength) {
			continue
		}
		words, _ := Stats(answer)
		total += words
	}
	return total
}
