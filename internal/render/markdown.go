// Package render turns generated plan markdown into HTML for the browser
// and into styled text for the terminal.
package render

import (
	"bytes"
	"sort"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"bizplanner/internal/model"
)

// PlanRenderer converts markdown sections from the plan generator to safe HTML.
type PlanRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewPlanRenderer builds a renderer with GitHub Flavored Markdown enabled.
// Raw HTML from the generator is kept by goldmark and then sanitized.
func NewPlanRenderer() *PlanRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)
	return &PlanRenderer{md: md, policy: bluemonday.UGCPolicy()}
}

// Render converts one markdown string to sanitized HTML.
func (r *PlanRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", eris.Wrap(err, "render markdown")
	}
	return r.policy.Sanitize(buf.String()), nil
}

// RenderSections fills in HTML for each section and returns them by Order.
// The input slice is not modified.
func (r *PlanRenderer) RenderSections(sections []model.PlanSection) ([]model.PlanSection, error) {
	out := make([]model.PlanSection, len(sections))
	copy(out, sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })

	for i := range out {
		h, err := r.Render(out[i].Markdown)
		if err != nil {
			return nil, eris.Wrapf(err, "section %s", out[i].Key)
		}
		out[i].HTML = h
	}
	return out, nil
}
