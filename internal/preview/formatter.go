package preview

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var questionHeading = regexp.MustCompile(`^Q(\d+):\s*(.+)$`)

// rawPolicy cleans fragments produced with AllowRawHTML.
var rawPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	return p
}()

// formatter walks the preview document line by line.
type formatter struct {
	opts  Options
	build nodeBuilder
	out   []*html.Node

	section        string
	questionNumber string
	questionText   string
	answer         []string
}

// Format renders a preview document into question and answer cards.
// It never fails: anything it cannot interpret is rendered as text, and a
// document without content yields a placeholder paragraph.
func Format(doc string, opts Options) string {
	f := &formatter{opts: opts, build: nodeBuilder{raw: opts.AllowRawHTML}}
	for _, line := range strings.Split(normalizeNewlines(doc), "\n") {
		f.line(line)
	}
	f.flush()

	if len(f.out) == 0 {
		placeholder := nodeBuilder{}.element(atom.P, ClassEmpty, &html.Node{Type: html.TextNode, Data: placeholderText(opts.Locale)})
		return renderNodes([]*html.Node{placeholder})
	}

	out := renderNodes(f.out)
	if opts.AllowRawHTML {
		out = rawPolicy.Sanitize(out)
	}
	return out
}

func (f *formatter) line(line string) {
	switch {
	case strings.HasPrefix(line, "# "):
		f.flush()
		f.questionNumber, f.questionText = "", ""
		f.section = strings.TrimSpace(line[2:])
		f.out = append(f.out, f.build.sectionHeader(f.section))
		return
	case strings.HasPrefix(line, "## "):
		if m := questionHeading.FindStringSubmatch(strings.TrimSpace(line[3:])); m != nil {
			f.flush()
			f.questionNumber = m[1]
			f.questionText = strings.TrimSpace(m[2])
			return
		}
	}
	if f.questionText != "" {
		f.answer = append(f.answer, line)
	}
}

// flush emits the pending question and answer cards, if there is an answer.
func (f *formatter) flush() {
	defer func() { f.answer = nil }()

	body := strings.TrimSpace(strings.Join(f.answer, "\n"))
	if body == "" || f.questionText == "" {
		return
	}
	words, chars := Stats(body)
	f.out = append(f.out,
		f.build.questionCard(f.questionNumber, f.questionText),
		f.build.answerCard(ParseBlocks(body), statsText(f.opts.Locale, words, chars)),
	)
}

// Stats returns the word and character counts shown under an answer.
func Stats(body string) (words, chars int) {
	trimmed := strings.TrimSpace(body)
	return len(strings.Fields(trimmed)), utf8.RuneCountInString(trimmed)
}

