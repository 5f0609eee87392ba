package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizplanner/internal/model"
)

const emptyPlaceholder = `<p class="preview-empty">No content yet. Start answering questions to see your business plan preview.</p>`

func TestFormatEmptyDocumentYieldsPlaceholder(t *testing.T) {
	assert.Equal(t, emptyPlaceholder, Format("", DefaultOptions()))
	assert.Equal(t, emptyPlaceholder, Format("\n\n   \n", DefaultOptions()))

	doc := BuildDocument([]model.Question{q("q1", 1, 1, "What is your business?")}, model.AnswerMap{"q1": "A"}, DefaultOptions())
	assert.Equal(t, emptyPlaceholder, Format(doc, DefaultOptions()))
}

func TestFormatSingleQuestion(t *testing.T) {
	questions := []model.Question{q("q1", 1, 1, "What is your business?")}
	answers := model.AnswerMap{"q1": "This is a sufficiently long answer text."}

	got := Format(BuildDocument(questions, answers, DefaultOptions()), DefaultOptions())

	want := `<div class="preview-section"><h2 class="preview-section-title">Project Overview</h2><div class="preview-section-accent"></div></div>` +
		`<div class="preview-question-card"><span class="preview-question-number">1</span><p class="preview-question-text">What is your business?</p></div>` +
		`<div class="preview-answer-card"><div class="preview-answer-body"><p>This is a sufficiently long answer text.</p></div>` +
		`<div class="preview-answer-stats">7 words · 40 characters</div></div>`
	assert.Equal(t, want, got)
}

func TestFormatOneCardPairPerQuestion(t *testing.T) {
	doc := "# Market\n\n## Q2: Who buys?\n\nSmall businesses in Montreal.\n\n## Q5: How big is the market?\n\n  About 12 000 firms.  \n\n"

	got := Format(doc, DefaultOptions())

	assert.Equal(t, 2, strings.Count(got, `class="preview-question-card"`))
	assert.Equal(t, 2, strings.Count(got, `class="preview-answer-card"`))
	assert.Contains(t, got, `<span class="preview-question-number">2</span>`)
	assert.Contains(t, got, `<span class="preview-question-number">5</span>`)
	assert.Contains(t, got, "4 words · 19 characters")
}

func TestFormatStatsMatchWhitespaceSplit(t *testing.T) {
	body := "  one\ttwo\n\nthree   four  "
	words, chars := Stats(body)
	assert.Equal(t, 4, words)
	assert.Equal(t, len(strings.TrimSpace(body)), chars)

	got := Format("## Q1: Count\n"+body, DefaultOptions())
	assert.Contains(t, got, "4 words · 21 characters")
}

func TestFormatBulletList(t *testing.T) {
	got := Format("## Q1: Offer\n- item one\n- item **two**", DefaultOptions())

	assert.Contains(t, got, `<ul class="preview-list"><li>item one</li><li>item <strong>two</strong></li></ul>`)
	assert.NotContains(t, got, "<p>")
}

func TestFormatOrderedAndMixedBlocks(t *testing.T) {
	body := "Intro line\nsecond line\n1. first\n2. second\n* star bullet\n• dot bullet\n\nClosing paragraph"
	got := Format("## Q1: Steps\n"+body, DefaultOptions())

	assert.Contains(t, got, `<p>Intro line<br/>second line</p>`)
	assert.Contains(t, got, `<ol class="preview-list"><li>first</li><li>second</li></ol>`)
	assert.Contains(t, got, `<ul class="preview-list"><li>star bullet</li><li>dot bullet</li></ul>`)
	assert.Contains(t, got, `<p>Closing paragraph</p>`)
}

func TestFormatInlineOrderIndependent(t *testing.T) {
	for _, body := range []string{"**bold** and *italic*", "*italic* and **bold**", "__bold__ and _italic_"} {
		got := Format("## Q1: Style\n"+body, DefaultOptions())
		assert.Contains(t, got, "<strong>bold</strong>", body)
		assert.Contains(t, got, "<em>italic</em>", body)
	}
}

func TestFormatStackedBoldItalic(t *testing.T) {
	got := Format("## Q1: Tone\nWe are ***both*** fast", DefaultOptions())
	assert.Contains(t, got, "<strong><em>both</em></strong>")
	assert.NotContains(t, got, "<strong>*both</strong>")
}

func TestFormatLinks(t *testing.T) {
	got := Format("## Q1: Site\nSee [our site](https://example.com/a?b=1&c=2) now", DefaultOptions())
	assert.Contains(t, got, `<a class="preview-link" href="https://example.com/a?b=1&amp;c=2" target="_blank" rel="noopener noreferrer">our site</a>`)

	got = Format("## Q1: Site\nSee [bad](javascript:alert(1)) now", DefaultOptions())
	assert.NotContains(t, got, "<a ")
	assert.Contains(t, got, "[bad](javascript:alert(1)")
}

func TestFormatEscapesHTMLByDefault(t *testing.T) {
	got := Format("## Q1: <b>Question</b>\n<script>alert('x')</script> is not run", DefaultOptions())

	assert.NotContains(t, got, "<script>")
	assert.NotContains(t, got, "<b>")
	assert.Contains(t, got, "&lt;script&gt;")
	assert.Contains(t, got, "&lt;b&gt;Question&lt;/b&gt;")
}

func TestFormatRawHTMLIsSanitized(t *testing.T) {
	opts := DefaultOptions()
	opts.AllowRawHTML = true

	got := Format("## Q1: Markup\nKeep <u>this</u> but not <script>alert(1)</script> that", opts)

	assert.Contains(t, got, "<u>this</u>")
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, `class="preview-answer-card"`)
}

func TestFormatMalformedInputRendersAsText(t *testing.T) {
	inputs := []string{
		"## Not a question\nstray text",
		"## Q: missing number\n",
		"**unclosed bold and *dangling\n## Q1:\n",
		"# \n## Q1: x\n[link](\n***\n___\n",
		"## Q1: Pending\n* \n-\n1.\n",
		"text before any heading",
	}
	for _, in := range inputs {
		require.NotPanics(t, func() { Format(in, DefaultOptions()) }, in)
		assert.NotEmpty(t, Format(in, DefaultOptions()), in)
	}

	got := Format("## Q1: Pending\n**unclosed bold and *dangling", DefaultOptions())
	assert.Contains(t, got, "**unclosed bold and *dangling")
}

func TestFormatNonQuestionHeadingIsAnswerText(t *testing.T) {
	got := Format("## Q1: Main\nfirst part\n## Overview notes\nsecond part", DefaultOptions())

	assert.Equal(t, 1, strings.Count(got, `class="preview-question-card"`))
	assert.Contains(t, got, "## Overview notes")
}

func TestFormatSectionResetsPendingQuestion(t *testing.T) {
	got := Format("# One\n## Q1: A\nanswer a\n# Two\norphan line\n", DefaultOptions())

	assert.Equal(t, 1, strings.Count(got, `class="preview-answer-card"`))
	assert.NotContains(t, got, "orphan line")
	assert.Contains(t, got, ">Two</h2>")
}

func TestFormatIsIdempotent(t *testing.T) {
	doc := "# Step\n\n## Q1: A?\n\n- x\n- **y**\n\n## Q2: B?\n\nPlain [link](http://a.b) _it_\n\n"
	assert.Equal(t, Format(doc, DefaultOptions()), Format(doc, DefaultOptions()))
}

func TestFormatFrenchLocale(t *testing.T) {
	opts := DefaultOptions()
	opts.Locale = "fr"

	assert.Contains(t, Format("", opts), "Aucun contenu pour le moment.")
	assert.Contains(t, Format("## Q1: Q\nun seul", opts), "2 mots · 7 caractères")
	assert.Contains(t, Format("## Q1: Q\nmot", opts), "1 mot · 3 caractères")
}
