package preview

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CSS classes emitted by the formatter. The front-end stylesheet keys off these.
const (
	ClassSection       = "preview-section"
	ClassSectionTitle  = "preview-section-title"
	ClassSectionAccent = "preview-section-accent"
	ClassQuestionCard  = "preview-question-card"
	ClassQuestionBadge = "preview-question-number"
	ClassQuestionText  = "preview-question-text"
	ClassAnswerCard    = "preview-answer-card"
	ClassAnswerBody    = "preview-answer-body"
	ClassAnswerStats   = "preview-answer-stats"
	ClassList          = "preview-list"
	ClassLink          = "preview-link"
	ClassEmpty         = "preview-empty"
)

// nodeBuilder creates html.Node trees. Text is escaped by html.Render
// unless raw is set, in which case it is emitted verbatim.
type nodeBuilder struct {
	raw bool
}

func (b nodeBuilder) element(a atom.Atom, class string, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func (b nodeBuilder) text(s string) *html.Node {
	if b.raw {
		return &html.Node{Type: html.RawNode, Data: s}
	}
	return &html.Node{Type: html.TextNode, Data: s}
}

func (b nodeBuilder) sectionHeader(title string) *html.Node {
	return b.element(atom.Div, ClassSection,
		b.element(atom.H2, ClassSectionTitle, b.text(title)),
		b.element(atom.Div, ClassSectionAccent),
	)
}

func (b nodeBuilder) questionCard(number, question string) *html.Node {
	return b.element(atom.Div, ClassQuestionCard,
		b.element(atom.Span, ClassQuestionBadge, b.text(number)),
		b.element(atom.P, ClassQuestionText, b.text(question)),
	)
}

func (b nodeBuilder) answerCard(blocks []Block, stats string) *html.Node {
	body := b.element(atom.Div, ClassAnswerBody)
	for _, blk := range blocks {
		body.AppendChild(b.block(blk))
	}
	return b.element(atom.Div, ClassAnswerCard,
		body,
		b.element(atom.Div, ClassAnswerStats, &html.Node{Type: html.TextNode, Data: stats}),
	)
}

func (b nodeBuilder) block(blk Block) *html.Node {
	switch blk.Kind {
	case BulletList, OrderedList:
		tag := atom.Ul
		if blk.Kind == OrderedList {
			tag = atom.Ol
		}
		list := b.element(tag, ClassList)
		for _, item := range blk.Lines {
			list.AppendChild(b.element(atom.Li, "", b.inline(ParseInline(item))...))
		}
		return list
	default:
		p := b.element(atom.P, "")
		for i, line := range blk.Lines {
			if i > 0 {
				p.AppendChild(b.element(atom.Br, ""))
			}
			for _, n := range b.inline(ParseInline(line)) {
				p.AppendChild(n)
			}
		}
		return p
	}
}

func (b nodeBuilder) inline(spans []Inline) []*html.Node {
	nodes := make([]*html.Node, 0, len(spans))
	for _, sp := range spans {
		switch sp.Kind {
		case Strong:
			nodes = append(nodes, b.element(atom.Strong, "", b.inline(sp.Children)...))
		case Emphasis:
			nodes = append(nodes, b.element(atom.Em, "", b.inline(sp.Children)...))
		case Link:
			nodes = append(nodes, b.link(sp))
		default:
			nodes = append(nodes, b.text(sp.Text))
		}
	}
	return nodes
}

// link renders an anchor, or the literal markdown when the target is not a
// web or mail address.
func (b nodeBuilder) link(sp Inline) *html.Node {
	if !safeHref(sp.Href) {
		return b.text("[" + PlainText(sp.Children) + "](" + sp.Href + ")")
	}
	a := b.element(atom.A, ClassLink, b.inline(sp.Children)...)
	a.Attr = append(a.Attr,
		html.Attribute{Key: "href", Val: sp.Href},
		html.Attribute{Key: "target", Val: "_blank"},
		html.Attribute{Key: "rel", Val: "noopener noreferrer"},
	)
	return a
}

func safeHref(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto", "":
		return true
	}
	return false
}

func renderNodes(nodes []*html.Node) string {
	var buf bytes.Buffer
	for _, n := range nodes {
		// Render only fails on void elements with children, which the
		// builder never produces.
		_ = html.Render(&buf, n)
	}
	return buf.String()
}
