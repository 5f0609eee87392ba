package preview

import "strings"

// InlineKind identifies an inline span.
type InlineKind int

const (
	Text InlineKind = iota
	Strong
	Emphasis
	Link
)

// Inline is one span of inline markdown. Text spans carry Text; the others
// carry Children, and links also carry Href.
type Inline struct {
	Kind     InlineKind
	Text     string
	Href     string
	Children []Inline
}

// ParseInline tokenizes links, bold (** or __) and italic (* or _) spans.
// Anything that does not close is kept as literal text.
func ParseInline(s string) []Inline {
	var out []Inline
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			out = append(out, Inline{Kind: Text, Text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		rest := s[i:]
		switch c := s[i]; {
		case c == '[':
			if label, href, n, ok := matchLink(rest); ok {
				flush()
				out = append(out, Inline{Kind: Link, Href: href, Children: ParseInline(label)})
				i += n
				continue
			}
		case strings.HasPrefix(rest, "**") || strings.HasPrefix(rest, "__"):
			if inner, n, ok := matchStrong(rest); ok {
				flush()
				out = append(out, Inline{Kind: Strong, Children: ParseInline(inner)})
				i += n
				continue
			}
		case c == '*' || c == '_':
			if i == 0 || s[i-1] != c {
				if inner, n, ok := matchEmphasis(rest); ok {
					flush()
					out = append(out, Inline{Kind: Emphasis, Children: ParseInline(inner)})
					i += n
					continue
				}
			}
		}
		lit.WriteByte(s[i])
		i++
	}
	flush()
	return out
}

// matchLink matches [label](href) at the start of s.
func matchLink(s string) (label, href string, n int, ok bool) {
	end := strings.IndexByte(s, ']')
	if end <= 1 || strings.IndexByte(s[1:end], '[') >= 0 {
		return "", "", 0, false
	}
	if end+1 >= len(s) || s[end+1] != '(' {
		return "", "", 0, false
	}
	closeAt := strings.IndexByte(s[end+2:], ')')
	if closeAt <= 0 {
		return "", "", 0, false
	}
	href = strings.TrimSpace(s[end+2 : end+2+closeAt])
	if href == "" {
		return "", "", 0, false
	}
	return s[1:end], href, end + 2 + closeAt + 1, true
}

// matchStrong matches **x** or __x__ at the start of s, closing at the
// first matching delimiter. When the opening run is three long (***x***)
// the close moves to the end of its run so the inner text keeps its
// emphasis markers.
func matchStrong(s string) (inner string, n int, ok bool) {
	delim := s[:2]
	end := strings.Index(s[2:], delim)
	if end <= 0 {
		return "", 0, false
	}
	if len(s) > 2 && s[2] == delim[0] {
		for 2+end+2 < len(s) && s[2+end+2] == delim[0] {
			end++
		}
	}
	return s[2 : 2+end], 2 + end + 2, true
}

// matchEmphasis matches *x* or _x_ at the start of s. Neither delimiter may
// touch another copy of itself, so ** and __ never start or end emphasis.
func matchEmphasis(s string) (inner string, n int, ok bool) {
	c := s[0]
	if len(s) < 3 || s[1] == c {
		return "", 0, false
	}
	for j := 2; j < len(s); j++ {
		if s[j] != c {
			continue
		}
		if s[j-1] == c || (j+1 < len(s) && s[j+1] == c) {
			continue
		}
		return s[1:j], j + 1, true
	}
	return "", 0, false
}

// PlainText flattens spans back to their visible text.
func PlainText(spans []Inline) string {
	var b strings.Builder
	for _, sp := range spans {
		if sp.Kind == Text {
			b.WriteString(sp.Text)
			continue
		}
		b.WriteString(PlainText(sp.Children))
	}
	return b.String()
}
