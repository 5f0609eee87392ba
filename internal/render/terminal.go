package render

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/rotisserie/eris"
)

// Terminal styles accepted by Terminal.
const (
	StyleDark  = "dark"
	StyleLight = "light"
	StylePlain = "notty"
)

var (
	termMu        sync.Mutex
	termRenderers = map[string]*glamour.TermRenderer{}
)

// Terminal renders markdown for display in a terminal. Renderers are cached
// per style and wrap width.
func Terminal(markdown, style string, width int) (string, error) {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", nil
	}
	if width < 20 {
		width = 20
	}
	if style == "" {
		style = StyleDark
	}

	key := style + ":" + strconv.Itoa(width)
	termMu.Lock()
	r := termRenderers[key]
	if r == nil {
		var err error
		// WithAutoStyle queries the terminal and can block; use a fixed style.
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			termMu.Unlock()
			return "", eris.Wrapf(err, "terminal renderer %s", key)
		}
		termRenderers[key] = r
	}
	termMu.Unlock()

	out, err := r.Render(markdown)
	if err != nil {
		return "", eris.Wrap(err, "render terminal markdown")
	}
	return strings.TrimRight(out, "\n"), nil
}
