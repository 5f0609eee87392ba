package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bizplanner/internal/logging"
	"bizplanner/internal/preview"
	"bizplanner/internal/render"
	"bizplanner/internal/templates"
)

const (
	formatDocument = "document"
	formatHTML     = "html"
	formatTerminal = "terminal"
)

type renderOptions struct {
	format    string
	style     string
	width     int
	locale    string
	fallback  string
	minLength int
	rawHTML   bool
}

func newRenderCmd() *cobra.Command {
	var (
		opts  renderOptions
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "render FIXTURE",
		Short: "Render the answer preview of a questionnaire fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			if !cmd.Flags().Changed("min-length") {
				opts.minLength = cfg.Preview.MinAnswerLength
			}
			if !cmd.Flags().Changed("raw-html") {
				opts.rawHTML = cfg.Preview.AllowRawHTML
			}
			opts.fallback = cfg.Locale
			switch opts.format {
			case formatDocument, formatHTML, formatTerminal:
			default:
				return eris.Errorf("unknown format %q (document, html, terminal)", opts.format)
			}

			out := cmd.OutOrStdout()
			if !watch {
				return renderFixture(out, args[0], opts)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchFixture(ctx, out, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", formatTerminal, "output: document, html or terminal")
	cmd.Flags().StringVar(&opts.style, "style", render.StyleDark, "terminal style: dark, light or notty")
	cmd.Flags().IntVar(&opts.width, "width", 80, "terminal wrap width")
	cmd.Flags().StringVar(&opts.locale, "locale", "", "locale override (en, fr)")
	cmd.Flags().IntVar(&opts.minLength, "min-length", preview.DefaultMinAnswerLength, "minimum answer length shown")
	cmd.Flags().BoolVar(&opts.rawHTML, "raw-html", false, "keep sanitized HTML typed into answers")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-render whenever the fixture changes")
	return cmd
}

// renderFixture writes one preview of the fixture at path.
func renderFixture(w io.Writer, path string, opts renderOptions) error {
	f, err := templates.LoadFixture(path)
	if err != nil {
		return err
	}

	popts := preview.Options{
		Locale:          firstNonEmpty(opts.locale, f.Locale, opts.fallback, "en"),
		MinAnswerLength: opts.minLength,
		AllowRawHTML:    opts.rawHTML,
	}

	doc := preview.BuildDocument(f.Questions, f.Answers, popts)

	switch opts.format {
	case formatDocument:
		_, err = fmt.Fprintln(w, doc)
	case formatHTML:
		_, err = fmt.Fprintln(w, preview.Format(doc, popts))
	default:
		var out string
		out, err = render.Terminal(doc, opts.style, opts.width)
		if err != nil {
			return err
		}
		words := preview.WordCount(f.Questions, f.Answers, popts)
		fmt.Fprintln(w, banner(filepath.Base(path), fmt.Sprintf("%d words", words)))
		_, err = fmt.Fprintln(w, out)
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// watchFixture re-renders whenever the fixture is written. The parent
// directory is watched because editors often replace files on save.
func watchFixture(ctx context.Context, w io.Writer, path string, opts renderOptions) error {
	log := logging.Component("render")

	abs, err := filepath.Abs(path)
	if err != nil {
		return eris.Wrapf(err, "resolve %s", path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return eris.Wrapf(err, "watch %s", filepath.Dir(abs))
	}

	draw := func() {
		if err := renderFixture(w, abs, opts); err != nil {
			fmt.Fprintln(w, errStyle.Render(err.Error()))
		}
	}
	draw()

	// Coalesce bursts of events from a single save.
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(100 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		case <-pending:
			pending = nil
			draw()
		}
	}
}
