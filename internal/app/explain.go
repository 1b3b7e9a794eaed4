package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/engine/resolution"
	"go.trai.ch/fsroute/internal/ui/output"
	"go.trai.ch/fsroute/internal/ui/style"
	"go.trai.ch/zerr"
)

// ExplainOptions configures the explain command.
type ExplainOptions struct {
	ConfigOptions
	// Path is the request path to explain.
	Path string
}

var matchStyle = lipgloss.NewStyle().Bold(true).Foreground(style.Green)

// Explain writes the annotated candidate list of a request path to w. Directory configs
// are loaded but handlers are not.
func (a *App) Explain(ctx context.Context, w io.Writer, opts ExplainOptions) error {
	cfg, err := a.loadConfig(opts.ConfigOptions)
	if err != nil {
		return err
	}

	routerCfg := cfg.Router
	routerCfg.LoadOnDemand = true
	rt := a.newRouter(routerCfg, nil)
	if err := rt.Start(ctx); err != nil {
		return zerr.Wrap(err, "failed to start router")
	}
	defer func() { _ = rt.Destroy(context.Background()) }()

	match, err := rt.Lookup(ctx, opts.Path, false)
	if err != nil && !errors.Is(err, domain.ErrResourceNotFound) {
		return err
	}

	requestPath := resolution.NormalizeRequestPath(opts.Path)
	styled := output.IsTerminal(w) && output.ColorProfile() != termenv.Ascii
	_, err = io.WriteString(w, renderExplain(requestPath, rt.Explain(opts.Path), match, styled))
	return err
}

// renderExplain lays out the candidate table. Styles are only applied when styled is set.
func renderExplain(requestPath string, entries []resolution.Entry, match *domain.Match, styled bool) string {
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	b.WriteString(render(style.Label, "Candidates for "+requestPath) + "\n\n")

	width := 0
	for _, e := range entries {
		width = max(width, len(e.Path))
	}

	for i, e := range entries {
		kind := "static"
		switch {
		case e.Excluded:
			kind = "excluded"
		case e.Exec:
			kind = "exec"
		}

		line := fmt.Sprintf("%2d  %-*s  %-8s", i+1, width, e.Path, kind)
		if e.Exec && !e.Excluded {
			line += "  remainder " + e.Remainder
		}
		line = strings.TrimRight(line, " ")

		switch {
		case match != nil && e.Candidate == match.Candidate:
			b.WriteString(render(matchStyle, style.Arrow+" "+line) + "\n")
		case e.Excluded:
			b.WriteString(render(style.Muted, "  "+line) + "\n")
		default:
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n")
	if match == nil {
		b.WriteString(style.Cross + " no candidate matches, the request passes through\n")
	} else {
		b.WriteString(fmt.Sprintf("%s %s match %s\n", style.Check, match.Kind, match.Candidate.Path))
	}
	return b.String()
}
