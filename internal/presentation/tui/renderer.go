// Package tui provides the terminal presentation helpers for the canopy CLI.
package tui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/canopyhq/canopy/pkg/domain"
)

// IsInteractive reports whether stdout is a terminal. Markdown rendering
// and colors are only used interactively; piped output stays plain.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// NewRenderer returns a function that renders markdown using glamour.
// Falls back to identity when the renderer cannot be constructed.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PrintStep writes one execution-step line, colored by status.
func PrintStep(rec domain.ExecutionStepRecord) {
	p := termenv.ColorProfile()

	var badge termenv.Style
	switch rec.Status {
	case domain.StepCompleted:
		badge = termenv.String("✔").Foreground(p.Color("#34d399"))
	case domain.StepError:
		badge = termenv.String("✘").Foreground(p.Color("#f87171"))
	default:
		badge = termenv.String("…").Foreground(p.Color("#fbbf24"))
	}

	kind := termenv.String(string(rec.Kind)).Foreground(p.Color("#818cf8"))
	fmt.Printf("  %s %s %s\n", badge, kind, rec.Name)
}

// PrintThinking writes the submit-to-first-token duration.
func PrintThinking(d time.Duration) {
	if d <= 0 {
		return
	}
	p := termenv.ColorProfile()
	line := termenv.String(fmt.Sprintf("thought for %s", d.Round(100*time.Millisecond))).
		Foreground(p.Color("#9ca3af")).Italic()
	fmt.Printf("\n%s\n", line)
}

// PrintTrace writes the reasoning trace labels with their status.
func PrintTrace(trace []domain.ReasoningStep) {
	p := termenv.ColorProfile()
	for _, step := range trace {
		label := termenv.String(step.Label).Foreground(p.Color("#a78bfa"))
		fmt.Printf("  %s %s\n", label, step.Status)
	}
}
