package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/randalmurphal/skillcheck/internal/validate"
)

var (
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

// useColor reports whether w is a terminal and color was not disabled.
func (a *app) useColor(w io.Writer) bool {
	if a.flags.noColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func render(style lipgloss.Style, s string, color bool) string {
	if !color {
		return s
	}
	return style.Render(s)
}

// printReport writes the text report: the failure header and one line per
// issue, or the pass header and the two summary counts.
func printReport(w io.Writer, r *validate.Report, color bool) {
	if !r.Passed() {
		_, _ = fmt.Fprintln(w, render(failStyle, "VALIDATION FAILED", color))
		for _, line := range r.Lines() {
			_, _ = fmt.Fprintln(w, " -", line)
		}
		return
	}
	_, _ = fmt.Fprintln(w, render(passStyle, "VALIDATION PASSED:", color))
	_, _ = fmt.Fprintf(w, " Categories: %d\n", r.Categories)
	_, _ = fmt.Fprintf(w, " Leaf skills: %d\n", r.LeafSkills)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
