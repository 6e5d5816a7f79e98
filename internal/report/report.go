// Package report prints diagnostics and generate results for people.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"bridgegen/internal/diagnostic"
	"bridgegen/internal/gen"
)

var (
	errorColor   = lipgloss.Color("#e53935")
	warningColor = lipgloss.Color("#FFC107")
	infoColor    = lipgloss.Color("#2196F3")
	successColor = lipgloss.Color("#8BC34A")
	mutedColor   = lipgloss.Color("#8a8f98")
)

type styles struct {
	severity map[diagnostic.DiagnosticSeverity]lipgloss.Style
	subject  lipgloss.Style
	hint     lipgloss.Style
	success  lipgloss.Style
	muted    lipgloss.Style
}

// Reporter writes human-readable reports to one destination.
type Reporter struct {
	w      io.Writer
	styled bool
	st     styles
}

// New returns a reporter writing to w. Colors are used only when styled is
// set.
func New(w io.Writer, styled bool) *Reporter {
	r := lipgloss.NewRenderer(w)

	return &Reporter{
		w:      w,
		styled: styled,
		st: styles{
			severity: map[diagnostic.DiagnosticSeverity]lipgloss.Style{
				diagnostic.DiagnosticError:   r.NewStyle().Foreground(errorColor).Bold(true),
				diagnostic.DiagnosticWarning: r.NewStyle().Foreground(warningColor).Bold(true),
				diagnostic.DiagnosticInfo:    r.NewStyle().Foreground(infoColor),
			},
			subject: r.NewStyle().Bold(true),
			hint:    r.NewStyle().Foreground(mutedColor).Italic(true),
			success: r.NewStyle().Foreground(successColor),
			muted:   r.NewStyle().Foreground(mutedColor),
		},
	}
}

// ForFile styles output when f is a terminal and NO_COLOR is unset.
func ForFile(f *os.File) *Reporter {
	styled := term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == ""
	return New(f, styled)
}

func (r *Reporter) render(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}

	return s.Render(text)
}

// Diagnostics prints every diagnostic of one declaration file, errors first,
// followed by a count line. Nothing is printed when d is empty.
func (r *Reporter) Diagnostics(source string, d *diagnostic.Diagnostics) {
	if d == nil || d.Len() == 0 {
		return
	}

	d.Sort()

	for _, diag := range d.All() {
		r.diagnostic(source, diag)
	}

	fmt.Fprintln(r.w, r.render(r.st.muted, summary(d)))
}

func (r *Reporter) diagnostic(source string, d diagnostic.Diagnostic) {
	label := fmt.Sprintf("%s[%s]", d.Severity, d.Code)

	var where strings.Builder
	where.WriteString(source)

	if d.Subject != "" {
		where.WriteString(": ")
		where.WriteString(d.Subject)
	}

	if d.Location != "" {
		fmt.Fprintf(&where, " (%s)", d.Location)
	}

	fmt.Fprintf(r.w, "%s %s: %s\n",
		r.render(r.st.severity[d.Severity], label),
		r.render(r.st.subject, where.String()),
		d.Message)

	for _, s := range d.Suggestions {
		fmt.Fprintf(r.w, "  %s\n", r.render(r.st.hint, "hint: "+s))
	}
}

func summary(d *diagnostic.Diagnostics) string {
	parts := make([]string, 0, 3)

	for _, c := range []struct {
		n    int
		noun string
	}{
		{len(d.Errors), "error"},
		{len(d.Warnings), "warning"},
		{len(d.Infos), "note"},
	} {
		if c.n == 0 {
			continue
		}

		noun := c.noun
		if c.n != 1 {
			noun += "s"
		}

		parts = append(parts, fmt.Sprintf("%d %s", c.n, noun))
	}

	return strings.Join(parts, ", ")
}

// Result prints what a generate run changed in dir.
func (r *Reporter) Result(dir string, res *gen.Result) {
	for _, name := range res.Written {
		fmt.Fprintf(r.w, "%s %s\n", r.render(r.st.success, "wrote"), name)
	}

	for _, name := range res.Removed {
		fmt.Fprintf(r.w, "%s %s\n", r.render(r.st.severity[diagnostic.DiagnosticWarning], "removed"), name)
	}

	fmt.Fprintln(r.w, r.render(r.st.muted, fmt.Sprintf("%s: %d written, %d unchanged, %d removed",
		dir, len(res.Written), len(res.Unchanged), len(res.Removed))))
}

// Error prints a failure together with its hints.
func (r *Reporter) Error(err error, hints []string) {
	fmt.Fprintf(r.w, "%s %v\n", r.render(r.st.severity[diagnostic.DiagnosticError], "error:"), err)

	for _, h := range hints {
		fmt.Fprintf(r.w, "  %s\n", r.render(r.st.hint, "hint: "+h))
	}
}
