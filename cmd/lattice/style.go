package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lattice-db/lattice/internal/errs"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	headerStyle lipgloss.Style
	errorStyle  lipgloss.Style
	dimStyle    lipgloss.Style
)

func init() {
	// Two independent signals have to agree before styling turns on:
	// termenv.ColorProfile() tells us the terminal can render ANSI color
	// at all, and x/term.IsTerminal tells us stdout is actually a tty
	// and not a pipe a downstream tool (or a txtar e2e test) is reading
	// byte-for-byte. Either one failing means plain output.
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if !isTTY || termenv.ColorProfile() == termenv.Ascii {
		headerStyle, errorStyle, dimStyle = lipgloss.NewStyle(), lipgloss.NewStyle(), lipgloss.NewStyle()
		return
	}
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
}

func renderError(err error) string {
	if failures, ok := errs.AsValidation(err); ok {
		var b strings.Builder
		b.WriteString(errorStyle.Render("schema validation failed:"))
		for _, v := range failures {
			b.WriteString("\n  ")
			b.WriteString(dimStyle.Render(v.String()))
		}
		return b.String()
	}
	return errorStyle.Render(fmt.Sprintf("error: %v", err))
}

// renderTable renders rows under header as tab-separated lines; only the
// header line is styled (headerStyle), and no column padding or width is
// applied. This is a smoke-test CLI, not a dashboard.
func renderTable(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.Join(header, "\t")))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}
