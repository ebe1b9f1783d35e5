package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	linkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	snippetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// printer writes styled lines unless styling is disabled.
type printer struct {
	w     io.Writer
	plain bool
}

func (p printer) line(style lipgloss.Style, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if !p.plain {
		text = style.Render(text)
	}
	fmt.Fprintln(p.w, text)
}

func (p printer) raw(text string) {
	fmt.Fprintln(p.w, text)
}

func (c *cli) printer(w io.Writer) printer {
	return printer{w: w, plain: c.plain}
}
