// Package console renders the one-line status messages the deployer prints
// for every step, plus the final success or failure banner.
package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
)

type Console struct {
	Out io.Writer
	Err io.Writer
}

func New(out, errOut io.Writer) *Console {
	return &Console{Out: out, Err: errOut}
}

// Line prints a plain status line.
func (c *Console) Line(format string, args ...any) {
	fmt.Fprintln(c.Out, "- "+fmt.Sprintf(format, args...))
}

// Warning prints an advisory status line; it does not mean failure.
func (c *Console) Warning(format string, args ...any) {
	fmt.Fprintln(c.Out, warningStyle.Render("- "+fmt.Sprintf(format, args...)))
}

// Error prints a failed step's status line on the error channel.
func (c *Console) Error(format string, args ...any) {
	fmt.Fprintln(c.Err, errorStyle.Render("- "+fmt.Sprintf(format, args...)))
}

func (c *Console) Success(format string, args ...any) {
	fmt.Fprintln(c.Out, successStyle.Render(fmt.Sprintf(format, args...)))
}

// Failure writes the failure banner to the error channel.
func (c *Console) Failure(format string, args ...any) {
	fmt.Fprintln(c.Err, errorStyle.Render(fmt.Sprintf(format, args...)))
}
