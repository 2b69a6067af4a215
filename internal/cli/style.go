// Package cli holds terminal presentation helpers shared by foreman's
// subcommands: NO_COLOR-aware styling and per-tool download progress
// bars.
package cli

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Style holds the marks and colors foreman's CLI output uses.
type Style struct {
	SuccessMark string
	FailMark    string
	WarnMark    string
	Header      *color.Color
	Path        *color.Color
	Success     *color.Color
	Fail        *color.Color
}

// NewStyle builds a Style honoring NO_COLOR and whether stdout is a
// terminal.
func NewStyle() *Style {
	color.NoColor = !UseColor()
	return &Style{
		SuccessMark: color.New(color.FgGreen).Sprint("✓"),
		FailMark:    color.New(color.FgRed).Sprint("✗"),
		WarnMark:    color.New(color.FgYellow).Sprint("⚠"),
		Header:      color.New(color.FgCyan, color.Bold),
		Path:        color.New(color.FgCyan),
		Success:     color.New(color.FgGreen, color.Bold),
		Fail:        color.New(color.FgRed, color.Bold),
	}
}

// IsInteractive reports whether stdout is attached to a terminal.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// UseColor reports whether output should be colorized: NO_COLOR unsets
// it unconditionally, otherwise it follows IsInteractive.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return IsInteractive()
}
