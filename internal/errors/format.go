//nolint:revive // Package name intentionally shadows stdlib errors for convenience.
package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders errors as the single-line, actionable messages the
// external interfaces design calls for: prefixed with the offending tool
// alias where known, colorized unless NoColor is set.
type Formatter struct {
	NoColor bool
	Writer  io.Writer

	errorColor *color.Color
	codeColor  *color.Color
	hintColor  *color.Color
}

// NewFormatter creates a new Formatter. Color is suppressed when noColor
// is true (the CLI sets this from NO_COLOR and non-TTY output).
func NewFormatter(w io.Writer, noColor bool) *Formatter {
	if noColor {
		color.NoColor = true
	}
	return &Formatter{
		NoColor:    noColor,
		Writer:     w,
		errorColor: color.New(color.FgRed, color.Bold),
		codeColor:  color.New(color.FgRed),
		hintColor:  color.New(color.FgGreen),
	}
}

// Format renders err as a single actionable line, plus an optional hint
// line. Non-*Error values fall back to err.Error().
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !stderrors.As(err, &e) {
		return f.errorColor.Sprint("Error: ") + err.Error() + "\n"
	}

	var sb strings.Builder
	sb.WriteString(f.errorColor.Sprint("Error"))
	if e.Code != "" {
		sb.WriteString(" ")
		sb.WriteString(f.codeColor.Sprintf("[%s]", e.Code))
	}
	sb.WriteString(f.errorColor.Sprint(": "))
	if e.Alias != "" {
		sb.WriteString(e.Alias)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	sb.WriteString("\n")

	if e.Hint != "" {
		sb.WriteString(f.hintColor.Sprint("  hint: "))
		sb.WriteString(e.Hint)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Print writes the formatted error to the Formatter's Writer.
func (f *Formatter) Print(err error) {
	fmt.Fprint(f.Writer, f.Format(err))
}
