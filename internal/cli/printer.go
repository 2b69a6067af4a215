package cli

import (
	"fmt"
	"io"
)

// Printer renders per-tool install results and a trailing summary line.
type Printer struct {
	w     io.Writer
	style *Style
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, style: NewStyle()}
}

// ToolOK reports a successfully installed tool.
func (p *Printer) ToolOK(alias string) {
	fmt.Fprintf(p.w, "%s %s\n", p.style.SuccessMark, alias)
}

// ToolFailed reports a tool that failed to install.
func (p *Printer) ToolFailed(alias string, err error) {
	fmt.Fprintf(p.w, "%s %s: %v\n", p.style.FailMark, alias, err)
}

// Summary prints the closing line for an install run: failed is the
// count of tools that did not install.
func (p *Printer) Summary(total, failed int) {
	fmt.Fprintln(p.w)
	if failed == 0 {
		p.style.Success.Fprintf(p.w, "installed %d/%d tools\n", total, total)
		return
	}
	p.style.Fail.Fprintf(p.w, "installed %d/%d tools, %d failed\n", total-failed, total, failed)
}
