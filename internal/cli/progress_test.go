package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vbauerster/mpb/v8"
)

func TestProgress_NonInteractive_PrintsPlainLineAndNilCallback(t *testing.T) {
	var buf bytes.Buffer
	p := &Progress{interactive: false, w: &buf, bars: make(map[string]*mpb.Bar)}

	cb := p.Start("rojo")
	assert.Nil(t, cb)
	assert.Contains(t, buf.String(), "downloading rojo...")

	// Complete/Fail must be no-ops without panicking when non-interactive.
	p.Complete("rojo")
	p.Fail("rojo")
	p.Wait()
}
