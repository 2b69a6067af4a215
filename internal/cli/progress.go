package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/foreman-rs/foreman/internal/download"
)

// Progress renders one download bar per tool alias when stdout is a
// terminal, and falls back to plain "downloading <alias>..." lines
// otherwise.
type Progress struct {
	mu          sync.Mutex
	interactive bool
	w           io.Writer
	mp          *mpb.Progress
	bars        map[string]*mpb.Bar
}

// NewProgress creates a Progress writing to w.
func NewProgress(w io.Writer) *Progress {
	p := &Progress{
		interactive: IsInteractive(),
		w:           w,
		bars:        make(map[string]*mpb.Bar),
	}
	if p.interactive {
		p.mp = mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))
	}
	return p
}

// Start begins tracking alias's download, returning a callback to feed
// to the downloader. The callback is nil when not interactive: callers
// must tolerate a nil ProgressCallback.
func (p *Progress) Start(alias string) download.ProgressCallback {
	if !p.interactive {
		fmt.Fprintf(p.w, "downloading %s...\n", alias)
		return nil
	}

	p.mu.Lock()
	bar := p.mp.AddBar(0,
		mpb.BarFillerClearOnComplete(),
		mpb.PrependDecorators(decor.Name(alias, decor.WC{W: 16, C: decor.DindentRight})),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f"),
			decor.OnComplete(decor.Name(""), " done"),
		),
	)
	p.bars[alias] = bar
	p.mu.Unlock()

	return func(downloaded, total int64) {
		if total > 0 {
			bar.SetTotal(total, false)
		}
		bar.SetCurrent(downloaded)
	}
}

// Complete finalizes alias's bar, if any.
func (p *Progress) Complete(alias string) {
	if !p.interactive {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if bar, ok := p.bars[alias]; ok {
		bar.SetTotal(bar.Current(), true)
		delete(p.bars, alias)
	}
}

// Fail aborts alias's bar, if any.
func (p *Progress) Fail(alias string) {
	if !p.interactive {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if bar, ok := p.bars[alias]; ok {
		bar.Abort(true)
		delete(p.bars, alias)
	}
}

// Wait blocks until every bar has finished rendering.
func (p *Progress) Wait() {
	if p.mp != nil {
		p.mp.Wait()
	}
}
