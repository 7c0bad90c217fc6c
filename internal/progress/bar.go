package progress

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Bar is a terminal progress bar. A disabled Bar does nothing, so callers
// need not check whether output is a terminal.
type Bar struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

// NewBar creates a bar for total items writing to out.
func NewBar(out io.Writer, total int, enabled bool) *Bar {
	if !enabled || total == 0 {
		return &Bar{}
	}

	p := mpb.New(mpb.WithOutput(out), mpb.WithWidth(50))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(decor.Name("Extracting ")),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d/%d) "),
			decor.Percentage(),
		),
	)
	return &Bar{p: p, bar: bar}
}

// Increment advances the bar by one item. Safe for concurrent use.
func (b *Bar) Increment() {
	if b.bar != nil {
		b.bar.Increment()
	}
}

// Finish completes the bar and waits for it to render.
func (b *Bar) Finish() {
	if b.p == nil {
		return
	}
	b.bar.SetTotal(-1, true)
	b.p.Wait()
}
