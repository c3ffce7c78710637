package cmd

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progress renders scanner progress as a bar. The bar is created on the
// first update, once the number of files is known.
type progress struct {
	w    io.Writer
	bar  *progressbar.ProgressBar
	done bool
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

// Update matches the scanner progress callback
func (p *progress) Update(scanned, total int, _ string) {
	if p.done {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("Hashing images"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	p.bar.Set(scanned)
}

// Close finishes and clears the bar. It is safe to call more than once.
func (p *progress) Close() {
	if p.done {
		return
	}
	p.done = true
	if p.bar != nil {
		p.bar.Finish()
	}
}
