package progress

import (
	"os"

	"github.com/pterm/pterm"

	"github.com/eigeen/reepath/internal/termcolor"
)

// Bar reports (current, total) progress for one pipeline — the shape
// spec.md §4.6 requires for the memory-dump and archive pipelines. It
// wraps pterm's progress bar and degrades to a no-op when stderr is not
// a terminal, the same TTY-gating Spinner already applies.
type Bar struct {
	title  string
	total  int
	active bool
	pb     *pterm.ProgressbarPrinter
}

// NewBar creates a Bar titled title, ready for total units of work.
func NewBar(title string, total int) *Bar {
	b := &Bar{title: title, total: total}
	if !termcolor.IsTerminal(os.Stderr.Fd()) || total <= 0 {
		return b
	}
	pb, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithWriter(os.Stderr).
		Start()
	if err != nil {
		return b
	}
	b.pb = pb
	b.active = true
	return b
}

// Advance reports that current of total units have completed.
func (b *Bar) Advance(current, total int) {
	if !b.active || b.pb == nil {
		return
	}
	if total > 0 && total != b.pb.Total {
		b.pb.UpdateTotal(total)
	}
	delta := current - b.pb.Current
	if delta > 0 {
		b.pb.Add(delta)
	}
}

// Stop finalizes the bar's display, if one was started.
func (b *Bar) Stop() {
	if !b.active || b.pb == nil {
		return
	}
	_, _ = b.pb.Stop()
}
