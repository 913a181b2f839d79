package sequence

import (
	"fmt"
	"time"
)

// DefaultDebounce is the coalescing window for scope rebuilds. It spans one
// burst of sibling registrations and stays well below a perceptible delay.
const DefaultDebounce = 10 * time.Millisecond

// rebuildBatch coalesces bursts of schedule calls into one rebuild. All
// calls made before the window closes share one future; the future is
// detached before the rebuild runs, so a call made during or after the
// rebuild starts the next cycle.
type rebuildBatch struct {
	loop    *Loop
	wait    time.Duration
	timer   *Timer
	pending *Future[*Timeline]
	run     func() (*Timeline, error)
}

func newRebuildBatch(loop *Loop, wait time.Duration, run func() (*Timeline, error)) *rebuildBatch {
	if wait <= 0 {
		wait = DefaultDebounce
	}
	return &rebuildBatch{loop: loop, wait: wait, run: run}
}

// schedule starts or refreshes the window and returns the cycle's future.
func (b *rebuildBatch) schedule() *Future[*Timeline] {
	if b.pending == nil {
		b.pending = newFuture[*Timeline](b.loop)
	}
	if b.timer != nil {
		b.timer.Reset(b.wait)
	} else {
		b.timer = b.loop.AfterFunc(b.wait, b.fire)
	}
	return b.pending
}

// inFlight returns the future of the open window, or nil.
func (b *rebuildBatch) inFlight() *Future[*Timeline] {
	return b.pending
}

func (b *rebuildBatch) fire() {
	b.timer = nil
	fut := b.pending
	b.pending = nil
	if fut == nil {
		return
	}
	tl, err := b.safeRun()
	if err != nil {
		fut.reject(err)
		return
	}
	fut.resolve(tl)
}

// safeRun turns a panic inside the rebuild into an error so one broken scope
// cannot take down the loop its siblings share.
func (b *rebuildBatch) safeRun() (tl *Timeline, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rebuild panicked: %v", r)
		}
	}()
	return b.run()
}

// cancel stops the window and rejects its future with err.
func (b *rebuildBatch) cancel(err error) {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if b.pending != nil {
		b.pending.reject(err)
		b.pending = nil
	}
}
