package sequence

import "time"

// maxDrainRounds bounds how many times a single Advance re-drains the
// next-tick queue when tasks keep queuing more tasks. Anything left over
// runs on the following Advance.
const maxDrainRounds = 64

// Loop is the host scheduler: a next-tick queue plus timers on a virtual
// clock. It never spawns goroutines; time only moves when Advance is called,
// normally once per frame from Scene.Update. Not safe for concurrent use.
type Loop struct {
	now    time.Duration
	seq    uint64
	timers []*Timer
	queue  []func()
}

// Timer is a pending AfterFunc callback.
type Timer struct {
	loop    *Loop
	when    time.Duration
	seq     uint64
	fn      func()
	pending bool
}

// NewLoop creates an empty loop at time 0.
func NewLoop() *Loop {
	return &Loop{}
}

// Now returns the loop's virtual clock.
func (l *Loop) Now() time.Duration {
	return l.now
}

// Defer queues fn to run on the next tick.
func (l *Loop) Defer(fn func()) {
	l.queue = append(l.queue, fn)
}

// AfterFunc schedules fn to run once the clock has moved d past Now.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	t := &Timer{loop: l, fn: fn}
	t.arm(d)
	l.timers = append(l.timers, t)
	return t
}

func (t *Timer) arm(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.loop.seq++
	t.seq = t.loop.seq
	t.when = t.loop.now + d
	t.pending = true
}

// Stop cancels the timer. Reports whether it was still pending.
func (t *Timer) Stop() bool {
	if !t.pending {
		return false
	}
	t.pending = false
	t.loop.removeTimer(t)
	return true
}

// Reset re-arms the timer to fire d from now. Reports whether it was still
// pending.
func (t *Timer) Reset(d time.Duration) bool {
	was := t.pending
	if !was {
		t.loop.timers = append(t.loop.timers, t)
	}
	t.arm(d)
	return was
}

func (l *Loop) removeTimer(t *Timer) {
	for i, x := range l.timers {
		if x == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return
		}
	}
}

// Pending returns the number of queued tasks plus armed timers.
func (l *Loop) Pending() int {
	return len(l.queue) + len(l.timers)
}

// Flush runs queued next-tick tasks without moving the clock.
func (l *Loop) Flush() {
	l.drain()
}

// Advance moves the clock forward by dt. Queued tasks run first; then due
// timers fire in deadline order (ties in arming order), each followed by a
// drain of the tasks it queued.
func (l *Loop) Advance(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	target := l.now + dt
	l.drain()
	for {
		t := l.nextDue(target)
		if t == nil {
			break
		}
		l.removeTimer(t)
		t.pending = false
		if t.when > l.now {
			l.now = t.when
		}
		t.fn()
		l.drain()
	}
	l.now = target
	l.drain()
}

func (l *Loop) nextDue(limit time.Duration) *Timer {
	var best *Timer
	for _, t := range l.timers {
		if t.when > limit {
			continue
		}
		if best == nil || t.when < best.when || (t.when == best.when && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (l *Loop) drain() {
	for round := 0; round < maxDrainRounds && len(l.queue) > 0; round++ {
		batch := l.queue
		l.queue = nil
		for _, fn := range batch {
			fn()
		}
	}
}
