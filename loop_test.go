package sequence

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoopDeferRunsOnAdvance(t *testing.T) {
	l := NewLoop()
	var got []int
	l.Defer(func() { got = append(got, 1) })
	l.Defer(func() { got = append(got, 2) })
	if len(got) != 0 {
		t.Fatal("Defer must not run synchronously")
	}
	l.Advance(0)
	if diff := cmp.Diff([]int{1, 2}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopNestedDefer(t *testing.T) {
	l := NewLoop()
	var got []string
	l.Defer(func() {
		got = append(got, "outer")
		l.Defer(func() { got = append(got, "inner") })
	})
	l.Flush()
	if diff := cmp.Diff([]string{"outer", "inner"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopAfterFuncOrder(t *testing.T) {
	l := NewLoop()
	var got []string
	l.AfterFunc(20*time.Millisecond, func() { got = append(got, "b") })
	l.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })
	l.AfterFunc(20*time.Millisecond, func() { got = append(got, "c") })

	l.Advance(5 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("fired early: %v", got)
	}
	l.Advance(50 * time.Millisecond)
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if l.Now() != 55*time.Millisecond {
		t.Errorf("Now = %v, want 55ms", l.Now())
	}
	if l.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", l.Pending())
	}
}

func TestLoopTimerSeesItsDeadline(t *testing.T) {
	l := NewLoop()
	var at time.Duration
	l.AfterFunc(10*time.Millisecond, func() { at = l.Now() })
	l.Advance(time.Second)
	if at != 10*time.Millisecond {
		t.Errorf("Now inside timer = %v, want 10ms", at)
	}
}

func TestTimerStopAndReset(t *testing.T) {
	l := NewLoop()
	fired := 0
	tm := l.AfterFunc(10*time.Millisecond, func() { fired++ })
	if !tm.Stop() {
		t.Error("Stop on pending timer should report true")
	}
	if tm.Stop() {
		t.Error("second Stop should report false")
	}
	l.Advance(20 * time.Millisecond)
	if fired != 0 {
		t.Fatal("stopped timer fired")
	}

	if tm.Reset(10 * time.Millisecond) {
		t.Error("Reset of stopped timer should report false")
	}
	l.Advance(5 * time.Millisecond)
	if !tm.Reset(10 * time.Millisecond) {
		t.Error("Reset of pending timer should report true")
	}
	l.Advance(9 * time.Millisecond)
	if fired != 0 {
		t.Fatal("reset timer fired at its old deadline")
	}
	l.Advance(time.Millisecond)
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}

func TestFutureThenIsDeferred(t *testing.T) {
	l := NewLoop()
	f := Resolved(l, 7)
	got := 0
	f.Then(func(v int) { got = v }, nil)
	if got != 0 {
		t.Fatal("Then ran synchronously on a settled future")
	}
	l.Flush()
	if got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestFutureSettlesOnce(t *testing.T) {
	l := NewLoop()
	f := newFuture[string](l)
	if _, err := f.Result(); !errors.Is(err, ErrPending) {
		t.Errorf("Result before settle err = %v, want ErrPending", err)
	}

	var values []string
	var errs []error
	f.Then(func(v string) { values = append(values, v) }, func(err error) { errs = append(errs, err) })
	f.resolve("first")
	f.reject(errors.New("ignored"))
	f.resolve("ignored")
	l.Flush()

	if diff := cmp.Diff([]string{"first"}, values); diff != "" || len(errs) != 0 {
		t.Errorf("values=%v errs=%v", values, errs)
	}
	if v, err := f.Result(); v != "first" || err != nil || !f.Done() {
		t.Errorf("Result = %q, %v", v, err)
	}
}

func TestFutureRejected(t *testing.T) {
	l := NewLoop()
	boom := errors.New("boom")
	f := Rejected[int](l, boom)
	var got error
	f.Then(nil, func(err error) { got = err })
	f.Then(func(int) { t.Error("value handler called on rejected future") }, nil)
	l.Flush()
	if !errors.Is(got, boom) {
		t.Errorf("got %v, want boom", got)
	}
}
