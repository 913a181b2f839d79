package sequence

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingSink collects emitted events.
type recordingSink struct {
	events []TimelineEvent
}

func (s *recordingSink) EmitEvent(e TimelineEvent) { s.events = append(s.events, e) }

func (s *recordingSink) types() []EventType {
	var out []EventType
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func TestStateVarNotifiesOnChange(t *testing.T) {
	v := NewStateVar()
	var got [][2]string
	cancel := v.Watch(func(cur, old string) { got = append(got, [2]string{cur, old}) })

	v.Set("")  // first Set always notifies
	v.Set("")  // unchanged
	v.Set("a") // changed
	v.Set("a") // unchanged
	cancel()
	v.Set("b") // unwatched

	want := [][2]string{{"", ""}, {"a", ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
	if v.Get() != "b" {
		t.Errorf("Get() = %q, want b", v.Get())
	}
}

func TestStateVarWatchDuringNotify(t *testing.T) {
	v := NewStateVar()
	calls := 0
	var cancel func()
	cancel = v.Watch(func(string, string) {
		calls++
		cancel()
		v.Watch(func(string, string) { calls += 10 })
	})
	v.Set("x")
	if calls != 1 {
		t.Errorf("calls = %d, watchers added during notify must wait for the next change", calls)
	}
	v.Set("y")
	if calls != 11 {
		t.Errorf("calls = %d, want 11", calls)
	}
}

// bindingFixture registers a one-second timeline moving n.X to 100.
func bindingFixture(t *testing.T) (*Loop, *Registry, *Timeline, *Node) {
	t.Helper()
	l := NewLoop()
	r := NewRegistry(l)
	n := NewSprite("n", 1, 1)
	tl := NewTimeline("zoom")
	if err := tl.To([]*Node{n}, MustParseStyle("x:100"), 1, "", linear); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(tl, "zoom", "zoom"); err != nil {
		t.Fatal(err)
	}
	return l, r, tl, n
}

func TestBindingRestartAndReverse(t *testing.T) {
	l, r, tl, n := bindingFixture(t)
	state := NewStateVar()
	sink := &recordingSink{}
	b := Bind(r, state, "zoom", "zoom")
	b.SetEventSink(sink)

	if b.Phase() != PhaseIdle {
		t.Errorf("Phase = %v, want idle", b.Phase())
	}

	state.Set("zoom")
	if tl.IsActive() {
		t.Fatal("playback must wait for the lookup to resolve")
	}
	l.Flush()
	if !tl.IsActive() || tl.Reversed() || tl.Time() != 0 {
		t.Fatalf("after tag: active=%v reversed=%v time=%v", tl.IsActive(), tl.Reversed(), tl.Time())
	}
	if b.Phase() != PhaseForward {
		t.Errorf("Phase = %v, want forward", b.Phase())
	}

	tl.Update(0.5)
	assertApprox(t, "x", n.X, 50)

	state.Set("")
	l.Flush()
	if !tl.Reversed() || b.Phase() != PhaseReverse {
		t.Errorf("after clear: reversed=%v phase=%v", tl.Reversed(), b.Phase())
	}
	tl.Update(1)
	assertNear(t, "x", n.X, 0)
	if b.Phase() != PhaseIdle {
		t.Errorf("Phase = %v, want idle after reversing to 0", b.Phase())
	}

	want := []EventType{EventRestart, EventReverse}
	if diff := cmp.Diff(want, sink.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if e := sink.events[0]; e.TimelineID != "zoom" || e.State != "zoom" {
		t.Errorf("event = %+v", e)
	}
}

func TestBindingIgnoresOtherTags(t *testing.T) {
	l, r, tl, _ := bindingFixture(t)
	state := NewStateVar()
	sink := &recordingSink{}
	Bind(r, state, "zoom", "zoom").SetEventSink(sink)

	state.Set("other")
	l.Flush()
	if tl.IsActive() || len(sink.events) != 0 {
		t.Errorf("unrelated tag acted: active=%v events=%v", tl.IsActive(), sink.types())
	}
}

func TestBindingRestartsOncePerChange(t *testing.T) {
	l, r, _, _ := bindingFixture(t)
	state := NewStateVar()
	sink := &recordingSink{}
	Bind(r, state, "zoom", "zoom").SetEventSink(sink)

	state.Set("zoom")
	state.Set("zoom")
	l.Flush()
	state.Set("zoom")
	l.Flush()
	if diff := cmp.Diff([]EventType{EventRestart}, sink.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBindingClose(t *testing.T) {
	l, r, tl, _ := bindingFixture(t)
	state := NewStateVar()
	b := Bind(r, state, "zoom", "zoom")
	b.Close()
	b.Close() // idempotent
	state.Set("zoom")
	l.Flush()
	if tl.IsActive() {
		t.Error("closed binding should not act")
	}
}

func TestBindingMissingTimeline(t *testing.T) {
	l := NewLoop()
	r := NewRegistry(l)
	core, logs := observer.New(zapcore.DebugLevel)
	state := NewStateVar()
	sink := &recordingSink{}
	b := Bind(r, state, "nope", "zoom")
	b.SetLogger(zap.New(core))
	b.SetEventSink(sink)

	state.Set("zoom")
	l.Flush()
	if len(sink.events) != 0 {
		t.Errorf("events = %v, want none", sink.types())
	}
	if logs.FilterMessage("State change ignored").Len() != 1 {
		t.Error("failed lookup should be logged")
	}
	if r.Len() != 0 {
		t.Error("lookup must not register anything")
	}
}

func TestBindEmptyTagIsInert(t *testing.T) {
	l, r, tl, _ := bindingFixture(t)
	state := NewStateVar()
	Bind(r, state, "zoom", "")
	state.Set("")
	state.Set("zoom")
	l.Flush()
	if tl.IsActive() {
		t.Error("binding without a tag should not act")
	}
}
