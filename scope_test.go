package sequence

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap/zaptest"
)

// scopeScene returns a scene with sprites a and b under its root.
func scopeScene(t *testing.T) (*Scene, *Node, *Node) {
	t.Helper()
	s := NewScene()
	s.SetLogger(zaptest.NewLogger(t))
	a := NewSprite("a", 10, 10)
	b := NewSprite("b", 10, 10)
	s.Root().AddChild(a)
	s.Root().AddChild(b)
	return s, a, b
}

func rebuildsOf(sink *recordingSink, id string) int {
	n := 0
	for _, e := range sink.events {
		if e.Type == EventRebuild && e.TimelineID == id {
			n++
		}
	}
	return n
}

func TestScopeCoalescesRegistrations(t *testing.T) {
	s, _, _ := scopeScene(t)
	sink := &recordingSink{}
	s.SetEventSink(sink)
	sc := s.NewScope(nil, ScopeConfig{ID: "intro", Target: "#a"})

	f1 := sc.AddStep(&Step{Style: MustParseStyle("x:10"), Duration: Seconds(0.5)})
	s.Advance(5 * time.Millisecond)
	f2 := sc.AddStep(&Step{Style: MustParseStyle("y:10"), Duration: Seconds(0.5)})
	f3 := sc.AddStep(&Step{Target: "#b", Style: MustParseStyle("opacity:0")})
	if f1 != f2 || f2 != f3 {
		t.Fatal("registrations in one window should share a future")
	}
	if sc.Timeline() != nil {
		t.Fatal("rebuild ran before the window closed")
	}

	s.Advance(9 * time.Millisecond)
	if sc.Timeline() != nil {
		t.Fatal("each registration should restart the window")
	}
	s.Advance(time.Millisecond)
	tl, err := f1.Result()
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if rebuildsOf(sink, "intro") != 1 {
		t.Errorf("rebuilds = %d, want 1", rebuildsOf(sink, "intro"))
	}

	want := []Scheduled{
		{Kind: "to", Targets: []string{"a"}, Start: 0, Duration: 0.5, Style: "x:10"},
		{Kind: "to", Targets: []string{"a"}, Start: 0.5, Duration: 0.5, Style: "y:10"},
		{Kind: "set", Targets: []string{"b"}, Start: 1, Duration: 0, Style: "opacity:0"},
	}
	if diff := cmp.Diff(want, tl.Schedule(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Schedule mismatch (-want +got):\n%s", diff)
	}
	if got, ok := s.Registry().Lookup("intro"); !ok || got != tl {
		t.Error("rebuilt timeline should be registered under the scope id")
	}

	if f4 := sc.Rebuild(); f4 == f1 {
		t.Error("a call after the rebuild should start a new cycle")
	}
}

func TestScopeReAddKeepsOrder(t *testing.T) {
	s, _, _ := scopeScene(t)
	sc := s.NewScope(nil, ScopeConfig{ID: "intro", Target: "#a"})
	first := &Step{Style: MustParseStyle("x:10"), Duration: Seconds(1)}
	second := &Step{Style: MustParseStyle("y:10"), Duration: Seconds(1)}
	sc.AddStep(first)
	sc.AddStep(second)
	s.Settle(time.Second)

	first.Style = MustParseStyle("x:20")
	fut := sc.AddStep(first)
	s.Settle(time.Second)
	tl, err := fut.Result()
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Steps()) != 2 {
		t.Fatalf("steps = %d, re-adding must not duplicate", len(sc.Steps()))
	}
	got := []string{tl.Schedule()[0].Style, tl.Schedule()[1].Style}
	if diff := cmp.Diff([]string{"x:20", "y:10"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestScopeChildBuildsBeforeParent(t *testing.T) {
	s, _, _ := scopeScene(t)
	sink := &recordingSink{}
	s.SetEventSink(sink)
	parent := s.NewScope(nil, ScopeConfig{ID: "page", Target: "#a"})
	child := s.NewScope(parent, ScopeConfig{ID: "detail", Target: "#b", Position: 0.25})

	child.AddStep(&Step{Style: MustParseStyle("x:5"), Duration: Seconds(0.5)})
	fut := parent.AddStep(&Step{Style: MustParseStyle("opacity:1"), Duration: Seconds(1)})
	s.Settle(time.Second)

	tl, err := fut.Result()
	if err != nil {
		t.Fatal(err)
	}
	if n := rebuildsOf(sink, "page"); n != 1 {
		t.Errorf("parent rebuilds = %d, want 1", n)
	}
	want := []Scheduled{
		{Kind: "to", Targets: []string{"a"}, Start: 0, Duration: 1, Style: "opacity:1"},
		{Kind: "timeline", Start: 0.25, Duration: 0.5, Timeline: "detail"},
	}
	if diff := cmp.Diff(want, tl.Schedule(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Schedule mismatch (-want +got):\n%s", diff)
	}
	if child.Timeline().Parent() != tl {
		t.Error("child timeline should be nested in the parent's")
	}
	if tl.Duration() != 1 {
		t.Errorf("Duration = %v, want 1", tl.Duration())
	}
}

func TestScopeBuildErrorStillRegisters(t *testing.T) {
	s, _, _ := scopeScene(t)
	sc := s.NewScope(nil, ScopeConfig{ID: "broken", Target: "#a"})
	sc.AddStep(&Step{Style: MustParseStyle("x:10"), Duration: Seconds(1)})
	fut := sc.AddStep(&Step{Style: MustParseStyle("y:10"), Duration: Seconds(1), Ease: "wobbly"})
	s.Settle(time.Second)

	if _, err := fut.Result(); !errors.Is(err, ErrUnknownEase) {
		t.Errorf("err = %v, want ErrUnknownEase", err)
	}
	tl, ok := s.Registry().Lookup("broken")
	if !ok {
		t.Fatal("partial timeline should be registered")
	}
	if len(tl.Schedule()) != 1 {
		t.Errorf("entries = %d, want 1", len(tl.Schedule()))
	}
}

func TestScopeEmptyRebuildKeepsScheduleAndRetags(t *testing.T) {
	s, _, _ := scopeScene(t)
	sc := s.NewScope(nil, ScopeConfig{ID: "menu", State: "open", Target: "#a"})
	step := &Step{Style: MustParseStyle("x:10"), Duration: Seconds(1)}
	sc.AddStep(step)
	s.Settle(time.Second)
	tl := sc.Timeline()
	before := tl.Schedule()

	sc.steps = nil // steps retired with their owners
	fut := sc.SetState("closed")
	s.Settle(time.Second)
	got, err := fut.Result()
	if err != nil {
		t.Fatal(err)
	}
	if got != tl {
		t.Error("empty rebuild should return the existing timeline")
	}
	if diff := cmp.Diff(before, tl.Schedule()); diff != "" {
		t.Errorf("schedule changed (-before +after):\n%s", diff)
	}

	found, err := settle(t, s.Loop(), s.Registry().FindByState("closed"))
	if err != nil || found != tl {
		t.Errorf("FindByState(closed) = %v, %v", found, err)
	}
	if _, err := settle(t, s.Loop(), s.Registry().FindByState("open")); !errors.Is(err, ErrNotFound) {
		t.Errorf("old tag err = %v, want ErrNotFound", err)
	}
	if sc.Binding() == nil || sc.Binding().Tag() != "closed" {
		t.Error("binding should follow the new tag")
	}
}

func TestScopeAutoIDs(t *testing.T) {
	s := NewScene()
	a := s.NewScope(nil, ScopeConfig{})
	b := s.NewScope(nil, ScopeConfig{ID: "named"})
	c := s.NewScope(nil, ScopeConfig{})
	got := []string{a.ID(), b.ID(), c.ID()}
	if diff := cmp.Diff([]string{"timeline_1", "named", "timeline_3"}, got); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if s.Scope("named") != b || s.Scope("missing") != nil {
		t.Error("Scope lookup by id failed")
	}
}

func TestScopeDispose(t *testing.T) {
	s, _, _ := scopeScene(t)
	parent := s.NewScope(nil, ScopeConfig{ID: "page", Target: "#a"})
	child := s.NewScope(parent, ScopeConfig{ID: "detail", Target: "#b"})
	child.AddStep(&Step{Style: MustParseStyle("x:5"), Duration: Seconds(0.5)})
	parent.AddStep(&Step{Style: MustParseStyle("x:1"), Duration: Seconds(1)})
	s.Settle(time.Second)
	ptl := parent.Timeline()

	pending := child.Rebuild()
	child.Dispose()
	child.Dispose() // idempotent
	if _, err := pending.Result(); !errors.Is(err, ErrDisposed) {
		t.Errorf("pending rebuild err = %v, want ErrDisposed", err)
	}
	if _, err := child.AddStep(&Step{}).Result(); !errors.Is(err, ErrDisposed) {
		t.Errorf("AddStep after dispose err = %v, want ErrDisposed", err)
	}
	if _, ok := s.Registry().Lookup("detail"); ok {
		t.Error("disposed scope should be unregistered")
	}
	if child.Timeline().Parent() != nil {
		t.Error("disposed scope's timeline should be detached")
	}

	s.Settle(time.Second)
	if len(ptl.Schedule()) != 1 {
		t.Errorf("parent entries = %d, want 1 after child removal", len(ptl.Schedule()))
	}
	if s.Scope("detail") != nil || len(s.Scopes()) != 1 {
		t.Error("disposed scope should leave the scene")
	}
}

func TestScopeStateDrivesPlayback(t *testing.T) {
	s, a, _ := scopeScene(t)
	sink := &recordingSink{}
	s.SetEventSink(sink)
	sc := s.NewScope(nil, ScopeConfig{ID: "zoom", State: "zoom", Target: "#a"})
	sc.AddStep(&Step{Style: MustParseStyle("x:100"), Duration: Seconds(1), Ease: "linear"})
	s.Settle(time.Second)

	s.State().Set("zoom")
	s.Advance(500 * time.Millisecond)
	assertApprox(t, "x mid", a.X, 50)
	s.Advance(600 * time.Millisecond)
	assertApprox(t, "x end", a.X, 100)

	s.State().Set("")
	s.Advance(1100 * time.Millisecond)
	assertApprox(t, "x reversed", a.X, 0)

	want := []EventType{EventRebuild, EventRestart, EventComplete, EventReverse, EventReverseComplete}
	if diff := cmp.Diff(want, sink.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
