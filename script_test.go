package sequence

import (
	"testing"
	"time"
)

func TestLoadScript(t *testing.T) {
	data := []byte(`
steps:
  - action: screenshot
    label: initial
  - action: state
    value: zoom
  - action: wait
    frames: 3
`)
	r, err := LoadScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(r.steps))
	}
	if r.steps[1].Action != "state" || r.steps[1].Value != "zoom" {
		t.Error("step 1 mismatch")
	}
	if r.steps[2].Frames != 3 {
		t.Error("step 2 mismatch")
	}
}

func TestLoadScriptJSON(t *testing.T) {
	r, err := LoadScript([]byte(`{"steps": [{"action": "state", "value": "a"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.steps[0].Value != "a" {
		t.Errorf("value = %q, want a", r.steps[0].Value)
	}
}

func TestLoadScriptErrors(t *testing.T) {
	for name, src := range map[string]string{
		"invalid": `steps: [`,
		"empty":   `steps: []`,
		"unknown": `steps: [{action: click}]`,
	} {
		if _, err := LoadScript([]byte(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestScriptSetsStateAndWaits(t *testing.T) {
	s := NewScene()
	r, err := LoadScript([]byte(`
steps:
  - action: state
    value: zoom
  - action: wait
    frames: 2
  - action: state
    value: ""
`))
	if err != nil {
		t.Fatal(err)
	}
	s.SetScript(r)

	r.step(s)
	if s.State().Get() != "zoom" {
		t.Fatalf("state = %q, want zoom", s.State().Get())
	}
	r.step(s) // wait, frame 1
	r.step(s) // wait, frame 2
	if s.State().Get() != "zoom" || r.Done() {
		t.Fatal("script should still be waiting")
	}
	r.step(s)
	if s.State().Get() != "" {
		t.Errorf("state = %q, want empty", s.State().Get())
	}
	if !r.Done() {
		t.Error("script should be done after its last step")
	}
}

func TestScriptDrivesBoundScope(t *testing.T) {
	s := NewScene()
	n := NewSprite("n", 1, 1)
	s.Root().AddChild(n)
	s.NewScope(nil, ScopeConfig{ID: "zoom", State: "zoom", Target: "#n"}).
		AddStep(&Step{Style: MustParseStyle("x:60"), Duration: Seconds(1), Ease: "linear"})
	s.Settle(time.Second)

	r, err := LoadScript([]byte(`steps: [{action: state, value: zoom}]`))
	if err != nil {
		t.Fatal(err)
	}
	s.SetScript(r)
	for range 30 {
		if err := s.Update(); err != nil {
			t.Fatal(err)
		}
	}
	if !r.Done() {
		t.Error("script should be done")
	}
	if n.X <= 0 {
		t.Errorf("x = %v, the scripted state should have started playback", n.X)
	}
}
