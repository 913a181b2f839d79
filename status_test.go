package sequence

import (
	"strings"
	"testing"
	"time"
)

func TestStatusText(t *testing.T) {
	s := NewScene()
	n := NewSprite("n", 1, 1)
	tl := NewTimeline("t")
	mustTo(t, tl, n, "x:1", 1, "", linear)
	if err := s.Registry().Register(tl, "t", "open"); err != nil {
		t.Fatal(err)
	}
	s.State().Set("open")
	tl.Play()

	got := s.statusText()
	if !strings.HasPrefix(got, "state: \"open\"\nplaying: 1\n") {
		t.Errorf("statusText = %q", got)
	}

	s.Advance(2 * time.Second)
	if got := s.statusText(); !strings.Contains(got, "playing: 0") {
		t.Errorf("statusText after completion = %q", got)
	}
}
