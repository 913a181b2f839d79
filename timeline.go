package sequence

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/tanema/gween/ease"
)

// Timeline is a playable, time-ordered schedule of property changes on scene
// nodes, optionally containing child timelines. A Timeline does nothing on
// its own: call Update(dt) each frame, or let the owning Scene do it for
// registered top-level timelines.
//
// A child timeline added to a parent is driven by the parent's playhead and
// ignores its own Update.
type Timeline struct {
	id     string
	state  string
	parent *Timeline

	entries []*entry // insertion order
	ordered []*entry // by start time, stable; nil when stale
	labels  map[string]float64
	marks   []string // label insertion order

	timeScale float64
	time      float64
	paused    bool
	reversed  bool
	done      bool

	onUpdate          func(*Timeline)
	onComplete        func(*Timeline)
	onReverseComplete func(*Timeline)
}

// NewTimeline creates an empty, paused timeline.
func NewTimeline(id string) *Timeline {
	return &Timeline{
		id:        id,
		labels:    map[string]float64{},
		timeScale: 1,
		paused:    true,
	}
}

// ID returns the identifier the timeline was created with.
func (tl *Timeline) ID() string { return tl.id }

// State returns the associated state tag, or "".
func (tl *Timeline) State() string { return tl.state }

// Parent returns the timeline this one is nested in, or nil.
func (tl *Timeline) Parent() *Timeline { return tl.parent }

// TimeScale returns the playback-rate multiplier.
func (tl *Timeline) TimeScale() float64 { return tl.timeScale }

// SetTimeScale sets the playback-rate multiplier. Values <= 0 are ignored.
func (tl *Timeline) SetTimeScale(s float64) {
	if s > 0 {
		tl.timeScale = s
	}
}

// Time returns the playhead position in seconds.
func (tl *Timeline) Time() float64 { return tl.time }

// Duration returns the end of the last entry in seconds.
func (tl *Timeline) Duration() float64 {
	var d float64
	for _, e := range tl.entries {
		if end := e.start + e.span(); end > d {
			d = end
		}
	}
	return d
}

// Progress returns Time()/Duration() in [0, 1].
func (tl *Timeline) Progress() float64 {
	d := tl.Duration()
	if d <= 0 {
		if tl.done && !tl.reversed {
			return 1
		}
		return 0
	}
	return clampRange(tl.time/d, 0, 1)
}

// Paused reports whether playback is paused.
func (tl *Timeline) Paused() bool { return tl.paused }

// Reversed reports whether the playhead moves backward.
func (tl *Timeline) Reversed() bool { return tl.reversed }

// IsActive reports whether Update would move the playhead.
func (tl *Timeline) IsActive() bool { return !tl.paused && !tl.done }

// LabelTime returns the time of label name.
func (tl *Timeline) LabelTime(name string) (float64, bool) {
	t, ok := tl.labels[name]
	return t, ok
}

// Labels returns a copy of the label table.
func (tl *Timeline) Labels() map[string]float64 {
	out := make(map[string]float64, len(tl.labels))
	for k, v := range tl.labels {
		out[k] = v
	}
	return out
}

// --- Callbacks ---

// OnUpdate sets a function called after every render. nil detaches it.
func (tl *Timeline) OnUpdate(fn func(*Timeline)) { tl.onUpdate = fn }

// OnComplete sets a function called when forward playback reaches the end.
func (tl *Timeline) OnComplete(fn func(*Timeline)) { tl.onComplete = fn }

// OnReverseComplete sets a function called when reverse playback reaches 0.
func (tl *Timeline) OnReverseComplete(fn func(*Timeline)) { tl.onReverseComplete = fn }

// --- Playback ---

// Play resumes forward playback from the current time.
func (tl *Timeline) Play() {
	tl.paused = false
	tl.reversed = false
	tl.done = false
}

// Restart moves the playhead to 0 and plays forward.
func (tl *Timeline) Restart() {
	tl.renderAt(0)
	tl.paused = false
	tl.reversed = false
	tl.done = false
}

// Reverse plays backward from the current time toward 0.
func (tl *Timeline) Reverse() {
	tl.paused = false
	tl.reversed = true
	tl.done = false
}

// Pause stops the playhead without changing direction.
func (tl *Timeline) Pause() { tl.paused = true }

// Resume continues in the current direction.
func (tl *Timeline) Resume() { tl.paused = false }

// Seek moves the playhead to t seconds (clamped to the duration) and renders.
// Playback state is unchanged.
func (tl *Timeline) Seek(t float64) {
	tl.done = false
	tl.renderAt(clampRange(t, 0, tl.Duration()))
}

// Update advances the playhead by dt seconds scaled by TimeScale. It is a
// no-op while paused, after reaching the end in the current direction, or
// while the timeline is nested in a parent.
func (tl *Timeline) Update(dt float32) {
	if tl.paused || tl.done || tl.parent != nil {
		return
	}
	d := float64(dt) * tl.timeScale
	if tl.reversed {
		t := tl.time - d
		if t > 0 {
			tl.renderAt(t)
			return
		}
		tl.renderAt(0)
		tl.done = true
		if tl.onReverseComplete != nil {
			tl.onReverseComplete(tl)
		}
		return
	}

	end := tl.Duration()
	t := tl.time + d
	if t < end {
		tl.renderAt(t)
		return
	}
	tl.renderAt(end)
	tl.done = true
	if tl.onComplete != nil {
		tl.onComplete(tl)
	}
}

// renderAt moves the playhead to t and renders every entry. Entries are
// visited in start order when moving forward and in reverse start order when
// moving backward, so overlapping writes settle on the entry nearest the
// playhead.
func (tl *Timeline) renderAt(t float64) {
	backward := t < tl.time
	tl.time = t
	order := tl.sorted()
	if backward {
		for i := len(order) - 1; i >= 0; i-- {
			order[i].render(t - order[i].start)
		}
	} else {
		for _, e := range order {
			e.render(t - e.start)
		}
	}
	if tl.onUpdate != nil {
		tl.onUpdate(tl)
	}
}

func (tl *Timeline) sorted() []*entry {
	if tl.ordered == nil {
		tl.ordered = slices.Clone(tl.entries)
		sort.SliceStable(tl.ordered, func(i, j int) bool {
			return tl.ordered[i].start < tl.ordered[j].start
		})
	}
	return tl.ordered
}

// --- Construction ---

// TweenOptions tunes a placed step.
type TweenOptions struct {
	Ease  ease.TweenFunc // nil means DefaultEase
	Class string         // class added to the targets while the step is reached
}

// AddLabel inserts a named marker at position (see the position grammar on
// To). A label that already exists is moved.
func (tl *Timeline) AddLabel(name, position string) error {
	if name == "" {
		return fmt.Errorf("%w: empty label", ErrBadPosition)
	}
	at, err := tl.resolvePosition(position)
	if err != nil {
		return err
	}
	if _, ok := tl.labels[name]; !ok {
		tl.marks = append(tl.marks, name)
	}
	tl.labels[name] = at
	return nil
}

// To appends a timed transition of style on targets.
//
// position is one of:
//
//	""          after the current end
//	"1.5"       absolute offset in seconds
//	"+=0.2"     current end plus 0.2 ("-=" subtracts)
//	"intro"     the time of label intro
//	"intro+=1"  label intro plus 1 ("-=" subtracts)
//
// Labels must already exist. A duration <= 0 places an instantaneous set.
func (tl *Timeline) To(targets []*Node, style Style, duration float64, position string, opts TweenOptions) error {
	if duration <= 0 {
		return tl.Set(targets, style, position, opts)
	}
	at, err := tl.resolvePosition(position)
	if err != nil {
		return err
	}
	tl.insert(&entry{
		kind:     entryTo,
		start:    at,
		duration: duration,
		targets:  targets,
		style:    style,
		ease:     opts.Ease,
		class:    opts.Class,
	})
	return nil
}

// Set appends an instantaneous assignment of style on targets.
func (tl *Timeline) Set(targets []*Node, style Style, position string, opts TweenOptions) error {
	at, err := tl.resolvePosition(position)
	if err != nil {
		return err
	}
	tl.insert(&entry{
		kind:    entrySet,
		start:   at,
		targets: targets,
		style:   style,
		class:   opts.Class,
	})
	return nil
}

// Add nests child at position. The child leaves its paused state but is
// driven by this timeline's playhead from now on. Adding a child that is
// already nested elsewhere moves it.
func (tl *Timeline) Add(child *Timeline, position string) error {
	if child == nil {
		return fmt.Errorf("sequence: nil child timeline")
	}
	for p := tl; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("sequence: timeline %q cannot contain itself", child.id)
		}
	}
	at, err := tl.resolvePosition(position)
	if err != nil {
		return err
	}
	if child.parent != nil && child.parent != tl {
		child.parent.removeChild(child)
	}
	child.parent = tl
	child.paused = false
	child.done = false
	tl.insert(&entry{kind: entryTimeline, start: at, child: child})
	return nil
}

// AddAt nests child at an absolute offset.
func (tl *Timeline) AddAt(child *Timeline, offset float64) error {
	return tl.Add(child, strconv.FormatFloat(offset, 'g', -1, 64))
}

// Clear removes all entries and labels and detaches child timelines, which
// go back to a paused state. Property values already written to nodes are
// left as they are.
func (tl *Timeline) Clear() {
	for _, e := range tl.entries {
		if e.kind == entryTimeline && e.child.parent == tl {
			e.child.parent = nil
			e.child.paused = true
		}
		e.renderClass(false)
	}
	tl.entries = nil
	tl.ordered = nil
	clear(tl.labels)
	tl.marks = nil
	tl.time = 0
	tl.done = false
}

func (tl *Timeline) removeChild(child *Timeline) {
	tl.entries = slices.DeleteFunc(tl.entries, func(e *entry) bool {
		return e.kind == entryTimeline && e.child == child
	})
	tl.ordered = nil
	child.parent = nil
}

func (tl *Timeline) insert(e *entry) {
	tl.entries = append(tl.entries, e)
	tl.ordered = nil
}

func (tl *Timeline) resolvePosition(tok string) (float64, error) {
	p, err := parsePosition(tok)
	if err != nil {
		return 0, err
	}
	return p.resolve(tl)
}

// --- Inspection ---

// Scheduled describes one placed entry, for inspection and tests.
type Scheduled struct {
	Kind     string // "to", "set" or "timeline"
	Targets  []string
	Start    float64
	Duration float64
	Style    string
	Class    string
	Timeline string // child timeline id for Kind "timeline"
}

// Schedule returns the placed entries in insertion order.
func (tl *Timeline) Schedule() []Scheduled {
	out := make([]Scheduled, 0, len(tl.entries))
	for _, e := range tl.entries {
		s := Scheduled{
			Kind:     e.kind.String(),
			Start:    e.start,
			Duration: e.span(),
			Style:    e.style.String(),
			Class:    e.class,
		}
		for _, n := range e.targets {
			s.Targets = append(s.Targets, n.Name)
		}
		if e.child != nil {
			s.Timeline = e.child.id
		}
		out = append(out, s)
	}
	return out
}

// LabelNames returns label names in insertion order.
func (tl *Timeline) LabelNames() []string {
	return slices.Clone(tl.marks)
}
