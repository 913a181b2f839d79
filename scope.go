package sequence

import (
	"slices"
	"time"

	"go.uber.org/zap"
)

// ScopeConfig holds the per-timeline settings authored alongside its steps.
type ScopeConfig struct {
	ID        string        // registry id; empty gets "timeline_N"
	State     string        // state tag that plays the timeline forward
	Target    string        // default selector for steps without one
	TimeScale float64       // playback-rate multiplier; <= 0 means 1
	Position  float64       // offset inside the parent scope's timeline
	Debounce  time.Duration // rebuild coalescing window; <= 0 means DefaultDebounce
	// StateVar is the variable a top-level scope with a State tag watches.
	// nil means the owning Scene's State().
	StateVar *StateVar
}

// Scope owns the steps and child timelines of one timeline and rebuilds it
// whenever they change. Registrations arriving within one debounce window
// produce a single rebuild.
//
// After each rebuild the timeline is registered under the scope's id and,
// for nested scopes, attached to the parent scope at Position.
type Scope struct {
	scene    *Scene
	cfg      ScopeConfig
	parent   *Scope
	steps    []*Step
	children []ChildRef
	timeline *Timeline
	batch    *rebuildBatch
	binding  *Binding
	reset    bool
	disposed bool
	log      *zap.Logger
}

// ID returns the scope's registry id.
func (s *Scope) ID() string { return s.cfg.ID }

// Config returns the scope's settings.
func (s *Scope) Config() ScopeConfig { return s.cfg }

// Parent returns the enclosing scope, or nil.
func (s *Scope) Parent() *Scope { return s.parent }

// Timeline returns the last built timeline, or nil before the first rebuild.
func (s *Scope) Timeline() *Timeline { return s.timeline }

// Binding returns the state binding of a top-level scope with a State tag.
func (s *Scope) Binding() *Binding { return s.binding }

// Steps returns the registered steps in first-registration order. The
// returned slice MUST NOT be mutated by the caller.
func (s *Scope) Steps() []*Step { return s.steps }

// AddStep registers step and schedules a rebuild. Re-adding a step already
// registered keeps its place; use it after editing the step's style.
func (s *Scope) AddStep(step *Step) *Future[*Timeline] {
	if s.disposed {
		return Rejected[*Timeline](s.scene.loop, ErrDisposed)
	}
	if step != nil && !slices.Contains(s.steps, step) {
		s.steps = append(s.steps, step)
	}
	return s.Rebuild()
}

// AddChild attaches a child timeline at position and schedules a rebuild.
// Re-adding a timeline already attached updates its position.
func (s *Scope) AddChild(tl *Timeline, position float64) *Future[*Timeline] {
	if s.disposed {
		return Rejected[*Timeline](s.scene.loop, ErrDisposed)
	}
	if tl != nil {
		i := slices.IndexFunc(s.children, func(c ChildRef) bool { return c.Timeline == tl })
		if i >= 0 {
			s.children[i].Position = position
		} else {
			s.children = append(s.children, ChildRef{Timeline: tl, Position: position})
		}
	}
	return s.Rebuild()
}

// Rebuild schedules a rebuild and returns the future of the current
// coalescing window.
func (s *Scope) Rebuild() *Future[*Timeline] {
	if s.disposed {
		return Rejected[*Timeline](s.scene.loop, ErrDisposed)
	}
	return s.batch.schedule()
}

// SetState changes the scope's state tag and schedules a rebuild, which
// re-registers the timeline under the new tag.
func (s *Scope) SetState(tag string) *Future[*Timeline] {
	if s.disposed {
		return Rejected[*Timeline](s.scene.loop, ErrDisposed)
	}
	s.cfg.State = tag
	if s.binding != nil {
		s.binding.Close()
		s.binding = nil
	}
	if s.parent == nil && tag != "" {
		s.binding = s.scene.bind(s)
	}
	return s.Rebuild()
}

// Invalidate makes the next rebuild re-resolve every selector, for when
// nodes were replaced.
func (s *Scope) Invalidate() {
	s.reset = true
}

// rebuild runs when the debounce window closes. A build error still leaves
// the partial timeline registered and attached; the error rejects the
// window's future.
func (s *Scope) rebuild() (*Timeline, error) {
	var buildErr error
	if len(s.steps) > 0 || len(s.children) > 0 {
		tl, err := s.scene.builder.Build(&Spec{
			ID:        s.cfg.ID,
			Target:    s.cfg.Target,
			TimeScale: s.cfg.TimeScale,
			Timeline:  s.timeline,
			Steps:     s.steps,
			Children:  s.children,
		}, s.reset)
		s.reset = false
		if tl == nil {
			return nil, err
		}
		s.timeline = tl
		if err != nil {
			s.log.Error("Timeline rebuilt with errors", zap.Error(err))
			buildErr = err
		}
		s.scene.emit(EventRebuild, tl)
	}
	if s.timeline == nil {
		return nil, buildErr
	}
	if err := s.scene.registry.Register(s.timeline, s.cfg.ID, s.cfg.State); err != nil {
		return s.timeline, err
	}
	if s.parent != nil {
		s.parent.AddChild(s.timeline, s.cfg.Position)
	}
	return s.timeline, buildErr
}

// removeChild detaches tl from this scope and schedules a rebuild.
func (s *Scope) removeChild(tl *Timeline) {
	s.children = slices.DeleteFunc(s.children, func(c ChildRef) bool { return c.Timeline == tl })
	if tl.parent != nil && tl.parent == s.timeline {
		tl.parent.removeChild(tl)
	}
	if !s.disposed {
		s.Rebuild()
	}
}

// Dispose unregisters the scope's timeline, cancels a pending rebuild,
// stops its state binding and detaches the timeline from the parent scope.
// Nested scopes are not disposed.
func (s *Scope) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.batch.cancel(ErrDisposed)
	if s.binding != nil {
		s.binding.Close()
	}
	if tl, ok := s.scene.registry.Lookup(s.cfg.ID); ok && tl == s.timeline {
		s.scene.registry.Unregister(s.cfg.ID)
	}
	if s.parent != nil && s.timeline != nil {
		s.parent.removeChild(s.timeline)
	}
	s.scene.removeScope(s)
}
