package sequence

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNotFound is wrapped by lookup errors for unknown ids and state tags.
	ErrNotFound = errors.New("timeline not found")
	// ErrDisposed is returned by operations on a disposed registry or scope.
	ErrDisposed = errors.New("disposed")
	// ErrEmptyID is returned when registering a timeline without an id.
	ErrEmptyID = errors.New("empty timeline id")
)

// NotFoundError reports a failed lookup. It is not fatal: the timeline may
// simply not have been built yet, and the caller may retry on a later tick.
type NotFoundError struct {
	Kind string // "id" or "state"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("timeline (%s == %q) was not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Callbacks are attached to a timeline by Registry.Timeline before the
// caller is handed the timeline. nil fields leave existing callbacks alone.
type Callbacks struct {
	OnComplete        func(*Timeline)
	OnReverseComplete func(*Timeline)
	OnUpdate          func(*Timeline)
}

// Registry maps ids and state tags to timelines. Lookups resolve on the next
// tick of its Loop so they observe rebuilds already queued in the current
// one. At most one timeline is registered per id; the last registration
// wins.
type Registry struct {
	loop     *Loop
	byID     map[string]*Timeline
	byState  map[string]*Timeline
	order    []string
	disposed bool
}

// NewRegistry creates an empty registry resolving lookups through loop.
func NewRegistry(loop *Loop) *Registry {
	return &Registry{
		loop:    loop,
		byID:    map[string]*Timeline{},
		byState: map[string]*Timeline{},
	}
}

// Register stores tl under id. A non-empty state tags tl and indexes it for
// FindByState; an empty state leaves the timeline's current tag in place.
func (r *Registry) Register(tl *Timeline, id, state string) error {
	if r.disposed {
		return ErrDisposed
	}
	if tl == nil {
		return errors.New("sequence: nil timeline")
	}
	if id == "" {
		return ErrEmptyID
	}
	if prev, ok := r.byID[id]; ok {
		if prev != tl {
			r.unindexState(prev)
		}
	} else {
		r.order = append(r.order, id)
	}
	r.byID[id] = tl
	if state != "" && state != tl.state {
		r.unindexState(tl)
		tl.state = state
	}
	if tl.state != "" {
		r.byState[tl.state] = tl
	}
	return nil
}

func (r *Registry) unindexState(tl *Timeline) {
	if tl.state != "" && r.byState[tl.state] == tl {
		delete(r.byState, tl.state)
	}
}

// Unregister removes the timeline stored under id. Reports whether one was
// present.
func (r *Registry) Unregister(id string) bool {
	tl, ok := r.byID[id]
	if !ok {
		return false
	}
	r.unindexState(tl)
	delete(r.byID, id)
	for i, x := range r.order {
		if x == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of registered ids.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Each calls fn for every registered timeline in registration order.
func (r *Registry) Each(fn func(id string, tl *Timeline)) {
	for _, id := range slices.Clone(r.order) {
		if tl, ok := r.byID[id]; ok {
			fn(id, tl)
		}
	}
}

// Lookup returns the timeline stored under id right now, without waiting
// for the next tick.
func (r *Registry) Lookup(id string) (*Timeline, bool) {
	tl, ok := r.byID[id]
	return tl, ok
}

// FindByID resolves to the timeline registered under id on the next tick.
func (r *Registry) FindByID(id string) *Future[*Timeline] {
	return r.find(func() (*Timeline, error) {
		if tl, ok := r.byID[id]; ok {
			return tl, nil
		}
		return nil, &NotFoundError{Kind: "id", Key: id}
	})
}

// FindByState resolves to the timeline tagged with state on the next tick.
func (r *Registry) FindByState(state string) *Future[*Timeline] {
	return r.find(func() (*Timeline, error) {
		if tl, ok := r.byState[state]; ok {
			return tl, nil
		}
		return nil, &NotFoundError{Kind: "state", Key: state}
	})
}

// Timeline looks up id like FindByID and attaches cb before resolving, so
// the callbacks are in place before the caller can start playback.
func (r *Registry) Timeline(id string, cb Callbacks) *Future[*Timeline] {
	return r.find(func() (*Timeline, error) {
		tl, ok := r.byID[id]
		if !ok {
			return nil, &NotFoundError{Kind: "id", Key: id}
		}
		if cb.OnComplete != nil {
			tl.OnComplete(cb.OnComplete)
		}
		if cb.OnReverseComplete != nil {
			tl.OnReverseComplete(cb.OnReverseComplete)
		}
		if cb.OnUpdate != nil {
			tl.OnUpdate(cb.OnUpdate)
		}
		return tl, nil
	})
}

func (r *Registry) find(lookup func() (*Timeline, error)) *Future[*Timeline] {
	fut := newFuture[*Timeline](r.loop)
	r.loop.Defer(func() {
		if r.disposed {
			fut.reject(ErrDisposed)
			return
		}
		tl, err := lookup()
		if err != nil {
			fut.reject(err)
			return
		}
		fut.resolve(tl)
	})
	return fut
}

// Dispose drops every entry. Later registrations fail and later lookups
// reject with ErrDisposed.
func (r *Registry) Dispose() {
	r.disposed = true
	clear(r.byID)
	clear(r.byState)
	r.order = nil
}
