package sequence

import "go.uber.org/zap"

// StateVar is an observable string shared by the bindings below one
// ancestor. The zero value is unset; the first Set always notifies.
type StateVar struct {
	value    string
	set      bool
	nextID   int
	watchers []stateWatcher
}

type stateWatcher struct {
	id int
	fn func(current, old string)
}

// NewStateVar creates an unset state variable.
func NewStateVar() *StateVar {
	return &StateVar{}
}

// Get returns the current value.
func (v *StateVar) Get() string {
	return v.value
}

// Set stores s and notifies watchers in registration order if it changed.
func (v *StateVar) Set(s string) {
	if v.set && s == v.value {
		return
	}
	old := v.value
	v.value = s
	v.set = true
	for _, w := range append([]stateWatcher(nil), v.watchers...) {
		w.fn(s, old)
	}
}

// Watch registers fn for changes. The returned function unregisters it.
func (v *StateVar) Watch(fn func(current, old string)) (cancel func()) {
	v.nextID++
	id := v.nextID
	v.watchers = append(v.watchers, stateWatcher{id: id, fn: fn})
	return func() {
		for i, w := range v.watchers {
			if w.id == id {
				v.watchers = append(v.watchers[:i], v.watchers[i+1:]...)
				return
			}
		}
	}
}

// Phase is the playback phase of a state binding.
type Phase uint8

const (
	PhaseIdle    Phase = iota // never played, or reversed back to 0
	PhaseForward              // restarted and playing (or held at the end)
	PhaseReverse              // playing backward toward 0
)

func (p Phase) String() string {
	switch p {
	case PhaseForward:
		return "forward"
	case PhaseReverse:
		return "reverse"
	}
	return "idle"
}

// Binding plays the timeline registered under an id forward when a StateVar
// changes to the binding's tag, and backward when it changes to "". Other
// values belong to sibling bindings and are ignored.
//
// Each change issues its own lookup; nothing happens until the lookup
// resolves, and a later change simply acts after an earlier one.
type Binding struct {
	registry *Registry
	id       string
	tag      string
	timeline *Timeline
	cancel   func()
	sink     EventSink
	log      *zap.Logger
}

// Bind watches state on behalf of the timeline registered under id. An
// empty tag produces an inert binding.
func Bind(r *Registry, state *StateVar, id, tag string) *Binding {
	b := &Binding{registry: r, id: id, tag: tag, log: zap.NewNop()}
	if tag != "" {
		b.cancel = state.Watch(b.onChange)
	}
	return b
}

// SetEventSink forwards restart/reverse events to sink.
func (b *Binding) SetEventSink(sink EventSink) { b.sink = sink }

// SetLogger sets the logger used for failed lookups. nil disables logging.
func (b *Binding) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	b.log = log
}

// Tag returns the state value that plays the timeline forward.
func (b *Binding) Tag() string { return b.tag }

// Phase derives the playback phase from the bound timeline.
func (b *Binding) Phase() Phase {
	tl := b.timeline
	if tl == nil {
		return PhaseIdle
	}
	if tl.reversed {
		if tl.done || tl.time <= 0 {
			return PhaseIdle
		}
		return PhaseReverse
	}
	if tl.paused && tl.time <= 0 {
		return PhaseIdle
	}
	return PhaseForward
}

// Close stops watching the state variable.
func (b *Binding) Close() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Binding) onChange(current, _ string) {
	var (
		act func(*Timeline)
		typ EventType
	)
	switch current {
	case b.tag:
		act, typ = (*Timeline).Restart, EventRestart
	case "":
		act, typ = (*Timeline).Reverse, EventReverse
	default:
		return
	}
	b.registry.FindByID(b.id).Then(func(tl *Timeline) {
		b.timeline = tl
		act(tl)
		if b.sink != nil {
			b.sink.EmitEvent(newTimelineEvent(typ, tl))
		}
	}, func(err error) {
		b.log.Debug("State change ignored", zap.String("timeline", b.id), zap.String("state", current), zap.Error(err))
	})
}
