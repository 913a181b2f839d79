package sequence

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// Scene is the top-level object that owns the node tree, the host loop, the
// timeline registry and the scopes that feed it. Each Update advances the
// loop (debounced rebuilds, next-tick lookups) and then every registered
// top-level timeline.
type Scene struct {
	root     *Node
	loop     *Loop
	registry *Registry
	builder  *Builder
	state    *StateVar
	sink     EventSink
	log      *zap.Logger
	debug    bool

	scopes     []*Scope
	scopeCount int
	updateFunc func() error
	disposed   bool
	drawBuf    []*Node
	script     *Script
	tickers    []func(dt float64)
	shots      []string

	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string

	// ClearColor fills the screen before nodes are drawn. The zero value
	// leaves the screen untouched.
	ClearColor Color
}

// NewScene creates a new scene with a pre-created root container.
func NewScene() *Scene {
	root := NewContainer("root")
	loop := NewLoop()
	log := zap.NewNop()
	return &Scene{
		root:     root,
		loop:     loop,
		registry: NewRegistry(loop),
		builder:  NewBuilder(root, log),
		state:    NewStateVar(),
		log:      log,

		ScreenshotDir: "screenshots",
	}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node { return s.root }

// Loop returns the scene's host loop.
func (s *Scene) Loop() *Loop { return s.loop }

// Registry returns the scene's timeline registry.
func (s *Scene) Registry() *Registry { return s.registry }

// Builder returns the scene's timeline builder.
func (s *Scene) Builder() *Builder { return s.builder }

// State returns the state variable top-level scopes watch by default.
func (s *Scene) State() *StateVar { return s.state }

// Logger returns the scene's logger.
func (s *Scene) Logger() *zap.Logger { return s.log }

// SetLogger sets the logger used by the scene, its builder, scopes and
// bindings. nil disables logging.
func (s *Scene) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	s.log = log
	s.builder.SetLogger(log)
	for _, sc := range s.scopes {
		sc.log = log.With(zap.String("scope", sc.cfg.ID))
		if sc.binding != nil {
			sc.binding.SetLogger(log)
		}
	}
}

// SetEventSink sets the optional ECS bridge.
func (s *Scene) SetEventSink(sink EventSink) {
	s.sink = sink
	for _, sc := range s.scopes {
		if sc.binding != nil {
			sc.binding.SetEventSink(sink)
		}
	}
}

// SetDebugMode enables or disables debug mode. When enabled, every Advance
// logs frame stats at debug level and warns about timelines still targeting
// disposed nodes.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// SetUpdateFunc sets a function called at the end of every Update.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// NewScope creates a scope for one timeline. parent may be nil for a
// top-level timeline; a top-level scope with a State tag gets a Binding to
// cfg.StateVar (or the scene's State()).
func (s *Scene) NewScope(parent *Scope, cfg ScopeConfig) *Scope {
	s.scopeCount++
	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("timeline_%d", s.scopeCount)
	}
	sc := &Scope{
		scene:  s,
		cfg:    cfg,
		parent: parent,
		log:    s.log.With(zap.String("scope", cfg.ID)),
	}
	sc.batch = newRebuildBatch(s.loop, cfg.Debounce, sc.rebuild)
	if parent == nil && cfg.State != "" {
		sc.binding = s.bind(sc)
	}
	s.scopes = append(s.scopes, sc)
	return sc
}

func (s *Scene) bind(sc *Scope) *Binding {
	v := sc.cfg.StateVar
	if v == nil {
		v = s.state
	}
	b := Bind(s.registry, v, sc.cfg.ID, sc.cfg.State)
	b.SetEventSink(s.sink)
	b.SetLogger(s.log)
	return b
}

func (s *Scene) removeScope(sc *Scope) {
	for i, x := range s.scopes {
		if x == sc {
			s.scopes = append(s.scopes[:i], s.scopes[i+1:]...)
			return
		}
	}
}

// Scopes returns the live scopes in creation order. The returned slice MUST
// NOT be mutated.
func (s *Scene) Scopes() []*Scope { return s.scopes }

// Scope returns the live scope with the given id, or nil.
func (s *Scene) Scope(id string) *Scope {
	for _, sc := range s.scopes {
		if sc.cfg.ID == id {
			return sc
		}
	}
	return nil
}

// Update steps the attached script, then advances the scene by one tick at
// the current ebiten TPS.
func (s *Scene) Update() error {
	if s.script != nil {
		s.script.step(s)
	}
	dt := time.Second / time.Duration(ebiten.TPS())
	s.Advance(dt)
	for _, fn := range s.tickers {
		fn(dt.Seconds())
	}
	if s.updateFunc != nil {
		return s.updateFunc()
	}
	return nil
}

// Advance runs the loop for dt and then moves every registered top-level
// timeline by dt, once per timeline however many ids it has. Use it directly for headless playback and tests.
func (s *Scene) Advance(dt time.Duration) {
	if s.disposed {
		return
	}
	var (
		stats debugStats
		start time.Time
	)
	if s.debug {
		start = time.Now()
	}
	s.loop.Advance(dt)

	secs := float32(dt.Seconds())
	// A timeline registered under several ids still moves once per call.
	seen := make(map[*Timeline]bool, s.registry.Len())
	s.registry.Each(func(_ string, tl *Timeline) {
		if seen[tl] {
			return
		}
		seen[tl] = true
		if s.debug {
			stats.registered++
		}
		if tl.parent != nil || !tl.IsActive() {
			return
		}
		if s.debug {
			stats.active++
			stats.entries += countEntries(tl)
			s.debugCheckTargets(tl)
		}
		tl.Update(secs)
		if !tl.IsActive() {
			if tl.reversed {
				s.emit(EventReverseComplete, tl)
			} else {
				s.emit(EventComplete, tl)
			}
		}
	})

	if s.debug {
		stats.advanceTime = time.Since(start)
		stats.pending = s.loop.Pending()
		s.debugLog(stats)
	}
}

// Settle advances the loop in debounce-sized steps until nothing is pending
// or limit is reached, leaving timelines where they are. Use it after
// mounting to get every scope built before the first frame.
func (s *Scene) Settle(limit time.Duration) {
	for elapsed := time.Duration(0); s.loop.Pending() > 0 && elapsed < limit; elapsed += DefaultDebounce {
		s.loop.Advance(DefaultDebounce)
	}
}

func (s *Scene) emit(typ EventType, tl *Timeline) {
	if s.sink != nil {
		s.sink.EmitEvent(newTimelineEvent(typ, tl))
	}
}

// Dispose tears down every scope and the registry. The node tree is left
// alone.
func (s *Scene) Dispose() {
	if s.disposed {
		return
	}
	for len(s.scopes) > 0 {
		s.scopes[len(s.scopes)-1].Dispose()
	}
	s.registry.Dispose()
	s.disposed = true
}
