package sequence

import (
	"strings"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// DefaultEase is used by timed steps that do not name an easing function.
var DefaultEase ease.TweenFunc = ease.OutQuad

type entryKind uint8

const (
	entryTo       entryKind = iota // timed transition
	entrySet                       // instantaneous assignment
	entryTimeline                  // nested child timeline
)

func (k entryKind) String() string {
	switch k {
	case entryTo:
		return "to"
	case entrySet:
		return "set"
	case entryTimeline:
		return "timeline"
	}
	return "unknown"
}

// entry is one placed item of a Timeline. Start values of a transition are
// read from the targets the first time the playhead reaches the entry, so a
// transition always continues from whatever earlier entries left behind.
type entry struct {
	kind     entryKind
	start    float64
	duration float64
	targets  []*Node
	style    Style
	ease     ease.TweenFunc
	class    string
	child    *Timeline

	captured   bool
	rendered   bool
	last       float64 // clamped local time of the last render
	tracks     []*track
	classOn    bool
	classAdded []*Node
}

// track animates the channels of one property on one node.
type track struct {
	node   *Node
	def    *propertyDef
	from   []float64
	to     []float64
	tweens []*gween.Tween // nil entries for discrete channels
}

// span is the time the entry occupies in its parent.
func (e *entry) span() float64 {
	if e.kind == entryTimeline {
		return e.child.Duration() / e.child.timeScale
	}
	return e.duration
}

// render positions the entry at local seconds past its start. Negative
// values mean the playhead is before the entry. An entry whose clamped
// position did not change is not written again, so a finished entry cannot
// overwrite a later one while the playhead moves backward.
func (e *entry) render(local float64) {
	if !e.captured {
		if local < 0 {
			return
		}
		e.capture()
	}
	key := -1.0
	if local >= 0 {
		key = min(local, e.span())
	}
	if e.rendered && key == e.last {
		return
	}
	e.rendered, e.last = true, key
	if e.kind == entryTimeline {
		ct := local * e.child.timeScale
		e.child.renderAt(clampRange(ct, 0, e.child.Duration()))
		return
	}

	e.renderClass(local >= 0 && (e.kind == entrySet || local > 0))
	for _, tr := range e.tracks {
		if tr.node.IsDisposed() {
			continue
		}
		tr.apply(local, e.duration, e.kind == entrySet)
	}
}

// capture reads start values and creates one gween tween per channel.
func (e *entry) capture() {
	e.captured = true
	if e.kind == entryTimeline {
		return
	}
	fn := e.ease
	if fn == nil {
		fn = DefaultEase
	}
	for _, n := range e.targets {
		if n.IsDisposed() {
			continue
		}
		for _, p := range e.style.props {
			from := make([]float64, p.def.channels)
			p.def.read(n, from)
			to := p.def.resolve(n, p.Value, from)
			tr := &track{node: n, def: p.def, from: from, to: to}
			if e.kind == entryTo && !p.def.discrete && e.duration > 0 {
				tr.tweens = make([]*gween.Tween, len(from))
				for i := range from {
					tr.tweens[i] = gween.New(float32(from[i]), float32(to[i]), float32(e.duration), fn)
				}
			}
			e.tracks = append(e.tracks, tr)
		}
	}
}

func (e *entry) renderClass(on bool) {
	if e.class == "" || on == e.classOn {
		return
	}
	e.classOn = on
	if on {
		e.classAdded = e.classAdded[:0]
		for _, n := range e.targets {
			if n.AddClass(e.class) {
				e.classAdded = append(e.classAdded, n)
			}
		}
		return
	}
	for _, n := range e.classAdded {
		n.RemoveClass(e.class)
	}
	e.classAdded = e.classAdded[:0]
}

func (tr *track) apply(local, duration float64, instant bool) {
	var buf [4]float64
	out := buf[:len(tr.from)]
	for i := range out {
		switch {
		case instant:
			out[i] = pick(local >= 0, tr.to[i], tr.from[i])
		case tr.tweens == nil:
			out[i] = pick(local > 0, tr.to[i], tr.from[i])
		case local <= 0:
			out[i] = tr.from[i]
		case local >= duration:
			out[i] = tr.to[i]
		default:
			v, _ := tr.tweens[i].Set(float32(local))
			out[i] = float64(v)
		}
	}
	tr.def.write(tr.node, out)
	tr.node.MarkDirty()
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var easeNames = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"inquad":       ease.InQuad,
	"outquad":      ease.OutQuad,
	"inoutquad":    ease.InOutQuad,
	"incubic":      ease.InCubic,
	"outcubic":     ease.OutCubic,
	"inoutcubic":   ease.InOutCubic,
	"inquart":      ease.InQuart,
	"outquart":     ease.OutQuart,
	"inoutquart":   ease.InOutQuart,
	"insine":       ease.InSine,
	"outsine":      ease.OutSine,
	"inoutsine":    ease.InOutSine,
	"inexpo":       ease.InExpo,
	"outexpo":      ease.OutExpo,
	"inoutexpo":    ease.InOutExpo,
	"inback":       ease.InBack,
	"outback":      ease.OutBack,
	"inoutback":    ease.InOutBack,
	"inbounce":     ease.InBounce,
	"outbounce":    ease.OutBounce,
	"inoutbounce":  ease.InOutBounce,
	"inelastic":    ease.InElastic,
	"outelastic":   ease.OutElastic,
	"inoutelastic": ease.InOutElastic,
}

// LookupEase returns the easing function registered under name. Names are
// matched case-insensitively ignoring '-' and '_', so "inOutQuad",
// "in-out-quad" and "InOutQuad" are equivalent.
func LookupEase(name string) (ease.TweenFunc, bool) {
	fn, ok := easeNames[strings.ReplaceAll(normalizePropertyName(name), "_", "")]
	return fn, ok
}
