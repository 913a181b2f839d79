package sequence

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrUnknownEase is wrapped by build errors for unregistered easing names.
	ErrUnknownEase = errors.New("unknown ease")
	// ErrNegativeDuration is wrapped by build errors for steps with a
	// duration below zero.
	ErrNegativeDuration = errors.New("negative duration")
)

// Builder compiles Specs into Timelines against one scene graph. Selector
// results are memoized per builder until ResetTargets or a Build with
// resetTargets set.
type Builder struct {
	root    *Node
	log     *zap.Logger
	targets map[string][]*Node
	counter int
}

// NewBuilder creates a builder resolving selectors below root. A nil logger
// disables logging.
func NewBuilder(root *Node, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{root: root, log: log, targets: map[string][]*Node{}}
}

// SetLogger replaces the builder's logger. nil disables logging.
func (b *Builder) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	b.log = log
}

// ResetTargets drops memoized selector results.
func (b *Builder) ResetTargets() {
	b.targets = map[string][]*Node{}
}

// Resolve returns the nodes matching selector, memoized.
func (b *Builder) Resolve(selector string) ([]*Node, error) {
	if nodes, ok := b.targets[selector]; ok && !anyDisposed(nodes) {
		return nodes, nil
	}
	nodes, err := Query(b.root, selector)
	if err != nil {
		return nil, err
	}
	b.targets[selector] = nodes
	return nodes, nil
}

func anyDisposed(nodes []*Node) bool {
	for _, n := range nodes {
		if n.IsDisposed() {
			return true
		}
	}
	return false
}

// Build compiles spec into a timeline. spec.Timeline, when set, is cleared
// and refilled in place so references held elsewhere stay valid; otherwise a
// new timeline is allocated. A spec with no steps and no children leaves an
// existing spec.Timeline untouched.
//
// Steps are placed in order: a label goes at the current end first, then the
// step's transition (Duration set) or instantaneous set (Duration nil) at its
// position. Children follow at their offsets. The result is paused at 0.
//
// Steps whose target matches no node are skipped with a warning. Steps that
// cannot be placed (bad selector, unknown or forward label, bad position,
// negative duration, unknown ease) are skipped and reported in the returned
// error; the timeline is still returned and holds everything else.
func (b *Builder) Build(spec *Spec, resetTargets bool) (*Timeline, error) {
	if spec == nil {
		return nil, errors.New("sequence: nil spec")
	}
	if resetTargets {
		b.ResetTargets()
	}

	tl := spec.Timeline
	if tl != nil && len(spec.Steps) == 0 && len(spec.Children) == 0 {
		return tl, nil
	}
	if tl == nil {
		id := spec.ID
		if id == "" {
			b.counter++
			id = fmt.Sprintf("timeline_%d", b.counter)
		}
		tl = NewTimeline(id)
	} else {
		tl.Clear()
		if spec.ID != "" {
			tl.id = spec.ID
		}
	}
	ts := spec.TimeScale
	if ts <= 0 {
		ts = 1
	}
	tl.SetTimeScale(ts)
	if spec.OnUpdate != nil {
		tl.OnUpdate(spec.OnUpdate)
	}

	log := b.log.With(zap.String("timeline", tl.id))
	log.Debug("Rebuilding timeline", zap.Int("steps", len(spec.Steps)), zap.Int("children", len(spec.Children)))

	var errs error
	for i, step := range spec.Steps {
		if step == nil {
			continue
		}
		if step.Label != "" {
			if err := tl.AddLabel(step.Label, ""); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("step %d: %w", i, err))
				continue
			}
			log.Debug("addLabel", zap.String("label", step.Label), zap.Float64("at", tl.labels[step.Label]))
		}
		if step.isMarkerOnly() {
			continue
		}
		if err := b.place(tl, spec, step, log); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("step %d: %w", i, err))
		}
	}

	for _, c := range spec.Children {
		if c.Timeline == nil {
			continue
		}
		if err := tl.AddAt(c.Timeline, c.Position); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("child %q: %w", c.Timeline.id, err))
			continue
		}
		log.Debug("add", zap.String("child", c.Timeline.id), zap.Float64("position", c.Position))
	}

	tl.time = 0
	tl.paused = true
	tl.reversed = false
	tl.done = false
	return tl, errs
}

func (b *Builder) place(tl *Timeline, spec *Spec, step *Step, log *zap.Logger) error {
	sel := step.Target
	if sel == "" {
		sel = spec.Target
	}
	if sel == "" {
		log.Warn("Step has no target, skipped", zap.String("style", step.Style.String()))
		return nil
	}
	nodes, err := b.Resolve(sel)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		log.Warn("Unresolved target, step skipped", zap.String("target", sel))
		return nil
	}

	opts := TweenOptions{Class: step.Class}
	if step.Ease != "" {
		fn, ok := LookupEase(step.Ease)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownEase, step.Ease)
		}
		opts.Ease = fn
	}

	if step.Duration == nil {
		if err := tl.Set(nodes, step.Style, step.Position, opts); err != nil {
			return err
		}
		log.Debug("set", zap.String("target", sel), zap.Stringer("style", step.Style), zap.String("position", step.Position))
		return nil
	}
	d := *step.Duration
	if d < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDuration, d)
	}
	if err := tl.To(nodes, step.Style, d, step.Position, opts); err != nil {
		return err
	}
	log.Debug("to", zap.String("target", sel), zap.Float64("duration", d),
		zap.Stringer("style", step.Style), zap.String("position", step.Position))
	return nil
}
