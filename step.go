package sequence

// Step is one declarative unit of a timeline: an optional label, then a
// style change on a target.
//
// A nil Duration makes the step an instantaneous set; otherwise it is a
// transition lasting *Duration seconds. Position follows the grammar
// documented on Timeline.To. A step with a Label and no style only marks the
// label.
//
// Steps are registered by pointer: re-adding the same *Step to a Scope after
// changing its Style keeps its place in the order and triggers a rebuild.
type Step struct {
	Target   string   // selector; empty means the scope's default target
	Style    Style    // properties to write
	Duration *float64 // nil means instantaneous
	Position string   // placement token
	Label    string   // marker inserted at the current end before placement
	Class    string   // class added to targets once the step is reached
	Ease     string   // easing name (see LookupEase); empty means DefaultEase
}

// Seconds returns a pointer to d, for Step.Duration literals.
func Seconds(d float64) *float64 {
	return &d
}

// isMarkerOnly reports whether the step places nothing but its label.
func (s *Step) isMarkerOnly() bool {
	return s.Duration == nil && s.Style.IsEmpty() && s.Class == ""
}

// ChildRef is a child timeline attached to a parent at an offset.
type ChildRef struct {
	Timeline *Timeline
	Position float64
}

// Spec is the source a Builder compiles into a Timeline.
type Spec struct {
	ID        string
	Target    string  // default selector for steps without one
	TimeScale float64 // <= 0 means 1
	Timeline  *Timeline
	Steps     []*Step
	Children  []ChildRef
	OnUpdate  func(*Timeline)
}
