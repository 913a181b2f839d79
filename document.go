package sequence

import (
	"fmt"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Document is a declarative scene: a node tree plus nested timelines, the
// way markup would describe them.
//
//	nodes:
//	  - name: card
//	    class: [tile]
//	    width: 120
//	    height: 80
//	    color: "#3399ff"
//	timelines:
//	  - id: zoom
//	    state: zoom
//	    target: "#card"
//	    steps:
//	      - style: "opacity:1"
//	        duration: 0.3
//	      - label: mid
//	      - style: "x:10"
//	        duration: 0.2
//	        position: mid+=0.1
type Document struct {
	Nodes     []NodeDoc     `yaml:"nodes"`
	Timelines []TimelineDoc `yaml:"timelines"`
}

// NodeDoc describes one node and its children.
type NodeDoc struct {
	Name     string    `yaml:"name"`
	Class    []string  `yaml:"class,omitempty"`
	Sprite   *bool     `yaml:"sprite,omitempty"` // default: true when width and height are set
	X        float64   `yaml:"x,omitempty"`
	Y        float64   `yaml:"y,omitempty"`
	Width    float64   `yaml:"width,omitempty"`
	Height   float64   `yaml:"height,omitempty"`
	Color    string    `yaml:"color,omitempty"`
	Alpha    *float64  `yaml:"alpha,omitempty"`
	Hidden   bool      `yaml:"hidden,omitempty"`
	ZIndex   int       `yaml:"zIndex,omitempty"`
	Children []NodeDoc `yaml:"children,omitempty"`
}

// TimelineDoc describes one timeline scope.
type TimelineDoc struct {
	ID        string        `yaml:"id,omitempty"`
	State     string        `yaml:"state,omitempty"`
	Target    string        `yaml:"target,omitempty"`
	TimeScale float64       `yaml:"timeScale,omitempty"`
	Position  float64       `yaml:"position,omitempty"`
	Steps     []StepDoc     `yaml:"steps,omitempty"`
	Timelines []TimelineDoc `yaml:"timelines,omitempty"`
}

// StepDoc describes one step. Style uses the ParseStyle syntax.
type StepDoc struct {
	Target   string   `yaml:"target,omitempty"`
	Style    string   `yaml:"style,omitempty"`
	Duration *float64 `yaml:"duration,omitempty"`
	Position string   `yaml:"position,omitempty"`
	Label    string   `yaml:"label,omitempty"`
	Class    string   `yaml:"class,omitempty"`
	Ease     string   `yaml:"ease,omitempty"`
}

// LoadDocument parses YAML into a Document and validates every style and
// color in it. All problems are reported together.
func LoadDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks styles, colors, positions and easing names.
func (d *Document) Validate() error {
	var errs error
	var nodes func(path string, list []NodeDoc)
	nodes = func(path string, list []NodeDoc) {
		for i, n := range list {
			p := fmt.Sprintf("%s[%d]", path, i)
			if n.Color != "" {
				if _, err := parseColor(n.Color); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%s.color: %w", p, err))
				}
			}
			nodes(p+".children", n.Children)
		}
	}
	nodes("nodes", d.Nodes)

	var timelines func(path string, list []TimelineDoc)
	timelines = func(path string, list []TimelineDoc) {
		for i, t := range list {
			p := fmt.Sprintf("%s[%d]", path, i)
			for j, s := range t.Steps {
				sp := fmt.Sprintf("%s.steps[%d]", p, j)
				if _, err := ParseStyle(s.Style); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%s.style: %w", sp, err))
				}
				if _, err := parsePosition(s.Position); err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%s.position: %w", sp, err))
				}
				if s.Ease != "" {
					if _, ok := LookupEase(s.Ease); !ok {
						errs = multierr.Append(errs, fmt.Errorf("%s.ease: %w: %q", sp, ErrUnknownEase, s.Ease))
					}
				}
				if s.Duration != nil && *s.Duration < 0 {
					errs = multierr.Append(errs, fmt.Errorf("%s.duration: %w", sp, ErrNegativeDuration))
				}
			}
			timelines(p+".timelines", t.Timelines)
		}
	}
	timelines("timelines", d.Timelines)
	return errs
}

// Mounted is the result of Scene.Mount.
type Mounted struct {
	Nodes  []*Node  // top-level nodes added under the scene root
	Scopes []*Scope // every scope, parents before children
	Steps  map[*Scope][]*Step
}

// Mount adds the document's nodes under the scene root and creates its
// timeline scopes. Steps of nested scopes are registered before those of
// their parents, so child timelines are built and attached by the time the
// parent's debounce window closes. Call Settle (or keep updating) to let the
// rebuilds run.
//
// Nodes and steps are built before the scene is touched: on error the scene
// is left as it was.
func (s *Scene) Mount(doc *Document) (*Mounted, error) {
	var nodes []*Node
	for _, nd := range doc.Nodes {
		n, err := buildNode(nd)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	plans, err := planTimelines("timelines", doc.Timelines)
	if err != nil {
		return nil, err
	}

	m := &Mounted{Nodes: nodes, Steps: map[*Scope][]*Step{}}
	for _, n := range nodes {
		s.root.AddChild(n)
	}
	s.builder.ResetTargets()

	var order []*Scope // post-order: children before parents
	var create func(parent *Scope, plans []timelinePlan)
	create = func(parent *Scope, plans []timelinePlan) {
		for _, p := range plans {
			sc := s.NewScope(parent, ScopeConfig{
				ID:        p.doc.ID,
				State:     p.doc.State,
				Target:    p.doc.Target,
				TimeScale: p.doc.TimeScale,
				Position:  p.doc.Position,
			})
			m.Scopes = append(m.Scopes, sc)
			m.Steps[sc] = p.steps
			create(sc, p.children)
			order = append(order, sc)
		}
	}
	create(nil, plans)

	for _, sc := range order {
		steps := m.Steps[sc]
		for _, st := range steps {
			sc.AddStep(st)
		}
		if len(steps) == 0 {
			sc.Rebuild()
		}
	}
	return m, nil
}

// timelinePlan is a TimelineDoc with its steps already parsed.
type timelinePlan struct {
	doc      TimelineDoc
	steps    []*Step
	children []timelinePlan
}

func planTimelines(path string, docs []TimelineDoc) ([]timelinePlan, error) {
	plans := make([]timelinePlan, 0, len(docs))
	for i, td := range docs {
		p := fmt.Sprintf("%s[%d]", path, i)
		if td.ID != "" {
			p = fmt.Sprintf("timeline %q", td.ID)
		}
		plan := timelinePlan{doc: td, steps: make([]*Step, 0, len(td.Steps))}
		for j, sd := range td.Steps {
			st, err := sd.step()
			if err != nil {
				return nil, fmt.Errorf("%s.steps[%d]: %w", p, j, err)
			}
			plan.steps = append(plan.steps, st)
		}
		children, err := planTimelines(p+".timelines", td.Timelines)
		if err != nil {
			return nil, err
		}
		plan.children = children
		plans = append(plans, plan)
	}
	return plans, nil
}

func (sd StepDoc) step() (*Step, error) {
	style, err := ParseStyle(sd.Style)
	if err != nil {
		return nil, err
	}
	return &Step{
		Target:   sd.Target,
		Style:    style,
		Duration: sd.Duration,
		Position: sd.Position,
		Label:    sd.Label,
		Class:    sd.Class,
		Ease:     sd.Ease,
	}, nil
}

func buildNode(nd NodeDoc) (*Node, error) {
	sprite := nd.Width > 0 && nd.Height > 0
	if nd.Sprite != nil {
		sprite = *nd.Sprite
	}
	var n *Node
	if sprite {
		n = NewSprite(nd.Name, nd.Width, nd.Height)
	} else {
		n = NewContainer(nd.Name)
		n.Width, n.Height = nd.Width, nd.Height
	}
	n.X, n.Y = nd.X, nd.Y
	n.ZIndex = nd.ZIndex
	n.Visible = !nd.Hidden
	if nd.Alpha != nil {
		n.Alpha = *nd.Alpha
	}
	if nd.Color != "" {
		c, err := parseColor(nd.Color)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nd.Name, err)
		}
		n.Color = c
	}
	for _, cl := range nd.Class {
		n.AddClass(cl)
	}
	for _, cd := range nd.Children {
		c, err := buildNode(cd)
		if err != nil {
			return nil, err
		}
		n.AddChild(c)
	}
	return n, nil
}
