package sequence

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ScriptStep is one action of a Script.
//
//	action: state       value: zoom    sets the scene state tag
//	action: wait        frames: 30     waits that many frames
//	action: screenshot  label: after   captures the next drawn frame
type ScriptStep struct {
	Action string `yaml:"action"`
	Value  string `yaml:"value,omitempty"`
	Label  string `yaml:"label,omitempty"`
	Frames int    `yaml:"frames,omitempty"`
}

type scriptDoc struct {
	Steps []ScriptStep `yaml:"steps"`
}

// Script drives a scene's state tag across frames, for recording and
// automated visual checks. Attach it with Scene.SetScript.
type Script struct {
	steps     []ScriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a YAML (or JSON) script.
func LoadScript(data []byte) (*Script, error) {
	var doc scriptDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(doc.Steps) == 0 {
		return nil, errors.New("parse script: no steps")
	}
	for i, st := range doc.Steps {
		switch st.Action {
		case "state", "wait", "screenshot":
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{steps: doc.Steps}, nil
}

// SetScript attaches a script stepped at the start of every Update. nil
// detaches it.
func (s *Scene) SetScript(script *Script) {
	s.script = script
}

// Done reports whether every step has run.
func (r *Script) Done() bool {
	return r.done
}

// step runs at most one action per frame.
func (r *Script) step(s *Scene) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++
	s.log.Debug("Script step", zap.Int("index", r.cursor-1), zap.String("action", st.Action))

	switch st.Action {
	case "state":
		s.state.Set(st.Value)
	case "screenshot":
		s.Screenshot(st.Label)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}
