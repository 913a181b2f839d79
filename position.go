package sequence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrBadPosition is wrapped by errors for position tokens that cannot be
	// parsed.
	ErrBadPosition = errors.New("bad position")
	// ErrUnknownLabel is wrapped by errors for positions that reference a
	// label not inserted earlier in the same timeline.
	ErrUnknownLabel = errors.New("unknown label")
)

type positionKind uint8

const (
	positionEnd      positionKind = iota // append after the current end
	positionAbsolute                     // fixed offset in seconds
	positionLabel                        // label, optionally shifted
)

// position is a parsed placement token:
//
//	""            end of timeline
//	"1.5"         absolute offset
//	"+=0.2"       end of timeline plus 0.2 (or "-=")
//	"mid"         label mid
//	"mid+=0.1"    label mid plus 0.1 (or "-=")
type position struct {
	kind   positionKind
	label  string
	offset float64
}

func parsePosition(tok string) (position, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return position{kind: positionEnd}, nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return position{kind: positionAbsolute, offset: f}, nil
	}

	label, rest := tok, ""
	if i := strings.Index(tok, "+="); i >= 0 {
		label, rest = tok[:i], tok[i:]
	} else if i := strings.Index(tok, "-="); i >= 0 {
		label, rest = tok[:i], tok[i:]
	}
	label = strings.TrimSpace(label)

	var offset float64
	if rest != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(rest[2:]), 64)
		if err != nil {
			return position{}, fmt.Errorf("%w: %q", ErrBadPosition, tok)
		}
		if rest[0] == '-' {
			f = -f
		}
		offset = f
	}
	if label == "" {
		if rest == "" {
			return position{}, fmt.Errorf("%w: %q", ErrBadPosition, tok)
		}
		return position{kind: positionEnd, offset: offset}, nil
	}
	for i := 0; i < len(label); i++ {
		if !isIdentByte(label[i]) {
			return position{}, fmt.Errorf("%w: %q", ErrBadPosition, tok)
		}
	}
	return position{kind: positionLabel, label: label, offset: offset}, nil
}

// resolve returns the start time for tl. Labels must already be present;
// forward references are reported as ErrUnknownLabel.
func (p position) resolve(tl *Timeline) (float64, error) {
	var at float64
	switch p.kind {
	case positionEnd:
		at = tl.Duration() + p.offset
	case positionAbsolute:
		at = p.offset
	case positionLabel:
		t, ok := tl.labels[p.label]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, p.label)
		}
		at = t + p.offset
	}
	if at < 0 {
		at = 0
	}
	return at, nil
}
