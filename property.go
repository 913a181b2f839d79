package sequence

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// propertyDef describes how a style property maps onto Node fields. Every
// property is exposed as one or more float64 channels so that timed steps
// and instantaneous sets share one code path. Discrete channels jump to the
// end value as soon as a step starts instead of interpolating.
type propertyDef struct {
	name     string
	channels int
	discrete bool
	check    func(v Value) error
	read     func(n *Node, dst []float64)
	write    func(n *Node, src []float64)
	// resolve computes end values for n. cur holds the values read when the
	// step started.
	resolve func(n *Node, v Value, cur []float64) []float64
}

var propertyTable = map[string]*propertyDef{}

func registerProperty(def *propertyDef, aliases ...string) {
	propertyTable[normalizePropertyName(def.name)] = def
	for _, a := range aliases {
		propertyTable[normalizePropertyName(a)] = def
	}
}

// normalizePropertyName folds case and hyphens so "background-color" and
// "backgroundColor" name the same property.
func normalizePropertyName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "-", ""))
}

func lookupProperty(name string) *propertyDef {
	return propertyTable[normalizePropertyName(name)]
}

// KnownProperties returns the canonical names of all style properties.
func KnownProperties() []string {
	seen := map[*propertyDef]bool{}
	var names []string
	for _, def := range propertyTable {
		if !seen[def] {
			seen[def] = true
			names = append(names, def.name)
		}
	}
	return names
}

var errNotNumber = errors.New("not a number")

func unitCheck(units ...string) func(Value) error {
	return func(v Value) error {
		if !v.IsNumber {
			return errNotNumber
		}
		for _, u := range units {
			if v.Unit == u {
				return nil
			}
		}
		return fmt.Errorf("unit %q not allowed", v.Unit)
	}
}

// applyRelative turns a "+=" or "-=" value into an absolute one.
func applyRelative(v Value, abs, cur float64) float64 {
	switch v.Relative {
	case 1:
		return cur + abs
	case -1:
		return cur - abs
	}
	return abs
}

type axis uint8

const (
	axisX axis = iota
	axisY
)

// lengthProperty is a px length; "%" is relative to the parent's width
// (axisX) or height (axisY).
func lengthProperty(name string, ax axis, field func(n *Node) *float64, aliases ...string) {
	registerProperty(&propertyDef{
		name:     name,
		channels: 1,
		check:    unitCheck("", "px", "%"),
		read:     func(n *Node, dst []float64) { dst[0] = *field(n) },
		write:    func(n *Node, src []float64) { *field(n) = src[0] },
		resolve: func(n *Node, v Value, cur []float64) []float64 {
			abs := v.Number
			if v.Unit == "%" {
				ref := 0.0
				if n.Parent != nil {
					if ax == axisX {
						ref = n.Parent.Width
					} else {
						ref = n.Parent.Height
					}
				}
				abs = ref * v.Number / 100
			}
			return []float64{applyRelative(v, abs, cur[0])}
		},
	}, aliases...)
}

// ratioProperty is a unitless number; "%" divides by 100.
func ratioProperty(name string, field func(n *Node) *float64, after func(n *Node), aliases ...string) {
	registerProperty(&propertyDef{
		name:     name,
		channels: 1,
		check:    unitCheck("", "%", "x"),
		read:     func(n *Node, dst []float64) { dst[0] = *field(n) },
		write: func(n *Node, src []float64) {
			*field(n) = src[0]
			if after != nil {
				after(n)
			}
		},
		resolve: func(_ *Node, v Value, cur []float64) []float64 {
			abs := v.Number
			if v.Unit == "%" {
				abs /= 100
			}
			return []float64{applyRelative(v, abs, cur[0])}
		},
	}, aliases...)
}

func init() {
	lengthProperty("x", axisX, func(n *Node) *float64 { return &n.X }, "left")
	lengthProperty("y", axisY, func(n *Node) *float64 { return &n.Y }, "top")
	lengthProperty("width", axisX, func(n *Node) *float64 { return &n.Width })
	lengthProperty("height", axisY, func(n *Node) *float64 { return &n.Height })
	lengthProperty("pivotX", axisX, func(n *Node) *float64 { return &n.PivotX })
	lengthProperty("pivotY", axisY, func(n *Node) *float64 { return &n.PivotY })

	ratioProperty("opacity", func(n *Node) *float64 { return &n.Alpha }, nil, "alpha")
	// autoAlpha hides the node once it is fully transparent.
	ratioProperty("autoAlpha", func(n *Node) *float64 { return &n.Alpha }, func(n *Node) {
		n.Visible = n.Alpha > 0
	})
	ratioProperty("scaleX", func(n *Node) *float64 { return &n.ScaleX }, nil)
	ratioProperty("scaleY", func(n *Node) *float64 { return &n.ScaleY }, nil)

	registerProperty(&propertyDef{
		name:     "scale",
		channels: 2,
		check:    unitCheck("", "%", "x"),
		read:     func(n *Node, dst []float64) { dst[0], dst[1] = n.ScaleX, n.ScaleY },
		write:    func(n *Node, src []float64) { n.ScaleX, n.ScaleY = src[0], src[1] },
		resolve: func(_ *Node, v Value, cur []float64) []float64 {
			abs := v.Number
			if v.Unit == "%" {
				abs /= 100
			}
			return []float64{applyRelative(v, abs, cur[0]), applyRelative(v, abs, cur[1])}
		},
	})

	registerProperty(&propertyDef{
		name:     "rotation",
		channels: 1,
		check:    unitCheck("", "deg", "rad"),
		read:     func(n *Node, dst []float64) { dst[0] = n.Rotation },
		write:    func(n *Node, src []float64) { n.Rotation = src[0] },
		resolve: func(_ *Node, v Value, cur []float64) []float64 {
			abs := v.Number
			if v.Unit != "rad" {
				abs = abs * math.Pi / 180
			}
			return []float64{applyRelative(v, abs, cur[0])}
		},
	}, "rotate")

	registerProperty(&propertyDef{
		name:     "color",
		channels: 4,
		check: func(v Value) error {
			_, err := parseColor(v.Raw)
			return err
		},
		read: func(n *Node, dst []float64) {
			dst[0], dst[1], dst[2], dst[3] = n.Color.R, n.Color.G, n.Color.B, n.Color.A
		},
		write: func(n *Node, src []float64) {
			n.Color = Color{R: src[0], G: src[1], B: src[2], A: src[3]}
		},
		resolve: func(_ *Node, v Value, _ []float64) []float64 {
			c, _ := parseColor(v.Raw)
			return []float64{c.R, c.G, c.B, c.A}
		},
	}, "backgroundColor", "background", "tint")

	registerProperty(&propertyDef{
		name:     "zIndex",
		channels: 1,
		discrete: true,
		check:    unitCheck(""),
		read:     func(n *Node, dst []float64) { dst[0] = float64(n.ZIndex) },
		write:    func(n *Node, src []float64) { n.ZIndex = int(math.Round(src[0])) },
		resolve: func(_ *Node, v Value, cur []float64) []float64 {
			return []float64{applyRelative(v, v.Number, cur[0])}
		},
	})

	visibility := func(name string, visible func(raw string) (bool, error)) {
		registerProperty(&propertyDef{
			name:     name,
			channels: 1,
			discrete: true,
			check: func(v Value) error {
				_, err := visible(v.Raw)
				return err
			},
			read:  func(n *Node, dst []float64) { dst[0] = boolChannel(n.Visible) },
			write: func(n *Node, src []float64) { n.Visible = src[0] > 0.5 },
			resolve: func(_ *Node, v Value, _ []float64) []float64 {
				b, _ := visible(v.Raw)
				return []float64{boolChannel(b)}
			},
		})
	}
	visibility("visibility", func(raw string) (bool, error) {
		switch strings.ToLower(raw) {
		case "visible", "inherit":
			return true, nil
		case "hidden", "collapse":
			return false, nil
		}
		return false, fmt.Errorf("want visible or hidden, got %q", raw)
	})
	visibility("display", func(raw string) (bool, error) {
		return !strings.EqualFold(raw, "none"), nil
	})
}

func boolChannel(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var namedColors = map[string]Color{
	"white":       {1, 1, 1, 1},
	"black":       {0, 0, 0, 1},
	"red":         {1, 0, 0, 1},
	"green":       {0, 0.5, 0, 1},
	"blue":        {0, 0, 1, 1},
	"transparent": {0, 0, 0, 0},
}

// parseColor accepts #rgb, #rgba, #rrggbb, #rrggbbaa and a few names.
func parseColor(raw string) (Color, error) {
	toks := lexValue(raw)
	if len(toks) != 1 {
		return Color{}, fmt.Errorf("want #hex color, got %q", raw)
	}
	switch tok := toks[0]; tok.TokenType {
	case css.IdentToken:
		if c, ok := namedColors[strings.ToLower(string(tok.Data))]; ok {
			return c, nil
		}
	case css.HashToken:
		return hexColor(string(tok.Data[1:]), raw)
	}
	return Color{}, fmt.Errorf("want #hex color, got %q", raw)
}

func hexColor(hex, raw string) (Color, error) {
	if len(hex) == 3 || len(hex) == 4 {
		var sb strings.Builder
		for i := 0; i < len(hex); i++ {
			sb.WriteByte(hex[i])
			sb.WriteByte(hex[i])
		}
		hex = sb.String()
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("bad hex color %q", raw)
	}
	u, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("bad hex color %q", raw)
	}
	return Color{
		R: float64(u>>24&0xff) / 255,
		G: float64(u>>16&0xff) / 255,
		B: float64(u>>8&0xff) / 255,
		A: float64(u&0xff) / 255,
	}, nil
}
