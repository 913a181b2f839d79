package sequence

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/multierr"
)

var (
	// ErrMalformedStyle is wrapped by errors for style entries that are not
	// of the form key:value.
	ErrMalformedStyle = errors.New("malformed style entry")
	// ErrUnknownProperty is wrapped by errors for style keys no node
	// property answers to.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrBadValue is wrapped by errors for values a property cannot take.
	ErrBadValue = errors.New("bad property value")
)

// Value is a parsed style value. Numeric values carry their unit; relative
// values ("+=10", "-=10") are applied to the target's value when a step
// starts.
type Value struct {
	Raw      string
	Number   float64
	Unit     string
	IsNumber bool
	Relative int // -1, 0 or +1
}

func (v Value) String() string { return v.Raw }

// Property is one entry of a Style.
type Property struct {
	Name  string
	Value Value
	def   *propertyDef
}

// Style is an ordered property bag. The zero value is an empty style.
type Style struct {
	props []Property
}

var quoteStripper = strings.NewReplacer(`"`, "", `'`, "")

// ParseStyle converts a "key:value; key:value" string into a Style. Entries
// may be separated by ';' or ','. Whitespace and quote characters are
// stripped and entries with an empty value are dropped. A delimiter inside
// a value cannot be expressed, so functional notation like rgb(1,2,3) is not
// supported; use hex colors.
//
// Malformed entries, unknown properties and values a property cannot take
// are left out of the result and reported together in the returned error.
// The Style is usable even when err != nil.
func ParseStyle(text string) (Style, error) {
	var (
		s   Style
		err error
	)
	entries := strings.FieldsFunc(text, func(r rune) bool { return r == ';' || r == ',' })
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idx := strings.IndexByte(entry, ':')
		if idx < 0 {
			err = multierr.Append(err, fmt.Errorf("%w: %q", ErrMalformedStyle, entry))
			continue
		}
		key := strings.TrimSpace(quoteStripper.Replace(entry[:idx]))
		raw := strings.TrimSpace(quoteStripper.Replace(entry[idx+1:]))
		if key == "" {
			err = multierr.Append(err, fmt.Errorf("%w: %q: empty key", ErrMalformedStyle, entry))
			continue
		}
		if raw == "" {
			continue
		}
		if perr := s.set(key, raw); perr != nil {
			err = multierr.Append(err, perr)
		}
	}
	return s, err
}

// MustParseStyle is like ParseStyle but panics on error.
func MustParseStyle(text string) Style {
	s, err := ParseStyle(text)
	if err != nil {
		panic("sequence: " + err.Error())
	}
	return s
}

// set validates and stores one property. A repeated name replaces the
// earlier value in place.
func (s *Style) set(name, raw string) error {
	def := lookupProperty(name)
	if def == nil {
		return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	v := parseValue(raw)
	if err := def.check(v); err != nil {
		return fmt.Errorf("%w: %s:%s: %v", ErrBadValue, name, raw, err)
	}
	for i := range s.props {
		if s.props[i].def == def {
			s.props[i] = Property{Name: name, Value: v, def: def}
			return nil
		}
	}
	s.props = append(s.props, Property{Name: name, Value: v, def: def})
	return nil
}

// With returns a copy of s with name set to raw.
func (s Style) With(name, raw string) (Style, error) {
	out := Style{props: append([]Property(nil), s.props...)}
	if err := out.set(name, raw); err != nil {
		return s, err
	}
	return out, nil
}

// Len returns the number of properties.
func (s Style) Len() int { return len(s.props) }

// IsEmpty reports whether the style has no properties.
func (s Style) IsEmpty() bool { return len(s.props) == 0 }

// Properties returns the properties in authoring order. The returned slice
// MUST NOT be mutated by the caller.
func (s Style) Properties() []Property { return s.props }

// Get returns the value stored under name, as written.
func (s Style) Get(name string) (Value, bool) {
	for _, p := range s.props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Names returns the property names in authoring order.
func (s Style) Names() []string {
	names := make([]string, len(s.props))
	for i, p := range s.props {
		names[i] = p.Name
	}
	return names
}

// String returns the canonical "key:value; key:value" form.
func (s Style) String() string {
	var sb strings.Builder
	for i, p := range s.props {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(p.Name)
		sb.WriteByte(':')
		sb.WriteString(p.Value.Raw)
	}
	return sb.String()
}

// parseValue reads raw as one CSS component value. A number, dimension or
// percentage, optionally led by "+=" or "-=", becomes numeric; anything
// else is kept as written.
func parseValue(raw string) Value {
	toks := lexValue(raw)
	v := Value{Raw: raw}
	if len(toks) > 2 && toks[0].TokenType == css.DelimToken &&
		toks[1].TokenType == css.DelimToken && string(toks[1].Data) == "=" {
		switch string(toks[0].Data) {
		case "+":
			v.Relative = 1
		case "-":
			v.Relative = -1
		default:
			return v
		}
		toks = toks[2:]
	}
	if len(toks) != 1 {
		return Value{Raw: raw}
	}
	switch toks[0].TokenType {
	case css.NumberToken, css.DimensionToken, css.PercentageToken:
	default:
		return Value{Raw: raw}
	}
	data := toks[0].Data
	end := parse.Number(data)
	f, err := strconv.ParseFloat(string(data[:end]), 64)
	if err != nil {
		return Value{Raw: raw}
	}
	v.Number = f
	v.Unit = strings.ToLower(string(data[end:]))
	v.IsNumber = true
	return v
}

// lexValue returns the CSS tokens of raw without whitespace and comments.
func lexValue(raw string) []css.Token {
	l := css.NewLexer(parse.NewInputString(raw))
	var toks []css.Token
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return toks
		case css.WhitespaceToken, css.CommentToken:
			continue
		}
		toks = append(toks, css.Token{TokenType: tt, Data: bytes.Clone(data)})
	}
}
