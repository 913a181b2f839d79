package sequence

import (
	"errors"
	"fmt"
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ErrBadSelector is returned for selectors that cannot be parsed.
var ErrBadSelector = errors.New("bad selector")

// compound is one simple-selector group: an optional name, optional "#name"
// and any number of ".class" constraints, all of which must hold.
type compound struct {
	name    string // bare word or "#name"; empty matches any
	classes []string
}

func (c compound) matches(n *Node) bool {
	if c.name != "" && n.Name != c.name {
		return false
	}
	for _, cl := range c.classes {
		if !n.HasClass(cl) {
			return false
		}
	}
	return true
}

// selector is a descendant chain, outermost first.
type selector []compound

// parseSelectors parses a comma-separated list of selectors. Supported
// forms: "name", "#name", ".class", "*", compounds such as "#card.open", and
// the descendant combinator (whitespace).
func parseSelectors(text string) ([]selector, error) {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %q: %s", ErrBadSelector, text, fmt.Sprintf(format, args...))
	}
	var (
		out  []selector
		sel  selector
		cur  compound
		open bool // cur has at least one part
	)
	endCompound := func() {
		if open {
			sel = append(sel, cur)
			cur, open = compound{}, false
		}
	}
	setName := func(name string) error {
		if cur.name != "" && cur.name != name {
			return bad("conflicting names %q and %q", cur.name, name)
		}
		cur.name, open = name, true
		return nil
	}

	l := css.NewLexer(parse.NewInputString(text))
	for {
		tt, data := l.Next()
		switch tt {
		case css.WhitespaceToken:
			endCompound()
		case css.CommaToken, css.ErrorToken:
			endCompound()
			if len(sel) == 0 {
				return nil, fmt.Errorf("%w: empty selector in %q", ErrBadSelector, text)
			}
			out = append(out, sel)
			sel = nil
			if tt == css.ErrorToken {
				if err := l.Err(); err != io.EOF {
					return nil, bad("%v", err)
				}
				return out, nil
			}
		case css.IdentToken:
			if open {
				return nil, bad("unexpected %q", data)
			}
			if err := setName(string(data)); err != nil {
				return nil, err
			}
		case css.HashToken:
			if err := setName(string(data[1:])); err != nil {
				return nil, err
			}
		case css.DelimToken:
			switch string(data) {
			case "*":
				if open {
					return nil, bad("unexpected %q", data)
				}
				open = true
			case ".":
				tt, data = l.Next()
				if tt != css.IdentToken {
					return nil, bad("missing class name after '.'")
				}
				cur.classes = append(cur.classes, string(data))
				open = true
			default:
				return nil, bad("unexpected %q", data)
			}
		default:
			return nil, bad("unexpected %q", data)
		}
	}
}

// matches reports whether n satisfies sel, looking for ancestors no higher
// than root.
func (sel selector) matches(n, root *Node) bool {
	last := len(sel) - 1
	if !sel[last].matches(n) {
		return false
	}
	i := last - 1
	for p := n.Parent; i >= 0 && p != nil; p = p.Parent {
		if sel[i].matches(p) {
			i--
		}
		if p == root {
			break
		}
	}
	return i < 0
}

// Query returns all descendants of root matching the selector list, in
// document order and without duplicates. root itself is never matched.
func Query(root *Node, text string) ([]*Node, error) {
	sels, err := parseSelectors(text)
	if err != nil {
		return nil, err
	}
	var out []*Node
	root.Walk(func(n *Node) bool {
		for _, sel := range sels {
			if sel.matches(n, root) {
				out = append(out, n)
				break
			}
		}
		return true
	})
	return out, nil
}

// QueryOne returns the first match of Query, or nil.
func QueryOne(root *Node, text string) (*Node, error) {
	nodes, err := Query(root, text)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}
