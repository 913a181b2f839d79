package sequence

import (
	"slices"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// nodeIDCounter is a plain counter (no atomic: sequence is single-threaded).
var nodeIDCounter uint32

// Node is one element of the scene graph and the thing timeline steps
// animate. Every kind of node shares this struct; Type only decides how it
// is drawn.
//
// Steps address nodes by selector, so Name and the class list are a node's
// public address. The exported fields below are what style properties write.
// Code that changes them outside a timeline calls MarkDirty.
type Node struct {
	ID   uint32
	Name string
	Type NodeType

	Parent   *Node
	children []*Node
	classes  []string

	X, Y           float64
	Width, Height  float64
	ScaleX, ScaleY float64
	Rotation       float64 // radians
	PivotX, PivotY float64

	Alpha   float64
	Visible bool
	ZIndex  int
	Color   Color

	// UserData is left alone by the library.
	UserData any

	image      *ebiten.Image
	world      affine
	worldAlpha float64
	dirty      bool
	disposed   bool
}

func newNode(name string, typ NodeType) *Node {
	nodeIDCounter++
	return &Node{
		ID:      nodeIDCounter,
		Name:    name,
		Type:    typ,
		ScaleX:  1,
		ScaleY:  1,
		Alpha:   1,
		Visible: true,
		Color:   ColorWhite,
		dirty:   true,
	}
}

// NewContainer creates a node that groups others and draws nothing itself.
func NewContainer(name string) *Node {
	return newNode(name, NodeTypeContainer)
}

// NewSprite creates a node drawn as a Width x Height box tinted by Color.
func NewSprite(name string, width, height float64) *Node {
	n := newNode(name, NodeTypeSprite)
	n.Width, n.Height = width, height
	return n
}

// SetImage sets an image drawn instead of the solid box, stretched to
// Width x Height. nil restores the box.
func (n *Node) SetImage(img *ebiten.Image) { n.image = img }

// Image returns the image set with SetImage.
func (n *Node) Image() *ebiten.Image { return n.image }

// --- Classes ---

// AddClass adds class to the class list. Reports whether it was added.
func (n *Node) AddClass(class string) bool {
	if class == "" || n.HasClass(class) {
		return false
	}
	n.classes = append(n.classes, class)
	return true
}

// RemoveClass removes class from the class list. Reports whether it was
// present.
func (n *Node) RemoveClass(class string) bool {
	before := len(n.classes)
	n.classes = slices.DeleteFunc(n.classes, func(c string) bool { return c == class })
	return len(n.classes) != before
}

// HasClass reports whether the node carries class.
func (n *Node) HasClass(class string) bool {
	return slices.Contains(n.classes, class)
}

// Classes returns the class list in insertion order. The returned slice MUST
// NOT be mutated by the caller.
func (n *Node) Classes() []string { return n.classes }

// --- Tree ---

// AddChild appends child, detaching it from its current parent first.
// Panics if child is nil or an ancestor of n.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("sequence: cannot add nil child")
	}
	for p := n; p != nil; p = p.Parent {
		if p == child {
			panic("sequence: adding child would create a cycle")
		}
	}
	child.RemoveFromParent()
	child.Parent = n
	n.children = append(n.children, child)
	child.markTreeDirty()
}

// RemoveChild detaches child. Panics if child is not a child of n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("sequence: child's parent is not this node")
	}
	n.children = slices.DeleteFunc(n.children, func(c *Node) bool { return c == child })
	child.Parent = nil
	child.markTreeDirty()
}

// RemoveFromParent detaches n from its parent, if any.
func (n *Node) RemoveFromParent() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Children returns the children in tree order. The returned slice MUST NOT
// be mutated by the caller.
func (n *Node) Children() []*Node { return n.children }

// Walk calls fn for every descendant of n in document order (depth-first,
// pre-order). Returning false from fn skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	for _, c := range n.children {
		if fn(c) {
			c.Walk(fn)
		}
	}
}

// Path returns the slash-separated names from the tree root down to n, for
// logs and diagnostics.
func (n *Node) Path() string {
	var names []string
	for p := n; p != nil; p = p.Parent {
		names = append(names, p.Name)
	}
	slices.Reverse(names)
	return strings.Join(names, "/")
}

// --- Disposal ---

// Dispose detaches n and marks it and its subtree disposed. Timeline entries
// targeting a disposed node stop writing to it and selectors no longer
// return it.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	for _, c := range n.children {
		c.Parent = nil
		c.dispose()
	}
	n.disposed = true
	n.ID = 0
	n.children = nil
	n.classes = nil
	n.image = nil
	n.UserData = nil
}

// IsDisposed reports whether Dispose has been called on n or an ancestor.
func (n *Node) IsDisposed() bool { return n.disposed }
