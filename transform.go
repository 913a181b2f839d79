package sequence

import "math"

// affine is a 2D affine matrix stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type affine [6]float64

var identity = affine{1, 0, 0, 1, 0, 0}

// localAffine builds n's matrix relative to its parent, applied as
// Translate(-Pivot) -> Scale -> Rotate -> Translate(X, Y).
func localAffine(n *Node) affine {
	sin, cos := math.Sincos(n.Rotation)
	px, py := -n.PivotX*n.ScaleX, -n.PivotY*n.ScaleY
	return affine{
		cos * n.ScaleX,
		sin * n.ScaleX,
		-sin * n.ScaleY,
		cos * n.ScaleY,
		cos*px - sin*py + n.X,
		sin*px + cos*py + n.Y,
	}
}

// mul returns m * c: c is applied first.
func (m affine) mul(c affine) affine {
	return affine{
		m[0]*c[0] + m[2]*c[1],
		m[1]*c[0] + m[3]*c[1],
		m[0]*c[2] + m[2]*c[3],
		m[1]*c[2] + m[3]*c[3],
		m[0]*c[4] + m[2]*c[5] + m[4],
		m[1]*c[4] + m[3]*c[5] + m[5],
	}
}

func (m affine) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// invert returns the inverse of m. ok is false for degenerate matrices
// (a node scaled to zero).
func (m affine) invert() (inv affine, ok bool) {
	det := m[0]*m[3] - m[2]*m[1]
	if det == 0 {
		return affine{}, false
	}
	return affine{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, true
}

// updateWorld refreshes the world matrix and alpha of n and its subtree.
// Clean nodes below a clean parent keep their cached values.
func updateWorld(n *Node, parent affine, parentAlpha float64, force bool) {
	force = force || n.dirty
	if force {
		n.world = parent.mul(localAffine(n))
		n.worldAlpha = parentAlpha * n.Alpha
		n.dirty = false
	}
	for _, c := range n.children {
		updateWorld(c, n.world, n.worldAlpha, force)
	}
}

// MarkDirty schedules n's world transform and alpha for recomputation.
// Timelines call it after every property write.
func (n *Node) MarkDirty() { n.dirty = true }

func (n *Node) markTreeDirty() {
	n.dirty = true
	for _, c := range n.children {
		c.markTreeDirty()
	}
}

// UpdateTransforms refreshes world transforms below the root without
// drawing. Draw does this itself; headless tools call it before reading
// world-space values.
func (s *Scene) UpdateTransforms() {
	updateWorld(s.root, identity, 1, false)
}

// LocalToWorld converts a point in n's local space to world space, as of the
// last transform update.
func (n *Node) LocalToWorld(x, y float64) (float64, float64) {
	return n.world.apply(x, y)
}

// WorldToLocal converts a world-space point to n's local space. ok is false
// while n is scaled to zero.
func (n *Node) WorldToLocal(x, y float64) (lx, ly float64, ok bool) {
	inv, ok := n.world.invert()
	if !ok {
		return 0, 0, false
	}
	lx, ly = inv.apply(x, y)
	return lx, ly, true
}

// WorldAlpha returns the product of the alphas from the root down to n, as
// of the last transform update.
func (n *Node) WorldAlpha() float64 { return n.worldAlpha }

// WorldBounds returns the axis-aligned world-space box around n's
// Width x Height rectangle.
func (n *Node) WorldBounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{0, 0}, {n.Width, 0}, {0, n.Height}, {n.Width, n.Height}} {
		x, y := n.world.apply(p[0], p[1])
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return minX, minY, maxX, maxY
}
