package sequence

import (
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
)

// whitePixel is a 1x1 white image stretched for solid boxes. Created on the
// first Draw so headless use never touches the graphics driver.
var whitePixel *ebiten.Image

// Draw refreshes world transforms and draws every visible sprite node in
// tree order, children sorted by ZIndex.
func (s *Scene) Draw(screen *ebiten.Image) {
	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.toRGBA())
	}
	s.UpdateTransforms()
	s.drawBuf = s.collect(s.drawBuf[:0], s.root)
	for _, n := range s.drawBuf {
		drawNode(screen, n)
	}
	s.flushScreenshots(screen)
}

// collect appends the sprites below n that would be drawn, in draw order.
func (s *Scene) collect(dst []*Node, n *Node) []*Node {
	if !n.Visible {
		return dst
	}
	if n.Type == NodeTypeSprite && n.worldAlpha > 0 && n.Width > 0 && n.Height > 0 {
		dst = append(dst, n)
	}
	for _, c := range zOrdered(n.children) {
		dst = s.collect(dst, c)
	}
	return dst
}

// zOrdered returns children sorted by ZIndex, keeping tree order for ties.
// The input is returned as is when already ordered.
func zOrdered(children []*Node) []*Node {
	if sort.SliceIsSorted(children, func(i, j int) bool { return children[i].ZIndex < children[j].ZIndex }) {
		return children
	}
	out := append([]*Node(nil), children...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func drawNode(screen *ebiten.Image, n *Node) {
	img := n.image
	if img == nil {
		if whitePixel == nil {
			whitePixel = ebiten.NewImage(1, 1)
			whitePixel.Fill(ColorWhite.toRGBA())
		}
		img = whitePixel
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(n.Width/float64(b.Dx()), n.Height/float64(b.Dy()))
	var world ebiten.GeoM
	m := n.world
	world.SetElement(0, 0, m[0])
	world.SetElement(1, 0, m[1])
	world.SetElement(0, 1, m[2])
	world.SetElement(1, 1, m[3])
	world.SetElement(0, 2, m[4])
	world.SetElement(1, 2, m[5])
	op.GeoM.Concat(world)

	a := float32(n.worldAlpha * n.Color.A)
	op.ColorScale.Scale(float32(n.Color.R)*a, float32(n.Color.G)*a, float32(n.Color.B)*a, a)
	screen.DrawImage(img, op)
}
