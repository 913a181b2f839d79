package sequence

import "testing"

// drawList runs the draw traversal without an ebiten image and returns the
// names of the nodes that would be drawn, in order.
func drawList(s *Scene) []string {
	s.UpdateTransforms()
	s.drawBuf = s.collect(s.drawBuf[:0], s.root)
	names := make([]string, len(s.drawBuf))
	for i, n := range s.drawBuf {
		names[i] = n.Name
	}
	return names
}

func TestDrawListSingleSprite(t *testing.T) {
	s := NewScene()
	s.Root().AddChild(NewSprite("a", 10, 10))
	if got := drawList(s); len(got) != 1 || got[0] != "a" {
		t.Errorf("drawList = %v, want [a]", got)
	}
}

func TestDrawListSkipsInvisibleSubtree(t *testing.T) {
	s := NewScene()
	box := NewContainer("box")
	box.AddChild(NewSprite("inner", 10, 10))
	s.Root().AddChild(box)
	s.Root().AddChild(NewSprite("outer", 10, 10))
	box.Visible = false
	if got := drawList(s); len(got) != 1 || got[0] != "outer" {
		t.Errorf("drawList = %v, want [outer]", got)
	}
}

func TestDrawListSkipsTransparentAndEmpty(t *testing.T) {
	s := NewScene()
	faded := NewSprite("faded", 10, 10)
	faded.Alpha = 0
	s.Root().AddChild(faded)
	s.Root().AddChild(NewSprite("flat", 0, 10))
	s.Root().AddChild(NewContainer("group"))
	if got := drawList(s); len(got) != 0 {
		t.Errorf("drawList = %v, want none", got)
	}
}

func TestDrawListInheritsAlpha(t *testing.T) {
	s := NewScene()
	box := NewContainer("box")
	box.Alpha = 0
	box.AddChild(NewSprite("inner", 10, 10))
	s.Root().AddChild(box)
	if got := drawList(s); len(got) != 0 {
		t.Errorf("drawList = %v, a child of a transparent container is not drawn", got)
	}
}

func TestDrawListZIndex(t *testing.T) {
	s := NewScene()
	a := NewSprite("a", 10, 10)
	b := NewSprite("b", 10, 10)
	c := NewSprite("c", 10, 10)
	a.ZIndex = 2
	s.Root().AddChild(a)
	s.Root().AddChild(b)
	s.Root().AddChild(c)

	got := drawList(s)
	want := []string{"b", "c", "a"}
	if len(got) != len(want) {
		t.Fatalf("drawList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("drawList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func buildSpriteScene(count int) *Scene {
	s := NewScene()
	for i := 0; i < count; i++ {
		sp := NewSprite("", 4, 4)
		sp.X = float64(i % 100)
		sp.Y = float64(i / 100)
		s.Root().AddChild(sp)
	}
	return s
}

func BenchmarkDrawList1000(b *testing.B) {
	s := buildSpriteScene(1000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		drawList(s)
	}
}
