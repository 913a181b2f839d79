package sequence

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// statusInterval is how often the status widget redraws, in seconds.
const statusInterval = 0.25

// NewStatusWidget creates a sprite showing the scene's state tag, the number
// of playing timelines and FPS/TPS. Add it to the tree wherever it should be
// drawn; it is refreshed from Update.
func (s *Scene) NewStatusWidget() *Node {
	img := ebiten.NewImage(160, 48)
	n := NewSprite("status_widget", 160, 48)
	n.SetImage(img)
	n.ZIndex = math.MaxInt32

	elapsed := statusInterval
	s.tickers = append(s.tickers, func(dt float64) {
		if n.IsDisposed() {
			return
		}
		elapsed += dt
		if elapsed < statusInterval {
			return
		}
		elapsed = 0

		img.Clear()
		img.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(img, s.statusText())
	})
	return n
}

func (s *Scene) statusText() string {
	active := 0
	s.registry.Each(func(_ string, tl *Timeline) {
		if tl.parent == nil && tl.IsActive() {
			active++
		}
	})
	return fmt.Sprintf("state: %q\nplaying: %d\nFPS: %.1f TPS: %.1f",
		s.state.Get(), active, ebiten.ActualFPS(), ebiten.ActualTPS())
}
