package sequence

import "github.com/hajimehoshi/ebiten/v2"

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
}

// gameShell adapts a Scene to ebiten.Game.
type gameShell struct {
	scene *Scene
	w, h  int
}

func (g *gameShell) Update() error              { return g.scene.Update() }
func (g *gameShell) Draw(screen *ebiten.Image)  { g.scene.Draw(screen) }
func (g *gameShell) Layout(_, _ int) (int, int) { return g.w, g.h }

// Run opens a window and drives scene with ebiten's game loop until the
// window closes or an update returns an error.
func Run(scene *Scene, cfg RunConfig) error {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	return ebiten.RunGame(&gameShell{scene: scene, w: cfg.Width, h: cfg.Height})
}
