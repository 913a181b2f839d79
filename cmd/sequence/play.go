package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/phanxgames/sequence"
)

func runPlay(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := envFromContext(ctx).log.Named("play")

	path := cmd.Args().Get(0)
	scene, _, err := loadScene(path, log)
	if err != nil {
		return err
	}
	defer scene.Dispose()

	scene.SetDebugMode(cmd.Bool("debug"))
	scene.ClearColor = sequence.Color{R: 0.1, G: 0.1, B: 0.15, A: 1}
	if cmd.Bool("status") {
		scene.Root().AddChild(scene.NewStatusWidget())
	}

	if dir := cmd.String("screenshots"); dir != "" {
		scene.ScreenshotDir = dir
	}
	var script *sequence.Script
	if sp := cmd.String("script"); sp != "" {
		data, err := os.ReadFile(sp)
		if err != nil {
			return fmt.Errorf("unable to read script: %w", err)
		}
		if script, err = sequence.LoadScript(data); err != nil {
			return err
		}
		scene.SetScript(script)
		log.Debug("Script attached", zap.String("path", sp))
	}

	tag := cmd.String("state")
	finished := false
	scene.SetUpdateFunc(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if script != nil && script.Done() && cmd.Bool("exit") {
			// let the frame that queued the last screenshot be drawn
			if finished {
				log.Info("Script finished")
				return ebiten.Termination
			}
			finished = true
		}
		if tag == "" || !inpututil.IsKeyJustPressed(ebiten.KeySpace) {
			return nil
		}
		next := tag
		if scene.State().Get() == tag {
			next = ""
		}
		log.Info("State changed", zap.String("state", next))
		scene.State().Set(next)
		return nil
	})

	return sequence.Run(scene, sequence.RunConfig{
		Title:  "sequence - " + path,
		Width:  int(cmd.Int("width")),
		Height: int(cmd.Int("height")),
	})
}
