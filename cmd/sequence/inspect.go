package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/phanxgames/sequence"
)

func runInspect(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := envFromContext(ctx).log.Named("inspect")
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many documents", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	scene, _, err := loadScene(cmd.Args().Get(0), log)
	if err != nil {
		return err
	}
	defer scene.Dispose()

	out := os.Stdout
	printSchedule(out, scene.Registry())

	if tag := cmd.String("state"); tag != "" {
		scene.State().Set(tag)
	}
	if secs := cmd.Float("seek"); secs >= 0 {
		step := time.Second / 60
		for elapsed := time.Duration(0); elapsed < time.Duration(secs*float64(time.Second)); elapsed += step {
			scene.Advance(step)
		}
		fmt.Fprintf(out, "\nnodes after %gs:\n", secs)
		scene.UpdateTransforms()
		printNodes(out, scene.Root(), 0)
	}
	return nil
}

func printSchedule(out io.Writer, r *sequence.Registry) {
	r.Each(func(id string, tl *sequence.Timeline) {
		fmt.Fprintf(out, "timeline %s", id)
		if tl.State() != "" {
			fmt.Fprintf(out, " state=%s", tl.State())
		}
		if p := tl.Parent(); p != nil {
			fmt.Fprintf(out, " parent=%s", p.ID())
		}
		fmt.Fprintf(out, " duration=%.3fs\n", tl.Duration())

		for _, name := range tl.LabelNames() {
			at, _ := tl.LabelTime(name)
			fmt.Fprintf(out, "  label %-12s %.3f\n", name, at)
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, s := range tl.Schedule() {
			what := s.Style
			if s.Kind == "timeline" {
				what = s.Timeline
			}
			fmt.Fprintf(w, "  %s\t%.3f\t+%.3f\t%s\t%s\t%s\n",
				s.Kind, s.Start, s.Duration, strings.Join(s.Targets, ","), what, s.Class)
		}
		w.Flush()
	})
}

func printNodes(out io.Writer, n *sequence.Node, depth int) {
	for _, c := range n.Children() {
		fmt.Fprintf(out, "%s%s x=%.2f y=%.2f scale=%.2f,%.2f rot=%.3f alpha=%.2f visible=%t",
			strings.Repeat("  ", depth+1), c.Name, c.X, c.Y, c.ScaleX, c.ScaleY, c.Rotation, c.Alpha, c.Visible)
		if c.Type == sequence.NodeTypeSprite {
			x0, y0, x1, y1 := c.WorldBounds()
			fmt.Fprintf(out, " bounds=(%.1f,%.1f)-(%.1f,%.1f) world-alpha=%.2f", x0, y0, x1, y1, c.WorldAlpha())
		}
		if cl := c.Classes(); len(cl) > 0 {
			fmt.Fprintf(out, " class=%s", strings.Join(cl, ","))
		}
		fmt.Fprintln(out)
		printNodes(out, c, depth+1)
	}
}
