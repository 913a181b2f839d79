package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const appName = "sequence"

// env is shared by all subcommands through the context.
type env struct {
	log   *zap.Logger
	start time.Time
}

type envKey struct{}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &env{log: zap.NewNop(), start: time.Now()})
}

func envFromContext(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	return &env{log: zap.NewNop(), start: time.Now()}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = !debug
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// initializeAppContext prepares logging after the command line has been
// parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	e := envFromContext(ctx)

	log, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	e.log = log
	e.log.Debug("Program started", zap.Strings("args", os.Args), zap.String("runtime", runtime.Version()))
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	e := envFromContext(ctx)
	e.log.Debug("Program ended", zap.Duration("elapsed", time.Since(e.start)), zap.Strings("parsed args", cmd.Args().Slice()))
	if er := e.log.Sync(); er != nil && !isInvalidSync(er) {
		err = multierr.Append(err, fmt.Errorf("unable to sync log: %w", er))
	}
	return
}

// stderr cannot be fsync'ed on most terminals.
func isInvalidSync(err error) bool {
	for _, e := range multierr.Errors(err) {
		if pe, ok := e.(*os.PathError); !ok || pe.Op != "sync" {
			return false
		}
	}
	return true
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	e := envFromContext(ctx)
	e.log.Error("Program ended with error", zap.Error(err))
	errWasHandled = true
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	envFromContext(ctx).log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            appName,
		Usage:           "builds and plays declarative animation timelines",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log timeline construction and playback at debug level"},
		},
		Commands: []*cli.Command{
			{
				Name:         "inspect",
				Usage:        "Builds every timeline of a document and prints its schedule",
				OnUsageError: usageErrorHandler,
				Action:       runInspect,
				ArgsUsage:    "DOCUMENT",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "state", Usage: "set the scene state to `TAG` before seeking"},
					&cli.FloatFlag{Name: "seek", Value: -1, Usage: "advance playback by `SECONDS` and print node values"},
				},
			},
			{
				Name:         "play",
				Usage:        "Opens a window and plays a document; space toggles the state",
				OnUsageError: usageErrorHandler,
				Action:       runPlay,
				ArgsUsage:    "DOCUMENT",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "state", Usage: "state `TAG` toggled by the space key"},
					&cli.IntFlag{Name: "width", Value: 640, Usage: "window width in `PIXELS`"},
					&cli.IntFlag{Name: "height", Value: 480, Usage: "window height in `PIXELS`"},
					&cli.StringFlag{Name: "script", Usage: "drive the state from the script in `FILE`"},
					&cli.StringFlag{Name: "screenshots", Usage: "write script screenshots to `DIR`"},
					&cli.BoolFlag{Name: "exit", Usage: "quit once the script has finished"},
					&cli.BoolFlag{Name: "status", Value: true, Usage: "show the state tag and FPS overlay"},
				},
			},
		},
	}

	var err error
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}
