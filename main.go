// othello-arbiter referees an Othello match between a local player and a
// move-generating peer engine over a line protocol.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"othello-arbiter/config"
	"othello-arbiter/engine/session"
	"othello-arbiter/spectate"
	"othello-arbiter/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("othello-arbiter", pflag.ExitOnError)
	flags.String("host", "", "Address to listen on for the peer")
	flags.IntP("port", "p", 0, "First port to try")
	flags.StringP("name", "n", "", "Name announced to the peer")
	flags.Int64("budget", 0, "Time budget in milliseconds announced to the peer")
	flags.StringP("color", "c", "", "Local color (black or white)")
	flags.String("declare", "", "Color START announces (peer or local)")
	flags.String("peer", "", "Path of the peer engine binary")
	flags.Bool("launch", true, "Launch the peer engine")
	flags.Bool("record", true, "Write an SGF record of the match")
	flags.String("spectate", "", "Serve the match read-only on this address")
	flags.String("log", "", "Log file")
	flags.String("level", "", "Log level (debug, info, warn, error)")
	flags.Bool("console", false, "Play on stdin/stdout instead of the full-screen UI")
	flags.Bool("play", false, "Start a match immediately with the configured settings")
	flags.Bool("focus", false, "Start in focus mode (board only)")
	flags.Bool("version", false, "Print version and exit")
	return flags
}

func main() {
	flags := newFlagSet()
	flags.Parse(os.Args[1:])

	if v, _ := flags.GetBool("version"); v {
		fmt.Printf("othello-arbiter %s\n", Version)
		return
	}

	cfg, err := config.InitConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log: %s\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *spectate.Hub
	if cfg.Spectate.Addr != "" {
		hub = spectate.NewHub(log)
		if _, err := spectate.Start(ctx, cfg.Spectate.Addr, hub, log); err != nil {
			fmt.Fprintf(os.Stderr, "spectator server: %s\n", err)
			os.Exit(1)
		}
	}

	if console, _ := flags.GetBool("console"); console {
		os.Exit(runConsole(ctx, cfg, log, hub))
	}

	play, _ := flags.GetBool("play")
	focus, _ := flags.GetBool("focus")
	if err := runUI(ctx, cfg, log, hub, play, focus); err != nil {
		log.Errorw("ui", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger logs JSON to the configured file; the terminal belongs to the UI.
func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	path, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// runConsole plays a single match on stdin/stdout and returns the exit code.
func runConsole(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, hub *spectate.Hub) int {
	opts, err := matchOptionsFrom(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	opts.OnListen = func(port int) {
		fmt.Printf("Waiting for peer on %s:%d\n", opts.Host, port)
	}

	c := ui.NewConsole(os.Stdin, os.Stdout)
	res, err := runMatch(ctx, opts, c, log, observers(c, hub)...)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintf(os.Stderr, "match failed: %s\n", err)
		return 1
	}
	if res.Reason != session.ReasonFinished {
		fmt.Printf("Match %s\n", res.Reason)
	}
	return 0
}
