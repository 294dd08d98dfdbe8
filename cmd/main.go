package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinematch/internal/shared"
)

// newApp builds the root command around r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "cinematch",
		Usage:    "Search movies and keep track of what you watched and liked",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.Load,
		Commands: r.register(),
		Action:   r.TUI,
	}
}

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	err := newApp(runner).Run(context.Background(), os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close store", "error", cerr)
	}

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
