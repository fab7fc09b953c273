// Package main is the entry point for the wick module loader.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"github.com/mattn/go-isatty"
	"go.trai.ch/wick/cmd/wick/commands"
	"go.trai.ch/wick/internal/adapters/config"
	"go.trai.ch/wick/internal/adapters/logger"
	"go.trai.ch/wick/internal/app"
	_ "go.trai.ch/wick/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run(opts ...graft.Option) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Logger, available before the graph is built
	log := logger.New()
	if fd := os.Stderr.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		log.SetJSON(true)
	}

	// 2. Components are built once the global flags are known
	factory := func(ctx context.Context, flags commands.Flags) (*app.Components, error) {
		if flags.Config.LogJSON {
			log.SetJSON(true)
		}
		log.SetVerbose(flags.Verbose)

		ctx = config.WithOptions(ctx, flags.Config)
		graftOpts := append([]graft.Option{graft.PatchValue[*logger.Logger](log)}, opts...)
		components, _, err := graft.ExecuteFor[*app.Components](ctx, graftOpts...)
		return components, err
	}

	// 3. Interface - CLI
	cli := commands.New(factory)

	// 4. Execution
	if err := cli.Execute(ctx); err != nil {
		log.Error(err)
		return 1
	}
	return 0
}
