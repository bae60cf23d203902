package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/naestech/newNoise/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("NEWNOISE_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config, err := shared.LoadOrDefault(configPath)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "newnoise",
		Usage:    "Keep the New Noise playlists filled with this week's releases from your artists",
		Version:  "1.0.0",
		Flags:    []cli.Flag{&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable debug logging"}},
		Before:   runner.before,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
