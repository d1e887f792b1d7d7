package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"friands/internal/app"
	"friands/internal/config"
	"friands/internal/logging"
)

const usage = `usage: friands <command>

commands:
  ingest <url>   scrape one restaurant listing and persist it
  label          backfill sentiment labels for unlabeled reviews
  summarize      generate summaries for restaurants without one
`

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	switch os.Args[1] {
	case "ingest":
		if len(os.Args) < 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		return application.Ingest(ctx, os.Args[2])
	case "label":
		return application.LabelReviews(ctx)
	case "summarize":
		return application.SummarizeRestaurants(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
		return nil
	}
}
