package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"reconmail/internal/config"
	"reconmail/internal/gdrive"
	"reconmail/internal/ledger"
	"reconmail/internal/listener"
	"reconmail/internal/logging"
	"reconmail/internal/match"
	"reconmail/internal/pipeline"
	"reconmail/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	backend, err := gdrive.NewService(ctx, cfg)
	must(err)

	led := ledger.New()
	writer := pipeline.NewSheetWriter(backend, logger)
	uploader := pipeline.NewUploader(backend, led, logger)
	var matcher match.Matcher = match.NewHeuristic(match.Options{SubstringBonus: cfg.MatchSubstringBonus})
	if cfg.MatchEngine == "tfidf" {
		matcher = match.NewService(db, logger)
	}
	processor := pipeline.NewFileProcessor(cfg, matcher, led, uploader, writer, logger)
	runner := pipeline.NewRunner(cfg, db, processor, writer, led, logger)

	svc := listener.NewService(db, cfg, runner, logger)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
