package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"reconmail/internal"
	"reconmail/internal/config"
	"reconmail/internal/connectors"
	gmailconnector "reconmail/internal/connectors/gmail"
	imapconnector "reconmail/internal/connectors/imap"
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

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx := context.Background()
	cmd := os.Args[1]
	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		offline := fs.Bool("offline", false, "reconcile against already-fetched mail only")
		label := fs.String("label", cfg.MailLabel, "mailbox/label")
		max := fs.Int("max", cfg.FetchLimit, "max messages")
		_ = fs.Parse(os.Args[2:])

		corpus, err := loadCorpus(db, cfg, logger, *offline, *label, *max)
		must(err)
		runner, err := buildRunner(ctx, db, cfg, logger)
		must(err)
		summary, err := runner.Run(ctx, corpus)
		must(err)
		fmt.Printf("run done files=%d records=%d matched=%d duplicates=%d unmatchedEmails=%d\n",
			summary.Files, summary.Records, summary.Matched, summary.Duplicates, summary.UnmatchedEmails)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailProvider, "gmail|imap")
		label := fs.String("label", cfg.MailLabel, "mailbox/label")
		max := fs.Int("max", cfg.FetchLimit, "max messages")
		_ = fs.Parse(os.Args[2:])

		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn, cfg.FinancialKeywords, logger)
		corpus, err := fetch.FetchFinancial(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s financial=%d\n", *provider, len(corpus))
	case "file:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "statement file path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}

		corpus, err := loadCorpus(db, cfg, logger, true, "", cfg.FetchLimit)
		must(err)
		backend, err := gdrive.NewService(ctx, cfg)
		must(err)
		processor := buildProcessor(db, cfg, backend, logger)
		outcome, err := processor.ProcessFile(ctx, *input, corpus)
		must(err)
		fmt.Printf("file processed records=%d matched=%d duplicates=%d doc=%s\n",
			outcome.Records, outcome.Matched, outcome.Duplicates, outcome.DocID)
	case "watch":
		runner, err := buildRunner(ctx, db, cfg, logger)
		must(err)
		svc := listener.NewService(db, cfg, runner, logger)
		must(svc.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func loadCorpus(db *storage.DB, cfg config.Config, logger *zap.Logger, offline bool, label string, max int) ([]internal.EmailRecord, error) {
	if offline {
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, nil, cfg.FinancialKeywords, logger)
		return fetch.LoadStored(max)
	}
	conn, err := makeConnector(cfg, cfg.MailProvider)
	if err != nil {
		return nil, err
	}
	fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn, cfg.FinancialKeywords, logger)
	return fetch.FetchFinancial(label, max)
}

func buildRunner(ctx context.Context, db *storage.DB, cfg config.Config, logger *zap.Logger) (*pipeline.Runner, error) {
	backend, err := gdrive.NewService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	led := ledger.New()
	writer := pipeline.NewSheetWriter(backend, logger)
	uploader := pipeline.NewUploader(backend, led, logger)
	matcher := buildMatcher(db, cfg, logger)
	processor := pipeline.NewFileProcessor(cfg, matcher, led, uploader, writer, logger)
	return pipeline.NewRunner(cfg, db, processor, writer, led, logger), nil
}

func buildProcessor(db *storage.DB, cfg config.Config, backend pipeline.Backend, logger *zap.Logger) *pipeline.FileProcessor {
	led := ledger.New()
	writer := pipeline.NewSheetWriter(backend, logger)
	uploader := pipeline.NewUploader(backend, led, logger)
	return pipeline.NewFileProcessor(cfg, buildMatcher(db, cfg, logger), led, uploader, writer, logger)
}

func buildMatcher(db *storage.DB, cfg config.Config, logger *zap.Logger) match.Matcher {
	if strings.EqualFold(cfg.MatchEngine, "tfidf") {
		return match.NewService(db, logger)
	}
	return match.NewHeuristic(match.Options{SubstringBonus: cfg.MatchSubstringBonus})
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: reconmail <command>")
	fmt.Println("commands:")
	fmt.Println("  run [--offline] [--label=INBOX] [--max=500]")
	fmt.Println("  mail:fetch --provider=gmail|imap [--label=INBOX] [--max=500]")
	fmt.Println("  file:process --input=./statements/jan.xlsx")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
