package listener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"reconmail/internal/config"
	"reconmail/internal/connectors"
	gmailconnector "reconmail/internal/connectors/gmail"
	imapconnector "reconmail/internal/connectors/imap"
	"reconmail/internal/pipeline"
	"reconmail/internal/storage"
)

// Service runs the fetch-then-reconcile cycle on a fixed interval until
// the context is cancelled. A failed cycle is logged and retried on the
// next tick.
type Service struct {
	db     *storage.DB
	cfg    config.Config
	runner *pipeline.Runner
	logger *zap.Logger
}

func NewService(db *storage.DB, cfg config.Config, runner *pipeline.Runner, logger *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, runner: runner, logger: logger}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			s.logger.Error("watch cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector, s.cfg.FinancialKeywords, s.logger)
	corpus, err := fetchService.FetchFinancial(s.cfg.MailLabel, s.cfg.FetchLimit)
	if err != nil {
		return err
	}

	summary, err := s.runner.Run(ctx, corpus)
	if err != nil {
		return err
	}

	s.logger.Info("watch cycle done",
		zap.String("provider", provider),
		zap.Int("emails", len(corpus)),
		zap.Int("files", summary.Files),
		zap.Int("matched", summary.Matched),
		zap.Int("unmatchedEmails", summary.UnmatchedEmails))
	return nil
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}
