package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reconmail/internal"
	"reconmail/internal/config"
	"reconmail/internal/ledger"
	"reconmail/internal/storage"
)

var statementExtensions = map[string]struct{}{
	".xlsx": {}, ".csv": {}, ".json": {}, ".txt": {}, ".pdf": {}, ".html": {}, ".htm": {},
}

// Runner reconciles every statement file in the configured directory
// against the email corpus, with a bounded number of files in flight.
// Per-file failures are isolated: one bad statement never aborts the run.
type Runner struct {
	cfg       config.Config
	db        *storage.DB
	processor *FileProcessor
	writer    *SheetWriter
	ledger    *ledger.Ledger
	logger    *zap.Logger
}

func NewRunner(cfg config.Config, db *storage.DB, processor *FileProcessor, writer *SheetWriter, led *ledger.Ledger, logger *zap.Logger) *Runner {
	return &Runner{cfg: cfg, db: db, processor: processor, writer: writer, ledger: led, logger: logger}
}

type Summary struct {
	Files           int
	Records         int
	Matched         int
	Unmatched       int
	Duplicates      int
	UnmatchedEmails int
}

func (r *Runner) Run(ctx context.Context, corpus []internal.EmailRecord) (Summary, error) {
	start := time.Now()

	files, err := listStatementFiles(r.cfg.StatementsDir)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu       sync.Mutex
		summary  Summary
		matched  = map[string]struct{}{}
		outcomes []FileOutcome
	)
	summary.Files = len(files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for _, path := range files {
		g.Go(func() error {
			outcome, err := r.processor.ProcessFile(gctx, path, corpus)
			if err != nil {
				r.logger.Error("statement file failed", zap.String("path", path), zap.Error(err))
				return nil
			}
			mu.Lock()
			summary.Records += outcome.Records
			summary.Matched += outcome.Matched
			summary.Unmatched += outcome.Unmatched
			summary.Duplicates += outcome.Duplicates
			for hash := range outcome.MatchedEmails {
				matched[hash] = struct{}{}
			}
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	unmatchedRows := r.unmatchedEmailRows(ctx, corpus, matched)
	summary.UnmatchedEmails = len(unmatchedRows)
	r.writer.Merge(ctx, r.cfg.UnmatchedSheetName, r.cfg.UnmatchedFolderID, unmatchedRows)

	if r.cfg.LocalExport {
		r.exportLocal(outcomes, unmatchedRows)
	}

	counts := map[string]int{
		"files":           summary.Files,
		"records":         summary.Records,
		"matched":         summary.Matched,
		"unmatched":       summary.Unmatched,
		"duplicates":      summary.Duplicates,
		"unmatchedEmails": summary.UnmatchedEmails,
	}
	timings := map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}
	if err := r.db.InsertRun(traceID(), counts, timings); err != nil {
		r.logger.Warn("record run stats", zap.Error(err))
	}

	r.logger.Info("reconciliation run finished",
		zap.Int("files", summary.Files),
		zap.Int("records", summary.Records),
		zap.Int("matched", summary.Matched),
		zap.Int("unmatchedEmails", summary.UnmatchedEmails))
	return summary, nil
}

// unmatchedEmailRows builds the fallback sheet rows for corpus emails no
// record claimed, uploading their attachments to the unmatched folder.
// An email consumed by an earlier cycle on the same ledger stays out:
// its records dedupe away and must not demote it to unmatched.
func (r *Runner) unmatchedEmailRows(ctx context.Context, corpus []internal.EmailRecord, matched map[string]struct{}) []internal.SheetRow {
	rows := make([]internal.SheetRow, 0)
	for i := range corpus {
		email := &corpus[i]
		if _, ok := matched[email.Hash]; ok || r.ledger.SeenEmail(email.Hash) {
			continue
		}
		rows = append(rows, internal.SheetRow{
			"sender_name":   email.SenderName,
			"sender_email":  email.SenderEmail,
			"subject":       email.Subject,
			"received_time": email.Date,
			"attach_path":   strings.Join(r.processor.attachmentRefs(ctx, email, r.cfg.UnmatchedFolderID), ", "),
			"email_link":    emailLink(email),
		})
	}
	return rows
}

func (r *Runner) exportLocal(outcomes []FileOutcome, unmatchedRows []internal.SheetRow) {
	for _, outcome := range outcomes {
		if outcome.SheetName == "" {
			continue
		}
		path := filepath.Join(r.cfg.OutputDir, outcome.SheetName+".xlsx")
		if err := ExportSheetToXLSX(outcome.Rows, path); err != nil {
			r.logger.Warn("local export failed", zap.String("path", path), zap.Error(err))
		}
	}
	path := filepath.Join(r.cfg.OutputDir, r.cfg.UnmatchedSheetName+".xlsx")
	if err := ExportSheetToXLSX(unmatchedRows, path); err != nil {
		r.logger.Warn("local export failed", zap.String("path", path), zap.Error(err))
	}
}

func listStatementFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list statements dir %q: %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := statementExtensions[ext]; !ok {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
