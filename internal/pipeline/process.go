package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"reconmail/internal"
	"reconmail/internal/config"
	"reconmail/internal/extract"
	"reconmail/internal/ledger"
	"reconmail/internal/match"
	"reconmail/internal/util"
)

// FileProcessor turns one statement file into spreadsheet rows: extract
// records, skip ones already claimed this run, match the rest against
// the email corpus, and merge the result into the file's document.
type FileProcessor struct {
	cfg      config.Config
	matcher  match.Matcher
	ledger   *ledger.Ledger
	uploader *Uploader
	writer   *SheetWriter
	logger   *zap.Logger
}

func NewFileProcessor(cfg config.Config, matcher match.Matcher, led *ledger.Ledger, uploader *Uploader, writer *SheetWriter, logger *zap.Logger) *FileProcessor {
	return &FileProcessor{cfg: cfg, matcher: matcher, ledger: led, uploader: uploader, writer: writer, logger: logger}
}

type FileOutcome struct {
	Path          string
	SheetName     string
	DocID         string
	Records       int
	Matched       int
	Unmatched     int
	Duplicates    int
	MatchedEmails map[string]struct{}
	Rows          []internal.SheetRow
}

// ProcessFile extracts records from path in file order and merges the
// accepted ones into the statement's spreadsheet. Records whose canonical
// hash was already claimed this run are dropped before matching; records
// with no match at or above the threshold produce no row.
func (p *FileProcessor) ProcessFile(ctx context.Context, path string, corpus []internal.EmailRecord) (FileOutcome, error) {
	outcome := FileOutcome{
		Path:          path,
		MatchedEmails: map[string]struct{}{},
	}

	name, err := sheetNameForFile(path)
	if err != nil {
		return outcome, fmt.Errorf("derive sheet name for %q: %w", path, err)
	}
	outcome.SheetName = name

	records := extract.Records(path)
	outcome.Records = len(records)

	rows := make([]internal.SheetRow, 0, len(records))
	for _, record := range records {
		hash := util.CanonicalRecordHash(record)
		if !p.ledger.MarkRecord(hash) {
			outcome.Duplicates++
			continue
		}

		row := internal.SheetRow{}
		for k, v := range record {
			row[k] = v
		}

		email, score := p.matcher.Match(record, corpus)
		if email == nil || score < p.cfg.MatchThreshold {
			outcome.Unmatched++
			continue
		}

		row["sender_name"] = email.SenderName
		row["sender_email"] = email.SenderEmail
		row["received_time"] = email.Date
		row["attach_path"] = strings.Join(p.attachmentRefs(ctx, email, p.cfg.AttachmentsFolderID), ", ")
		row["email_link"] = emailLink(email)
		outcome.MatchedEmails[email.Hash] = struct{}{}
		outcome.Matched++
		rows = append(rows, row)
	}
	outcome.Rows = rows

	outcome.DocID = p.writer.Merge(ctx, name, p.cfg.SheetsFolderID, rows)

	p.logger.Info("processed statement file",
		zap.String("path", path),
		zap.String("sheet", name),
		zap.Int("records", outcome.Records),
		zap.Int("matched", outcome.Matched),
		zap.Int("unmatched", outcome.Unmatched),
		zap.Int("duplicates", outcome.Duplicates))
	return outcome, nil
}

// attachmentRefs uploads the email's attachments exactly once per run.
// The first caller for an email hash does the uploads and caches the
// links; later callers reuse them.
func (p *FileProcessor) attachmentRefs(ctx context.Context, email *internal.EmailRecord, folderID string) []string {
	if !p.ledger.MarkEmail(email.Hash) {
		return p.ledger.Refs(email.Hash)
	}

	refs := make([]string, 0, len(email.Attachments))
	for i, att := range email.Attachments {
		name := fmt.Sprintf("%s_%s_%d%s", email.SenderEmail, shortHash(email.Hash), i, filepath.Ext(att.Filename))
		if link := p.uploader.UploadUnique(ctx, att.Content, name, folderID); link != "" {
			refs = append(refs, link)
		}
	}
	p.ledger.SetRefs(email.Hash, refs)
	return refs
}

func sheetNameForFile(path string) (string, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return util.SanitizeFileName(stem + "_records")
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func emailLink(email *internal.EmailRecord) string {
	if email.Provider != "gmail" || email.MessageID == "" {
		return ""
	}
	id := strings.Trim(email.MessageID, "<>")
	return "https://mail.google.com/mail/u/0/#search/rfc822msgid:" + url.QueryEscape(id)
}
