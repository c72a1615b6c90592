package connectors

import (
	"bytes"
	"net/mail"
	"os"
	"strings"

	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"

	"reconmail/internal"
	"reconmail/internal/storage"
	"reconmail/internal/util"
)

// FetchService fetches raw mail, stores it locally, and normalizes the
// financial-looking subset into EmailRecords for matching.
type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
	keywords  []string
	logger    *zap.Logger
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector, keywords []string, logger *zap.Logger) *FetchService {
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
		keywords:  keywords,
		logger:    logger,
	}
}

// FetchFinancial pulls up to limit messages, deduplicates by raw-content
// hash, stores each distinct message, and returns the normalized records
// that pass the financial-keyword heuristic.
func (s *FetchService) FetchFinancial(label string, limit int) ([]internal.EmailRecord, error) {
	messages, err := s.connector.FetchInbox(label, limit)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	out := make([]internal.EmailRecord, 0, len(messages))
	for _, msg := range messages {
		hash := util.ContentHash(msg.Raw)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}

		row, err := s.store.Store(msg)
		if err != nil {
			s.logger.Error("store raw message", zap.String("messageId", msg.MessageID), zap.Error(err))
			continue
		}

		record, err := normalizeEmail(msg.Raw, hash, msg)
		if err != nil {
			s.logger.Error("parse message", zap.String("hash", hash), zap.Error(err))
			continue
		}

		if !s.isFinancial(record) {
			if err := s.db.UpdateEmailStatus(row.ID, "skipped"); err != nil {
				s.logger.Warn("update email status", zap.String("hash", hash), zap.Error(err))
			}
			continue
		}
		if err := s.db.UpdateEmailStatus(row.ID, "financial"); err != nil {
			s.logger.Warn("update email status", zap.String("hash", hash), zap.Error(err))
		}
		out = append(out, record)
	}

	s.logger.Info("fetched financial emails", zap.Int("fetched", len(messages)), zap.Int("financial", len(out)))
	return out, nil
}

// LoadStored re-parses previously fetched raw mail from the local store,
// so statement files can be processed without a live mailbox.
func (s *FetchService) LoadStored(limit int) ([]internal.EmailRecord, error) {
	rows, err := s.db.ListEmails(limit)
	if err != nil {
		return nil, err
	}

	out := make([]internal.EmailRecord, 0, len(rows))
	for _, row := range rows {
		raw, err := os.ReadFile(row.RawRef)
		if err != nil {
			s.logger.Error("read stored message", zap.String("hash", row.Hash), zap.Error(err))
			continue
		}
		record, err := normalizeEmail(raw, row.Hash, internal.FetchedMailMessage{
			Provider:   row.Provider,
			MessageID:  row.MessageID,
			ReceivedAt: row.ReceivedAt,
		})
		if err != nil {
			s.logger.Error("parse stored message", zap.String("hash", row.Hash), zap.Error(err))
			continue
		}
		if s.isFinancial(record) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *FetchService) isFinancial(record internal.EmailRecord) bool {
	names := make([]string, 0, len(record.Attachments))
	for _, att := range record.Attachments {
		names = append(names, att.Filename)
	}
	return DetectFinancial(record.Subject, record.Body, record.SenderEmail, names, s.keywords).IsFinancial
}

func normalizeEmail(raw []byte, hash string, msg internal.FetchedMailMessage) (internal.EmailRecord, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return internal.EmailRecord{}, err
	}

	senderName, senderEmail := parseFrom(env.GetHeader("From"))
	date := strings.TrimSpace(env.GetHeader("Date"))
	if date == "" {
		date = msg.ReceivedAt
	}

	attachments := make([]internal.Attachment, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		name := strings.TrimSpace(att.FileName)
		if name == "" {
			name = "attachment"
		}
		attachments = append(attachments, internal.Attachment{Filename: name, Content: att.Content})
	}

	return internal.EmailRecord{
		Hash:        hash,
		Provider:    msg.Provider,
		MessageID:   msg.MessageID,
		SenderName:  senderName,
		SenderEmail: senderEmail,
		Subject:     env.GetHeader("Subject"),
		Body:        env.Text,
		Date:        date,
		Attachments: attachments,
	}, nil
}

func parseFrom(header string) (name, address string) {
	addr, err := mail.ParseAddress(header)
	if err != nil {
		return "", strings.TrimSpace(header)
	}
	return addr.Name, addr.Address
}
