package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"reconmail/internal"
	"reconmail/internal/storage"
)

func newTestRunner(t *testing.T, backend Backend) *Runner {
	t.Helper()
	cfg := testConfig()
	cfg.StatementsDir = t.TempDir()

	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	processor, led := newTestProcessor(cfg, backend)
	writer := NewSheetWriter(backend, zap.NewNop())
	runner := NewRunner(cfg, db, processor, writer, led, zap.NewNop())
	return runner
}

func TestRunPartitionsEmails(t *testing.T) {
	backend := newFakeBackend()
	runner := newTestRunner(t, backend)
	writeStatement(t, runner.cfg.StatementsDir, "acme.csv", "merchant,amount\nAcme,42.50\n")

	corpus := append(acmeCorpus(), internal.EmailRecord{
		Hash:        "bbbbbbbb22222222",
		Provider:    "imap",
		SenderName:  "Initech AP",
		SenderEmail: "ap@initech.example",
		Subject:     "Payment confirmation #9981",
		Body:        "Your payment of 310.00 was received.",
		Date:        "2026-02-03T09:00:00Z",
		Attachments: []internal.Attachment{{Filename: "confirmation.pdf", Content: []byte("%PDF-1.4 initech")}},
	})

	summary, err := runner.Run(context.Background(), corpus)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Files != 1 || summary.Records != 1 || summary.Matched != 1 {
		t.Fatalf("summary=%+v", summary)
	}
	if summary.UnmatchedEmails != 1 {
		t.Fatalf("unmatched emails=%d", summary.UnmatchedEmails)
	}

	docID, ok := backend.docIDs["other/other_email"]
	if !ok {
		t.Fatal("unmatched sheet was not created")
	}
	rows := backend.docRows(docID)
	if len(rows) != 1 || rows[0]["sender_email"] != "ap@initech.example" {
		t.Fatalf("unmatched rows: %v", rows)
	}
	if rows[0]["attach_path"] == "" {
		t.Fatal("unmatched email attachment link missing")
	}
}

func TestRunIsIdempotentAcrossInvocations(t *testing.T) {
	backend := newFakeBackend()
	first := newTestRunner(t, backend)
	writeStatement(t, first.cfg.StatementsDir, "acme.csv", "merchant,amount\nAcme,42.50\n")

	if _, err := first.Run(context.Background(), acmeCorpus()); err != nil {
		t.Fatal(err)
	}

	// Fresh runner, fresh ledger: same statements dir, same remote state.
	second := newTestRunner(t, backend)
	writeStatement(t, second.cfg.StatementsDir, "acme.csv", "merchant,amount\nAcme,42.50\n")
	if _, err := second.Run(context.Background(), acmeCorpus()); err != nil {
		t.Fatal(err)
	}

	docID := backend.docIDs["sheets/acme_records"]
	if n := len(backend.docRows(docID)); n != 1 {
		t.Fatalf("repeat run must not duplicate rows, got %d", n)
	}
	if backend.uploads != 1 {
		t.Fatalf("repeat run must not re-upload attachments, uploads=%d", backend.uploads)
	}
}

// A runner reused across watch cycles keeps the matched/unmatched email
// partition: an email matched in cycle one dedupes to zero records in
// cycle two and must not drift into the unmatched sheet.
func TestRunReusedAcrossCyclesKeepsPartition(t *testing.T) {
	backend := newFakeBackend()
	runner := newTestRunner(t, backend)
	writeStatement(t, runner.cfg.StatementsDir, "acme.csv", "merchant,amount\nAcme,42.50\n")
	corpus := acmeCorpus()

	first, err := runner.Run(context.Background(), corpus)
	if err != nil {
		t.Fatal(err)
	}
	if first.Matched != 1 || first.UnmatchedEmails != 0 {
		t.Fatalf("first cycle: %+v", first)
	}

	second, err := runner.Run(context.Background(), corpus)
	if err != nil {
		t.Fatal(err)
	}
	if second.Duplicates != 1 || second.UnmatchedEmails != 0 {
		t.Fatalf("second cycle: %+v", second)
	}

	docID, ok := backend.docIDs["other/other_email"]
	if !ok {
		t.Fatal("unmatched sheet missing")
	}
	if rows := backend.docRows(docID); len(rows) != 0 {
		t.Fatalf("cycle-1-matched email leaked into the unmatched sheet: %v", rows)
	}
}

func TestRunSurvivesBrokenStatementFile(t *testing.T) {
	backend := newFakeBackend()
	runner := newTestRunner(t, backend)
	writeStatement(t, runner.cfg.StatementsDir, "good.csv", "merchant,amount\nAcme,42.50\n")
	writeStatement(t, runner.cfg.StatementsDir, "broken.xlsx", "not really a workbook")

	summary, err := runner.Run(context.Background(), acmeCorpus())
	if err != nil {
		t.Fatal(err)
	}
	// The broken workbook extracts zero records; the good file still lands.
	if summary.Files != 2 || summary.Matched != 1 {
		t.Fatalf("summary=%+v", summary)
	}
}
