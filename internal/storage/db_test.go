package storage

import (
	"path/filepath"
	"testing"
)

func TestUpsertEmailDedupesByHash(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	first, err := db.UpsertEmail("imap", "<m1@example.com>", "Invoice", "acme@example.com", "2026-01-02T00:00:00Z", "hash-1", "/raw/hash-1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}

	second, err := db.UpsertEmail("imap", "<m1@example.com>", "Invoice (updated)", "acme@example.com", "2026-01-02T00:00:00Z", "hash-1", "/raw/hash-1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("same hash must hit the same row: %d vs %d", first.ID, second.ID)
	}
	if second.Subject != "Invoice (updated)" {
		t.Fatalf("metadata not refreshed: %q", second.Subject)
	}

	emails, err := db.ListEmails(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(emails) != 1 {
		t.Fatalf("len=%d", len(emails))
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if v, err := db.GetMetadata("missing"); err != nil || v != nil {
		t.Fatalf("missing key: v=%v err=%v", v, err)
	}
	if err := db.SetMetadata("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMetadata("k")
	if err != nil {
		t.Fatal(err)
	}
	if v == nil || *v != "v2" {
		t.Fatalf("got %v", v)
	}
}
