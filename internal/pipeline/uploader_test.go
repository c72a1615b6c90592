package pipeline

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"reconmail/internal/ledger"
)

func TestUploadUniqueOncePerContent(t *testing.T) {
	backend := newFakeBackend()
	uploader := NewUploader(backend, ledger.New(), zap.NewNop())

	content := []byte("%PDF-1.4 receipt")
	link := uploader.UploadUnique(context.Background(), content, "receipt.pdf", "attach")
	if !strings.HasPrefix(link, "https://drive.google.com/file/d/") || !strings.HasSuffix(link, "/view") {
		t.Fatalf("unexpected link: %q", link)
	}

	// Same bytes under a different name must not upload again.
	if again := uploader.UploadUnique(context.Background(), content, "copy-of-receipt.pdf", "attach"); again != "" {
		t.Fatalf("duplicate content must yield empty link, got %q", again)
	}
	if backend.uploads != 1 {
		t.Fatalf("uploads=%d", backend.uploads)
	}
}

func TestUploadUniqueSkipsRemoteDuplicate(t *testing.T) {
	backend := newFakeBackend()
	if _, err := backend.UploadBlob(context.Background(), []byte("old"), "receipt.pdf", "attach"); err != nil {
		t.Fatal(err)
	}
	seeded := backend.uploads

	uploader := NewUploader(backend, ledger.New(), zap.NewNop())
	if link := uploader.UploadUnique(context.Background(), []byte("new bytes"), "receipt.pdf", "attach"); link != "" {
		t.Fatalf("remote duplicate must yield no link, got %q", link)
	}
	if backend.uploads != seeded {
		t.Fatalf("remote duplicate must not upload again: %d", backend.uploads)
	}
}

func TestUploadUniqueSanitizesName(t *testing.T) {
	backend := newFakeBackend()
	uploader := NewUploader(backend, ledger.New(), zap.NewNop())

	link := uploader.UploadUnique(context.Background(), []byte("x"), "inv:2026/01?.pdf", "attach")
	if link == "" {
		t.Fatal("sanitizable name must upload")
	}
	if _, ok := backend.blobs["attach/inv_2026_01_.pdf"]; !ok {
		t.Fatalf("blob stored under unexpected name: %v", backend.blobs)
	}

	if link := uploader.UploadUnique(context.Background(), []byte("y"), "///", "attach"); link != "" {
		t.Fatalf("unusable name must yield empty link, got %q", link)
	}
}
