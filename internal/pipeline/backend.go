package pipeline

import "context"

// Backend is the remote document store the pipeline writes to. The Drive
// and Sheets wrapper satisfies it; tests swap in an in-memory fake.
type Backend interface {
	BlobExists(ctx context.Context, name, folderID string) (string, bool, error)
	UploadBlob(ctx context.Context, content []byte, name, folderID string) (string, error)
	EnsureSpreadsheet(ctx context.Context, name, folderID string) (string, error)
	ReadRows(ctx context.Context, spreadsheetID string) ([]string, []map[string]string, error)
	WriteRows(ctx context.Context, spreadsheetID string, header []string, rows []map[string]string) error
}
