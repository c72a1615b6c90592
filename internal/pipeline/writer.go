package pipeline

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"reconmail/internal"
	"reconmail/internal/util"
)

// SheetWriter merges rows into remote spreadsheets idempotently: a row
// whose identity hash already exists in the document is dropped, link
// columns excluded so re-uploads never duplicate data rows.
type SheetWriter struct {
	backend Backend
	logger  *zap.Logger
}

func NewSheetWriter(backend Backend, logger *zap.Logger) *SheetWriter {
	return &SheetWriter{backend: backend, logger: logger}
}

// Merge ensures the named spreadsheet exists in the folder and folds the
// given rows into it, returning the document id. Write problems are
// logged and reported as "". An empty rows slice still creates the
// document.
func (w *SheetWriter) Merge(ctx context.Context, name, folderID string, rows []internal.SheetRow) string {
	docID, err := w.backend.EnsureSpreadsheet(ctx, name, folderID)
	if err != nil {
		w.logger.Warn("ensure spreadsheet", zap.String("name", name), zap.Error(err))
		return ""
	}
	if len(rows) == 0 {
		return docID
	}

	header, existing, err := w.backend.ReadRows(ctx, docID)
	if err != nil {
		w.logger.Warn("read spreadsheet", zap.String("name", name), zap.Error(err))
		return ""
	}

	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		seen[util.RowIdentityHash(row, internal.LinkColumns)] = struct{}{}
	}

	merged := make([]map[string]string, 0, len(existing)+len(rows))
	for _, row := range existing {
		merged = append(merged, row)
	}

	added := 0
	for _, row := range rows {
		identity := util.RowIdentityHash(row, internal.LinkColumns)
		if _, dup := seen[identity]; dup {
			continue
		}
		seen[identity] = struct{}{}
		merged = append(merged, row)
		added++
	}

	header = unionColumns(header, rows)
	if err := w.backend.WriteRows(ctx, docID, header, merged); err != nil {
		w.logger.Warn("write spreadsheet", zap.String("name", name), zap.Error(err))
		return ""
	}

	w.logger.Info("merged rows into spreadsheet",
		zap.String("name", name),
		zap.Int("incoming", len(rows)),
		zap.Int("added", added),
		zap.Int("total", len(merged)))
	return docID
}

// unionColumns keeps the existing header order and appends any new
// columns in first-seen order.
func unionColumns(header []string, rows []internal.SheetRow) []string {
	known := make(map[string]struct{}, len(header))
	for _, col := range header {
		known[col] = struct{}{}
	}
	for _, row := range rows {
		for _, col := range sortedKeys(row) {
			if _, ok := known[col]; ok {
				continue
			}
			known[col] = struct{}{}
			header = append(header, col)
		}
	}
	return header
}

func sortedKeys(row internal.SheetRow) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
