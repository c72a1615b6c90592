package pipeline

import (
	"context"

	"go.uber.org/zap"

	"reconmail/internal/gdrive"
	"reconmail/internal/ledger"
	"reconmail/internal/util"
)

// Uploader pushes attachment blobs to the remote store at most once per
// content hash. Upload problems degrade the row (empty link) instead of
// failing the statement file.
type Uploader struct {
	backend Backend
	ledger  *ledger.Ledger
	logger  *zap.Logger
}

func NewUploader(backend Backend, led *ledger.Ledger, logger *zap.Logger) *Uploader {
	return &Uploader{backend: backend, ledger: led, logger: logger}
}

// UploadUnique stores content under name in the folder and returns its
// view link. A content hash already claimed during this run, or a file
// already present remotely under that name, yields "" without uploading.
func (u *Uploader) UploadUnique(ctx context.Context, content []byte, name, folderID string) string {
	sanitized, err := util.SanitizeFileName(name)
	if err != nil {
		u.logger.Warn("unusable attachment name", zap.String("name", name), zap.Error(err))
		return ""
	}

	hash := util.ContentHash(content)
	if !u.ledger.MarkUpload(hash) {
		u.logger.Debug("attachment already uploaded this run", zap.String("hash", hash))
		return ""
	}

	_, exists, err := u.backend.BlobExists(ctx, sanitized, folderID)
	if err != nil {
		u.logger.Warn("check remote attachment", zap.String("name", sanitized), zap.Error(err))
		return ""
	}
	if exists {
		u.logger.Debug("attachment already present remotely", zap.String("name", sanitized))
		return ""
	}

	id, err := u.backend.UploadBlob(ctx, content, sanitized, folderID)
	if err != nil {
		u.logger.Warn("upload attachment", zap.String("name", sanitized), zap.Error(err))
		return ""
	}
	return gdrive.BlobLink(id)
}
