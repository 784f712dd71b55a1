package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/logging"
	"github.com/avolkovs/filekeeper/internal/server/models"
	"github.com/avolkovs/filekeeper/internal/server/objstore"
	"github.com/avolkovs/filekeeper/internal/server/repositories/repomanager"
)

// UploadService coordinates the two-step write behind an upload: object bytes
// first, then the metadata row. The object store and the metadata store share
// no transaction, so the service compensates explicitly when the second step
// fails.
type UploadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objstore.ObjectStore
	notifier    *NotificationService
	log         logging.Logger
}

// NewUploadService constructs an UploadService.
func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, store objstore.ObjectStore, notifier *NotificationService, log logging.Logger) *UploadService {
	return &UploadService{
		db:          db,
		repomanager: m,
		store:       store,
		notifier:    notifier,
		log:         log,
	}
}

// Upload streams content into the owner's bucket and then indexes it.
//
// Ordering is strict: the object write happens before the metadata insert.
// A storage failure aborts before any metadata is touched and maps to
// common.ErrorStorageFailure. A metadata failure after a successful object
// write triggers a best-effort delete of the just-written object and always
// surfaces a *common.PartialFailureError; its Orphaned method tells the
// caller whether the compensating delete also failed.
//
// Re-uploading a name that derives an existing key overwrites both the
// object and the row, last write wins.
func (s *UploadService) Upload(ctx context.Context, ownerID string, content io.Reader, size int64, declaredName, contentType string, folderID *int64, progress objstore.ProgressFunc) (*models.FileRecord, error) {
	owner, err := s.repomanager.Accounts(s.db).GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	bucket := owner.BucketIdentifier
	key := models.DeriveStorageKey(declaredName)
	ext := models.ExtensionOf(declaredName)
	if contentType == "" {
		contentType = models.DetectMIME(declaredName)
	}

	if err := s.store.EnsureBucket(ctx, bucket); err != nil {
		return nil, fmt.Errorf("%w: ensure bucket %s: %v", common.ErrorStorageFailure, bucket, err)
	}

	if err := s.store.Put(ctx, bucket, key, content, size, contentType, progress); err != nil {
		return nil, fmt.Errorf("%w: put %s/%s: %v", common.ErrorStorageFailure, bucket, key, err)
	}

	record := &models.FileRecord{
		OwnerID:       ownerID,
		FolderID:      folderID,
		StoredName:    key,
		OriginalName:  declaredName,
		ByteSize:      size,
		MimeType:      contentType,
		FileExtension: ext,
		StorageKey:    key,
		StorageBucket: bucket,
	}

	record, err = s.repomanager.Files(s.db).Insert(ctx, record)
	if err != nil {
		// The object is in storage without a row. Compensate, and report
		// either way: an unreconciled orphan must never go unnoticed.
		cleanupErr := s.store.Delete(ctx, bucket, key)
		pf := &common.PartialFailureError{Bucket: bucket, Key: key, MetaErr: err, CleanupErr: cleanupErr}
		if pf.Orphaned() {
			s.log.Error(ctx, "orphaned object after failed metadata insert",
				"bucket", bucket, "key", key, "error", err, "cleanup_error", cleanupErr)
		}
		return nil, pf
	}

	s.notifier.Dispatch(&models.Notification{
		UserID: ownerID,
		Kind:   models.NotificationSuccess,
		Title:  "File uploaded",
		Body:   fmt.Sprintf("%s (%d bytes) was uploaded", record.DisplayName(), record.ByteSize),
	})

	return record, nil
}
