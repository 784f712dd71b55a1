package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/dbx"
	"github.com/avolkovs/filekeeper/internal/logging"
	"github.com/avolkovs/filekeeper/internal/server/config"
	"github.com/avolkovs/filekeeper/internal/server/models"
	"github.com/avolkovs/filekeeper/internal/server/objstore"
	"github.com/avolkovs/filekeeper/internal/server/repositories/repomanager"
)

// folderNamePattern is the allowed folder-name grammar: 2 to 50 characters
// out of letters, digits, spaces, underscores, and hyphens.
var folderNamePattern = regexp.MustCompile(`^[A-Za-z0-9 _-]{2,50}$`)

// Titles of the storage-threshold notifications. Matched against active rows
// so repeated checks do not stack duplicates.
const (
	titleStorageLow  = "Storage almost full"
	titleStorageFull = "Storage full"

	thresholdNotificationTTL = 24 * time.Hour
)

// CatalogService owns file and folder queries, folder lifecycle, deletes,
// and the raw bucket/key object surface.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objstore.ObjectStore
	notifier    *NotificationService
	config      *config.Config
	log         logging.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, store objstore.ObjectStore, notifier *NotificationService, cfg *config.Config, log logging.Logger) *CatalogService {
	return &CatalogService{
		db:          db,
		repomanager: m,
		store:       store,
		notifier:    notifier,
		config:      cfg,
		log:         log,
	}
}

// ByOwner lists all file records owned by ownerID.
func (s *CatalogService) ByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	return s.repomanager.Files(s.db).ByOwner(ctx, ownerID)
}

// ByFolder lists ownerID's files in folderID; nil means the root.
func (s *CatalogService) ByFolder(ctx context.Context, ownerID string, folderID *int64) ([]*models.FileRecord, error) {
	return s.repomanager.Files(s.db).ByFolder(ctx, ownerID, folderID)
}

// FavoritesOf lists ownerID's favorite file records.
func (s *CatalogService) FavoritesOf(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	return s.repomanager.Files(s.db).FavoritesOf(ctx, ownerID)
}

// FoldersOf lists ownerID's folders with computed file counts.
func (s *CatalogService) FoldersOf(ctx context.Context, ownerID string) ([]*models.Folder, error) {
	return s.repomanager.Folders(s.db).OwnedBy(ctx, ownerID)
}

// CreateFolder creates a folder after checking the name grammar.
func (s *CatalogService) CreateFolder(ctx context.Context, ownerID, name string) (*models.Folder, error) {
	if !folderNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: folder name must be 2-50 characters of letters, digits, spaces, _ or -", common.ErrorValidation)
	}
	return s.repomanager.Folders(s.db).Create(ctx, &models.Folder{OwnerID: ownerID, Name: name})
}

// DeleteFolder removes ownerID's folder, first moving member files back to
// the root. Files are reassigned, never deleted. Both steps run in one
// transaction so a failure leaves the folder and its members intact.
func (s *CatalogService) DeleteFolder(ctx context.Context, ownerID string, folderID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Folders(tx).GetByID(ctx, ownerID, folderID); err != nil {
			return err
		}
		if err := s.repomanager.Files(tx).ClearFolder(ctx, folderID); err != nil {
			return err
		}
		return s.repomanager.Folders(tx).Delete(ctx, ownerID, folderID)
	})
}

// MoveToFolder reassigns the file at (bucket, key) into folderID, nil for
// the root. The assignment is an upsert: an object the index has never seen
// gets a minimal row. A folder owned by someone else is treated as absent,
// and so is a (bucket, key) row owned by someone else.
func (s *CatalogService) MoveToFolder(ctx context.Context, ownerID, bucket, key string, folderID *int64) error {
	if folderID != nil {
		if _, err := s.repomanager.Folders(s.db).GetByID(ctx, ownerID, *folderID); err != nil {
			return err
		}
	}
	return s.repomanager.Files(s.db).AssignFolder(ctx, ownerID, bucket, key, folderID)
}

// DeleteFile removes fileID for ownerID, object first, then the row. When
// the object delete fails nothing else happens and the error maps to
// common.ErrorStorageFailure. When the row delete fails after the object is
// gone, a *common.PartialFailureError reports the dangling record.
func (s *CatalogService) DeleteFile(ctx context.Context, ownerID string, fileID int64) error {
	record, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if record.OwnerID != ownerID {
		return common.ErrorAccessDenied
	}

	if err := s.store.Delete(ctx, record.StorageBucket, record.StorageKey); err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", common.ErrorStorageFailure, record.StorageBucket, record.StorageKey, err)
	}
	if err := s.repomanager.Files(s.db).Delete(ctx, fileID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return common.DanglingRecordError(record.StorageBucket, record.StorageKey, err)
	}
	return nil
}

// GetObject streams the object at (bucket, key).
func (s *CatalogService) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	rc, err := s.store.Get(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s/%s: %v", common.ErrorStorageFailure, bucket, key, err)
	}
	return rc, nil
}

// ListObjects returns the flattened listing of bucket.
func (s *CatalogService) ListObjects(ctx context.Context, bucket string) ([]objstore.ObjectInfo, error) {
	infos, err := s.store.List(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", common.ErrorStorageFailure, bucket, err)
	}
	return infos, nil
}

// DeleteObject removes the object at (bucket, key) and drops its index row
// if one exists. An unindexed object is fine; the index delete is a no-op.
func (s *CatalogService) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := s.store.Delete(ctx, bucket, key); err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", common.ErrorStorageFailure, bucket, key, err)
	}
	if err := s.repomanager.Files(s.db).DeleteByStorageKey(ctx, bucket, key); err != nil {
		return common.DanglingRecordError(bucket, key, err)
	}
	return nil
}

// CheckStorageUsage computes userID's total stored bytes against the quota
// and emits at most one active threshold warning per level. The warnings
// expire after a day so a user who frees space stops seeing them.
func (s *CatalogService) CheckStorageUsage(ctx context.Context, userID string) error {
	used, err := s.repomanager.Files(s.db).SumSizeByOwner(ctx, userID)
	if err != nil {
		return err
	}
	if s.config.QuotaBytes <= 0 {
		return nil
	}
	ratio := float64(used) / float64(s.config.QuotaBytes)

	var (
		title string
		kind  models.NotificationKind
		body  string
	)
	switch {
	case ratio >= config.QuotaFullRatio:
		title = titleStorageFull
		kind = models.NotificationDanger
		body = fmt.Sprintf("You are using %d of %d bytes. Uploads may start failing.", used, s.config.QuotaBytes)
	case ratio >= config.QuotaWarnRatio:
		title = titleStorageLow
		kind = models.NotificationWarning
		body = fmt.Sprintf("You are using %d of %d bytes.", used, s.config.QuotaBytes)
	default:
		return nil
	}

	exists, err := s.repomanager.Notifications(s.db).ActiveWithTitle(ctx, userID, title)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	expires := time.Now().Add(thresholdNotificationTTL)
	_, err = s.notifier.Create(ctx, &models.Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		ExpiresAt: &expires,
	})
	return err
}
