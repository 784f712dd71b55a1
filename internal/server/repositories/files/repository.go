// Package files stores and queries file metadata records.
package files

import (
	"context"

	"github.com/avolkovs/filekeeper/internal/server/models"
)

type Repository interface {
	// Insert creates a record and fills in the generated id. The
	// (storage_bucket, storage_key) pair is upserted: re-uploading the same
	// derived key updates the existing row (last write wins).
	Insert(ctx context.Context, f *models.FileRecord) (*models.FileRecord, error)

	// GetByID returns the record or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.FileRecord, error)

	// FindOwnedByName resolves a file owned by ownerID, matching the stored
	// name first and falling back to the original name. Files of other
	// owners are never returned.
	FindOwnedByName(ctx context.Context, ownerID, name string) (*models.FileRecord, error)

	// ByOwner lists all records owned by ownerID.
	ByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error)

	// ByFolder lists records of ownerID inside folderID; nil means root.
	ByFolder(ctx context.Context, ownerID string, folderID *int64) ([]*models.FileRecord, error)

	// FavoritesOf lists records of ownerID with the favorite mark set.
	FavoritesOf(ctx context.Context, ownerID string) ([]*models.FileRecord, error)

	// AssignFolder upserts the folder assignment for (bucket, key): when no
	// row exists yet (object created outside the index) a minimal one is
	// inserted. A conflicting row owned by another user is left untouched
	// and reported as common.ErrorNotFound.
	AssignFolder(ctx context.Context, ownerID, bucket, key string, folderID *int64) error

	// SetFavorite upserts the favorite mark for (bucket, key), inserting a
	// minimal row when the index has never seen the object. Idempotent.
	// A conflicting row owned by another user is left untouched and reported
	// as common.ErrorNotFound.
	SetFavorite(ctx context.Context, ownerID, bucket, key string, favorite bool, size int64) error

	// ClearFolder moves all files of folderID back to the root.
	ClearFolder(ctx context.Context, folderID int64) error

	// SumSizeByOwner returns total stored bytes for ownerID.
	SumSizeByOwner(ctx context.Context, ownerID string) (int64, error)

	// Delete removes the record by id. Missing rows are common.ErrorNotFound.
	Delete(ctx context.Context, id int64) error

	// DeleteByStorageKey removes the record for (bucket, key) if present.
	// Deleting an unindexed object is not an error.
	DeleteByStorageKey(ctx context.Context, bucket, key string) error
}
