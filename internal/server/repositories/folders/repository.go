// Package folders stores user folders.
package folders

import (
	"context"

	"github.com/avolkovs/filekeeper/internal/server/models"
)

type Repository interface {
	// Create inserts a folder and fills in the generated id.
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)

	// GetByID returns ownerID's folder or common.ErrorNotFound. Folders of
	// other owners are treated as absent.
	GetByID(ctx context.Context, ownerID string, id int64) (*models.Folder, error)

	// OwnedBy lists ownerID's folders with their computed file counts.
	OwnedBy(ctx context.Context, ownerID string) ([]*models.Folder, error)

	// Delete removes ownerID's folder. The caller is responsible for
	// reassigning member files first (see files.Repository.ClearFolder).
	Delete(ctx context.Context, ownerID string, id int64) error
}
