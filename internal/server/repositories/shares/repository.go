// Package shares stores file share grants between accounts.
package shares

import (
	"context"

	"github.com/avolkovs/filekeeper/internal/server/models"
)

type Repository interface {
	// Create inserts the grant. Duplicate (fileID, recipientID) pairs are
	// rejected by the table's unique constraint and surface as
	// common.ErrorAlreadyShared; there is no prior existence check, so
	// concurrent share calls cannot race a duplicate in.
	Create(ctx context.Context, grant *models.ShareGrant) error

	// Exists reports whether a grant for (fileID, recipientID) is present.
	Exists(ctx context.Context, fileID int64, recipientID string) (bool, error)

	// SharedWith lists files granted to userID, enriched with the grantor's
	// identity. Records keep the owner's bucket and key so link generation
	// works downstream.
	SharedWith(ctx context.Context, userID string) ([]*models.SharedFile, error)

	// Revoke removes the grant for (fileID, recipientID). A missing grant is
	// common.ErrorNotFound.
	Revoke(ctx context.Context, fileID int64, recipientID string) error
}
