// Package accounts stores user and placeholder accounts.
package accounts

import (
	"context"

	"github.com/avolkovs/filekeeper/internal/server/models"
)

type Repository interface {
	// Create inserts the account and fills in the generated id and creation
	// time. Returns common.ErrorAlreadyExists when the username, email, or
	// bucket identifier is taken.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetByID returns the account or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// GetByEmail returns the account or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetByUsername returns the account or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	// BucketIdentifierTaken reports whether any account already owns ident.
	BucketIdentifierTaken(ctx context.Context, ident string) (bool, error)
}
