package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/dbx"
	"github.com/avolkovs/filekeeper/internal/server/models"
	"github.com/avolkovs/filekeeper/internal/server/repositories/pgerr"
)

const accountColumns = `id, username, email, display_name, password_hash, bucket_identifier, is_placeholder, created_at`

// PostgresRepository implements account storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO users (username, email, display_name, password_hash, bucket_identifier, is_placeholder)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.Username, account.Email, account.DisplayName,
		account.PasswordHash, account.BucketIdentifier, account.IsPlaceholder,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getByField(ctx, "id", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getByField(ctx, "email", email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.getByField(ctx, "username", username)
}

// getByField looks up one account by an exact match on a fixed column name.
// The column is never caller-supplied.
func (r *PostgresRepository) getByField(ctx context.Context, field, value string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, accountColumns, field)

	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&a.ID, &a.Username, &a.Email, &a.DisplayName,
		&a.PasswordHash, &a.BucketIdentifier, &a.IsPlaceholder, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) BucketIdentifierTaken(ctx context.Context, ident string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE bucket_identifier = $1)`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, ident).Scan(&taken); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}
