package shares

import (
	"context"
	"fmt"

	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/dbx"
	"github.com/avolkovs/filekeeper/internal/server/models"
	"github.com/avolkovs/filekeeper/internal/server/repositories/pgerr"
)

// PostgresRepository implements share-grant storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, grant *models.ShareGrant) error {
	query := `
		INSERT INTO file_shares (file_id, shared_by_user_id, shared_with_user_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		grant.FileID, grant.OwnerID, grant.RecipientID,
	).Scan(&grant.CreatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return common.ErrorAlreadyShared
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, fileID int64, recipientID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM file_shares WHERE file_id = $1 AND shared_with_user_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, fileID, recipientID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) SharedWith(ctx context.Context, userID string) ([]*models.SharedFile, error) {
	query := `
		SELECT f.id, f.user_id, f.folder_id, f.filename, f.original_filename,
			f.file_size, f.mime_type, f.file_extension, f.storage_key,
			f.storage_bucket, f.is_favorite,
			s.shared_by_user_id, u.display_name, s.created_at
		FROM file_shares s
		JOIN files f ON f.id = s.file_id
		JOIN users u ON u.id = s.shared_by_user_id
		WHERE s.shared_with_user_id = $1
		ORDER BY s.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shared files: %w", err)
	}
	defer rows.Close()

	var result []*models.SharedFile
	for rows.Next() {
		sf := &models.SharedFile{}
		if err := rows.Scan(
			&sf.ID, &sf.OwnerID, &sf.FolderID, &sf.StoredName, &sf.OriginalName,
			&sf.ByteSize, &sf.MimeType, &sf.FileExtension, &sf.StorageKey,
			&sf.StorageBucket, &sf.IsFavorite,
			&sf.SharedByID, &sf.SharedByName, &sf.SharedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, fileID int64, recipientID string) error {
	query := `DELETE FROM file_shares WHERE file_id = $1 AND shared_with_user_id = $2`

	res, err := r.db.ExecContext(ctx, query, fileID, recipientID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
