package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/dbx"
	"github.com/avolkovs/filekeeper/internal/server/models"
)

const fileColumns = `id, user_id, folder_id, filename, original_filename, file_size, mime_type, file_extension, storage_key, storage_bucket, is_favorite`

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, f *models.FileRecord) (*models.FileRecord, error) {
	query := `
		INSERT INTO files (user_id, folder_id, filename, original_filename, file_size, mime_type, file_extension, storage_key, storage_bucket, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (storage_bucket, storage_key)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			folder_id = EXCLUDED.folder_id,
			filename = EXCLUDED.filename,
			original_filename = EXCLUDED.original_filename,
			file_size = EXCLUDED.file_size,
			mime_type = EXCLUDED.mime_type,
			file_extension = EXCLUDED.file_extension
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		f.OwnerID, f.FolderID, f.StoredName, f.OriginalName, f.ByteSize,
		f.MimeType, f.FileExtension, f.StorageKey, f.StorageBucket, f.IsFavorite,
	).Scan(&f.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1`, fileColumns)
	return r.queryOne(ctx, query, id)
}

func (r *PostgresRepository) FindOwnedByName(ctx context.Context, ownerID, name string) (*models.FileRecord, error) {
	byStored := fmt.Sprintf(`SELECT %s FROM files WHERE user_id = $1 AND filename = $2`, fileColumns)
	f, err := r.queryOne(ctx, byStored, ownerID, name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	byOriginal := fmt.Sprintf(`SELECT %s FROM files WHERE user_id = $1 AND original_filename = $2`, fileColumns)
	return r.queryOne(ctx, byOriginal, ownerID, name)
}

func (r *PostgresRepository) ByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE user_id = $1 ORDER BY id`, fileColumns)
	return r.queryMany(ctx, query, ownerID)
}

func (r *PostgresRepository) ByFolder(ctx context.Context, ownerID string, folderID *int64) ([]*models.FileRecord, error) {
	if folderID == nil {
		query := fmt.Sprintf(`SELECT %s FROM files WHERE user_id = $1 AND folder_id IS NULL ORDER BY id`, fileColumns)
		return r.queryMany(ctx, query, ownerID)
	}
	query := fmt.Sprintf(`SELECT %s FROM files WHERE user_id = $1 AND folder_id = $2 ORDER BY id`, fileColumns)
	return r.queryMany(ctx, query, ownerID, *folderID)
}

func (r *PostgresRepository) FavoritesOf(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE user_id = $1 AND is_favorite ORDER BY id`, fileColumns)
	return r.queryMany(ctx, query, ownerID)
}

func (r *PostgresRepository) AssignFolder(ctx context.Context, ownerID, bucket, key string, folderID *int64) error {
	query := `
		INSERT INTO files (user_id, folder_id, filename, original_filename, file_extension, storage_key, storage_bucket)
		VALUES ($1, $2, $3, $3, $4, $3, $5)
		ON CONFLICT (storage_bucket, storage_key)
		DO UPDATE SET folder_id = EXCLUDED.folder_id
		WHERE files.user_id = EXCLUDED.user_id
	`
	res, err := r.db.ExecContext(ctx, query, ownerID, folderID, key, models.ExtensionOf(key), bucket)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowOrNotFound(res)
}

func (r *PostgresRepository) SetFavorite(ctx context.Context, ownerID, bucket, key string, favorite bool, size int64) error {
	query := `
		INSERT INTO files (user_id, filename, original_filename, file_size, file_extension, storage_key, storage_bucket, is_favorite)
		VALUES ($1, $2, $2, $3, $4, $2, $5, $6)
		ON CONFLICT (storage_bucket, storage_key)
		DO UPDATE SET is_favorite = EXCLUDED.is_favorite
		WHERE files.user_id = EXCLUDED.user_id
	`
	res, err := r.db.ExecContext(ctx, query, ownerID, key, size, models.ExtensionOf(key), bucket, favorite)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowOrNotFound(res)
}

// oneRowOrNotFound maps a guarded upsert that touched no row to
// common.ErrorNotFound. The conflict clauses above only update rows whose
// user_id matches the caller, so a zero count means the (bucket, key) row
// belongs to someone else; reporting it as missing keeps foreign rows
// invisible.
func oneRowOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ClearFolder(ctx context.Context, folderID int64) error {
	query := `UPDATE files SET folder_id = NULL WHERE folder_id = $1`
	if _, err := r.db.ExecContext(ctx, query, folderID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SumSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	query := `SELECT COALESCE(SUM(file_size), 0) FROM files WHERE user_id = $1`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM files WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
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

func (r *PostgresRepository) DeleteByStorageKey(ctx context.Context, bucket, key string) error {
	query := `DELETE FROM files WHERE storage_bucket = $1 AND storage_key = $2`
	if _, err := r.db.ExecContext(ctx, query, bucket, key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.FileRecord, error) {
	f := &models.FileRecord{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&f.ID, &f.OwnerID, &f.FolderID, &f.StoredName, &f.OriginalName,
		&f.ByteSize, &f.MimeType, &f.FileExtension, &f.StorageKey,
		&f.StorageBucket, &f.IsFavorite,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]*models.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		f := &models.FileRecord{}
		if err := rows.Scan(
			&f.ID, &f.OwnerID, &f.FolderID, &f.StoredName, &f.OriginalName,
			&f.ByteSize, &f.MimeType, &f.FileExtension, &f.StorageKey,
			&f.StorageBucket, &f.IsFavorite,
		); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
