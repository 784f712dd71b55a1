package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkovs/filekeeper/internal/common"
	"github.com/avolkovs/filekeeper/internal/dbx"
	"github.com/avolkovs/filekeeper/internal/server/models"
)

// PostgresRepository implements folder storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	query := `
		INSERT INTO folders (user_id, name)
		VALUES ($1, $2)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, folder.OwnerID, folder.Name).Scan(&folder.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return folder, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, ownerID string, id int64) (*models.Folder, error) {
	query := `
		SELECT f.id, f.user_id, f.name, COUNT(fi.id)
		FROM folders f
		LEFT JOIN files fi ON fi.folder_id = f.id
		WHERE f.id = $1 AND f.user_id = $2
		GROUP BY f.id, f.user_id, f.name
	`

	folder := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&folder.ID, &folder.OwnerID, &folder.Name, &folder.FileCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return folder, nil
}

func (r *PostgresRepository) OwnedBy(ctx context.Context, ownerID string) ([]*models.Folder, error) {
	query := `
		SELECT f.id, f.user_id, f.name, COUNT(fi.id)
		FROM folders f
		LEFT JOIN files fi ON fi.folder_id = f.id
		WHERE f.user_id = $1
		GROUP BY f.id, f.user_id, f.name
		ORDER BY f.name
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []*models.Folder
	for rows.Next() {
		folder := &models.Folder{}
		if err := rows.Scan(&folder.ID, &folder.OwnerID, &folder.Name, &folder.FileCount); err != nil {
			return nil, err
		}
		result = append(result, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	query := `DELETE FROM folders WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
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
