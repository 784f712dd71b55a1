package notifications

import (
	"context"
	"fmt"

	"github.com/avolkovs/filekeeper/internal/dbx"
	"github.com/avolkovs/filekeeper/internal/server/models"
)

// PostgresRepository implements notification storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, n *models.Notification) (int64, error) {
	query := `
		INSERT INTO notifications (user_id, type, title, message, action_url, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		n.UserID, string(n.Kind), n.Title, n.Body, n.ActionRef, n.ExpiresAt,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n.ID, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, userID string) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, action_url, is_read, created_at, expires_at
		FROM notifications
		WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > now())
		ORDER BY is_read ASC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select notifications: %w", err)
	}
	defer rows.Close()

	var result []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var kind string
		if err := rows.Scan(
			&n.ID, &n.UserID, &kind, &n.Title, &n.Body,
			&n.ActionRef, &n.Read, &n.CreatedAt, &n.ExpiresAt,
		); err != nil {
			return nil, err
		}
		n.Kind = models.NotificationKind(kind)
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ActiveWithTitle(ctx context.Context, userID, title string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND title = $2 AND (expires_at IS NULL OR expires_at > now())
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id int64, userID string) error {
	// Scoped by owner; zero affected rows mean "nothing to do", not an
	// authorization error.
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64, userID string) error {
	query := `DELETE FROM notifications WHERE id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAllRead(ctx context.Context, userID string) error {
	query := `DELETE FROM notifications WHERE user_id = $1 AND is_read`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
