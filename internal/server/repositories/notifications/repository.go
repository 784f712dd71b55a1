// Package notifications stores in-app notifications.
package notifications

import (
	"context"

	"github.com/avolkovs/filekeeper/internal/server/models"
)

type Repository interface {
	// Create inserts the notification and returns its generated id.
	Create(ctx context.Context, n *models.Notification) (int64, error)

	// ListActive returns non-expired notifications of userID, unread first,
	// newest first within each group.
	ListActive(ctx context.Context, userID string) ([]*models.Notification, error)

	// ActiveWithTitle reports whether userID has an active notification with
	// the given title. Used to avoid stacking duplicate threshold warnings.
	ActiveWithTitle(ctx context.Context, userID, title string) (bool, error)

	// MarkRead sets the read flag on id when owned by userID. An id owned by
	// someone else has no effect and returns nil.
	MarkRead(ctx context.Context, id int64, userID string) error

	// MarkAllRead sets the read flag on all of userID's notifications.
	MarkAllRead(ctx context.Context, userID string) error

	// Delete removes id when owned by userID; otherwise no effect, nil.
	Delete(ctx context.Context, id int64, userID string) error

	// DeleteAllRead removes all read notifications of userID.
	DeleteAllRead(ctx context.Context, userID string) error
}
