package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/avolkovs/filekeeper/internal/logging"
	"github.com/avolkovs/filekeeper/internal/server/models"
	"github.com/avolkovs/filekeeper/internal/server/repositories/repomanager"
	"github.com/avolkovs/filekeeper/internal/taskx"
)

// dispatchTimeout bounds background notification writes so a stuck database
// cannot pin pool workers forever.
const dispatchTimeout = 10 * time.Second

// NotificationService records and serves in-app notifications. It never
// decides when to notify; callers compute that and hand over the message.
type NotificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	pool        *taskx.Pool
	log         logging.Logger
}

// NewNotificationService constructs a NotificationService. pool may be nil,
// in which case Dispatch degrades to a synchronous Create.
func NewNotificationService(db *sql.DB, m repomanager.RepositoryManager, pool *taskx.Pool, log logging.Logger) *NotificationService {
	return &NotificationService{
		db:          db,
		repomanager: m,
		pool:        pool,
		log:         log,
	}
}

// Create inserts a notification and returns its id.
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) (int64, error) {
	repo := s.repomanager.Notifications(s.db)
	return repo.Create(ctx, n)
}

// Dispatch records n off the caller's goroutine, fire-and-continue: failures
// are logged, never propagated, so notification problems cannot fail the
// operation that triggered them.
func (s *NotificationService) Dispatch(n *models.Notification) {
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if _, err := s.Create(ctx, n); err != nil {
			s.log.Error(ctx, "notification dispatch failed",
				"user_id", n.UserID, "title", n.Title, "error", err)
		}
	}
	if s.pool == nil || !s.pool.Submit(task) {
		task()
	}
}

// ListActive returns non-expired notifications of userID, unread first,
// newest first.
func (s *NotificationService) ListActive(ctx context.Context, userID string) ([]*models.Notification, error) {
	repo := s.repomanager.Notifications(s.db)
	return repo.ListActive(ctx, userID)
}

// MarkRead sets the read flag on id when owned by userID; no effect otherwise.
func (s *NotificationService) MarkRead(ctx context.Context, id int64, userID string) error {
	repo := s.repomanager.Notifications(s.db)
	return repo.MarkRead(ctx, id, userID)
}

// MarkAllRead sets the read flag on all of userID's notifications.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	repo := s.repomanager.Notifications(s.db)
	return repo.MarkAllRead(ctx, userID)
}

// Delete removes id when owned by userID; no effect otherwise.
func (s *NotificationService) Delete(ctx context.Context, id int64, userID string) error {
	repo := s.repomanager.Notifications(s.db)
	return repo.Delete(ctx, id, userID)
}

// DeleteAllRead removes all read notifications of userID.
func (s *NotificationService) DeleteAllRead(ctx context.Context, userID string) error {
	repo := s.repomanager.Notifications(s.db)
	return repo.DeleteAllRead(ctx, userID)
}
