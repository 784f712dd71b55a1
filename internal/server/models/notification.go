package models

import "time"

// NotificationKind enumerates the severity of a notification.
type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationSuccess NotificationKind = "success"
	NotificationWarning NotificationKind = "warning"
	NotificationDanger  NotificationKind = "danger"
)

// Notification is an in-app message shown to one user. A notification is
// active while ExpiresAt is nil or in the future.
type Notification struct {
	ID     int64
	UserID string
	Kind   NotificationKind
	Title  string
	Body   string
	// ActionRef optionally points the UI at the subject of the notification.
	ActionRef *string
	Read      bool
	CreatedAt time.Time
	ExpiresAt *time.Time
}
