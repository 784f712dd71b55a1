// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account describes a registered user or a placeholder created to anchor a
// share grant to an email address before its owner signs up.
type Account struct {
	ID          string
	Username    string
	Email       string
	DisplayName string
	// PasswordHash is the bcrypt hash of the account password. Empty for
	// placeholder accounts, which have no usable credentials until claimed.
	PasswordHash string
	// BucketIdentifier is the object-storage bucket owned by this account,
	// derived deterministically from the display name.
	BucketIdentifier string
	IsPlaceholder    bool
	CreatedAt        time.Time
}
