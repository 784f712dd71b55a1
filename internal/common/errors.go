// Package common defines shared constants and sentinel errors used across
// the FileKeeper server layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Sharing errors.
	ErrorAlreadyShared = errors.New("already shared")
	ErrorSelfShare     = errors.New("cannot share a file with its owner")
	ErrorGuestCreation = errors.New("guest account creation failed")

	// Access and validation errors.
	ErrorAccessDenied = errors.New("access denied")
	ErrorValidation   = errors.New("validation error")

	// Service-level errors (generic/internal flow control).
	ErrorInternal       = errors.New("internal error")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrorStorageFailure = errors.New("object storage failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// PartialFailureError reports a write or delete that left the object store
// and the metadata index disagreeing about (Bucket, Key), the one state that
// needs out-of-band reconciliation.
//
// On the write path MetaErr is the failed metadata insert and CleanupErr the
// error from the compensating object delete, nil when the compensation
// removed the object. On the delete path the object is already gone and
// MetaErr is the failed row delete; RecordDangles marks that case.
type PartialFailureError struct {
	Bucket     string
	Key        string
	MetaErr    error
	CleanupErr error

	// RecordDangles is true when a metadata row survived the deletion of
	// its object.
	RecordDangles bool
}

// DanglingRecordError builds the delete-path variant: the object at
// (bucket, key) was removed but its metadata row could not be.
func DanglingRecordError(bucket, key string, rowErr error) *PartialFailureError {
	return &PartialFailureError{Bucket: bucket, Key: key, MetaErr: rowErr, RecordDangles: true}
}

func (e *PartialFailureError) Error() string {
	if e.RecordDangles {
		return fmt.Sprintf("partial failure: dangling record for deleted object %s/%s: %v",
			e.Bucket, e.Key, e.MetaErr)
	}
	if e.CleanupErr != nil {
		return fmt.Sprintf("partial failure: orphaned object %s/%s: metadata: %v, cleanup: %v",
			e.Bucket, e.Key, e.MetaErr, e.CleanupErr)
	}
	return fmt.Sprintf("partial failure: object %s/%s rolled back: metadata: %v",
		e.Bucket, e.Key, e.MetaErr)
}

func (e *PartialFailureError) Unwrap() error { return e.MetaErr }

// Orphaned reports whether an object is still present in storage without a
// metadata row.
func (e *PartialFailureError) Orphaned() bool { return e.CleanupErr != nil }
