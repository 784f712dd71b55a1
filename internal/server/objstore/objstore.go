// Package objstore defines the object-storage capability used by the server
// and its S3-compatible implementation. The adapter is deliberately thin: it
// moves bytes and signs URLs, nothing else.
package objstore

import (
	"context"
	"io"
	"time"
)

// ProgressFunc receives upload progress as a monotonically non-decreasing
// fraction in [0,1]. It is called at least once with 1.0 when the transfer
// completes.
type ProgressFunc func(fraction float64)

// ObjectInfo is the flattened listing shape returned by List.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStore is the capability interface over an S3-compatible store.
type ObjectStore interface {
	// EnsureBucket creates bucket if it does not exist. Idempotent.
	EnsureBucket(ctx context.Context, bucket string) error

	// Put streams size bytes from r into (bucket, key), reporting transfer
	// progress through progress when non-nil. An existing object under the
	// same key is overwritten.
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, progress ProgressFunc) error

	// Get opens the object at (bucket, key) for reading.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Delete removes the object at (bucket, key).
	Delete(ctx context.Context, bucket, key string) error

	// List returns all objects in bucket.
	List(ctx context.Context, bucket string) ([]ObjectInfo, error)

	// PresignGet returns a time-bounded signed GET URL for (bucket, key).
	// A non-empty contentDisposition is applied as a response-header
	// override so browsers save rather than render the object.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration, contentDisposition string) (string, error)
}

// progressReader wraps r and reports cumulative progress against a declared
// total. Fractions are capped at 1.0 so a lying total never produces values
// outside the contract.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.fn != nil && p.total > 0 {
			frac := float64(p.read) / float64(p.total)
			if frac > 1 {
				frac = 1
			}
			p.fn(frac)
		}
	}
	return n, err
}
