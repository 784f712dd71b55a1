package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory ObjectStore used by tests and local
// development. Like S3, Get and Delete of a missing key fail, while
// PresignGet does not check existence.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[string][]byte)}
}

func (m *MemoryStore) EnsureBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string][]byte)
	}
	return nil
}

func (m *MemoryStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, progress ProgressFunc) error {
	body := io.Reader(r)
	if progress != nil {
		body = &progressReader{r: r, total: size, fn: progress}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		return fmt.Errorf("put object %s/%s: no such bucket", bucket, key)
	}
	b[key] = data

	if progress != nil {
		progress(1.0)
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("get object %s/%s: no such key", bucket, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket][key]; !ok {
		return fmt.Errorf("delete object %s/%s: no such key", bucket, key)
	}
	delete(m.buckets[bucket], key)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("list bucket %s: no such bucket", bucket)
	}

	result := make([]ObjectInfo, 0, len(b))
	for key, data := range b {
		result = append(result, ObjectInfo{Key: key, Size: int64(len(data))})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (m *MemoryStore) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration, contentDisposition string) (string, error) {
	q := url.Values{}
	q.Set("X-Expires", fmt.Sprintf("%d", int(expiry.Seconds())))
	if contentDisposition != "" {
		q.Set("response-content-disposition", contentDisposition)
	}
	return fmt.Sprintf("https://memory.invalid/%s/%s?%s", bucket, url.PathEscape(key), q.Encode()), nil
}
