package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

var (
	errBucketRequired = errors.New("storage: bucket name is required")
	errObjectRequired = errors.New("storage: object name is required")
	errClientRequired = errors.New("storage: client is required")
)

// MediaStore writes uploaded blobs into one bucket and issues long-lived
// signed read URLs for them. Catalog documents store only the URL; the
// object itself is opaque to the catalog logic.
type MediaStore struct {
	client  *storage.Client
	signer  Signer
	bucket  string
	readTTL time.Duration
	now     func() time.Time
}

// MediaStoreOption customises MediaStore behaviour.
type MediaStoreOption func(*MediaStore)

// WithReadTTL overrides the signed read URL lifetime.
func WithReadTTL(ttl time.Duration) MediaStoreOption {
	return func(m *MediaStore) {
		if ttl > 0 {
			m.readTTL = ttl
		}
	}
}

// WithClock injects a custom clock, used by tests.
func WithClock(clock func() time.Time) MediaStoreOption {
	return func(m *MediaStore) {
		if clock != nil {
			m.now = clock
		}
	}
}

// NewMediaStore constructs a MediaStore bound to a bucket.
func NewMediaStore(client *storage.Client, signer Signer, bucket string, opts ...MediaStoreOption) (*MediaStore, error) {
	if client == nil {
		return nil, errClientRequired
	}
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errors.New("storage: signer is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errBucketRequired
	}

	m := &MediaStore{
		client:  client,
		signer:  signer,
		bucket:  bucket,
		readTTL: 7 * 24 * time.Hour,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Save streams the blob into the bucket under the given object name.
func (m *MediaStore) Save(ctx context.Context, object, contentType string, body io.Reader) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return errObjectRequired
	}

	w := m.client.Bucket(m.bucket).Object(object).NewWriter(ctx)
	w.ContentType = strings.TrimSpace(contentType)
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: write object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: finalize object %s: %w", object, err)
	}
	return nil
}

// ReadURL issues a long-lived signed GET URL for the object.
func (m *MediaStore) ReadURL(object string) (string, time.Time, error) {
	object = strings.TrimSpace(object)
	if object == "" {
		return "", time.Time{}, errObjectRequired
	}

	expires := m.now().UTC().Add(m.readTTL)
	url, err := storage.SignedURL(m.bucket, object, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         http.MethodGet,
		GoogleAccessID: m.signer.Email(),
		SignBytes:      m.signer.SignBytes,
		Expires:        expires,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("storage: sign read url for %s: %w", object, err)
	}
	return url, expires, nil
}

// Delete removes the object; deleting a missing object is not an error.
func (m *MediaStore) Delete(ctx context.Context, object string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return errObjectRequired
	}
	err := m.client.Bucket(m.bucket).Object(object).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage: delete object %s: %w", object, err)
	}
	return nil
}
