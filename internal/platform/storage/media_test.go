package storage

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

func newTestMediaStore(t *testing.T, opts ...MediaStoreOption) *MediaStore {
	t.Helper()
	client, err := storage.NewClient(context.Background(), option.WithHTTPClient(&http.Client{}))
	if err != nil {
		t.Fatalf("storage client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	payload, _ := serviceAccountJSON(t, "signer@example.iam.gserviceaccount.com")
	signer, err := NewServiceAccountSignerFromJSON(payload)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	store, err := NewMediaStore(client, signer, "media-test", opts...)
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	return store
}

func TestReadURLSignsWithInjectedClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestMediaStore(t,
		WithReadTTL(time.Hour),
		WithClock(func() time.Time { return now }),
	)

	url, expires, err := store.ReadURL("uploads/01HZXD5M4T.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected expiry %v, got %v", now.Add(time.Hour), expires)
	}
	if !strings.Contains(url, "media-test/uploads/01HZXD5M4T.png") {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestReadURLRequiresObject(t *testing.T) {
	store := newTestMediaStore(t)
	if _, _, err := store.ReadURL("  "); err == nil {
		t.Fatal("expected error for empty object")
	}
}

func TestNewMediaStoreRequiresBucket(t *testing.T) {
	client, err := storage.NewClient(context.Background(), option.WithHTTPClient(&http.Client{}))
	if err != nil {
		t.Fatalf("storage client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	payload, _ := serviceAccountJSON(t, "signer@example.iam.gserviceaccount.com")
	signer, err := NewServiceAccountSignerFromJSON(payload)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	if _, err := NewMediaStore(client, signer, "  "); err == nil {
		t.Fatal("expected error for blank bucket")
	}
}
