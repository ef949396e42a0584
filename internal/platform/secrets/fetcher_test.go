package secrets

import (
	"context"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubAccessClient struct {
	values map[string]string
	calls  map[string]int
}

func (s *stubAccessClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[req.GetName()]++
	value, ok := s.values[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "missing")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

func (s *stubAccessClient) Close() error { return nil }

func newTestFetcher(t *testing.T, client accessClient, project string) *Fetcher {
	t.Helper()
	f, err := New(context.Background(), WithClient(client), WithDefaultProject(project))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f
}

func TestResolveShortReference(t *testing.T) {
	client := &stubAccessClient{values: map[string]string{
		"projects/demo/secrets/admin-token/versions/latest": "tok",
	}}
	f := newTestFetcher(t, client, "demo")

	got, err := f.Resolve(context.Background(), "secret://admin-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "tok" {
		t.Fatalf("expected tok, got %q", got)
	}
}

func TestResolvePinnedVersion(t *testing.T) {
	client := &stubAccessClient{values: map[string]string{
		"projects/demo/secrets/sendgrid/versions/3": "sg",
	}}
	f := newTestFetcher(t, client, "demo")

	got, err := f.Resolve(context.Background(), "secret://sendgrid@3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sg" {
		t.Fatalf("expected sg, got %q", got)
	}
}

func TestResolveFullResourcePath(t *testing.T) {
	client := &stubAccessClient{values: map[string]string{
		"projects/other/secrets/key/versions/latest": "v",
	}}
	f := newTestFetcher(t, client, "")

	got, err := f.Resolve(context.Background(), "secret://projects/other/secrets/key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "v" {
		t.Fatalf("expected v, got %q", got)
	}
}

func TestResolveCaches(t *testing.T) {
	client := &stubAccessClient{values: map[string]string{
		"projects/demo/secrets/admin-token/versions/latest": "tok",
	}}
	f := newTestFetcher(t, client, "demo")

	for i := 0; i < 3; i++ {
		if _, err := f.Resolve(context.Background(), "secret://admin-token"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if client.calls["projects/demo/secrets/admin-token/versions/latest"] != 1 {
		t.Fatalf("expected a single backend call, got %d", client.calls["projects/demo/secrets/admin-token/versions/latest"])
	}
}

func TestResolveRejectsMalformedReferences(t *testing.T) {
	f := newTestFetcher(t, &stubAccessClient{}, "demo")
	for _, ref := range []string{"admin-token", "secret://", "secret://a/b"} {
		if _, err := f.Resolve(context.Background(), ref); err == nil {
			t.Fatalf("expected error for %q", ref)
		}
	}
}

func TestResolveMissingSecret(t *testing.T) {
	f := newTestFetcher(t, &stubAccessClient{}, "demo")
	if _, err := f.Resolve(context.Background(), "secret://absent"); err == nil {
		t.Fatal("expected error for missing secret")
	}
}
