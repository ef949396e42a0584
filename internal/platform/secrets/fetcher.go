package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const refScheme = "secret://"

// accessClient abstracts the Secret Manager call for testing.
type accessClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves secret:// references against Google Secret Manager,
// caching each resolved version for the process lifetime. Secrets here are
// static deploy-time values (API keys, the admin token), so no TTL.
type Fetcher struct {
	client        accessClient
	ownsClient    bool
	logger        *zap.Logger
	defaultProjID string

	mu    sync.RWMutex
	cache map[string]string
}

// Option customises the Fetcher.
type Option func(*Fetcher)

// WithLogger attaches a logger for resolution diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithDefaultProject sets the project used by short secret references.
func WithDefaultProject(projectID string) Option {
	return func(f *Fetcher) {
		f.defaultProjID = strings.TrimSpace(projectID)
	}
}

// WithClient injects a pre-built client, used by tests.
func WithClient(client accessClient) Option {
	return func(f *Fetcher) {
		f.client = client
		f.ownsClient = false
	}
}

// New constructs a Fetcher, creating a Secret Manager client unless one was
// injected.
func New(ctx context.Context, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		logger: zap.NewNop(),
		cache:  make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	if f.client == nil {
		client, err := secretmanager.NewClient(ctx, []option.ClientOption{}...)
		if err != nil {
			return nil, fmt.Errorf("secrets: create client: %w", err)
		}
		f.client = client
		f.ownsClient = true
	}
	return f, nil
}

// Resolve fetches the secret value for a secret:// reference. The reference
// is either a full resource path or a bare name resolved in the default
// project at the latest version:
//
//	secret://projects/p/secrets/name/versions/3
//	secret://name
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	name, err := f.canonicalName(ref)
	if err != nil {
		return "", err
	}

	f.mu.RLock()
	cached, ok := f.cache[name]
	f.mu.RUnlock()
	if ok {
		return cached, nil
	}

	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", fmt.Errorf("secrets: %s not found", name)
		}
		return "", fmt.Errorf("secrets: access %s: %w", name, err)
	}
	value := string(resp.GetPayload().GetData())

	f.mu.Lock()
	f.cache[name] = value
	f.mu.Unlock()

	f.logger.Debug("secret resolved", zap.String("name", name))
	return value, nil
}

// Close releases the underlying client when this Fetcher created it.
func (f *Fetcher) Close() error {
	if f == nil || f.client == nil || !f.ownsClient {
		return nil
	}
	return f.client.Close()
}

func (f *Fetcher) canonicalName(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if !strings.HasPrefix(trimmed, refScheme) {
		return "", fmt.Errorf("secrets: reference %q must start with %s", ref, refScheme)
	}
	rest := strings.Trim(strings.TrimPrefix(trimmed, refScheme), "/")
	if rest == "" {
		return "", errors.New("secrets: reference names no secret")
	}

	if strings.HasPrefix(rest, "projects/") {
		if !strings.Contains(rest, "/versions/") {
			rest += "/versions/latest"
		}
		return rest, nil
	}

	if f.defaultProjID == "" {
		return "", fmt.Errorf("secrets: reference %q needs a default project", ref)
	}
	name, version, hasVersion := strings.Cut(rest, "@")
	if !hasVersion || strings.TrimSpace(version) == "" {
		version = "latest"
	}
	if strings.ContainsRune(name, '/') {
		return "", fmt.Errorf("secrets: malformed reference %q", ref)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", f.defaultProjID, name, version), nil
}
