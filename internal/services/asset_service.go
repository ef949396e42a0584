package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrAssetInvalidInput indicates an upload failed validation.
var ErrAssetInvalidInput = errors.New("asset service: invalid input")

// MediaStorage is the slice of the blob store the asset service needs.
type MediaStorage interface {
	Save(ctx context.Context, object, contentType string, body io.Reader) error
	ReadURL(object string) (string, time.Time, error)
	Delete(ctx context.Context, object string) error
}

// uploadObjectPrefix namespaces every object this service writes, and bounds
// what it is willing to delete.
const uploadObjectPrefix = "uploads/"

// AssetServiceDeps bundles constructor inputs for the asset service.
type AssetServiceDeps struct {
	Media           MediaStorage
	AllowedPrefixes []string
	MaxBytes        int64
	Clock           func() time.Time
	Entropy         io.Reader
}

type assetService struct {
	media           MediaStorage
	allowedPrefixes []string
	maxBytes        int64
	clock           func() time.Time
	entropy         io.Reader
}

// NewAssetService constructs the asset service with the supplied
// dependencies.
func NewAssetService(deps AssetServiceDeps) (AssetService, error) {
	if deps.Media == nil {
		return nil, errors.New("asset service: media storage is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	entropy := deps.Entropy
	if entropy == nil {
		entropy = ulid.DefaultEntropy()
	}
	prefixes := deps.AllowedPrefixes
	if len(prefixes) == 0 {
		prefixes = []string{"image/"}
	}
	return &assetService{
		media:           deps.Media,
		allowedPrefixes: prefixes,
		maxBytes:        deps.MaxBytes,
		clock:           func() time.Time { return clock().UTC() },
		entropy:         entropy,
	}, nil
}

// Upload stores the blob under a fresh ULID key and returns the signed read
// URL catalog documents embed. Object keys never derive from the submitted
// filename; only its extension survives.
func (s *assetService) Upload(ctx context.Context, cmd UploadCommand, body io.Reader) (UploadResult, error) {
	if body == nil {
		return UploadResult{}, fmt.Errorf("%w: empty body", ErrAssetInvalidInput)
	}

	contentType := strings.ToLower(strings.TrimSpace(cmd.ContentType))
	if !s.allowed(contentType) {
		return UploadResult{}, fmt.Errorf("%w: content type %q is not accepted", ErrAssetInvalidInput, cmd.ContentType)
	}
	if s.maxBytes > 0 && cmd.Size > s.maxBytes {
		return UploadResult{}, fmt.Errorf("%w: upload exceeds %d bytes", ErrAssetInvalidInput, s.maxBytes)
	}

	now := s.clock()
	object := fmt.Sprintf("%s%s%s", uploadObjectPrefix, ulid.MustNew(ulid.Timestamp(now), s.entropy), extensionOf(cmd.Filename))
	if err := s.media.Save(ctx, object, contentType, body); err != nil {
		return UploadResult{}, err
	}

	url, expires, err := s.media.ReadURL(object)
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{
		Object:    object,
		URL:       url,
		ExpiresAt: expires.UTC().Format(time.RFC3339),
	}, nil
}

// Delete removes a previously uploaded object. Only objects under the upload
// prefix can be removed through this surface.
func (s *assetService) Delete(ctx context.Context, object string) error {
	object = strings.TrimSpace(object)
	if !strings.HasPrefix(object, uploadObjectPrefix) || object == uploadObjectPrefix {
		return fmt.Errorf("%w: object %q is not an upload", ErrAssetInvalidInput, object)
	}
	return s.media.Delete(ctx, object)
}

func (s *assetService) allowed(contentType string) bool {
	if contentType == "" {
		return false
	}
	for _, prefix := range s.allowedPrefixes {
		if strings.HasPrefix(contentType, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func extensionOf(filename string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filename)))
	if len(ext) > 8 {
		return ""
	}
	return ext
}
