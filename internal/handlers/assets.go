package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stayline-supplies/api/internal/platform/httpx"
	"github.com/stayline-supplies/api/internal/services"
)

const defaultMaxUploadBytes = 10 << 20

// AssetHandlers accepts admin image uploads and hands back the signed read
// URL the catalog documents embed.
type AssetHandlers struct {
	assets   services.AssetService
	maxBytes int64
}

// AssetHandlersOption customises AssetHandlers.
type AssetHandlersOption func(*AssetHandlers)

// WithMaxUploadBytes caps the accepted request size.
func WithMaxUploadBytes(maxBytes int64) AssetHandlersOption {
	return func(h *AssetHandlers) {
		if maxBytes > 0 {
			h.maxBytes = maxBytes
		}
	}
}

// NewAssetHandlers constructs the asset handlers.
func NewAssetHandlers(assets services.AssetService, opts ...AssetHandlersOption) (*AssetHandlers, error) {
	if assets == nil {
		return nil, errors.New("asset handlers: asset service is required")
	}
	h := &AssetHandlers{assets: assets, maxBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Routes registers asset endpoints against the provided router.
func (h *AssetHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/assets", h.upload)
	r.Delete("/assets/*", h.delete)
}

// upload accepts one multipart file under the "file" field.
func (h *AssetHandlers) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "malformed multipart body", http.StatusBadRequest))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "a file field is required", http.StatusBadRequest))
		return
	}
	defer file.Close()

	result, err := h.assets.Upload(r.Context(), services.UploadCommand{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// delete removes an uploaded object by its full key, e.g.
// DELETE /assets/uploads/01HZ....png.
func (h *AssetHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.assets.Delete(r.Context(), chi.URLParam(r, "*")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
