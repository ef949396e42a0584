package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stayline-supplies/api/internal/platform/httpx"
	"github.com/stayline-supplies/api/internal/repositories"
	"github.com/stayline-supplies/api/internal/services"
)

const (
	catalogCacheControl = "public, max-age=300"
	maxRequestBody      = 1 << 20
)

// StorefrontHandlers exposes the unauthenticated catalog reads.
type StorefrontHandlers struct {
	catalog services.CatalogService
}

// NewStorefrontHandlers constructs the storefront handlers.
func NewStorefrontHandlers(catalog services.CatalogService) (*StorefrontHandlers, error) {
	if catalog == nil {
		return nil, errors.New("storefront handlers: catalog service is required")
	}
	return &StorefrontHandlers{catalog: catalog}, nil
}

// Routes registers storefront catalog endpoints against the provided router.
func (h *StorefrontHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{categoryID}", h.getCategory)
	r.Get("/categories/{categoryID}/subcategories", h.listSubCategories)
	r.Get("/categories/{categoryID}/subcategories/{subCategoryID}/products", h.listProducts)
	r.Get("/categories/{categoryID}/subcategories/{subCategoryID}/products/{productID}", h.getProduct)
	r.Get("/products", h.listFlatProducts)
}

func (h *StorefrontHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", catalogCacheControl)
	writeJSON(w, http.StatusOK, map[string]any{"categories": emptyIfNil(categories)})
}

func (h *StorefrontHandlers) getCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategory(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", catalogCacheControl)
	writeJSON(w, http.StatusOK, category)
}

func (h *StorefrontHandlers) listSubCategories(w http.ResponseWriter, r *http.Request) {
	subs, err := h.catalog.ListSubCategories(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", catalogCacheControl)
	writeJSON(w, http.StatusOK, map[string]any{"subcategories": emptyIfNil(subs)})
}

func (h *StorefrontHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), chi.URLParam(r, "categoryID"), chi.URLParam(r, "subCategoryID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", catalogCacheControl)
	writeJSON(w, http.StatusOK, map[string]any{"products": emptyIfNil(products)})
}

func (h *StorefrontHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "categoryID"), chi.URLParam(r, "subCategoryID"), chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", catalogCacheControl)
	writeJSON(w, http.StatusOK, product)
}

// listFlatProducts serves the denormalised storefront projection: one row per
// product group with its ancestry inlined.
func (h *StorefrontHandlers) listFlatProducts(w http.ResponseWriter, r *http.Request) {
	flat, err := h.catalog.FlatProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", catalogCacheControl)
	writeJSON(w, http.StatusOK, map[string]any{"products": emptyIfNil(flat)})
}

func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	if err := json.NewDecoder(body).Decode(into); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return false
	}
	return true
}

// writeServiceError maps service and repository failures onto the error
// envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput),
		errors.Is(err, services.ErrEnquiryInvalidInput),
		errors.Is(err, services.ErrAssetInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
			return
		case repoErr.IsConflict():
			httpx.WriteError(ctx, w, httpx.NewError("conflict", err.Error(), http.StatusConflict))
			return
		case repoErr.IsUnavailable():
			httpx.WriteError(ctx, w, httpx.NewError("unavailable", "catalog store is unavailable", http.StatusServiceUnavailable))
			return
		}
	}

	httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
}
