package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stayline-supplies/api/internal/domain"
	"github.com/stayline-supplies/api/internal/services"
)

// AdminHandlers exposes the authenticated catalog mutations and the tree and
// enquiry views the console dashboard renders.
type AdminHandlers struct {
	catalog   services.CatalogService
	enquiries services.EnquiryService
}

// AdminOption customises construction of AdminHandlers.
type AdminOption func(*AdminHandlers)

// WithAdminEnquiryService injects the enquiry listing dependency.
func WithAdminEnquiryService(svc services.EnquiryService) AdminOption {
	return func(h *AdminHandlers) {
		h.enquiries = svc
	}
}

// NewAdminHandlers constructs the admin handlers.
func NewAdminHandlers(catalog services.CatalogService, opts ...AdminOption) (*AdminHandlers, error) {
	if catalog == nil {
		return nil, errors.New("admin handlers: catalog service is required")
	}
	h := &AdminHandlers{catalog: catalog}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Routes registers admin endpoints against the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/catalog/tree", h.tree)

	r.Post("/categories", h.createCategory)
	r.Put("/categories/{categoryID}", h.updateCategory)
	r.Delete("/categories/{categoryID}", h.deleteCategory)

	r.Post("/categories/{categoryID}/subcategories", h.createSubCategory)
	r.Put("/categories/{categoryID}/subcategories/{subCategoryID}", h.updateSubCategory)
	r.Delete("/categories/{categoryID}/subcategories/{subCategoryID}", h.deleteSubCategory)

	r.Post("/categories/{categoryID}/subcategories/{subCategoryID}/products", h.createProduct)
	r.Put("/categories/{categoryID}/subcategories/{subCategoryID}/products/{productID}", h.updateProduct)
	r.Delete("/categories/{categoryID}/subcategories/{subCategoryID}/products/{productID}", h.deleteProduct)

	r.Post("/catalog/bulk-delete", h.bulkDelete)

	r.Get("/enquiries", h.listEnquiries)
}

type categoryRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
}

type subCategoryRequest struct {
	Name     string           `json:"name"`
	Products []productRequest `json:"products"`
}

type productRequest struct {
	Name     string                  `json:"name"`
	Variants []domain.ProductVariant `json:"variants"`
}

type bulkDeleteRequest struct {
	Kind       string   `json:"kind"`
	CategoryID string   `json:"categoryId"`
	IDs        []string `json:"ids"`
}

func (h *AdminHandlers) tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.catalog.CategoryTree(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": emptyIfNil(tree)})
}

func (h *AdminHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := h.catalog.CreateCategory(r.Context(), services.CreateCategoryCommand{
		Title:    req.Title,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *AdminHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := h.catalog.UpdateCategory(r.Context(), services.UpdateCategoryCommand{
		ID:       chi.URLParam(r, "categoryID"),
		Title:    req.Title,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *AdminHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) createSubCategory(w http.ResponseWriter, r *http.Request) {
	var req subCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.catalog.CreateSubCategory(r.Context(), services.CreateSubCategoryCommand{
		CategoryID: chi.URLParam(r, "categoryID"),
		Name:       req.Name,
		Products:   productInputs(req.Products),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *AdminHandlers) updateSubCategory(w http.ResponseWriter, r *http.Request) {
	var req subCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.catalog.UpdateSubCategory(r.Context(), services.UpdateSubCategoryCommand{
		CategoryID: chi.URLParam(r, "categoryID"),
		ID:         chi.URLParam(r, "subCategoryID"),
		Name:       req.Name,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *AdminHandlers) deleteSubCategory(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.DeleteSubCategory(r.Context(), chi.URLParam(r, "categoryID"), chi.URLParam(r, "subCategoryID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), services.CreateProductCommand{
		CategoryID:    chi.URLParam(r, "categoryID"),
		SubCategoryID: chi.URLParam(r, "subCategoryID"),
		Product:       services.ProductInput{Name: req.Name, Variants: req.Variants},
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	product, err := h.catalog.UpdateProduct(r.Context(), services.UpdateProductCommand{
		CategoryID:    chi.URLParam(r, "categoryID"),
		SubCategoryID: chi.URLParam(r, "subCategoryID"),
		ID:            chi.URLParam(r, "productID"),
		Product:       services.ProductInput{Name: req.Name, Variants: req.Variants},
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "categoryID"), chi.URLParam(r, "subCategoryID"), chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	results, err := h.catalog.BulkDelete(r.Context(), services.BulkDeleteCommand{
		Kind:       req.Kind,
		CategoryID: req.CategoryID,
		IDs:        req.IDs,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *AdminHandlers) listEnquiries(w http.ResponseWriter, r *http.Request) {
	if h.enquiries == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enquiries": []any{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	enquiries, err := h.enquiries.ListEnquiries(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enquiries": emptyIfNil(enquiries)})
}

func productInputs(reqs []productRequest) []services.ProductInput {
	if len(reqs) == 0 {
		return nil
	}
	inputs := make([]services.ProductInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, services.ProductInput{Name: req.Name, Variants: req.Variants})
	}
	return inputs
}
