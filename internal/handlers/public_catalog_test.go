package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stayline-supplies/api/internal/domain"
)

func newStorefrontServer(t *testing.T, catalog *stubCatalogService) http.Handler {
	t.Helper()
	h, err := NewStorefrontHandlers(catalog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewRouter(WithStorefrontRoutes(h.Routes))
}

func TestListCategories(t *testing.T) {
	catalog := &stubCatalogService{categories: []domain.Category{
		{ID: "linen", Title: "Linen", ImageURL: "https://img/linen.png"},
	}}
	router := newStorefrontServer(t, catalog)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/categories", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if cc := resp.Header().Get("Cache-Control"); cc != catalogCacheControl {
		t.Fatalf("expected cache header, got %q", cc)
	}
	var payload struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Categories) != 1 || payload.Categories[0].ID != "linen" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestListCategoriesEmptyIsArray(t *testing.T) {
	router := newStorefrontServer(t, &stubCatalogService{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/categories", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(payload["categories"]) != "[]" {
		t.Fatalf("expected empty array, got %s", payload["categories"])
	}
}

func TestGetCategoryNotFound(t *testing.T) {
	router := newStorefrontServer(t, &stubCatalogService{err: errStoreNotFound})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/categories/missing", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error != "not_found" {
		t.Fatalf("unexpected error code %q", envelope.Error)
	}
}

func TestListFlatProducts(t *testing.T) {
	catalog := &stubCatalogService{flat: []domain.FlatProduct{
		{
			CategoryID:       "linen",
			CategoryTitle:    "Linen",
			SubCategoryID:    "bath-towels",
			SubCategoryName:  "Bath Towels",
			ProductGroupID:   "classic-range",
			ProductGroupName: "Classic Range",
			Variants:         []domain.ProductVariant{{Title: "500gsm", Price: 12.5}},
		},
	}}
	router := newStorefrontServer(t, catalog)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Products []domain.FlatProduct `json:"products"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Products) != 1 {
		t.Fatalf("expected one row, got %d", len(payload.Products))
	}
	row := payload.Products[0]
	if row.CategoryID != "linen" || row.SubCategoryID != "bath-towels" || row.ProductGroupID != "classic-range" {
		t.Fatalf("unexpected ancestry %+v", row)
	}
	if len(row.Variants) != 1 || row.Variants[0].Price != 12.5 {
		t.Fatalf("unexpected variants %+v", row.Variants)
	}
}

func TestUnknownRoute(t *testing.T) {
	router := newStorefrontServer(t, &stubCatalogService{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error != "route_not_found" {
		t.Fatalf("unexpected error code %q", envelope.Error)
	}
}

func TestHealthz(t *testing.T) {
	router := NewRouter()

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestReadyzReportsFailingDependency(t *testing.T) {
	health := NewHealthHandlers(
		WithReadinessCheck("firestore", func(context.Context) error { return nil }),
		WithReadinessCheck("storage", func(context.Context) error { return errors.New("bucket unreachable") }),
	)
	router := NewRouter(WithHealthHandlers(health))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	var payload struct {
		Error        string            `json:"error"`
		Status       int               `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error != "degraded" || payload.Status != http.StatusServiceUnavailable {
		t.Fatalf("unexpected envelope %+v", payload)
	}
	if payload.Dependencies["firestore"] != "ok" || payload.Dependencies["storage"] == "ok" {
		t.Fatalf("unexpected dependencies %+v", payload.Dependencies)
	}
}
