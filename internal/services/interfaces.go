package services

import (
	"context"
	"io"

	"github.com/stayline-supplies/api/internal/domain"
)

// CreateCategoryCommand carries the admin input for a new category. The slug
// is derived from the title, never supplied by the caller.
type CreateCategoryCommand struct {
	Title    string
	ImageURL string
}

// UpdateCategoryCommand retitles a category. When the new title slugs to a
// different id the whole subtree migrates to the new slug.
type UpdateCategoryCommand struct {
	ID       string
	Title    string
	ImageURL string
}

// ProductInput is a product group as submitted by the admin console.
type ProductInput struct {
	Name     string
	Variants []domain.ProductVariant
}

// CreateSubCategoryCommand creates a subcategory, optionally seeded with an
// initial set of product groups in the same request.
type CreateSubCategoryCommand struct {
	CategoryID string
	Name       string
	Products   []ProductInput
}

// UpdateSubCategoryCommand renames a subcategory.
type UpdateSubCategoryCommand struct {
	CategoryID string
	ID         string
	Name       string
}

// CreateProductCommand creates a product group under a subcategory.
type CreateProductCommand struct {
	CategoryID    string
	SubCategoryID string
	Product       ProductInput
}

// UpdateProductCommand rewrites a product group, migrating it to a new slug
// when the name changed.
type UpdateProductCommand struct {
	CategoryID    string
	SubCategoryID string
	ID            string
	Product       ProductInput
}

// Bulk delete kinds.
const (
	BulkKindCategory    = "category"
	BulkKindSubCategory = "subcategory"
	BulkKindProduct     = "product"
)

// BulkDeleteCommand names entities of one kind to delete. Category ids are
// raw titles or slugs (slug-formatted before lookup), subcategory ids resolve
// under CategoryID, and product ids are composite
// "category::subcategory::product" references.
type BulkDeleteCommand struct {
	Kind       string
	CategoryID string
	IDs        []string
}

// BulkDeleteResult reports the outcome for one requested id.
type BulkDeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// CatalogService owns every catalog mutation and read.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (domain.Category, error)
	CreateCategory(ctx context.Context, cmd CreateCategoryCommand) (domain.Category, error)
	UpdateCategory(ctx context.Context, cmd UpdateCategoryCommand) (domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListSubCategories(ctx context.Context, categoryID string) ([]domain.SubCategory, error)
	GetSubCategory(ctx context.Context, categoryID, id string) (domain.SubCategory, error)
	CreateSubCategory(ctx context.Context, cmd CreateSubCategoryCommand) (domain.SubCategory, error)
	UpdateSubCategory(ctx context.Context, cmd UpdateSubCategoryCommand) (domain.SubCategory, error)
	DeleteSubCategory(ctx context.Context, categoryID, id string) error

	ListProducts(ctx context.Context, categoryID, subCategoryID string) ([]domain.ProductGroup, error)
	GetProduct(ctx context.Context, categoryID, subCategoryID, id string) (domain.ProductGroup, error)
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.ProductGroup, error)
	UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.ProductGroup, error)
	DeleteProduct(ctx context.Context, categoryID, subCategoryID, id string) error
	BulkDelete(ctx context.Context, cmd BulkDeleteCommand) ([]BulkDeleteResult, error)

	CategoryTree(ctx context.Context) ([]domain.CategoryTree, error)
	FlatProducts(ctx context.Context) ([]domain.FlatProduct, error)
}

// EnquiryCommand is a storefront submission before validation.
type EnquiryCommand struct {
	Kind       string
	Name       string
	Email      string
	Phone      string
	Message    string
	ProductRef string
}

// EnquiryService accepts storefront enquiries, persists them, and forwards
// them to the sales inbox.
type EnquiryService interface {
	SubmitEnquiry(ctx context.Context, cmd EnquiryCommand) (domain.Enquiry, error)
	ListEnquiries(ctx context.Context, limit int) ([]domain.Enquiry, error)
}

// UploadCommand carries one admin image upload.
type UploadCommand struct {
	Filename    string
	ContentType string
	Size        int64
}

// UploadResult is the stored object plus the signed URL catalog documents
// embed.
type UploadResult struct {
	Object    string `json:"object"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

// AssetService stores uploaded media and issues signed read URLs.
type AssetService interface {
	Upload(ctx context.Context, cmd UploadCommand, body io.Reader) (UploadResult, error)
	Delete(ctx context.Context, object string) error
}
