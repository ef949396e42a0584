package repositories

import (
	"context"

	"github.com/stayline-supplies/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with the
// categorisation services map onto HTTP statuses.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CatalogRepository persists the three-level catalog tree. Document ids are
// slugs computed by the service layer; the repository treats them as opaque.
//
// Rename operations copy the full subtree to the new id before removing the
// old one, so a partial failure leaves duplicated documents rather than lost
// ones. Delete operations cascade bottom-up and re-query between passes until
// the subtree is empty.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, category domain.Category) error
	GetCategory(ctx context.Context, id domain.Slug) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) error
	RenameCategory(ctx context.Context, oldID domain.Slug, category domain.Category) error
	DeleteCategory(ctx context.Context, id domain.Slug) error

	CreateSubCategory(ctx context.Context, categoryID domain.Slug, sub domain.SubCategory, products []domain.ProductGroup) error
	GetSubCategory(ctx context.Context, categoryID, id domain.Slug) (domain.SubCategory, error)
	ListSubCategories(ctx context.Context, categoryID domain.Slug) ([]domain.SubCategory, error)
	UpdateSubCategory(ctx context.Context, categoryID domain.Slug, sub domain.SubCategory) error
	RenameSubCategory(ctx context.Context, categoryID, oldID domain.Slug, sub domain.SubCategory) error
	DeleteSubCategory(ctx context.Context, categoryID, id domain.Slug) error

	CreateProduct(ctx context.Context, categoryID, subCategoryID domain.Slug, product domain.ProductGroup) error
	GetProduct(ctx context.Context, categoryID, subCategoryID, id domain.Slug) (domain.ProductGroup, error)
	ListProducts(ctx context.Context, categoryID, subCategoryID domain.Slug) ([]domain.ProductGroup, error)
	UpdateProduct(ctx context.Context, categoryID, subCategoryID domain.Slug, product domain.ProductGroup) error
	RenameProduct(ctx context.Context, categoryID, subCategoryID, oldID domain.Slug, product domain.ProductGroup) error
	DeleteProduct(ctx context.Context, categoryID, subCategoryID, id domain.Slug) error

	ListCategoryTrees(ctx context.Context) ([]domain.CategoryTree, error)
	ListFlatProducts(ctx context.Context) ([]domain.FlatProduct, error)
}

// EnquiryRepository stores storefront enquiries before they are mailed.
type EnquiryRepository interface {
	Save(ctx context.Context, enquiry domain.Enquiry) error
	List(ctx context.Context, limit int) ([]domain.Enquiry, error)
}
