package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stayline-supplies/api/internal/domain"
	"github.com/stayline-supplies/api/internal/repositories"
)

// compositeIDSeparator joins the ancestry segments of a bulk-delete id.
const compositeIDSeparator = "::"

var (
	// ErrCatalogInvalidInput indicates the caller supplied invalid data to a
	// catalog operation.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Catalog repositories.CatalogRepository
	Clock   func() time.Time
}

type catalogService struct {
	repo  repositories.CatalogRepository
	clock func() time.Time
}

// NewCatalogService constructs the catalog service with the supplied
// dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &catalogService{
		repo:  deps.Catalog,
		clock: func() time.Time { return clock().UTC() },
	}, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *catalogService) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	slug, err := requireSlug(id, "category id")
	if err != nil {
		return domain.Category{}, err
	}
	return s.repo.GetCategory(ctx, slug)
}

func (s *catalogService) CreateCategory(ctx context.Context, cmd CreateCategoryCommand) (domain.Category, error) {
	slug, err := slugFromName(cmd.Title, "category title")
	if err != nil {
		return domain.Category{}, err
	}
	category := domain.Category{
		ID:       slug,
		Title:    strings.TrimSpace(cmd.Title),
		ImageURL: strings.TrimSpace(cmd.ImageURL),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// UpdateCategory retitles a category. When the new title slugs to the same
// id the document is rewritten in place; otherwise the subtree migrates to
// the new slug.
func (s *catalogService) UpdateCategory(ctx context.Context, cmd UpdateCategoryCommand) (domain.Category, error) {
	currentID, err := requireSlug(cmd.ID, "category id")
	if err != nil {
		return domain.Category{}, err
	}
	newID, err := slugFromName(cmd.Title, "category title")
	if err != nil {
		return domain.Category{}, err
	}

	category := domain.Category{
		ID:       newID,
		Title:    strings.TrimSpace(cmd.Title),
		ImageURL: strings.TrimSpace(cmd.ImageURL),
	}
	if newID == currentID {
		if err := s.repo.UpdateCategory(ctx, category); err != nil {
			return domain.Category{}, err
		}
		return category, nil
	}
	if err := s.repo.RenameCategory(ctx, currentID, category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	slug, err := requireSlug(id, "category id")
	if err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, slug)
}

func (s *catalogService) ListSubCategories(ctx context.Context, categoryID string) ([]domain.SubCategory, error) {
	catID, err := requireSlug(categoryID, "category id")
	if err != nil {
		return nil, err
	}
	return s.repo.ListSubCategories(ctx, catID)
}

func (s *catalogService) GetSubCategory(ctx context.Context, categoryID, id string) (domain.SubCategory, error) {
	catID, err := requireSlug(categoryID, "category id")
	if err != nil {
		return domain.SubCategory{}, err
	}
	subID, err := requireSlug(id, "subcategory id")
	if err != nil {
		return domain.SubCategory{}, err
	}
	return s.repo.GetSubCategory(ctx, catID, subID)
}

func (s *catalogService) CreateSubCategory(ctx context.Context, cmd CreateSubCategoryCommand) (domain.SubCategory, error) {
	catID, err := requireSlug(cmd.CategoryID, "category id")
	if err != nil {
		return domain.SubCategory{}, err
	}
	slug, err := slugFromName(cmd.Name, "subcategory name")
	if err != nil {
		return domain.SubCategory{}, err
	}

	sub := domain.SubCategory{
		ID:        slug,
		Name:      strings.TrimSpace(cmd.Name),
		CreatedAt: s.clock(),
	}
	products, err := buildProducts(cmd.Products)
	if err != nil {
		return domain.SubCategory{}, err
	}
	if err := s.repo.CreateSubCategory(ctx, catID, sub, products); err != nil {
		return domain.SubCategory{}, err
	}
	return sub, nil
}

func (s *catalogService) UpdateSubCategory(ctx context.Context, cmd UpdateSubCategoryCommand) (domain.SubCategory, error) {
	catID, err := requireSlug(cmd.CategoryID, "category id")
	if err != nil {
		return domain.SubCategory{}, err
	}
	currentID, err := requireSlug(cmd.ID, "subcategory id")
	if err != nil {
		return domain.SubCategory{}, err
	}
	newID, err := slugFromName(cmd.Name, "subcategory name")
	if err != nil {
		return domain.SubCategory{}, err
	}

	sub := domain.SubCategory{ID: newID, Name: strings.TrimSpace(cmd.Name)}
	if newID == currentID {
		if err := s.repo.UpdateSubCategory(ctx, catID, sub); err != nil {
			return domain.SubCategory{}, err
		}
		return sub, nil
	}
	if err := s.repo.RenameSubCategory(ctx, catID, currentID, sub); err != nil {
		return domain.SubCategory{}, err
	}
	return sub, nil
}

func (s *catalogService) DeleteSubCategory(ctx context.Context, categoryID, id string) error {
	catID, err := requireSlug(categoryID, "category id")
	if err != nil {
		return err
	}
	subID, err := requireSlug(id, "subcategory id")
	if err != nil {
		return err
	}
	return s.repo.DeleteSubCategory(ctx, catID, subID)
}

func (s *catalogService) ListProducts(ctx context.Context, categoryID, subCategoryID string) ([]domain.ProductGroup, error) {
	catID, subID, err := requireAncestry(categoryID, subCategoryID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx, catID, subID)
}

func (s *catalogService) GetProduct(ctx context.Context, categoryID, subCategoryID, id string) (domain.ProductGroup, error) {
	catID, subID, err := requireAncestry(categoryID, subCategoryID)
	if err != nil {
		return domain.ProductGroup{}, err
	}
	prodID, err := requireSlug(id, "product id")
	if err != nil {
		return domain.ProductGroup{}, err
	}
	return s.repo.GetProduct(ctx, catID, subID, prodID)
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.ProductGroup, error) {
	catID, subID, err := requireAncestry(cmd.CategoryID, cmd.SubCategoryID)
	if err != nil {
		return domain.ProductGroup{}, err
	}
	product, err := buildProduct(cmd.Product)
	if err != nil {
		return domain.ProductGroup{}, err
	}
	if err := s.repo.CreateProduct(ctx, catID, subID, product); err != nil {
		return domain.ProductGroup{}, err
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (domain.ProductGroup, error) {
	catID, subID, err := requireAncestry(cmd.CategoryID, cmd.SubCategoryID)
	if err != nil {
		return domain.ProductGroup{}, err
	}
	currentID, err := requireSlug(cmd.ID, "product id")
	if err != nil {
		return domain.ProductGroup{}, err
	}
	product, err := buildProduct(cmd.Product)
	if err != nil {
		return domain.ProductGroup{}, err
	}

	if product.ID == currentID {
		if err := s.repo.UpdateProduct(ctx, catID, subID, product); err != nil {
			return domain.ProductGroup{}, err
		}
		return product, nil
	}
	if err := s.repo.RenameProduct(ctx, catID, subID, currentID, product); err != nil {
		return domain.ProductGroup{}, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, categoryID, subCategoryID, id string) error {
	catID, subID, err := requireAncestry(categoryID, subCategoryID)
	if err != nil {
		return err
	}
	prodID, err := requireSlug(id, "product id")
	if err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, catID, subID, prodID)
}

// BulkDelete deletes each named entity independently, reporting the outcome
// per item; a failed delete does not stop the remaining ones. Product ids are
// additionally validated up front: a malformed composite reference rejects
// the whole request before any deletion runs.
func (s *catalogService) BulkDelete(ctx context.Context, cmd BulkDeleteCommand) ([]BulkDeleteResult, error) {
	if len(cmd.IDs) == 0 {
		return nil, fmt.Errorf("%w: no ids given", ErrCatalogInvalidInput)
	}
	switch strings.ToLower(strings.TrimSpace(cmd.Kind)) {
	case BulkKindCategory:
		return s.bulkDeleteCategories(ctx, cmd.IDs), nil
	case BulkKindSubCategory:
		catID, err := requireSlug(cmd.CategoryID, "category id")
		if err != nil {
			return nil, err
		}
		return s.bulkDeleteSubCategories(ctx, catID, cmd.IDs), nil
	case BulkKindProduct:
		return s.bulkDeleteProducts(ctx, cmd.IDs)
	default:
		return nil, fmt.Errorf("%w: unknown bulk delete kind %q", ErrCatalogInvalidInput, cmd.Kind)
	}
}

// bulkDeleteCategories accepts raw titles as well as slugs; each id is
// slug-formatted before the cascading delete runs.
func (s *catalogService) bulkDeleteCategories(ctx context.Context, ids []string) []BulkDeleteResult {
	results := make([]BulkDeleteResult, 0, len(ids))
	for _, raw := range ids {
		result := BulkDeleteResult{ID: raw}
		slug, err := domain.Slugify(raw)
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		if err := s.repo.DeleteCategory(ctx, slug); err != nil {
			result.Error = err.Error()
		} else {
			result.Deleted = true
		}
		results = append(results, result)
	}
	return results
}

func (s *catalogService) bulkDeleteSubCategories(ctx context.Context, categoryID domain.Slug, ids []string) []BulkDeleteResult {
	results := make([]BulkDeleteResult, 0, len(ids))
	for _, raw := range ids {
		result := BulkDeleteResult{ID: raw}
		slug, err := domain.Slugify(raw)
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		if err := s.repo.DeleteSubCategory(ctx, categoryID, slug); err != nil {
			result.Error = err.Error()
		} else {
			result.Deleted = true
		}
		results = append(results, result)
	}
	return results
}

func (s *catalogService) bulkDeleteProducts(ctx context.Context, ids []string) ([]BulkDeleteResult, error) {
	type ref struct {
		raw  string
		cat  domain.Slug
		sub  domain.Slug
		prod domain.Slug
	}
	refs := make([]ref, 0, len(ids))
	for _, raw := range ids {
		cat, sub, prod, err := parseProductRef(raw)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref{raw: raw, cat: cat, sub: sub, prod: prod})
	}

	results := make([]BulkDeleteResult, 0, len(refs))
	for _, r := range refs {
		result := BulkDeleteResult{ID: r.raw}
		if err := s.repo.DeleteProduct(ctx, r.cat, r.sub, r.prod); err != nil {
			result.Error = err.Error()
		} else {
			result.Deleted = true
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *catalogService) CategoryTree(ctx context.Context) ([]domain.CategoryTree, error) {
	return s.repo.ListCategoryTrees(ctx)
}

func (s *catalogService) FlatProducts(ctx context.Context) ([]domain.FlatProduct, error) {
	return s.repo.ListFlatProducts(ctx)
}

// parseProductRef splits a composite "category::subcategory::product" id.
func parseProductRef(raw string) (domain.Slug, domain.Slug, domain.Slug, error) {
	parts := strings.Split(strings.TrimSpace(raw), compositeIDSeparator)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("%w: malformed product reference %q", ErrCatalogInvalidInput, raw)
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return "", "", "", fmt.Errorf("%w: malformed product reference %q", ErrCatalogInvalidInput, raw)
		}
	}
	return domain.Slug(parts[0]), domain.Slug(parts[1]), domain.Slug(parts[2]), nil
}

func buildProducts(inputs []ProductInput) ([]domain.ProductGroup, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	products := make([]domain.ProductGroup, 0, len(inputs))
	seen := make(map[domain.Slug]struct{}, len(inputs))
	for _, input := range inputs {
		product, err := buildProduct(input)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[product.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %q", ErrCatalogInvalidInput, product.ID)
		}
		seen[product.ID] = struct{}{}
		products = append(products, product)
	}
	return products, nil
}

func buildProduct(input ProductInput) (domain.ProductGroup, error) {
	slug, err := slugFromName(input.Name, "product name")
	if err != nil {
		return domain.ProductGroup{}, err
	}
	if err := validateVariants(input.Variants); err != nil {
		return domain.ProductGroup{}, err
	}
	return domain.ProductGroup{
		ID:       slug,
		Name:     strings.TrimSpace(input.Name),
		Variants: input.Variants,
	}, nil
}

func validateVariants(variants []domain.ProductVariant) error {
	for i, variant := range variants {
		if strings.TrimSpace(variant.Title) == "" {
			return fmt.Errorf("%w: variant %d has no title", ErrCatalogInvalidInput, i)
		}
		if variant.Price < 0 {
			return fmt.Errorf("%w: variant %q has a negative price", ErrCatalogInvalidInput, variant.Title)
		}
		if len(variant.GalleryImages) > domain.MaxGalleryImages {
			return fmt.Errorf("%w: variant %q exceeds %d gallery images", ErrCatalogInvalidInput, variant.Title, domain.MaxGalleryImages)
		}
	}
	return nil
}

func slugFromName(name, what string) (domain.Slug, error) {
	slug, err := domain.Slugify(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrCatalogInvalidInput, what, err)
	}
	return slug, nil
}

func requireSlug(raw, what string) (domain.Slug, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s is required", ErrCatalogInvalidInput, what)
	}
	return domain.Slug(trimmed), nil
}

func requireAncestry(categoryID, subCategoryID string) (domain.Slug, domain.Slug, error) {
	catID, err := requireSlug(categoryID, "category id")
	if err != nil {
		return "", "", err
	}
	subID, err := requireSlug(subCategoryID, "subcategory id")
	if err != nil {
		return "", "", err
	}
	return catID, subID, nil
}
