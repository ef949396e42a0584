package handlers

import (
	"context"
	"io"
	"time"

	"github.com/stayline-supplies/api/internal/domain"
	"github.com/stayline-supplies/api/internal/services"
)

// storeErr mimics the categorised persistence failures repositories return.
type storeErr struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *storeErr) Error() string       { return e.msg }
func (e *storeErr) IsNotFound() bool    { return e.notFound }
func (e *storeErr) IsConflict() bool    { return e.conflict }
func (e *storeErr) IsUnavailable() bool { return e.unavailable }

var (
	errStoreNotFound = &storeErr{msg: "document not found", notFound: true}
	errStoreConflict = &storeErr{msg: "document already exists", conflict: true}
)

type stubCatalogService struct {
	categories []domain.Category
	category   domain.Category
	subs       []domain.SubCategory
	products   []domain.ProductGroup
	flat       []domain.FlatProduct
	tree       []domain.CategoryTree
	bulk       []services.BulkDeleteResult

	lastUpdate services.UpdateCategoryCommand
	lastBulk   services.BulkDeleteCommand

	err error
}

func (s *stubCatalogService) ListCategories(context.Context) ([]domain.Category, error) {
	return s.categories, s.err
}

func (s *stubCatalogService) GetCategory(context.Context, string) (domain.Category, error) {
	return s.category, s.err
}

func (s *stubCatalogService) CreateCategory(_ context.Context, cmd services.CreateCategoryCommand) (domain.Category, error) {
	if s.err != nil {
		return domain.Category{}, s.err
	}
	slug, err := domain.Slugify(cmd.Title)
	if err != nil {
		return domain.Category{}, services.ErrCatalogInvalidInput
	}
	return domain.Category{ID: slug, Title: cmd.Title, ImageURL: cmd.ImageURL}, nil
}

func (s *stubCatalogService) UpdateCategory(_ context.Context, cmd services.UpdateCategoryCommand) (domain.Category, error) {
	s.lastUpdate = cmd
	if s.err != nil {
		return domain.Category{}, s.err
	}
	slug, _ := domain.Slugify(cmd.Title)
	return domain.Category{ID: slug, Title: cmd.Title, ImageURL: cmd.ImageURL}, nil
}

func (s *stubCatalogService) DeleteCategory(context.Context, string) error { return s.err }

func (s *stubCatalogService) ListSubCategories(context.Context, string) ([]domain.SubCategory, error) {
	return s.subs, s.err
}

func (s *stubCatalogService) GetSubCategory(context.Context, string, string) (domain.SubCategory, error) {
	if len(s.subs) == 0 {
		return domain.SubCategory{}, s.err
	}
	return s.subs[0], s.err
}

func (s *stubCatalogService) CreateSubCategory(_ context.Context, cmd services.CreateSubCategoryCommand) (domain.SubCategory, error) {
	if s.err != nil {
		return domain.SubCategory{}, s.err
	}
	slug, err := domain.Slugify(cmd.Name)
	if err != nil {
		return domain.SubCategory{}, services.ErrCatalogInvalidInput
	}
	return domain.SubCategory{ID: slug, Name: cmd.Name}, nil
}

func (s *stubCatalogService) UpdateSubCategory(_ context.Context, cmd services.UpdateSubCategoryCommand) (domain.SubCategory, error) {
	if s.err != nil {
		return domain.SubCategory{}, s.err
	}
	slug, _ := domain.Slugify(cmd.Name)
	return domain.SubCategory{ID: slug, Name: cmd.Name}, nil
}

func (s *stubCatalogService) DeleteSubCategory(context.Context, string, string) error { return s.err }

func (s *stubCatalogService) ListProducts(context.Context, string, string) ([]domain.ProductGroup, error) {
	return s.products, s.err
}

func (s *stubCatalogService) GetProduct(context.Context, string, string, string) (domain.ProductGroup, error) {
	if len(s.products) == 0 {
		return domain.ProductGroup{}, s.err
	}
	return s.products[0], s.err
}

func (s *stubCatalogService) CreateProduct(_ context.Context, cmd services.CreateProductCommand) (domain.ProductGroup, error) {
	if s.err != nil {
		return domain.ProductGroup{}, s.err
	}
	slug, err := domain.Slugify(cmd.Product.Name)
	if err != nil {
		return domain.ProductGroup{}, services.ErrCatalogInvalidInput
	}
	return domain.ProductGroup{ID: slug, Name: cmd.Product.Name, Variants: cmd.Product.Variants}, nil
}

func (s *stubCatalogService) UpdateProduct(_ context.Context, cmd services.UpdateProductCommand) (domain.ProductGroup, error) {
	if s.err != nil {
		return domain.ProductGroup{}, s.err
	}
	slug, _ := domain.Slugify(cmd.Product.Name)
	return domain.ProductGroup{ID: slug, Name: cmd.Product.Name, Variants: cmd.Product.Variants}, nil
}

func (s *stubCatalogService) DeleteProduct(context.Context, string, string, string) error {
	return s.err
}

func (s *stubCatalogService) BulkDelete(_ context.Context, cmd services.BulkDeleteCommand) ([]services.BulkDeleteResult, error) {
	s.lastBulk = cmd
	return s.bulk, s.err
}

func (s *stubCatalogService) CategoryTree(context.Context) ([]domain.CategoryTree, error) {
	return s.tree, s.err
}

func (s *stubCatalogService) FlatProducts(context.Context) ([]domain.FlatProduct, error) {
	return s.flat, s.err
}

type stubEnquiryService struct {
	submitted []services.EnquiryCommand
	enquiries []domain.Enquiry
	err       error
}

func (s *stubEnquiryService) SubmitEnquiry(_ context.Context, cmd services.EnquiryCommand) (domain.Enquiry, error) {
	if s.err != nil {
		return domain.Enquiry{}, s.err
	}
	s.submitted = append(s.submitted, cmd)
	return domain.Enquiry{
		ID:         "01HZXD5M4T0000000000000000",
		Kind:       cmd.Kind,
		Email:      cmd.Email,
		ReceivedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (s *stubEnquiryService) ListEnquiries(context.Context, int) ([]domain.Enquiry, error) {
	return s.enquiries, s.err
}

type stubAssetService struct {
	result      services.UploadResult
	last        services.UploadCommand
	lastDeleted string
	err         error
}

func (s *stubAssetService) Upload(_ context.Context, cmd services.UploadCommand, body io.Reader) (services.UploadResult, error) {
	s.last = cmd
	if s.err != nil {
		return services.UploadResult{}, s.err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return services.UploadResult{}, err
	}
	return s.result, nil
}

func (s *stubAssetService) Delete(_ context.Context, object string) error {
	s.lastDeleted = object
	return s.err
}
