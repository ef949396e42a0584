package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	"github.com/stayline-supplies/api/internal/domain"
	pfirestore "github.com/stayline-supplies/api/internal/platform/firestore"
)

const (
	collCategories    = "categories"
	collSubCategories = "subcategories"
	collProducts      = "products"
)

// CatalogRepository persists the catalog tree as nested Firestore
// subcollections: categories/{cat}/subcategories/{sub}/products/{prod}.
// Document ids are the slugs computed by the service layer.
type CatalogRepository struct {
	provider   *pfirestore.Provider
	logger     *zap.Logger
	batchLimit int
}

// CatalogOption customises the repository.
type CatalogOption func(*CatalogRepository)

// WithBatchLimit lowers the per-batch write ceiling. Tests use this to force
// the multi-batch paths with small trees.
func WithBatchLimit(limit int) CatalogOption {
	return func(r *CatalogRepository) {
		if limit > 0 {
			r.batchLimit = limit
		}
	}
}

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider, logger *zap.Logger, opts ...CatalogOption) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &CatalogRepository{
		provider:   provider,
		logger:     logger,
		batchLimit: pfirestore.MaxBatchWrites,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

func (r *CatalogRepository) client(ctx context.Context) (*firestore.Client, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: firestore client: %w", err)
	}
	return client, nil
}

func categoryRef(client *firestore.Client, id domain.Slug) *firestore.DocumentRef {
	return client.Collection(collCategories).Doc(string(id))
}

func subCategoryColl(catRef *firestore.DocumentRef) *firestore.CollectionRef {
	return catRef.Collection(collSubCategories)
}

func productColl(subRef *firestore.DocumentRef) *firestore.CollectionRef {
	return subRef.Collection(collProducts)
}

func (r *CatalogRepository) batch(client *firestore.Client) *pfirestore.BatchWriter {
	return pfirestore.NewBatchWriter(client).WithLimit(r.batchLimit)
}

// CreateCategory writes a new category, failing with a conflict when the slug
// is already taken.
func (r *CatalogRepository) CreateCategory(ctx context.Context, category domain.Category) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	return pfirestore.CreateDoc(ctx, categoryRef(client, category.ID), category, "catalog.category.create")
}

// GetCategory fetches one category by slug.
func (r *CatalogRepository) GetCategory(ctx context.Context, id domain.Slug) (domain.Category, error) {
	client, err := r.client(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	return pfirestore.GetDoc[domain.Category](ctx, categoryRef(client, id), "catalog.category.get")
}

// ListCategories returns every category in document-id order.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	client, err := r.client(ctx)
	if err != nil {
		return nil, err
	}
	query := client.Collection(collCategories).OrderBy(firestore.DocumentID, firestore.Asc)
	return pfirestore.ScanQuery[domain.Category](ctx, query, "catalog.category.list")
}

// UpdateCategory rewrites the mutable fields of an existing category. The
// slug is unchanged, so no subtree migration happens.
func (r *CatalogRepository) UpdateCategory(ctx context.Context, category domain.Category) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	updates := []firestore.Update{
		{Path: "title", Value: category.Title},
		{Path: "imageUrl", Value: category.ImageURL},
	}
	return pfirestore.UpdateDoc(ctx, categoryRef(client, category.ID), updates, "catalog.category.update")
}

// RenameCategory moves a category and its whole subtree to a new slug. The
// subtree is copied to the new id and fully committed before any delete runs,
// so interrupting the migration duplicates documents instead of losing them.
func (r *CatalogRepository) RenameCategory(ctx context.Context, oldID domain.Slug, category domain.Category) error {
	const op = "catalog.category.rename"

	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	oldRef := categoryRef(client, oldID)
	newRef := categoryRef(client, category.ID)

	if _, err := pfirestore.GetDoc[domain.Category](ctx, oldRef, op); err != nil {
		return err
	}
	occupied, err := pfirestore.DocExists(ctx, newRef, op)
	if err != nil {
		return err
	}
	if occupied {
		return pfirestore.ConflictError(op, fmt.Errorf("category %q already exists", category.ID))
	}

	subs, err := pfirestore.ScanQuery[domain.SubCategory](ctx, subCategoryColl(oldRef).Query, op)
	if err != nil {
		return err
	}

	copyBatch := r.batch(client)
	deleteBatch := r.batch(client)
	copyBatch.Set(newRef, category)
	deleteBatch.Delete(oldRef)

	for _, sub := range subs {
		oldSubRef := subCategoryColl(oldRef).Doc(string(sub.ID))
		newSubRef := subCategoryColl(newRef).Doc(string(sub.ID))
		copyBatch.Set(newSubRef, sub)
		deleteBatch.Delete(oldSubRef)

		products, err := pfirestore.ScanQuery[domain.ProductGroup](ctx, productColl(oldSubRef).Query, op)
		if err != nil {
			return err
		}
		for _, product := range products {
			copyBatch.Set(productColl(newSubRef).Doc(string(product.ID)), product)
			deleteBatch.Delete(productColl(oldSubRef).Doc(string(product.ID)))
		}
	}

	return r.migrate(ctx, op, copyBatch, deleteBatch, string(oldID), string(category.ID))
}

// DeleteCategory removes a category and everything below it, products before
// subcategories before the category document itself.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id domain.Slug) error {
	const op = "catalog.category.delete"

	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	catRef := categoryRef(client, id)

	if err := r.requireExists(ctx, catRef, op, fmt.Sprintf("category %q", id)); err != nil {
		return err
	}

	// Subcategories are drained in passes: empty each one's products, delete
	// the emptied subcategory documents, then re-query in case the listing
	// was truncated or writes raced the delete.
	for {
		subRefs, err := pfirestore.ScanRefs(ctx, subCategoryColl(catRef).Query.Limit(r.batchLimit), op)
		if err != nil {
			return err
		}
		if len(subRefs) == 0 {
			break
		}
		batch := r.batch(client)
		for _, subRef := range subRefs {
			if err := r.drain(ctx, client, productColl(subRef), op); err != nil {
				return err
			}
			batch.Delete(subRef)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return err
		}
	}

	return pfirestore.DeleteDoc(ctx, catRef, op)
}

// CreateSubCategory writes a new subcategory under an existing category,
// optionally seeding it with an initial set of product groups.
func (r *CatalogRepository) CreateSubCategory(ctx context.Context, categoryID domain.Slug, sub domain.SubCategory, products []domain.ProductGroup) error {
	const op = "catalog.subcategory.create"

	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	catRef := categoryRef(client, categoryID)
	if err := r.requireExists(ctx, catRef, op, fmt.Sprintf("category %q", categoryID)); err != nil {
		return err
	}

	subRef := subCategoryColl(catRef).Doc(string(sub.ID))
	if err := pfirestore.CreateDoc(ctx, subRef, sub, op); err != nil {
		return err
	}

	if len(products) == 0 {
		return nil
	}
	batch := r.batch(client)
	for _, product := range products {
		batch.Set(productColl(subRef).Doc(string(product.ID)), product)
	}
	_, err = batch.Commit(ctx)
	return err
}

// GetSubCategory fetches one subcategory by slug.
func (r *CatalogRepository) GetSubCategory(ctx context.Context, categoryID, id domain.Slug) (domain.SubCategory, error) {
	client, err := r.client(ctx)
	if err != nil {
		return domain.SubCategory{}, err
	}
	ref := subCategoryColl(categoryRef(client, categoryID)).Doc(string(id))
	return pfirestore.GetDoc[domain.SubCategory](ctx, ref, "catalog.subcategory.get")
}

// ListSubCategories returns a category's subcategories in document-id order.
func (r *CatalogRepository) ListSubCategories(ctx context.Context, categoryID domain.Slug) ([]domain.SubCategory, error) {
	const op = "catalog.subcategory.list"

	client, err := r.client(ctx)
	if err != nil {
		return nil, err
	}
	catRef := categoryRef(client, categoryID)
	if err := r.requireExists(ctx, catRef, op, fmt.Sprintf("category %q", categoryID)); err != nil {
		return nil, err
	}
	query := subCategoryColl(catRef).OrderBy(firestore.DocumentID, firestore.Asc)
	return pfirestore.ScanQuery[domain.SubCategory](ctx, query, op)
}

// UpdateSubCategory rewrites the name of an existing subcategory in place.
func (r *CatalogRepository) UpdateSubCategory(ctx context.Context, categoryID domain.Slug, sub domain.SubCategory) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	ref := subCategoryColl(categoryRef(client, categoryID)).Doc(string(sub.ID))
	updates := []firestore.Update{{Path: "name", Value: sub.Name}}
	return pfirestore.UpdateDoc(ctx, ref, updates, "catalog.subcategory.update")
}

// RenameSubCategory moves a subcategory and its products to a new slug using
// the same copy-then-delete protocol as category renames. The original
// creation timestamp is preserved.
func (r *CatalogRepository) RenameSubCategory(ctx context.Context, categoryID, oldID domain.Slug, sub domain.SubCategory) error {
	const op = "catalog.subcategory.rename"

	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	catRef := categoryRef(client, categoryID)
	oldRef := subCategoryColl(catRef).Doc(string(oldID))
	newRef := subCategoryColl(catRef).Doc(string(sub.ID))

	existing, err := pfirestore.GetDoc[domain.SubCategory](ctx, oldRef, op)
	if err != nil {
		return err
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = existing.CreatedAt
	}

	occupied, err := pfirestore.DocExists(ctx, newRef, op)
	if err != nil {
		return err
	}
	if occupied {
		return pfirestore.ConflictError(op, fmt.Errorf("subcategory %q already exists", sub.ID))
	}

	products, err := pfirestore.ScanQuery[domain.ProductGroup](ctx, productColl(oldRef).Query, op)
	if err != nil {
		return err
	}

	copyBatch := r.batch(client)
	deleteBatch := r.batch(client)
	copyBatch.Set(newRef, sub)
	deleteBatch.Delete(oldRef)
	for _, product := range products {
		copyBatch.Set(productColl(newRef).Doc(string(product.ID)), product)
		deleteBatch.Delete(productColl(oldRef).Doc(string(product.ID)))
	}

	return r.migrate(ctx, op, copyBatch, deleteBatch, string(oldID), string(sub.ID))
}

// DeleteSubCategory removes a subcategory after draining its products.
func (r *CatalogRepository) DeleteSubCategory(ctx context.Context, categoryID, id domain.Slug) error {
	const op = "catalog.subcategory.delete"

	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	subRef := subCategoryColl(categoryRef(client, categoryID)).Doc(string(id))
	if err := r.requireExists(ctx, subRef, op, fmt.Sprintf("subcategory %q", id)); err != nil {
		return err
	}
	if err := r.drain(ctx, client, productColl(subRef), op); err != nil {
		return err
	}
	return pfirestore.DeleteDoc(ctx, subRef, op)
}

// CreateProduct writes a new product group under an existing subcategory.
func (r *CatalogRepository) CreateProduct(ctx context.Context, categoryID, subCategoryID domain.Slug, product domain.ProductGroup) error {
	const op = "catalog.product.create"

	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	subRef := subCategoryColl(categoryRef(client, categoryID)).Doc(string(subCategoryID))
	if err := r.requireExists(ctx, subRef, op, fmt.Sprintf("subcategory %q", subCategoryID)); err != nil {
		return err
	}
	return pfirestore.CreateDoc(ctx, productColl(subRef).Doc(string(product.ID)), product, op)
}

// GetProduct fetches one product group by slug.
func (r *CatalogRepository) GetProduct(ctx context.Context, categoryID, subCategoryID, id domain.Slug) (domain.ProductGroup, error) {
	client, err := r.client(ctx)
	if err != nil {
		return domain.ProductGroup{}, err
	}
	ref := productColl(subCategoryColl(categoryRef(client, categoryID)).Doc(string(subCategoryID))).Doc(string(id))
	return pfirestore.GetDoc[domain.ProductGroup](ctx, ref, "catalog.product.get")
}

// ListProducts returns a subcategory's product groups in document-id order.
func (r *CatalogRepository) ListProducts(ctx context.Context, categoryID, subCategoryID domain.Slug) ([]domain.ProductGroup, error) {
	const op = "catalog.product.list"

	client, err := r.client(ctx)
	if err != nil {
		return nil, err
	}
	subRef := subCategoryColl(categoryRef(client, categoryID)).Doc(string(subCategoryID))
	if err := r.requireExists(ctx, subRef, op, fmt.Sprintf("subcategory %q", subCategoryID)); err != nil {
		return nil, err
	}
	query := productColl(subRef).OrderBy(firestore.DocumentID, firestore.Asc)
	return pfirestore.ScanQuery[domain.ProductGroup](ctx, query, op)
}

// UpdateProduct rewrites the name and variants of an existing product group
// in place.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, categoryID, subCategoryID domain.Slug, product domain.ProductGroup) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	ref := productColl(subCategoryColl(categoryRef(client, categoryID)).Doc(string(subCategoryID))).Doc(string(product.ID))
	updates := []firestore.Update{
		{Path: "name", Value: product.Name},
		{Path: "variants", Value: product.Variants},
	}
	return pfirestore.UpdateDoc(ctx, ref, updates, "catalog.product.update")
}

// RenameProduct moves a product group to a new slug. Products carry no
// subtree, so the create is atomic and doubles as the occupancy check.
func (r *CatalogRepository) RenameProduct(ctx context.Context, categoryID, subCategoryID, oldID domain.Slug, product domain.ProductGroup) error {
	const op = "catalog.product.rename"

	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	coll := productColl(subCategoryColl(categoryRef(client, categoryID)).Doc(string(subCategoryID)))
	oldRef := coll.Doc(string(oldID))
	newRef := coll.Doc(string(product.ID))

	if err := r.requireExists(ctx, oldRef, op, fmt.Sprintf("product %q", oldID)); err != nil {
		return err
	}
	if err := pfirestore.CreateDoc(ctx, newRef, product, op); err != nil {
		return err
	}
	if err := pfirestore.DeleteDoc(ctx, oldRef, op); err != nil {
		r.logger.Warn("product rename committed the copy but not the delete; both slugs now resolve",
			zap.String("old_id", string(oldID)),
			zap.String("new_id", string(product.ID)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// DeleteProduct removes a single product group.
func (r *CatalogRepository) DeleteProduct(ctx context.Context, categoryID, subCategoryID, id domain.Slug) error {
	const op = "catalog.product.delete"

	client, err := r.client(ctx)
	if err != nil {
		return err
	}
	ref := productColl(subCategoryColl(categoryRef(client, categoryID)).Doc(string(subCategoryID))).Doc(string(id))
	if err := r.requireExists(ctx, ref, op, fmt.Sprintf("product %q", id)); err != nil {
		return err
	}
	return pfirestore.DeleteDoc(ctx, ref, op)
}

// ListCategoryTrees resolves the full tree for the admin dashboard.
func (r *CatalogRepository) ListCategoryTrees(ctx context.Context) ([]domain.CategoryTree, error) {
	const op = "catalog.tree.list"

	client, err := r.client(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := r.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	trees := make([]domain.CategoryTree, 0, len(categories))
	for _, category := range categories {
		catRef := categoryRef(client, category.ID)
		subs, err := pfirestore.ScanQuery[domain.SubCategory](ctx, subCategoryColl(catRef).OrderBy(firestore.DocumentID, firestore.Asc), op)
		if err != nil {
			return nil, err
		}

		subTrees := make([]domain.SubCategoryTree, 0, len(subs))
		for _, sub := range subs {
			subRef := subCategoryColl(catRef).Doc(string(sub.ID))
			products, err := pfirestore.ScanQuery[domain.ProductGroup](ctx, productColl(subRef).OrderBy(firestore.DocumentID, firestore.Asc), op)
			if err != nil {
				return nil, err
			}
			subTrees = append(subTrees, domain.SubCategoryTree{SubCategory: sub, Products: products})
		}
		trees = append(trees, domain.CategoryTree{Category: category, SubCategories: subTrees})
	}
	return trees, nil
}

// ListFlatProducts denormalises the tree into one row per product group for
// the storefront projection.
func (r *CatalogRepository) ListFlatProducts(ctx context.Context) ([]domain.FlatProduct, error) {
	trees, err := r.ListCategoryTrees(ctx)
	if err != nil {
		return nil, err
	}

	var flat []domain.FlatProduct
	for _, tree := range trees {
		for _, sub := range tree.SubCategories {
			for _, product := range sub.Products {
				flat = append(flat, domain.FlatProduct{
					CategoryID:       tree.ID,
					CategoryTitle:    tree.Title,
					CategoryImage:    tree.ImageURL,
					SubCategoryID:    sub.ID,
					SubCategoryName:  sub.Name,
					ProductGroupID:   product.ID,
					ProductGroupName: product.Name,
					Variants:         product.Variants,
				})
			}
		}
	}
	return flat, nil
}

// migrate commits the copy batch in full, then the delete batch. A failure
// after the copy committed leaves both subtrees present; that window is
// logged so an operator can finish the cleanup.
func (r *CatalogRepository) migrate(ctx context.Context, op string, copyBatch, deleteBatch *pfirestore.BatchWriter, oldID, newID string) error {
	if _, err := copyBatch.Commit(ctx); err != nil {
		return err
	}
	if _, err := deleteBatch.Commit(ctx); err != nil {
		r.logger.Warn("rename committed the copy but not the delete; both slugs now resolve",
			zap.String("op", op),
			zap.String("old_id", oldID),
			zap.String("new_id", newID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// drain deletes every document in coll, re-querying between batches until
// the collection reads back empty.
func (r *CatalogRepository) drain(ctx context.Context, client *firestore.Client, coll *firestore.CollectionRef, op string) error {
	for {
		refs, err := pfirestore.ScanRefs(ctx, coll.Query.Limit(r.batchLimit), op)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return nil
		}
		batch := r.batch(client)
		for _, ref := range refs {
			batch.Delete(ref)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return err
		}
	}
}

func (r *CatalogRepository) requireExists(ctx context.Context, ref *firestore.DocumentRef, op, what string) error {
	exists, err := pfirestore.DocExists(ctx, ref, op)
	if err != nil {
		return err
	}
	if !exists {
		return pfirestore.NotFoundError(op, fmt.Errorf("%s not found", what))
	}
	return nil
}
