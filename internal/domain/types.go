package domain

import "time"

// Category is the top level of the catalog tree. Its document id is the slug
// of its title and it exclusively owns its subcategories.
type Category struct {
	ID       Slug   `firestore:"id" json:"id"`
	Title    string `firestore:"title" json:"title"`
	ImageURL string `firestore:"imageUrl" json:"imageUrl"`
}

// SubCategory sits under exactly one category and owns its product groups.
type SubCategory struct {
	ID        Slug      `firestore:"id" json:"id"`
	Name      string    `firestore:"name" json:"name"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}

// ProductGroup is a named product entry holding its purchasable variants
// inline. Variants are not separately addressable.
type ProductGroup struct {
	ID       Slug             `firestore:"id" json:"id"`
	Name     string           `firestore:"name" json:"name"`
	Variants []ProductVariant `firestore:"variants" json:"variants"`
}

// ProductVariant is embedded in its product group.
type ProductVariant struct {
	Title           string   `firestore:"title" json:"title"`
	Description     string   `firestore:"description" json:"description"`
	Price           float64  `firestore:"price" json:"price"`
	OrderCount      int      `firestore:"orderCount" json:"orderCount"`
	TotalOrderCount int      `firestore:"totalOrderCount" json:"totalOrderCount"`
	AvailableColors []string `firestore:"availableColors" json:"availableColors"`
	AvailableSizes  []string `firestore:"availableSizes" json:"availableSizes"`
	ImageURL        string   `firestore:"imageUrl" json:"imageUrl"`
	GalleryImages   []string `firestore:"galleryImages" json:"galleryImages"`
}

// MaxGalleryImages caps the gallery attached to a single variant. Enforced at
// the admin form boundary, not by the store.
const MaxGalleryImages = 4

// CategoryTree is a category with its resolved children, as consumed by the
// admin dashboard.
type CategoryTree struct {
	Category
	SubCategories []SubCategoryTree `json:"subCategories"`
}

// SubCategoryTree is a subcategory with its resolved product groups.
type SubCategoryTree struct {
	SubCategory
	Products []ProductGroup `json:"products"`
}

// FlatProduct is one denormalised row of the storefront read projection.
type FlatProduct struct {
	CategoryID       Slug             `json:"categoryId"`
	CategoryTitle    string           `json:"categoryTitle"`
	CategoryImage    string           `json:"categoryImage"`
	SubCategoryID    Slug             `json:"subcategoryId"`
	SubCategoryName  string           `json:"subcategoryName"`
	ProductGroupID   Slug             `json:"productGroupId"`
	ProductGroupName string           `json:"productGroupName"`
	Variants         []ProductVariant `json:"variants"`
}

// Enquiry captures a storefront contact, newsletter, or product enquiry
// submission before it is mailed onward.
type Enquiry struct {
	ID         string    `firestore:"id" json:"id"`
	Kind       string    `firestore:"kind" json:"kind"`
	Name       string    `firestore:"name" json:"name"`
	Email      string    `firestore:"email" json:"email"`
	Phone      string    `firestore:"phone" json:"phone"`
	Message    string    `firestore:"message" json:"message"`
	ProductRef string    `firestore:"productRef" json:"productRef"`
	ReceivedAt time.Time `firestore:"receivedAt" json:"receivedAt"`
}

// Enquiry kinds accepted by the storefront endpoints.
const (
	EnquiryKindContact    = "contact"
	EnquiryKindNewsletter = "newsletter"
	EnquiryKindProduct    = "product"
)
