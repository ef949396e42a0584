package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/stayline-supplies/api/internal/domain"
	pfirestore "github.com/stayline-supplies/api/internal/platform/firestore"
)

const collEnquiries = "enquiries"

// EnquiryRepository stores storefront enquiries in a flat collection keyed by
// their ULID.
type EnquiryRepository struct {
	provider *pfirestore.Provider
}

// NewEnquiryRepository constructs a Firestore-backed enquiry repository.
func NewEnquiryRepository(provider *pfirestore.Provider) (*EnquiryRepository, error) {
	if provider == nil {
		return nil, errors.New("enquiry repository requires firestore provider")
	}
	return &EnquiryRepository{provider: provider}, nil
}

// Save persists a new enquiry. Ids are ULIDs minted by the service, so a
// collision is a caller bug and surfaces as a conflict.
func (r *EnquiryRepository) Save(ctx context.Context, enquiry domain.Enquiry) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return fmt.Errorf("enquiry repository: firestore client: %w", err)
	}
	ref := client.Collection(collEnquiries).Doc(enquiry.ID)
	return pfirestore.CreateDoc(ctx, ref, enquiry, "enquiry.save")
}

// List returns the most recent enquiries, newest first.
func (r *EnquiryRepository) List(ctx context.Context, limit int) ([]domain.Enquiry, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("enquiry repository: firestore client: %w", err)
	}
	query := client.Collection(collEnquiries).OrderBy("receivedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return pfirestore.ScanQuery[domain.Enquiry](ctx, query, "enquiry.list")
}
