package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/stayline-supplies/api/internal/domain"
	"github.com/stayline-supplies/api/internal/platform/jobs"
	"github.com/stayline-supplies/api/internal/platform/mail"
	"github.com/stayline-supplies/api/internal/repositories"
)

// ErrEnquiryInvalidInput indicates a storefront submission failed validation.
var ErrEnquiryInvalidInput = errors.New("enquiry service: invalid input")

// EnquiryServiceDeps bundles constructor inputs for the enquiry service.
type EnquiryServiceDeps struct {
	Enquiries repositories.EnquiryRepository
	Mailer    mail.Sender
	Publisher jobs.EnquiryPublisher
	Recipient string
	Sanitizer *bluemonday.Policy
	Clock     func() time.Time
	Entropy   io.Reader
	Logger    *zap.Logger
}

type enquiryService struct {
	repo      repositories.EnquiryRepository
	mailer    mail.Sender
	publisher jobs.EnquiryPublisher
	recipient string
	sanitizer *bluemonday.Policy
	clock     func() time.Time
	entropy   io.Reader
	logger    *zap.Logger
}

// NewEnquiryService constructs the enquiry service with the supplied
// dependencies. The mailer and publisher are optional; a missing one turns
// that forwarding step into a no-op.
func NewEnquiryService(deps EnquiryServiceDeps) (EnquiryService, error) {
	if deps.Enquiries == nil {
		return nil, errors.New("enquiry service: enquiry repository is required")
	}
	if deps.Mailer != nil && strings.TrimSpace(deps.Recipient) == "" {
		return nil, errors.New("enquiry service: recipient is required when a mailer is configured")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = bluemonday.StrictPolicy()
	}
	entropy := deps.Entropy
	if entropy == nil {
		entropy = ulid.DefaultEntropy()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &enquiryService{
		repo:      deps.Enquiries,
		mailer:    deps.Mailer,
		publisher: deps.Publisher,
		recipient: strings.TrimSpace(deps.Recipient),
		sanitizer: sanitizer,
		clock:     func() time.Time { return clock().UTC() },
		entropy:   entropy,
		logger:    logger,
	}, nil
}

// SubmitEnquiry validates, sanitises, and persists a storefront submission,
// then forwards it to the sales inbox and publishes an event. Persistence is
// the source of truth: a failed mail or publish is logged and does not fail
// the submission.
func (s *enquiryService) SubmitEnquiry(ctx context.Context, cmd EnquiryCommand) (domain.Enquiry, error) {
	enquiry, err := s.buildEnquiry(cmd)
	if err != nil {
		return domain.Enquiry{}, err
	}

	if err := s.repo.Save(ctx, enquiry); err != nil {
		return domain.Enquiry{}, err
	}

	if s.mailer != nil {
		result, err := s.mailer.Send(ctx, s.recipient, subjectFor(enquiry), bodyFor(enquiry))
		if err != nil || !result.Success {
			s.logger.Warn("enquiry stored but mail forwarding failed",
				zap.String("enquiry_id", enquiry.ID),
				zap.String("kind", enquiry.Kind),
				zap.Error(err),
			)
		}
	}

	if s.publisher != nil {
		event := jobs.EnquiryEvent{
			EnquiryID:  enquiry.ID,
			Kind:       enquiry.Kind,
			Email:      enquiry.Email,
			ProductRef: enquiry.ProductRef,
			ReceivedAt: enquiry.ReceivedAt.Format(time.RFC3339),
		}
		if _, err := s.publisher.PublishEnquiry(ctx, event); err != nil {
			s.logger.Warn("enquiry stored but event publish failed",
				zap.String("enquiry_id", enquiry.ID),
				zap.Error(err),
			)
		}
	}

	return enquiry, nil
}

func (s *enquiryService) ListEnquiries(ctx context.Context, limit int) ([]domain.Enquiry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

func (s *enquiryService) buildEnquiry(cmd EnquiryCommand) (domain.Enquiry, error) {
	kind := strings.ToLower(strings.TrimSpace(cmd.Kind))
	switch kind {
	case domain.EnquiryKindContact, domain.EnquiryKindNewsletter, domain.EnquiryKindProduct:
	default:
		return domain.Enquiry{}, fmt.Errorf("%w: unknown kind %q", ErrEnquiryInvalidInput, cmd.Kind)
	}

	email := strings.TrimSpace(cmd.Email)
	if email == "" {
		return domain.Enquiry{}, fmt.Errorf("%w: email is required", ErrEnquiryInvalidInput)
	}
	if _, err := netmail.ParseAddress(email); err != nil {
		return domain.Enquiry{}, fmt.Errorf("%w: malformed email address", ErrEnquiryInvalidInput)
	}

	enquiry := domain.Enquiry{
		Kind:       kind,
		Name:       s.clean(cmd.Name),
		Email:      email,
		Phone:      s.clean(cmd.Phone),
		Message:    s.clean(cmd.Message),
		ProductRef: s.clean(cmd.ProductRef),
		ReceivedAt: s.clock(),
	}

	switch kind {
	case domain.EnquiryKindContact:
		if enquiry.Message == "" {
			return domain.Enquiry{}, fmt.Errorf("%w: message is required", ErrEnquiryInvalidInput)
		}
	case domain.EnquiryKindProduct:
		if enquiry.ProductRef == "" {
			return domain.Enquiry{}, fmt.Errorf("%w: product reference is required", ErrEnquiryInvalidInput)
		}
	}

	enquiry.ID = ulid.MustNew(ulid.Timestamp(enquiry.ReceivedAt), s.entropy).String()
	return enquiry, nil
}

// clean strips markup and trims the submitted value. Submissions come from
// an open web form, so everything user-supplied passes through the policy.
func (s *enquiryService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func subjectFor(enquiry domain.Enquiry) string {
	switch enquiry.Kind {
	case domain.EnquiryKindNewsletter:
		return "Newsletter signup"
	case domain.EnquiryKindProduct:
		return fmt.Sprintf("Product enquiry: %s", enquiry.ProductRef)
	default:
		return "Website enquiry"
	}
}

func bodyFor(enquiry domain.Enquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Enquiry %s (%s)\n", enquiry.ID, enquiry.Kind)
	fmt.Fprintf(&b, "Received: %s\n\n", enquiry.ReceivedAt.Format(time.RFC3339))
	if enquiry.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", enquiry.Name)
	}
	fmt.Fprintf(&b, "Email: %s\n", enquiry.Email)
	if enquiry.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", enquiry.Phone)
	}
	if enquiry.ProductRef != "" {
		fmt.Fprintf(&b, "Product: %s\n", enquiry.ProductRef)
	}
	if enquiry.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", enquiry.Message)
	}
	return b.String()
}
