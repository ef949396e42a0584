package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stayline-supplies/api/internal/services"
)

// EnquiryHandlers accepts storefront contact, newsletter, and product
// enquiry submissions.
type EnquiryHandlers struct {
	enquiries services.EnquiryService
}

// NewEnquiryHandlers constructs the enquiry handlers.
func NewEnquiryHandlers(enquiries services.EnquiryService) (*EnquiryHandlers, error) {
	if enquiries == nil {
		return nil, errors.New("enquiry handlers: enquiry service is required")
	}
	return &EnquiryHandlers{enquiries: enquiries}, nil
}

// Routes registers enquiry endpoints against the provided router.
func (h *EnquiryHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submit)
}

type enquiryRequest struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Message    string `json:"message"`
	ProductRef string `json:"productRef"`
}

// submit accepts the enquiry and returns 202: delivery to the sales inbox
// happens after the submission has been durably stored.
func (h *EnquiryHandlers) submit(w http.ResponseWriter, r *http.Request) {
	var req enquiryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	enquiry, err := h.enquiries.SubmitEnquiry(r.Context(), services.EnquiryCommand{
		Kind:       req.Kind,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Message:    req.Message,
		ProductRef: req.ProductRef,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":         enquiry.ID,
		"kind":       enquiry.Kind,
		"receivedAt": enquiry.ReceivedAt.Format(time.RFC3339),
	})
}
