package repository

import (
	"context"

	"github.com/anime-shed/invoice-inspector-go/internal/storage"
)

// URLValidator is satisfied by pkg/validation.URLValidator
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// HTTPInvoiceRepository implements InvoiceRepository using an InvoiceFetcher
type HTTPInvoiceRepository struct {
	fetcher   storage.InvoiceFetcher
	validator URLValidator
}

// NewHTTPInvoiceRepository creates a new HTTP-based invoice repository
func NewHTTPInvoiceRepository(fetcher storage.InvoiceFetcher, validator URLValidator) InvoiceRepository {
	return &HTTPInvoiceRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// FetchInvoice retrieves an invoice from a URL
func (r *HTTPInvoiceRepository) FetchInvoice(ctx context.Context, invoiceURL string) (*storage.Object, error) {
	return r.fetcher.Fetch(ctx, invoiceURL)
}

// ValidateInvoiceURL validates if the provided URL is acceptable
func (r *HTTPInvoiceRepository) ValidateInvoiceURL(invoiceURL string) error {
	if invoiceURL == "" {
		return ErrInvalidInvoiceURL
	}
	if r.validator == nil {
		return nil
	}
	return r.validator.ValidateURL(invoiceURL)
}
