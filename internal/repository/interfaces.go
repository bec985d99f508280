package repository

import (
	"context"
	"image"

	"github.com/anime-shed/invoice-inspector-go/internal/storage"
	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

// InvoiceRepository defines access to remote invoice documents
type InvoiceRepository interface {
	// FetchInvoice downloads an invoice from a URL
	FetchInvoice(ctx context.Context, invoiceURL string) (*storage.Object, error)

	// ValidateInvoiceURL validates if the provided URL is acceptable
	ValidateInvoiceURL(invoiceURL string) error
}

// ArtifactRepository persists review byproducts of a scoring run
type ArtifactRepository interface {
	// SaveArtifact stores the raster produced by one analyzer and returns its reference.
	// An empty reference means the artifact was not kept.
	SaveArtifact(ctx context.Context, reportID string, component models.Component, img image.Image) (string, error)

	// GetArtifact loads a stored artifact by key
	GetArtifact(ctx context.Context, key string) (*storage.Object, error)
}
