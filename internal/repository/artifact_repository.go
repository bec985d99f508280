package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"

	"github.com/anime-shed/invoice-inspector-go/internal/storage"
	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

// BlobArtifactRepository encodes artifacts as PNG into an ObjectStore
type BlobArtifactRepository struct {
	store storage.ObjectStore
}

// NewBlobArtifactRepository creates an artifact repository over store
func NewBlobArtifactRepository(store storage.ObjectStore) ArtifactRepository {
	return &BlobArtifactRepository{store: store}
}

// ArtifactKey names the stored object for one report and analyzer
func ArtifactKey(reportID string, component models.Component) string {
	return fmt.Sprintf("%s_%s.png", reportID, component)
}

func (r *BlobArtifactRepository) SaveArtifact(ctx context.Context, reportID string, component models.Component, img image.Image) (string, error) {
	if img == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}
	return r.store.Put(ctx, ArtifactKey(reportID, component), buf.Bytes(), "image/png")
}

func (r *BlobArtifactRepository) GetArtifact(ctx context.Context, key string) (*storage.Object, error) {
	obj, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	return obj, nil
}

// discardArtifactRepository keeps nothing
type discardArtifactRepository struct{}

// NewDiscardArtifactRepository creates a repository that drops every artifact
func NewDiscardArtifactRepository() ArtifactRepository {
	return discardArtifactRepository{}
}

func (discardArtifactRepository) SaveArtifact(context.Context, string, models.Component, image.Image) (string, error) {
	return "", nil
}

func (discardArtifactRepository) GetArtifact(context.Context, string) (*storage.Object, error) {
	return nil, ErrArtifactNotFound
}
