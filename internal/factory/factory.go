package factory

import (
	"fmt"

	"github.com/anime-shed/invoice-inspector-go/internal/analyzer"
	"github.com/anime-shed/invoice-inspector-go/internal/config"
	"github.com/anime-shed/invoice-inspector-go/internal/repository"
	"github.com/anime-shed/invoice-inspector-go/internal/service"
	"github.com/anime-shed/invoice-inspector-go/internal/storage"
)

// StorageType represents different artifact storage backends
type StorageType string

const (
	// LocalStorage writes artifacts to the local file system
	LocalStorage StorageType = StorageType(config.ArtifactBackendLocal)
	// AzureStorage writes artifacts to an Azure blob container
	AzureStorage StorageType = StorageType(config.ArtifactBackendAzure)
	// NoStorage discards artifacts
	NoStorage StorageType = StorageType(config.ArtifactBackendNone)
)

// AnalyzerFactory creates the three scoring analyzers
type AnalyzerFactory interface {
	CreateAnalyzers() service.Analyzers
}

// StorageFactory creates invoice fetchers and artifact repositories
type StorageFactory interface {
	CreateInvoiceFetcher() storage.InvoiceFetcher
	CreateArtifactRepository(storageType StorageType) (repository.ArtifactRepository, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	opts   analyzer.Options
	engine analyzer.OCREngine
}

// NewAnalyzerFactory creates a new analyzer factory. engine may be nil, in
// which case every invoice takes the no-text branch of the OCR analyzer.
func NewAnalyzerFactory(opts analyzer.Options, engine analyzer.OCREngine) AnalyzerFactory {
	return &analyzerFactory{opts: opts, engine: engine}
}

// CreateAnalyzers creates the compression, metadata and text analyzers
func (f *analyzerFactory) CreateAnalyzers() service.Analyzers {
	return service.Analyzers{
		Compression: analyzer.NewCompressionAnalyzer(f.opts, analyzer.NewJPEGRecompressor()),
		Metadata:    analyzer.NewMetadataAnalyzer(f.opts, analyzer.NewEXIFExtractor()),
		Text:        analyzer.NewTextAnalyzer(f.opts, f.engine),
	}
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateInvoiceFetcher creates the HTTP fetcher for remote invoices
func (f *storageFactory) CreateInvoiceFetcher() storage.InvoiceFetcher {
	return storage.NewHTTPInvoiceFetcher(
		storage.WithTimeout(f.cfg.ImageFetchTimeout),
		storage.WithMaxBytes(f.cfg.MaxRequestBodySize),
	)
}

// CreateArtifactRepository creates an artifact repository for the specified backend
func (f *storageFactory) CreateArtifactRepository(storageType StorageType) (repository.ArtifactRepository, error) {
	switch storageType {
	case LocalStorage:
		store, err := storage.NewLocalStorage(f.cfg.ArtifactDir, f.cfg.ArtifactPublicPrefix)
		if err != nil {
			return nil, err
		}
		return repository.NewBlobArtifactRepository(store), nil
	case AzureStorage:
		store, err := storage.NewAzureStorage(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.AzureArtifactContainer)
		if err != nil {
			return nil, fmt.Errorf("azure artifact storage: %w", err)
		}
		return repository.NewBlobArtifactRepository(store), nil
	case NoStorage:
		return repository.NewDiscardArtifactRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config, engine analyzer.OCREngine) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(cfg.AnalyzerOptions(), engine),
		StorageFactory:  NewStorageFactory(cfg),
	}
}
