package container

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/anime-shed/invoice-inspector-go/internal/config"
	"github.com/anime-shed/invoice-inspector-go/internal/factory"
	"github.com/anime-shed/invoice-inspector-go/internal/logger"
	"github.com/anime-shed/invoice-inspector-go/internal/observer"
	"github.com/anime-shed/invoice-inspector-go/internal/ocr"
	"github.com/anime-shed/invoice-inspector-go/internal/repository"
	"github.com/anime-shed/invoice-inspector-go/internal/service"
	"github.com/anime-shed/invoice-inspector-go/internal/transport"
	"github.com/anime-shed/invoice-inspector-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config             *config.Config
	events             *observer.EventPublisher
	metrics            *observer.MetricsObserver
	invoiceRepository  repository.InvoiceRepository
	artifactRepository repository.ArtifactRepository
	scoringService     service.ScoringService
	handler            http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	engine := ocr.NewTesseractEngine(strings.Split(cfg.OCRLanguage, "+")...)
	components := factory.NewComponentFactory(cfg, engine)

	artifactRepository, err := components.StorageFactory.CreateArtifactRepository(factory.StorageType(cfg.ArtifactBackend))
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact repository: %w", err)
	}

	urlValidator := validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedURLHosts)
	invoiceRepository := repository.NewHTTPInvoiceRepository(components.StorageFactory.CreateInvoiceFetcher(), urlValidator)

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	scoringService := service.NewScoringService(
		invoiceRepository,
		artifactRepository,
		components.AnalyzerFactory.CreateAnalyzers(),
		events,
		service.Settings{
			MaxImageWidth:   cfg.MaxImageWidth,
			AnalysisTimeout: cfg.AnalysisTimeout,
		},
	)

	handler := transport.NewHandler(transport.Dependencies{
		Service:         scoringService,
		Artifacts:       artifactRepository,
		Metrics:         metrics,
		UploadValidator: validation.NewUploadValidator(cfg.MaxRequestBodySize),
		EngineVersion:   ocr.Version(),
	}, cfg)

	return &Container{
		config:             cfg,
		events:             events,
		metrics:            metrics,
		invoiceRepository:  invoiceRepository,
		artifactRepository: artifactRepository,
		scoringService:     scoringService,
		handler:            handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// ScoringService returns the invoice scoring service
func (c *Container) ScoringService() service.ScoringService {
	return c.scoringService
}

// Metrics returns the scoring metrics collector
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Close waits for pending event notifications
func (c *Container) Close() {
	c.events.Flush()
}
