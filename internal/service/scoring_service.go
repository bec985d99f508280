package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/invoice-inspector-go/internal/analyzer"
	"github.com/anime-shed/invoice-inspector-go/internal/document"
	apperrors "github.com/anime-shed/invoice-inspector-go/internal/errors"
	"github.com/anime-shed/invoice-inspector-go/internal/logger"
	"github.com/anime-shed/invoice-inspector-go/internal/observer"
	"github.com/anime-shed/invoice-inspector-go/internal/repository"
	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

// ScoringService defines the invoice tampering risk operations
type ScoringService interface {
	// ScoreUpload scores invoice bytes received directly from a client
	ScoreUpload(ctx context.Context, data []byte, filename string, expectedText string) (*models.ScoreReport, error)

	// ScoreURL fetches a remote invoice and scores it
	ScoreURL(ctx context.Context, invoiceURL string, expectedText string) (*models.ScoreReport, error)

	// ValidateInvoiceURL validates a remote invoice URL
	ValidateInvoiceURL(invoiceURL string) error
}

// Analyzers bundles the three independent analyzers of the pipeline
type Analyzers struct {
	Compression analyzer.CompressionAnalyzer
	Metadata    analyzer.MetadataAnalyzer
	Text        analyzer.TextAnalyzer
}

// Settings are the service level limits
type Settings struct {
	MaxImageWidth   int
	AnalysisTimeout time.Duration
}

type scoringService struct {
	invoiceRepo  repository.InvoiceRepository
	artifactRepo repository.ArtifactRepository
	analyzers    Analyzers
	events       observer.Subject
	settings     Settings
}

// NewScoringService creates the scoring service. events may be nil.
func NewScoringService(
	invoiceRepository repository.InvoiceRepository,
	artifactRepository repository.ArtifactRepository,
	analyzers Analyzers,
	events observer.Subject,
	settings Settings,
) ScoringService {
	if artifactRepository == nil {
		artifactRepository = repository.NewDiscardArtifactRepository()
	}
	return &scoringService{
		invoiceRepo:  invoiceRepository,
		artifactRepo: artifactRepository,
		analyzers:    analyzers,
		events:       events,
		settings:     settings,
	}
}

// ScoreUpload scores invoice bytes received directly from a client
func (s *scoringService) ScoreUpload(ctx context.Context, data []byte, filename string, expectedText string) (*models.ScoreReport, error) {
	return s.score(ctx, data, models.InvoiceSource{Filename: filename}, expectedText)
}

// ScoreURL fetches a remote invoice and scores it
func (s *scoringService) ScoreURL(ctx context.Context, invoiceURL string, expectedText string) (*models.ScoreReport, error) {
	if err := s.ValidateInvoiceURL(invoiceURL); err != nil {
		return nil, apperrors.NewValidationError("invalid invoice URL", err)
	}

	start := time.Now()
	obj, err := s.invoiceRepo.FetchInvoice(ctx, invoiceURL)
	if err != nil {
		s.publish(ctx, observer.ScoringEvent{
			EventType:      observer.InvoiceFetchFailed,
			Source:         invoiceURL,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("invoice fetch timed out", err)
		}
		return nil, apperrors.NewNetworkError("failed to fetch invoice", err)
	}
	s.publish(ctx, observer.ScoringEvent{
		EventType:      observer.InvoiceFetched,
		Source:         invoiceURL,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"size_bytes": len(obj.Data)},
	})

	return s.score(ctx, obj.Data, models.InvoiceSource{Filename: obj.Name, URL: invoiceURL}, expectedText)
}

// ValidateInvoiceURL validates a remote invoice URL
func (s *scoringService) ValidateInvoiceURL(invoiceURL string) error {
	if s.invoiceRepo == nil {
		return repository.ErrRepositoryUnavailable
	}
	return s.invoiceRepo.ValidateInvoiceURL(invoiceURL)
}

func (s *scoringService) score(ctx context.Context, data []byte, source models.InvoiceSource, expectedText string) (*models.ScoreReport, error) {
	start := time.Now()
	reportID := uuid.NewString()
	sourceName := source.URL
	if sourceName == "" {
		sourceName = source.Filename
	}

	s.publish(ctx, observer.ScoringEvent{EventType: observer.ScoringStarted, ReportID: reportID, Source: sourceName})

	doc, err := document.Load(data, source.Filename, s.settings.MaxImageWidth)
	if err != nil {
		message := "invoice cannot be analyzed"
		if errors.Is(err, document.ErrNoPageImage) {
			message = "invoice cannot be analyzed: PDF page 1 has no embedded raster image (text-only PDFs are not supported)"
		}
		appErr := apperrors.NewUnanalyzableError(message, err)
		s.fail(ctx, reportID, sourceName, start, "", appErr)
		return nil, appErr
	}

	source.ContentType = doc.ContentType
	source.SizeBytes = len(doc.Data)
	source.IsPDF = doc.IsPDF()
	source.PageCount = doc.PageCount
	source.Width = doc.Width
	source.Height = doc.Height
	source.Downscaled = doc.Downscaled

	analysisCtx := ctx
	if s.settings.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		analysisCtx, cancel = context.WithTimeout(ctx, s.settings.AnalysisTimeout)
		defer cancel()
	}

	ela, metadata, ocr, err := s.runAnalyzers(analysisCtx, doc, expectedText)
	if err != nil {
		appErr, component := classifyAnalysisError(err)
		s.fail(ctx, reportID, sourceName, start, component, appErr)
		return nil, appErr
	}

	aggregate := analyzer.Aggregate(ela.Score, metadata.Score, ocr.Score)

	if ela.Artifact != nil {
		ref, err := s.artifactRepo.SaveArtifact(ctx, reportID, models.ComponentELA, ela.Artifact)
		if err != nil {
			logger.WithError(err).WithField("report_id", reportID).Warn("Failed to store ELA artifact")
			s.publish(ctx, observer.ScoringEvent{
				EventType:    observer.ArtifactFailed,
				ReportID:     reportID,
				Source:       sourceName,
				Component:    models.ComponentELA,
				ErrorMessage: err.Error(),
			})
		} else if ref != "" {
			ela.ArtifactRef = ref
			s.publish(ctx, observer.ScoringEvent{
				EventType: observer.ArtifactStored,
				ReportID:  reportID,
				Source:    sourceName,
				Component: models.ComponentELA,
				Success:   true,
				Metadata:  map[string]interface{}{"artifact_ref": ref},
			})
		}
	}

	elapsed := time.Since(start)
	report := &models.ScoreReport{
		ID:                reportID,
		Timestamp:         start.UTC().Format(time.RFC3339),
		FinalScore:        aggregate.FinalScore,
		Verdict:           aggregate.Verdict,
		Assessment:        aggregate.Assessment,
		ComponentScores:   aggregate.ComponentScores,
		Source:            source,
		ELA:               ela,
		Metadata:          metadata,
		OCR:               ocr,
		ProcessingTimeSec: elapsed.Seconds(),
	}

	s.publish(ctx, observer.ScoringEvent{
		EventType:      observer.ScoringCompleted,
		ReportID:       reportID,
		Source:         sourceName,
		ProcessingTime: elapsed,
		Success:        true,
		FinalScore:     report.FinalScore,
		Verdict:        report.Verdict,
	})
	return report, nil
}

// runAnalyzers fans the three analyzers out. The first failure cancels the others.
func (s *scoringService) runAnalyzers(ctx context.Context, doc *document.Document, expectedText string) (ela, metadata, ocr models.SubScoreResult, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		ela, err = s.analyzers.Compression.Analyze(doc.Image)
		return err
	})
	g.Go(func() error {
		if doc.IsPDF() {
			metadata = s.analyzers.Metadata.AnalyzeOutcome(analyzer.NoMetadata{Reason: "PDF input"})
			return nil
		}
		var err error
		metadata, err = s.analyzers.Metadata.Analyze(doc.Data)
		return err
	})
	g.Go(func() error {
		var err error
		ocr, err = s.analyzers.Text.Analyze(gctx, doc.Image, expectedText)
		return err
	})

	if err = g.Wait(); err != nil {
		return models.SubScoreResult{}, models.SubScoreResult{}, models.SubScoreResult{}, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.SubScoreResult{}, models.SubScoreResult{}, models.SubScoreResult{}, ctxErr
	}
	return ela, metadata, ocr, nil
}

// classifyAnalysisError maps a pipeline failure onto an application error and
// the analyzer responsible for it
func classifyAnalysisError(err error) (*apperrors.AppError, models.Component) {
	var component models.Component
	var componentErr *analyzer.ComponentError
	if errors.As(err, &componentErr) {
		component = componentErr.Component
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("invoice analysis timed out", err), component
	case errors.Is(err, context.Canceled):
		return apperrors.NewProcessingError("invoice analysis cancelled", err), component
	case component != "":
		return apperrors.NewProcessingError(string(component)+" analysis failed", err), component
	default:
		return apperrors.NewInternalError("invoice analysis failed", err), component
	}
}

func (s *scoringService) fail(ctx context.Context, reportID, source string, start time.Time, component models.Component, err error) {
	s.publish(ctx, observer.ScoringEvent{
		EventType:      observer.ScoringFailed,
		ReportID:       reportID,
		Source:         source,
		ProcessingTime: time.Since(start),
		Component:      component,
		ErrorMessage:   err.Error(),
	})
}

func (s *scoringService) publish(ctx context.Context, event observer.ScoringEvent) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(ctx, event)
}
