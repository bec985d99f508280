package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/invoice-inspector-go/internal/analyzer"
	"github.com/anime-shed/invoice-inspector-go/internal/config"
	apperrors "github.com/anime-shed/invoice-inspector-go/internal/errors"
	"github.com/anime-shed/invoice-inspector-go/internal/logger"
	"github.com/anime-shed/invoice-inspector-go/internal/observer"
	"github.com/anime-shed/invoice-inspector-go/internal/repository"
	"github.com/anime-shed/invoice-inspector-go/internal/service"
	"github.com/anime-shed/invoice-inspector-go/internal/storage"
	"github.com/anime-shed/invoice-inspector-go/pkg/models"
	"github.com/anime-shed/invoice-inspector-go/pkg/validation"
)

// Dependencies are the collaborators of the HTTP handler
type Dependencies struct {
	Service         service.ScoringService
	Artifacts       repository.ArtifactRepository
	Metrics         *observer.MetricsObserver
	UploadValidator *validation.UploadValidator
	EngineVersion   string
}

func NewHandler(deps Dependencies, cfg *config.Config) http.Handler {
	if deps.UploadValidator == nil {
		deps.UploadValidator = validation.NewUploadValidator(cfg.MaxRequestBodySize)
	}

	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck(deps.EngineVersion))
	r.POST("/analyze", analyzeUpload(deps, cfg))
	r.POST("/analyze/url", analyzeURL(deps, cfg))
	r.GET("/stats", stats(deps.Metrics))
	r.GET("/artifacts/*key", serveArtifact(deps.Artifacts))

	return r
}

func analyzeUpload(deps Dependencies, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		if c.Request.ContentLength > cfg.MaxRequestBodySize {
			respondError(c, http.StatusRequestEntityTooLarge, "upload too large",
				fmt.Errorf("request body of %d bytes exceeds %d", c.Request.ContentLength, cfg.MaxRequestBodySize))
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				respondError(c, http.StatusRequestEntityTooLarge, "upload too large", err)
				return
			}
			respondError(c, http.StatusBadRequest, "no file uploaded", err)
			return
		}

		if err := deps.UploadValidator.ValidateUpload(fileHeader.Filename, fileHeader.Size); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid upload", err)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "unreadable upload", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondError(c, http.StatusBadRequest, "unreadable upload", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"filename":   fileHeader.Filename,
			"size_bytes": len(data),
		}).Debug("Scoring uploaded invoice")

		report, err := deps.Service.ScoreUpload(ctx, data, fileHeader.Filename, c.PostForm("expected_text"))
		if err != nil {
			respondError(c, determineStatusCode(err), "invoice scoring failed", err)
			return
		}

		logCompleted(c, startTime, report)
		c.JSON(http.StatusOK, report)
	}
}

func analyzeURL(deps Dependencies, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.URLAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		report, err := deps.Service.ScoreURL(ctx, req.URL, req.ExpectedText)
		if err != nil {
			respondError(c, determineStatusCode(err), "invoice scoring failed", err)
			return
		}

		logCompleted(c, startTime, report)
		c.JSON(http.StatusOK, report)
	}
}

func stats(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func serveArtifact(artifacts repository.ArtifactRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if artifacts == nil || key == "" {
			err := apperrors.NewNotFoundError("artifact not found", repository.ErrArtifactNotFound)
			respondError(c, err.StatusCode, "artifact lookup failed", err)
			return
		}

		obj, err := artifacts.GetArtifact(c.Request.Context(), key)
		if err != nil {
			err = classifyArtifactError(err)
			respondError(c, determineStatusCode(err), "artifact lookup failed", err)
			return
		}
		c.Data(http.StatusOK, obj.ContentType, obj.Data)
	}
}

// classifyArtifactError maps artifact store failures onto application errors
func classifyArtifactError(err error) error {
	if errors.Is(err, repository.ErrArtifactNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return apperrors.NewNotFoundError("artifact not found", err)
	}
	return apperrors.NewNetworkError("artifact unavailable", err)
}

func healthCheck(engineVersion string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "available",
			"version":    "1.0.0",
			"ocr_engine": engineVersion,
			"time":       time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func logCompleted(c *gin.Context, startTime time.Time, report *models.ScoreReport) {
	logger.WithFields(logrus.Fields{
		"report_id":          report.ID,
		"path":               c.Request.URL.Path,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
		"final_score":        report.FinalScore,
		"verdict":            report.Verdict,
	}).Info("Invoice scoring completed successfully")
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"ip":          c.ClientIP(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	var componentErr *analyzer.ComponentError
	if errors.As(err, &componentErr) {
		resp.Component = string(componentErr.Component)
	}

	// Log the error with context
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"component":   resp.Component,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		entry.Warn("Resource not found")
	} else {
		entry.Error("Request failed")
	}

	c.AbortWithStatusJSON(code, resp)
}
