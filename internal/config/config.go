package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/anime-shed/invoice-inspector-go/internal/analyzer"
)

// Artifact storage backends
const (
	ArtifactBackendLocal = "local"
	ArtifactBackendAzure = "azure"
	ArtifactBackendNone  = "none"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	AllowedURLHosts    []string
	LogLevel           string

	// Scoring
	JPEGQuality   int
	SumTolerance  float64
	MedianKernel  int
	OCRLanguage   string
	MaxImageWidth int

	// Artifact persistence
	ArtifactBackend        string
	ArtifactDir            string
	ArtifactPublicPrefix   string
	AzureStorageAccount    string
	AzureStorageKey        string
	AzureArtifactContainer string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AnalyzerOptions maps the scoring settings onto analyzer options
func (c *Config) AnalyzerOptions() analyzer.Options {
	opts := analyzer.DefaultOptions().
		WithJPEGQuality(c.JPEGQuality).
		WithSumTolerance(c.SumTolerance).
		WithMedianKernel(c.MedianKernel).
		WithMaxImageWidth(c.MaxImageWidth)
	opts.OCRLanguage = c.OCRLanguage
	return opts
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding the real environment. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 16*1024*1024), // 16MB
		AllowedURLHosts:    parseListOrDefault("ALLOWED_URL_HOSTS", nil),
		LogLevel:           strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),

		JPEGQuality:   int(parseIntOrDefault("JPEG_QUALITY", 90)),
		SumTolerance:  parseFloatOrDefault("SUM_TOLERANCE", 0.15),
		MedianKernel:  int(parseIntOrDefault("MEDIAN_KERNEL", 3)),
		OCRLanguage:   getEnvOrDefault("OCR_LANGUAGE", "eng"),
		MaxImageWidth: int(parseIntOrDefault("MAX_IMAGE_WIDTH", 2000)),

		ArtifactBackend:        strings.ToLower(getEnvOrDefault("ARTIFACT_BACKEND", ArtifactBackendLocal)),
		ArtifactDir:            getEnvOrDefault("ARTIFACT_DIR", "static/results"),
		ArtifactPublicPrefix:   getEnvOrDefault("ARTIFACT_PUBLIC_PREFIX", "/artifacts"),
		AzureStorageAccount:    os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:        os.Getenv("AZURE_STORAGE_KEY"),
		AzureArtifactContainer: getEnvOrDefault("AZURE_ARTIFACT_CONTAINER", "ela-artifacts"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be within 1..100 (got %d)", c.JPEGQuality)
	}
	if c.SumTolerance <= 0 || c.SumTolerance >= 1 {
		return fmt.Errorf("SUM_TOLERANCE must be within (0,1) (got %g)", c.SumTolerance)
	}
	if c.MedianKernel < 1 || c.MedianKernel%2 == 0 {
		return fmt.Errorf("MEDIAN_KERNEL must be a positive odd number (got %d)", c.MedianKernel)
	}
	if c.MaxImageWidth < 0 {
		return fmt.Errorf("MAX_IMAGE_WIDTH must be >= 0 (got %d)", c.MaxImageWidth)
	}

	switch c.ArtifactBackend {
	case ArtifactBackendLocal:
		if strings.TrimSpace(c.ArtifactDir) == "" {
			return fmt.Errorf("ARTIFACT_DIR is required for the local artifact backend")
		}
	case ArtifactBackendAzure:
		if c.AzureStorageAccount == "" || c.AzureStorageKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required for the azure artifact backend")
		}
	case ArtifactBackendNone:
	default:
		return fmt.Errorf("invalid ARTIFACT_BACKEND: %q (want local, azure or none)", c.ArtifactBackend)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
