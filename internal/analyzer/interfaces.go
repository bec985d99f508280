package analyzer

import (
	"context"
	"image"
)

// CompressionAnalyzer scores a decoded raster by Error Level Analysis
type CompressionAnalyzer interface {
	Analyze(img image.Image) (SubScoreResult, error)
}

// MetadataAnalyzer scores the embedded metadata of the original encoded bytes
type MetadataAnalyzer interface {
	Analyze(data []byte) (SubScoreResult, error)
	// AnalyzeOutcome scores an already extracted outcome
	AnalyzeOutcome(outcome MetadataOutcome) SubScoreResult
}

// TextAnalyzer scores the arithmetic consistency of amounts read by OCR
type TextAnalyzer interface {
	Analyze(ctx context.Context, img image.Image, expectedText string) (SubScoreResult, error)
	// AnalyzeText scores raw OCR output without running the engine
	AnalyzeText(text string, expectedText string) SubScoreResult
}

// Recompressor round-trips a raster through a lossy codec
type Recompressor interface {
	Recompress(img image.Image, quality int) (image.Image, error)
}

// MetadataExtractor reads the metadata record from encoded image bytes
type MetadataExtractor interface {
	Extract(data []byte) (MetadataOutcome, error)
}

// OCREngine converts a preprocessed raster to text
type OCREngine interface {
	Text(ctx context.Context, img *image.Gray) (string, error)
}

// DifferenceCalculator computes the ELA difference map and its statistics
type DifferenceCalculator interface {
	Difference(original, recompressed image.Image) (*image.NRGBA, int)
	Statistics(ela *image.NRGBA) (mean, variance float64)
}
