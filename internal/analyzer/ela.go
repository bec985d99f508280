package analyzer

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

const (
	verdictNoCompressionArtifacts = "SUSPICIOUS - No compression artifacts detected"
	zeroDifferenceScore           = 50.0
)

// jpegRecompressor round-trips through the JPEG codec in memory
type jpegRecompressor struct{}

// NewJPEGRecompressor creates the production recompressor
func NewJPEGRecompressor() Recompressor {
	return jpegRecompressor{}
}

func (jpegRecompressor) Recompress(img image.Image, quality int) (image.Image, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	decoded, err := imaging.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("jpeg decode: %w", err)
	}
	return decoded, nil
}

// elaAnalyzer implements CompressionAnalyzer
type elaAnalyzer struct {
	quality      int
	recompressor Recompressor
	calculator   DifferenceCalculator
}

// NewCompressionAnalyzer creates an ELA analyzer. A nil recompressor selects
// the in-memory JPEG codec.
func NewCompressionAnalyzer(opts Options, recompressor Recompressor) CompressionAnalyzer {
	if recompressor == nil {
		recompressor = NewJPEGRecompressor()
	}
	return &elaAnalyzer{
		quality:      opts.JPEGQuality,
		recompressor: recompressor,
		calculator:   NewDifferenceCalculator(),
	}
}

// Analyze re-encodes the image, measures the difference map and scores it
func (a *elaAnalyzer) Analyze(img image.Image) (SubScoreResult, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return SubScoreResult{}, componentError(models.ComponentELA, ErrEmptyImage)
	}

	original := toOpaqueNRGBA(img)
	recompressed, err := a.recompressor.Recompress(original, a.quality)
	if err != nil {
		return SubScoreResult{}, componentError(models.ComponentELA, err)
	}
	if recompressed.Bounds().Dx() != original.Bounds().Dx() || recompressed.Bounds().Dy() != original.Bounds().Dy() {
		return SubScoreResult{}, componentError(models.ComponentELA,
			fmt.Errorf("recompressed size %v differs from original %v", recompressed.Bounds().Size(), original.Bounds().Size()))
	}

	diff, maxDiff := a.calculator.Difference(original, recompressed)
	visualization := scaleDifference(diff, maxDiff)
	mean, variance := a.calculator.Statistics(visualization)

	evidence := models.ELAEvidence{
		BrightnessMean:     mean,
		BrightnessVariance: variance,
		MaxPixelDifference: maxDiff,
		JPEGQuality:        a.quality,
		Width:              bounds.Dx(),
		Height:             bounds.Dy(),
	}

	score := scoreELA(evidence)
	result := SubScoreResult{
		Score:    score,
		Label:    models.LabelForScore(score),
		Verdict:  riskVerdict(score, "ELA"),
		Evidence: evidence,
		Artifact: visualization,
	}
	if maxDiff == 0 {
		result.Label = models.LabelSuspicious
		result.Verdict = verdictNoCompressionArtifacts
	}
	return result, nil
}

// scoreELA applies the brightness/variance policy. A lossless round trip
// cannot be analyzed and is scored as ambiguous.
func scoreELA(e models.ELAEvidence) float64 {
	if e.MaxPixelDifference == 0 {
		return zeroDifferenceScore
	}
	brightness := (e.BrightnessMean / 255.0) * 50.0
	variance := (e.BrightnessVariance / 1000.0) * 50.0
	return round2(clampScore(brightness + variance))
}

// riskVerdict produces the per-method human readable verdict
func riskVerdict(score float64, method string) string {
	switch {
	case score >= 65:
		return fmt.Sprintf("HIGH %s RISK", method)
	case score >= 40:
		return fmt.Sprintf("MEDIUM %s RISK", method)
	default:
		return fmt.Sprintf("LOW %s RISK", method)
	}
}
