package analyzer

import "github.com/anime-shed/invoice-inspector-go/pkg/models"

// Blend weights; they sum to 1.0
const (
	WeightELA      = 0.4
	WeightMetadata = 0.3
	WeightOCR      = 0.3
)

// Verdict thresholds (lower bound inclusive)
const (
	MediumRiskThreshold = 40.0
	HighRiskThreshold   = 65.0
)

// boundaryEpsilon absorbs float noise in the blend at exact band boundaries
const boundaryEpsilon = 1e-9

// Aggregate blends the three sub-scores into the final score and verdict.
// The verdict is taken from the unrounded blend; only FinalScore is rounded.
func Aggregate(ela, metadata, ocr float64) models.AggregateResult {
	raw := clampScore(WeightELA*ela + WeightMetadata*metadata + WeightOCR*ocr)
	verdict, assessment := VerdictForScore(raw + boundaryEpsilon)
	return models.AggregateResult{
		FinalScore: round2(raw),
		Verdict:    verdict,
		Assessment: assessment,
		ComponentScores: models.ComponentScores{
			ELA:      ela,
			Metadata: metadata,
			OCR:      ocr,
		},
	}
}

// VerdictForScore maps a final score onto its verdict band and assessment
func VerdictForScore(score float64) (models.Verdict, string) {
	switch {
	case score >= HighRiskThreshold:
		return models.VerdictHigh, "Likely Tampered"
	case score >= MediumRiskThreshold:
		return models.VerdictMedium, "Requires Review"
	default:
		return models.VerdictLow, "Appears Authentic"
	}
}
