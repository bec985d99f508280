package models

import (
	"image"

	"github.com/shopspring/decimal"
)

// Label is the coarse per-analyzer classification of a sub-score
type Label string

const (
	LabelClean      Label = "CLEAN"
	LabelSuspicious Label = "SUSPICIOUS"
	LabelHigh       Label = "HIGH"
)

// LabelForScore maps a 0-100 sub-score onto a Label
func LabelForScore(score float64) Label {
	switch {
	case score >= 65:
		return LabelHigh
	case score >= 40:
		return LabelSuspicious
	default:
		return LabelClean
	}
}

// Component names one of the three analyzers
type Component string

const (
	ComponentELA      Component = "ela"
	ComponentMetadata Component = "metadata"
	ComponentOCR      Component = "ocr"
)

// SubScoreResult is the output of a single analyzer invocation.
// Evidence holds one of ELAEvidence, MetadataEvidence or TextEvidence.
type SubScoreResult struct {
	Score       float64     `json:"score"`
	Label       Label       `json:"label"`
	Verdict     string      `json:"verdict"`
	Evidence    interface{} `json:"evidence"`
	ArtifactRef string      `json:"artifact_ref,omitempty"`

	// Artifact is a review byproduct (the ELA visualization); never serialized
	Artifact image.Image `json:"-"`
}

// ELAEvidence captures the difference-map statistics used for scoring
type ELAEvidence struct {
	BrightnessMean     float64 `json:"brightness_mean"`
	BrightnessVariance float64 `json:"brightness_variance"`
	MaxPixelDifference int     `json:"max_pixel_difference"`
	JPEGQuality        int     `json:"jpeg_quality"`
	Width              int     `json:"width"`
	Height             int     `json:"height"`
}

// Flag is a single triggered scoring rule
type Flag struct {
	Name    string  `json:"name"`
	Message string  `json:"message"`
	Points  float64 `json:"points"`
}

// MetadataEvidence is the audit trail of the metadata analyzer
type MetadataEvidence struct {
	Present       bool              `json:"present"`
	Flags         []Flag            `json:"flags"`
	MissingFields []string          `json:"missing_fields,omitempty"`
	Software      string            `json:"software,omitempty"`
	Fields        map[string]string `json:"fields"`
}

// AmountToken is one monetary value found in OCR text, in order of appearance
type AmountToken struct {
	Raw    string          `json:"raw"`
	Value  decimal.Decimal `json:"value"`
	Offset int             `json:"offset"`
}

// OCRQuality compares OCR output against caller supplied reference text
type OCRQuality struct {
	ExpectedText string  `json:"expected_text"`
	WER          float64 `json:"word_error_rate"`
	CER          float64 `json:"character_error_rate"`
}

// TextEvidence is the audit trail of the text consistency analyzer
type TextEvidence struct {
	Flags          []Flag            `json:"flags"`
	Amounts        []AmountToken     `json:"amounts"`
	DistinctCount  int               `json:"distinct_count"`
	Duplicates     []decimal.Decimal `json:"duplicates,omitempty"`
	TotalCandidate *decimal.Decimal  `json:"total_candidate,omitempty"`
	LineItemSum    *decimal.Decimal  `json:"line_item_sum,omitempty"`
	MismatchRatio  *float64          `json:"mismatch_ratio,omitempty"`
	Tolerance      float64           `json:"tolerance"`
	ExtractedText  string            `json:"extracted_text"`
	EngineError    string            `json:"engine_error,omitempty"`
	Quality        *OCRQuality       `json:"quality,omitempty"`
}

// Verdict is the final categorical outcome of an invoice
type Verdict string

const (
	VerdictLow    Verdict = "LOW RISK"
	VerdictMedium Verdict = "MEDIUM RISK"
	VerdictHigh   Verdict = "HIGH RISK"
)

// ComponentScores are the three sub-scores fed into the aggregate
type ComponentScores struct {
	ELA      float64 `json:"ela"`
	Metadata float64 `json:"metadata"`
	OCR      float64 `json:"ocr"`
}

// AggregateResult is the weighted blend of the three sub-scores
type AggregateResult struct {
	FinalScore      float64         `json:"final_score"`
	Verdict         Verdict         `json:"verdict"`
	Assessment      string          `json:"assessment"`
	ComponentScores ComponentScores `json:"component_scores"`
}
