package analyzer

import (
	"context"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
	"github.com/shopspring/decimal"

	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

const (
	insufficientAmountsPoints = 40.0
	duplicateAmountsPoints    = 20.0
	sumMismatchPoints         = 35.0
)

// textAnalyzer implements TextAnalyzer
type textAnalyzer struct {
	engine        OCREngine
	kernel        int
	tolerance     float64
	maxTextLength int
}

// NewTextAnalyzer creates an OCR amount consistency analyzer
func NewTextAnalyzer(opts Options, engine OCREngine) TextAnalyzer {
	return &textAnalyzer{
		engine:        engine,
		kernel:        opts.MedianKernel,
		tolerance:     opts.SumTolerance,
		maxTextLength: opts.MaxTextLength,
	}
}

// Analyze preprocesses the raster, runs OCR and scores the amounts found.
// Engine failures degrade to empty text.
func (a *textAnalyzer) Analyze(ctx context.Context, img image.Image, expectedText string) (SubScoreResult, error) {
	if img.Bounds().Empty() {
		return SubScoreResult{}, componentError(models.ComponentOCR, ErrEmptyImage)
	}
	if err := ctx.Err(); err != nil {
		return SubScoreResult{}, componentError(models.ComponentOCR, err)
	}

	prepared := PrepareForOCR(img, a.kernel)

	var text, engineError string
	if a.engine == nil {
		engineError = "no OCR engine configured"
	} else {
		out, err := a.engine.Text(ctx, prepared)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return SubScoreResult{}, componentError(models.ComponentOCR, ctx.Err())
			}
			engineError = err.Error()
		case strings.TrimSpace(out) == "":
			engineError = "OCR returned no text"
		default:
			text = out
		}
	}

	result := a.AnalyzeText(text, expectedText)
	if engineError != "" {
		ev := result.Evidence.(models.TextEvidence)
		ev.EngineError = engineError
		result.Evidence = ev
	}
	return result, nil
}

// AnalyzeText scores OCR output
func (a *textAnalyzer) AnalyzeText(text string, expectedText string) SubScoreResult {
	text = strings.ReplaceAll(text, "\x00", "")
	tokens := ExtractAmounts(text)
	summary := summarizeAmounts(tokens)

	evidence := models.TextEvidence{
		Flags:         []models.Flag{},
		Amounts:       tokens,
		DistinctCount: len(summary.distinct),
		Duplicates:    summary.duplicates,
		Tolerance:     a.tolerance,
		ExtractedText: truncateText(text, a.maxTextLength),
	}
	score := 0.0

	if len(summary.distinct) < 2 {
		evidence.Flags = append(evidence.Flags, models.Flag{
			Name:    "insufficient_amounts",
			Message: fmt.Sprintf("Too few distinct amounts detected by OCR (%d < 2)", len(summary.distinct)),
			Points:  insufficientAmountsPoints,
		})
		score += insufficientAmountsPoints
	}

	if len(summary.duplicates) > 0 {
		evidence.Flags = append(evidence.Flags, models.Flag{
			Name:    "duplicate_amounts",
			Message: fmt.Sprintf("Duplicate amounts detected: %s", joinDecimals(summary.duplicates)),
			Points:  duplicateAmountsPoints,
		})
		score += duplicateAmountsPoints
	}

	if total, items, ratio, ok := summary.sumCheck(); ok {
		evidence.TotalCandidate = &total
		evidence.LineItemSum = &items
		evidence.MismatchRatio = &ratio
		if ratio > a.tolerance {
			evidence.Flags = append(evidence.Flags, models.Flag{
				Name: "sum_mismatch",
				Message: fmt.Sprintf("Line items sum to %s, total %s differs by %.1f%% (tolerance %.1f%%)",
					items.StringFixed(2), total.StringFixed(2), ratio*100, a.tolerance*100),
				Points: sumMismatchPoints,
			})
			score += sumMismatchPoints
		}
	}

	if strings.TrimSpace(expectedText) != "" {
		evidence.Quality = readQuality(expectedText, text)
	}

	score = clampScore(score)
	return SubScoreResult{
		Score:    score,
		Label:    models.LabelForScore(score),
		Verdict:  riskVerdict(score, "OCR"),
		Evidence: evidence,
	}
}

// readQuality compares OCR output against reference text by word and
// character error rate
func readQuality(expected, actual string) *models.OCRQuality {
	reference := strings.Fields(strings.ToLower(expected))
	candidate := strings.Fields(strings.ToLower(actual))

	q := &models.OCRQuality{ExpectedText: expected}
	if len(reference) > 0 {
		q.WER, _ = wer.WER(reference, candidate)
	}

	ref := strings.Join(reference, " ")
	if n := utf8.RuneCountInString(ref); n > 0 {
		q.CER = float64(levenshtein.Distance(ref, strings.Join(candidate, " "))) / float64(n)
	}
	q.WER = round2(q.WER)
	q.CER = round2(q.CER)
	return q
}

func truncateText(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}

func joinDecimals(values []decimal.Decimal) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.StringFixed(2)
	}
	return strings.Join(parts, ", ")
}
