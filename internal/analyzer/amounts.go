package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

// amountPattern matches an optional currency symbol, digits with optional
// thousands separators and an optional two digit fraction
var amountPattern = regexp.MustCompile(`(?:[$€£¥]\s?)?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{2})?`)

// ExtractAmounts parses every monetary value in text in order of appearance
func ExtractAmounts(text string) []models.AmountToken {
	matches := amountPattern.FindAllStringIndex(text, -1)
	tokens := make([]models.AmountToken, 0, len(matches))
	for _, m := range matches {
		raw := text[m[0]:m[1]]
		value, err := parseAmount(raw)
		if err != nil {
			continue
		}
		tokens = append(tokens, models.AmountToken{Raw: raw, Value: value, Offset: m[0]})
	}
	return tokens
}

func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimLeft(raw, "$€£¥")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return decimal.NewFromString(cleaned)
}

// amountSummary is the consistency view over an ordered token sequence
type amountSummary struct {
	distinct   []decimal.Decimal // ascending
	duplicates []decimal.Decimal // ascending, values seen more than once
}

func summarizeAmounts(tokens []models.AmountToken) amountSummary {
	counts := make(map[string]int, len(tokens))
	values := make(map[string]decimal.Decimal, len(tokens))
	for _, t := range tokens {
		key := t.Value.StringFixed(2)
		counts[key]++
		values[key] = t.Value
	}

	var s amountSummary
	for key, v := range values {
		s.distinct = append(s.distinct, v)
		if counts[key] > 1 {
			s.duplicates = append(s.duplicates, v)
		}
	}
	sortDecimals(s.distinct)
	sortDecimals(s.duplicates)
	return s
}

// sumCheck treats the largest distinct value as the total and the other
// distinct values as line items. ok is false when the check does not apply.
func (s amountSummary) sumCheck() (total, items decimal.Decimal, ratio float64, ok bool) {
	if len(s.distinct) < 2 {
		return decimal.Zero, decimal.Zero, 0, false
	}
	total = s.distinct[len(s.distinct)-1]
	if !total.IsPositive() {
		return decimal.Zero, decimal.Zero, 0, false
	}
	items = decimal.Sum(decimal.Zero, s.distinct[:len(s.distinct)-1]...)
	ratio = items.Sub(total).Abs().Div(total).InexactFloat64()
	return total, items, ratio, true
}

func sortDecimals(values []decimal.Decimal) {
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
}
