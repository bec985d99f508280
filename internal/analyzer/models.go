package analyzer

import (
	"math"

	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

// SubScoreResult is an alias to the shared models.SubScoreResult
type SubScoreResult = models.SubScoreResult

// clampScore keeps a sub-score inside [0,100]
func clampScore(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

// round2 rounds to two decimal places for reporting
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
