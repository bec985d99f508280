package analyzer

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

func TestCompressionAnalyzer_LosslessRoundTrip(t *testing.T) {
	a := NewCompressionAnalyzer(DefaultOptions(), identityRecompressor{})

	result, err := a.Analyze(createNoiseImage(32, 32, 7))
	require.NoError(t, err)

	assert.Equal(t, 50.0, result.Score)
	assert.Equal(t, models.LabelSuspicious, result.Label)
	assert.Equal(t, "SUSPICIOUS - No compression artifacts detected", result.Verdict)

	ev, ok := result.Evidence.(models.ELAEvidence)
	require.True(t, ok)
	assert.Equal(t, 0, ev.MaxPixelDifference)
	assert.Equal(t, 90, ev.JPEGQuality)
	assert.NotNil(t, result.Artifact)
}

func TestCompressionAnalyzer_FlatImageWithJPEGCodec(t *testing.T) {
	a := NewCompressionAnalyzer(DefaultOptions(), nil)

	result, err := a.Analyze(createTestImage(64, 64, color.NRGBA{128, 128, 128, 255}))
	require.NoError(t, err)

	ev, ok := result.Evidence.(models.ELAEvidence)
	require.True(t, ok)
	assert.Equal(t, 0, ev.MaxPixelDifference)
	assert.Equal(t, 50.0, result.Score)
	assert.Equal(t, "SUSPICIOUS - No compression artifacts detected", result.Verdict)
}

func TestCompressionAnalyzer_UniformDifference(t *testing.T) {
	a := NewCompressionAnalyzer(DefaultOptions(), shiftRecompressor{delta: 10, limitX: 1 << 30})

	result, err := a.Analyze(createTestImage(40, 20, color.NRGBA{100, 100, 100, 255}))
	require.NoError(t, err)

	ev := result.Evidence.(models.ELAEvidence)
	assert.Equal(t, 10, ev.MaxPixelDifference)
	assert.Equal(t, 255.0, ev.BrightnessMean)
	assert.Equal(t, 0.0, ev.BrightnessVariance)
	assert.Equal(t, 50.0, result.Score)
	assert.Equal(t, "MEDIUM ELA RISK", result.Verdict)
}

func TestCompressionAnalyzer_LocalizedDifferenceSaturates(t *testing.T) {
	a := NewCompressionAnalyzer(DefaultOptions(), shiftRecompressor{delta: 20, limitX: 20})

	result, err := a.Analyze(createTestImage(40, 20, color.NRGBA{100, 100, 100, 255}))
	require.NoError(t, err)

	ev := result.Evidence.(models.ELAEvidence)
	assert.Equal(t, 20, ev.MaxPixelDifference)
	assert.InDelta(t, 127.5, ev.BrightnessMean, 1e-9)
	assert.InDelta(t, 16256.25, ev.BrightnessVariance, 1e-6)
	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, models.LabelHigh, result.Label)
	assert.Equal(t, "HIGH ELA RISK", result.Verdict)
	assert.Equal(t, 40, ev.Width)
	assert.Equal(t, 20, ev.Height)
}

func TestCompressionAnalyzer_JPEGCodec(t *testing.T) {
	a := NewCompressionAnalyzer(DefaultOptions(), nil)

	result, err := a.Analyze(createNoiseImage(64, 64, 42))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 100.0)
	ev := result.Evidence.(models.ELAEvidence)
	assert.Greater(t, ev.MaxPixelDifference, 0)

	artifact, ok := result.Artifact.(*image.NRGBA)
	require.True(t, ok)
	assert.Equal(t, 64, artifact.Bounds().Dx())
}

func TestCompressionAnalyzer_Errors(t *testing.T) {
	t.Run("empty image", func(t *testing.T) {
		a := NewCompressionAnalyzer(DefaultOptions(), identityRecompressor{})
		_, err := a.Analyze(image.NewNRGBA(image.Rect(0, 0, 0, 0)))

		var ce *ComponentError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, models.ComponentELA, ce.Component)
		assert.ErrorIs(t, err, ErrEmptyImage)
	})

	t.Run("codec failure", func(t *testing.T) {
		a := NewCompressionAnalyzer(DefaultOptions(), failingRecompressor{})
		_, err := a.Analyze(createNoiseImage(8, 8, 1))

		var ce *ComponentError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, models.ComponentELA, ce.Component)
	})
}

func TestScoreELA(t *testing.T) {
	tests := []struct {
		name string
		ev   models.ELAEvidence
		want float64
	}{
		{"zero difference", models.ELAEvidence{MaxPixelDifference: 0, BrightnessMean: 200, BrightnessVariance: 5000}, 50},
		{"quiet map", models.ELAEvidence{MaxPixelDifference: 3, BrightnessMean: 25.5, BrightnessVariance: 100}, 10},
		{"variance saturates", models.ELAEvidence{MaxPixelDifference: 9, BrightnessMean: 10, BrightnessVariance: 4000}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreELA(tt.ev), 1e-9)
		})
	}
}
