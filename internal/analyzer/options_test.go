package analyzer

import (
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.JPEGQuality != 90 {
		t.Errorf("Expected JPEGQuality to be 90, got %d", opts.JPEGQuality)
	}
	if opts.SumTolerance != 0.15 {
		t.Errorf("Expected SumTolerance to be 0.15, got %f", opts.SumTolerance)
	}
	if opts.MedianKernel != 3 {
		t.Errorf("Expected MedianKernel to be 3, got %d", opts.MedianKernel)
	}
	if opts.OCRLanguage != "eng" {
		t.Errorf("Expected OCRLanguage to be 'eng', got %s", opts.OCRLanguage)
	}
	if opts.MaxImageWidth != 2000 {
		t.Errorf("Expected MaxImageWidth to be 2000, got %d", opts.MaxImageWidth)
	}
	if len(opts.EditingSoftwareMarkers) != 5 {
		t.Errorf("Expected 5 editing software markers, got %d", len(opts.EditingSoftwareMarkers))
	}
}

func TestOptionsBuilders(t *testing.T) {
	opts := DefaultOptions().
		WithJPEGQuality(75).
		WithSumTolerance(0.1).
		WithMedianKernel(5).
		WithMaxImageWidth(0).
		WithEditingSoftwareMarkers("pixelmator")

	if opts.JPEGQuality != 75 {
		t.Errorf("Expected JPEGQuality 75, got %d", opts.JPEGQuality)
	}
	if opts.SumTolerance != 0.1 {
		t.Errorf("Expected SumTolerance 0.1, got %f", opts.SumTolerance)
	}
	if opts.MedianKernel != 5 {
		t.Errorf("Expected MedianKernel 5, got %d", opts.MedianKernel)
	}
	if opts.MaxImageWidth != 0 {
		t.Errorf("Expected MaxImageWidth 0, got %d", opts.MaxImageWidth)
	}
	if len(opts.EditingSoftwareMarkers) != 1 || opts.EditingSoftwareMarkers[0] != "pixelmator" {
		t.Errorf("Expected markers [pixelmator], got %v", opts.EditingSoftwareMarkers)
	}
}

func TestOptionsBuilders_DoNotMutateReceiver(t *testing.T) {
	base := DefaultOptions()
	_ = base.WithJPEGQuality(50)
	_ = base.WithEditingSoftwareMarkers("x")

	if base.JPEGQuality != 90 {
		t.Error("Expected base options to remain unchanged")
	}
	if len(base.EditingSoftwareMarkers) != 5 {
		t.Error("Expected base markers to remain unchanged")
	}
}
