package analyzer

// Options provides the tunable constants of the scoring pipeline
type Options struct {
	// Compression artifact analysis
	JPEGQuality int

	// Metadata analysis
	EditingSoftwareMarkers []string

	// Text consistency analysis
	SumTolerance  float64
	MedianKernel  int
	OCRLanguage   string
	MaxTextLength int

	// Input preparation
	MaxImageWidth int
}

// DefaultOptions returns the scoring constants used in production
func DefaultOptions() Options {
	return Options{
		JPEGQuality:            90,
		EditingSoftwareMarkers: []string{"photoshop", "gimp", "paint.net", "paint shop", "adobe"},
		SumTolerance:           0.15,
		MedianKernel:           3,
		OCRLanguage:            "eng",
		MaxTextLength:          500,
		MaxImageWidth:          2000,
	}
}

// WithJPEGQuality overrides the recompression quality
func (opts Options) WithJPEGQuality(quality int) Options {
	opts.JPEGQuality = quality
	return opts
}

// WithSumTolerance overrides the relative tolerance of the total check
func (opts Options) WithSumTolerance(tolerance float64) Options {
	opts.SumTolerance = tolerance
	return opts
}

// WithMedianKernel overrides the median blur kernel size
func (opts Options) WithMedianKernel(size int) Options {
	opts.MedianKernel = size
	return opts
}

// WithEditingSoftwareMarkers replaces the editing tool list
func (opts Options) WithEditingSoftwareMarkers(markers ...string) Options {
	opts.EditingSoftwareMarkers = append([]string(nil), markers...)
	return opts
}

// WithMaxImageWidth overrides the downscale width (0 disables downscaling)
func (opts Options) WithMaxImageWidth(width int) Options {
	opts.MaxImageWidth = width
	return opts
}
