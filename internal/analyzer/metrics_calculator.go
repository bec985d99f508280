package analyzer

import (
	"image"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

// differenceCalculator implements DifferenceCalculator with strip-parallel
// pixel passes and Gonum statistics
type differenceCalculator struct {
	slicePool sync.Pool
}

// NewDifferenceCalculator creates a new difference calculator
func NewDifferenceCalculator() DifferenceCalculator {
	return &differenceCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// Difference computes the per-channel absolute difference of two rasters of
// identical size and returns it together with the largest channel difference
func (dc *differenceCalculator) Difference(original, recompressed image.Image) (*image.NRGBA, int) {
	a := toOpaqueNRGBA(original)
	b := toOpaqueNRGBA(recompressed)

	bounds := a.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	diff := image.NewNRGBA(image.Rect(0, 0, width, height))

	if width == 0 || height == 0 || b.Bounds().Dx() != width || b.Bounds().Dy() != height {
		return diff, 0
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	results := make(chan int, numWorkers)
	var wg sync.WaitGroup

	// Process image in horizontal strips for better cache locality
	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > height {
			endY = height
		}
		if startY >= endY {
			continue
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()

			localMax := 0
			for y := startY; y < endY; y++ {
				ra := a.Pix[y*a.Stride : y*a.Stride+width*4]
				rb := b.Pix[y*b.Stride : y*b.Stride+width*4]
				rd := diff.Pix[y*diff.Stride : y*diff.Stride+width*4]
				for x := 0; x < width*4; x += 4 {
					for c := 0; c < 3; c++ {
						d := absDiff(ra[x+c], rb[x+c])
						rd[x+c] = d
						if int(d) > localMax {
							localMax = int(d)
						}
					}
					rd[x+3] = 0xff
				}
			}
			results <- localMax
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	maxDiff := 0
	for m := range results {
		if m > maxDiff {
			maxDiff = m
		}
	}

	return diff, maxDiff
}

// Statistics computes the mean and population variance of the luma channel
func (dc *differenceCalculator) Statistics(ela *image.NRGBA) (float64, float64) {
	bounds := ela.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0, 0
	}

	// Get reusable slice from pool
	data := dc.slicePool.Get().([]float64)
	defer func() { dc.slicePool.Put(data[:0]) }()

	if cap(data) < width*height {
		data = make([]float64, 0, width*height)
	}

	for y := 0; y < height; y++ {
		row := ela.Pix[y*ela.Stride : y*ela.Stride+width*4]
		for x := 0; x < width*4; x += 4 {
			data = append(data, float64(luma(row[x], row[x+1], row[x+2])))
		}
	}

	return stat.Mean(data, nil), stat.PopVariance(data, nil)
}

// scaleDifference stretches a difference map so its largest value maps to 255
func scaleDifference(diff *image.NRGBA, maxDiff int) *image.NRGBA {
	if maxDiff <= 0 {
		return diff
	}
	factor := 255.0 / float64(maxDiff)
	out := image.NewNRGBA(diff.Bounds())
	for i := 0; i < len(diff.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(diff.Pix[i+c]) * factor
			if v > 255 {
				v = 255
			}
			out.Pix[i+c] = uint8(v)
		}
		out.Pix[i+3] = 0xff
	}
	return out
}

// toOpaqueNRGBA returns an origin-anchored RGB copy with alpha discarded
func toOpaqueNRGBA(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// luma uses ITU-R 601-2 weights with integer rounding
func luma(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000)
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
