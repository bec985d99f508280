package analyzer

import (
	"image"

	"github.com/disintegration/imaging"
)

// PrepareForOCR runs grayscale, Otsu binarization and median blur in that order
func PrepareForOCR(img image.Image, kernel int) *image.Gray {
	gray := toGray(img)
	binarize(gray, otsuThreshold(gray))
	return medianBlur(gray, kernel)
}

// toGray converts to an origin-anchored single channel raster
func toGray(img image.Image) *image.Gray {
	src := imaging.Grayscale(img)
	bounds := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+bounds.Dx()*4]
		out := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()]
		for x := range out {
			out[x] = row[x*4]
		}
	}
	return gray
}

// otsuThreshold picks the level maximizing between-class variance
func otsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	total := 0
	bounds := gray.Bounds()
	for y := 0; y < bounds.Dy(); y++ {
		for _, v := range gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()] {
			hist[v]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	sumAll := 0.0
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var (
		sumBackground float64
		weightBack    int
		best          float64
		threshold     int
	)
	for t := 0; t < 256; t++ {
		weightBack += hist[t]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBackground += float64(t * hist[t])
		meanBack := sumBackground / float64(weightBack)
		meanFore := (sumAll - sumBackground) / float64(weightFore)
		between := float64(weightBack) * float64(weightFore) * (meanBack - meanFore) * (meanBack - meanFore)
		if between > best {
			best = between
			threshold = t
		}
	}
	return uint8(threshold)
}

// binarize sets pixels above the threshold to white and the rest to black
func binarize(gray *image.Gray, threshold uint8) {
	for i, v := range gray.Pix {
		if v > threshold {
			gray.Pix[i] = 0xff
		} else {
			gray.Pix[i] = 0
		}
	}
}

// medianBlur applies a square median filter with replicated borders.
// Kernels below 3 return a copy; even kernels are rounded up.
func medianBlur(gray *image.Gray, kernel int) *image.Gray {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if kernel < 3 {
		copy(out.Pix, gray.Pix)
		return out
	}
	if kernel%2 == 0 {
		kernel++
	}
	radius := kernel / 2
	window := make([]uint8, kernel*kernel)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			n := 0
			for dy := -radius; dy <= radius; dy++ {
				sy := clampIndex(y+dy, height)
				for dx := -radius; dx <= radius; dx++ {
					sx := clampIndex(x+dx, width)
					insertSorted(window[:n+1], gray.Pix[sy*gray.Stride+sx])
					n++
				}
			}
			out.Pix[y*out.Stride+x] = window[n/2]
		}
	}
	return out
}

// insertSorted places v into window, whose prefix window[:len-1] is sorted
func insertSorted(window []uint8, v uint8) {
	i := len(window) - 1
	for i > 0 && window[i-1] > v {
		window[i] = window[i-1]
		i--
	}
	window[i] = v
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
