package analyzer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math/rand"
)

func createTestImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func createNoiseImage(width, height int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 0xff
	}
	return img
}

// identityRecompressor simulates a lossless round trip
type identityRecompressor struct{}

func (identityRecompressor) Recompress(img image.Image, _ int) (image.Image, error) {
	return toOpaqueNRGBA(img), nil
}

// shiftRecompressor brightens the columns left of limitX by delta
type shiftRecompressor struct {
	delta  uint8
	limitX int
}

func (s shiftRecompressor) Recompress(img image.Image, _ int) (image.Image, error) {
	out := toOpaqueNRGBA(img)
	b := out.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx() && x < s.limitX; x++ {
			i := y*out.Stride + x*4
			for c := 0; c < 3; c++ {
				v := int(out.Pix[i+c]) + int(s.delta)
				if v > 255 {
					v = 255
				}
				out.Pix[i+c] = uint8(v)
			}
		}
	}
	return out, nil
}

type failingRecompressor struct{}

func (failingRecompressor) Recompress(image.Image, int) (image.Image, error) {
	return nil, errors.New("codec unavailable")
}

// fakeEngine returns canned OCR output
type fakeEngine struct {
	text  string
	err   error
	calls int
}

func (f *fakeEngine) Text(_ context.Context, _ *image.Gray) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeExtractor struct {
	outcome MetadataOutcome
	err     error
}

func (f fakeExtractor) Extract([]byte) (MetadataOutcome, error) {
	return f.outcome, f.err
}
