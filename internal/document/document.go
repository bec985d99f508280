// Package document turns uploaded or fetched invoice bytes into the raster
// the analyzers score.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrEmptyDocument indicates a zero-length payload
	ErrEmptyDocument = errors.New("document is empty")

	// ErrUnsupportedFormat indicates bytes that are neither JPEG, PNG nor PDF
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrUndecodable indicates an image that could not be decoded
	ErrUndecodable = errors.New("image could not be decoded")

	// ErrNoPageImage indicates a PDF whose first page carries no raster
	ErrNoPageImage = errors.New("pdf first page contains no image")
)

// Format is the detected container format
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
)

// Document is one invoice page ready for analysis. Data always holds the
// original bytes; Image is the decoded (and possibly downscaled) raster.
type Document struct {
	Data        []byte
	Filename    string
	ContentType string
	Format      Format
	Image       image.Image
	PageCount   int
	Width       int
	Height      int
	Downscaled  bool
}

// IsPDF reports whether the raster came from a PDF page
func (d *Document) IsPDF() bool {
	return d.Format == FormatPDF
}

// Load sniffs the format, decodes the raster and downscales it to maxWidth
// (0 keeps the original size)
func Load(data []byte, filename string, maxWidth int) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	contentType := http.DetectContentType(data)
	doc := &Document{Data: data, Filename: filename, ContentType: contentType}

	var (
		img image.Image
		err error
	)
	switch {
	case contentType == "application/pdf":
		doc.Format = FormatPDF
		doc.PageCount, img, err = firstPageImage(data)
	case contentType == "image/jpeg":
		doc.Format = FormatJPEG
		img, err = decodeRaster(data)
	case contentType == "image/png":
		doc.Format = FormatPNG
		img, err = decodeRaster(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}
	if err != nil {
		return nil, err
	}

	doc.Image, doc.Downscaled = Downscale(img, maxWidth)
	b := doc.Image.Bounds()
	doc.Width, doc.Height = b.Dx(), b.Dy()
	return doc, nil
}

// Downscale shrinks img to maxWidth keeping the aspect ratio
func Downscale(img image.Image, maxWidth int) (image.Image, bool) {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img, false
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos), true
}

func decodeRaster(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-sized image", ErrUndecodable)
	}
	return img, nil
}

// firstPageImage returns the page count and the largest image embedded on
// page 1. Later pages are never inspected.
func firstPageImage(data []byte) (int, image.Image, error) {
	pageCount, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	var (
		best     image.Image
		bestArea int
	)
	digest := func(img model.Image, _ bool, _ int) error {
		raw, err := io.ReadAll(img)
		if err != nil {
			return err
		}
		decoded, err := imaging.Decode(bytes.NewReader(raw))
		if err != nil {
			// Embedded formats imaging cannot read are skipped
			return nil
		}
		if area := decoded.Bounds().Dx() * decoded.Bounds().Dy(); area > bestArea {
			best, bestArea = decoded, area
		}
		return nil
	}

	if err := api.ExtractImages(bytes.NewReader(data), []string{"1"}, digest, nil); err != nil {
		return pageCount, nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if best == nil {
		return pageCount, nil, ErrNoPageImage
	}
	return pageCount, best, nil
}
