package analyzer

import (
	"errors"
	"fmt"

	"github.com/anime-shed/invoice-inspector-go/pkg/models"
)

var (
	// ErrEmptyImage indicates a raster with no pixels
	ErrEmptyImage = errors.New("image has no pixels")

	// ErrCorruptMetadata indicates an EXIF segment that is present but unreadable
	ErrCorruptMetadata = errors.New("metadata segment present but unreadable")
)

// ComponentError reports that one analyzer could not produce a score.
// It is never replaced by a default score.
type ComponentError struct {
	Component models.Component
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s analyzer failed: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

func componentError(c models.Component, err error) *ComponentError {
	return &ComponentError{Component: c, Err: err}
}
