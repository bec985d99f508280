package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	apperrors "github.com/anime-shed/invoice-inspector-go/internal/errors"
)

// DefaultUploadExtensions are the invoice file types accepted for upload
var DefaultUploadExtensions = []string{".jpg", ".jpeg", ".png", ".pdf"}

// UploadValidator checks uploaded invoice files before decoding
type UploadValidator struct {
	allowedExtensions []string
	maxBytes          int64
}

// NewUploadValidator creates an upload validator with the default extensions
func NewUploadValidator(maxBytes int64) *UploadValidator {
	return &UploadValidator{
		allowedExtensions: DefaultUploadExtensions,
		maxBytes:          maxBytes,
	}
}

// ValidateUpload validates the filename and payload size of an upload
func (v *UploadValidator) ValidateUpload(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return apperrors.NewValidationError("No file selected", nil)
	}
	if !v.ExtensionAllowed(filename) {
		return apperrors.NewValidationError(
			fmt.Sprintf("Unsupported file type %q (allowed: %s)", filepath.Ext(filename), strings.Join(v.allowedExtensions, ", ")), nil)
	}
	if size <= 0 {
		return apperrors.NewValidationError("Uploaded file is empty", nil)
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		return apperrors.NewValidationError(fmt.Sprintf("File exceeds %d bytes", v.maxBytes), nil)
	}
	return nil
}

// ExtensionAllowed reports whether filename carries an accepted extension
func (v *UploadValidator) ExtensionAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range v.allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
