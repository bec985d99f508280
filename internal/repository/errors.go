package repository

import "errors"

var (
	// ErrInvalidInvoiceURL indicates an invalid invoice URL
	ErrInvalidInvoiceURL = errors.New("invalid invoice URL")

	// ErrArtifactNotFound indicates the requested artifact does not exist
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
