package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidKey indicates a key that would escape the storage root
var ErrInvalidKey = errors.New("invalid object key")

type localStorage struct {
	dir          string
	publicPrefix string
}

// NewLocalStorage creates an ObjectStore writing into dir. References are
// publicPrefix joined with the key.
func NewLocalStorage(dir, publicPrefix string) (ObjectStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &localStorage{dir: dir, publicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

func (s *localStorage) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key), nil
}

func (s *localStorage) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return s.publicPrefix + "/" + key, nil
}

func (s *localStorage) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return &Object{Name: key, ContentType: http.DetectContentType(data), Data: data}, nil
}
