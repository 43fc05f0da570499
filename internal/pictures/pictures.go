// Package pictures stores the item and user photos taken by the scanner
// handsets, either on local disk or in a MinIO bucket.
package pictures

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/orodjarna/internal/model"
)

// Store holds normalized pictures by name.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	// Get returns the picture, or an error wrapping model.ErrNotFound.
	Get(ctx context.Context, name string) (io.ReadCloser, error)
}

const ext = ".jpg"

// NewName returns a fresh random picture name.
func NewName() string {
	return uuid.NewString() + ext
}

// ValidName reports whether name could have come from NewName. Names are
// checked before they reach a backend so they cannot escape its namespace.
func ValidName(name string) bool {
	base, ok := strings.CutSuffix(name, ext)
	if !ok {
		return false
	}
	_, err := uuid.Parse(base)
	return err == nil && len(base) == 36
}

// Save normalizes an upload and stores it under a new name, which it returns.
func Save(ctx context.Context, s Store, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading picture: %w", err)
	}

	data, err = Normalize(data)
	if err != nil {
		return "", err
	}

	name := NewName()
	if err := s.Put(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}

func notFound(name string) error {
	return fmt.Errorf("picture %q: %w", name, model.ErrNotFound)
}
