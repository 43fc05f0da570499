package pictures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir stores pictures as files in a directory.
type Dir struct {
	Path string
}

// NewDir creates the directory if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("creating picture directory: %w", err)
	}
	return &Dir{Path: path}, nil
}

// Put writes the picture atomically.
func (d *Dir) Put(_ context.Context, name string, data []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid picture name %q", name)
	}

	tmp, err := os.CreateTemp(d.Path, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating picture file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing picture: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing picture: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.Path, name)); err != nil {
		return fmt.Errorf("storing picture: %w", err)
	}
	return nil
}

// Get opens a stored picture.
func (d *Dir) Get(_ context.Context, name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, notFound(name)
	}

	f, err := os.Open(filepath.Join(d.Path, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("opening picture: %w", err)
	}
	return f, nil
}
