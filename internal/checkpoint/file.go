package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bulbfinder/harvester/internal/export"
)

type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Location() string {
	return b.path
}

func (b *FileBackend) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", b.path, err)
	}
	return data, nil
}

func (b *FileBackend) Write(_ context.Context, data []byte) error {
	return export.WriteFileAtomic(b.path, data)
}

func (b *FileBackend) Remove(_ context.Context) error {
	err := os.Remove(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove checkpoint %s: %w", b.path, err)
	}
	return nil
}
