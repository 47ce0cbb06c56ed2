package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/aliasgen/internal/domain"
)

// DocumentStore reads and writes markdown documents by handle. Handles are
// slash-separated paths relative to the store root.
type DocumentStore interface {
	Read(ctx context.Context, handle string) (string, error)
	Write(ctx context.Context, handle, content string) error
	Exists(ctx context.Context, handle string) (bool, error)
}

// FSStore keeps documents in a local directory.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", abs)
	}
	return &FSStore{root: abs}, nil
}

func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) path(handle string) (string, error) {
	clean, err := domain.CleanHandle(handle)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *FSStore) Read(ctx context.Context, handle string) (string, error) {
	p, err := s.path(handle)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrDocumentNotFound
		}
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	return string(data), nil
}

// Write replaces the document through a temp file and rename so a reader
// never observes a partial write.
func (s *FSStore) Write(ctx context.Context, handle, content string) error {
	p, err := s.path(handle)
	if err != nil {
		return err
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(p); err == nil {
		mode = info.Mode().Perm()
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".aliasgen-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}

	return nil
}

func (s *FSStore) Exists(ctx context.Context, handle string) (bool, error) {
	p, err := s.path(handle)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat document: %w", err)
	}

	return !info.IsDir(), nil
}
