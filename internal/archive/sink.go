// Package archive exports the notification log as JSON Lines batches to a
// filesystem directory or an S3 bucket.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrExists is returned when a batch key was already written.
var ErrExists = errors.New("archive object already exists")

// Sink stores archive batches. Put must not overwrite an existing key.
type Sink interface {
	Put(ctx context.Context, key string, body []byte) error
}

// FSSink writes batches below a root directory.
type FSSink struct {
	root string
}

// NewFSSink returns a sink rooted at dir, creating it if needed.
func NewFSSink(dir string) (*FSSink, error) {
	if dir == "" {
		return nil, errors.New("archive dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &FSSink{root: dir}, nil
}

// Put writes body to key, failing with ErrExists if the file is present.
func (s *FSSink) Put(_ context.Context, key string, body []byte) error {
	clean, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	path := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".batch-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write batch: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	// Link fails if the target exists, unlike Rename.
	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, key)
		}
		return fmt.Errorf("publish batch: %w", err)
	}
	return nil
}

func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", errors.New("invalid absolute key")
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "..") {
		return "", errors.New("invalid key traversal")
	}
	return clean, nil
}
