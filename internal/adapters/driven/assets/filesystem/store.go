// Package filesystem publishes page images to a local directory.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.AssetStore = (*Store)(nil)

// Store copies page images under a root directory. When the image already
// lives at root/key it is recorded in place.
type Store struct {
	root string
}

// NewStore creates a store rooted at root.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve asset root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Put copies localPath to root/key and returns the destination path.
func (s *Store) Put(ctx context.Context, key, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(s.root, filepath.FromSlash(key))
	src, err := filepath.Abs(localPath)
	if err != nil {
		return "", fmt.Errorf("resolve image path: %w", err)
	}
	if src == dst {
		return dst, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}
	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Name identifies the backend in logs.
func (s *Store) Name() string {
	return "filesystem"
}

// copyFile writes through a temp file so a failed copy never leaves a
// truncated image at dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".asset-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("move image: %w", err)
	}
	return nil
}
