// Package blobstore is a filesystem implementation of the blob-store
// contract: bytes in, retrievable URL out.
package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store writes uploads under a directory and serves them at baseURL.
type Store struct {
	dir     string
	baseURL string
	logger  *zap.Logger
}

// New creates a blob store rooted at dir. Uploaded blobs are addressed as
// baseURL/<name>.
func New(dir, baseURL string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, baseURL: baseURL, logger: logger}, nil
}

// Upload stores the bytes and returns the blob's retrievable URL. Names are
// prefixed with a random id so repeated uploads of the same file never
// collide.
func (s *Store) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stored := uuid.NewString() + "-" + filepath.Base(name)
	path := filepath.Join(s.dir, stored)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	url := s.baseURL + "/" + stored
	s.logger.Info("blob stored", zap.String("name", name), zap.String("url", url), zap.Int("bytes", len(data)))
	return url, nil
}
