// Package staging persists uploaded voice samples to the local filesystem so
// the engine can reference them by path.
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Static errors.
var (
	ErrFilenameEmpty = errors.New("upload filename cannot be empty")
	ErrNoData        = errors.New("upload data cannot be nil")
)

// Store writes uploaded samples into a single directory under their original
// base filename. A re-upload with the same name overwrites the previous one.
type Store struct {
	dir string
	log *logger.Logger
}

// New creates the staging directory if needed and returns a Store rooted at
// it.
func New(dir string, log *logger.Logger) (*Store, error) {
	dirErr := os.MkdirAll(dir, dirPermissions)
	if dirErr != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", dirErr)
	}

	return &Store{
		dir: dir,
		log: log,
	}, nil
}

// Stage writes the sample under the upload's original base name and returns
// the staged path. Client-supplied directory components are stripped.
func (s *Store) Stage(filename string, data io.Reader) (string, error) {
	if filename == "" {
		return "", ErrFilenameEmpty
	}

	if data == nil {
		return "", ErrNoData
	}

	stagedPath := filepath.Join(s.dir, filepath.Base(filename))

	file, createErr := os.OpenFile(
		stagedPath,
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
		filePermissions,
	)
	if createErr != nil {
		return "", fmt.Errorf("failed to create staged sample: %w", createErr)
	}

	written, copyErr := io.Copy(file, data)
	closeErr := file.Close()

	if copyErr != nil {
		return "", fmt.Errorf("failed to write staged sample: %w", copyErr)
	}

	if closeErr != nil {
		return "", fmt.Errorf("failed to close staged sample: %w", closeErr)
	}

	s.log.Info("Staged uploaded sample: %s (%d bytes)", stagedPath, written)

	return stagedPath, nil
}
