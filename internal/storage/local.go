package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timmy/edgarvault/internal/logger"
)

// LocalStore implements DocumentStore on the local filesystem. Documents for
// one company share a single directory keyed by CIK.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a filesystem-backed document store.
// Parameters:
//   - baseDir: root directory all company directories live under.
// Returns:
//   - *LocalStore: store instance.
//   - error: non-nil if the root directory cannot be created.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Write stages one document under the company's directory.
// Parameters:
//   - ctx: context, consulted for cancellation before writing.
//   - cik: zero-padded 10-digit CIK, used as the directory name.
//   - filename: target file name within the company directory.
//   - data: document bytes.
// Returns:
//   - string: absolute path of the written file.
//   - error: non-nil if the directory or file cannot be written.
func (s *LocalStore) Write(ctx context.Context, cik, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := s.CompanyDir(cik)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create company directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	logger.With(logger.Fields{
		logger.FieldCIK:  cik,
		logger.FieldSize: len(data),
	}).Debug(ctx, "Staged document %s", filename)

	return path, nil
}

// CompanyDir returns the absolute directory a company's documents land in.
func (s *LocalStore) CompanyDir(cik string) string {
	return filepath.Join(s.baseDir, cik)
}

// DirStats returns the file count and total byte size of a company's
// directory. A missing directory counts as empty.
// Parameters:
//   - cik: zero-padded 10-digit CIK.
// Returns:
//   - int: number of regular files.
//   - int64: total size in bytes.
//   - error: non-nil if the directory exists but cannot be read.
func (s *LocalStore) DirStats(cik string) (int, int64, error) {
	entries, err := os.ReadDir(s.CompanyDir(cik))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	var count int
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		total += info.Size()
	}
	return count, total, nil
}
