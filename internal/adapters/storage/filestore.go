package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName reports a file name that does not reduce to a plain base
// name.
var ErrInvalidName = errors.New("storage: invalid file name")

// SaveResult describes a stored file.
type SaveResult struct {
	Name     string
	Size     int64
	Checksum string
}

// FileStore keeps asset bytes in a single flat directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir when needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage: file store directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// CleanName reduces name to its base name, rejecting names that point at
// a directory.
func CleanName(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", ErrInvalidName
	}
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	switch base {
	case "", ".", "..", "/":
		return "", ErrInvalidName
	}
	return base, nil
}

// Save streams r into name. The bytes land in a temp file first, are synced
// and then renamed into place, so readers never see a partial file. A read
// error from r aborts the save and is returned wrapped.
func (s *FileStore) Save(ctx context.Context, name string, r io.Reader) (SaveResult, error) {
	clean, err := CleanName(name)
	if err != nil {
		return SaveResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return SaveResult{}, fmt.Errorf("storage: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), contextReader{ctx: ctx, r: r})
	if err != nil {
		_ = tmp.Close()
		return SaveResult{}, fmt.Errorf("storage: write %s: %w", clean, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return SaveResult{}, fmt.Errorf("storage: sync %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		return SaveResult{}, fmt.Errorf("storage: close %s: %w", clean, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, clean)); err != nil {
		return SaveResult{}, fmt.Errorf("storage: rename %s: %w", clean, err)
	}
	tmpName = ""

	return SaveResult{
		Name:     clean,
		Size:     size,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// Open returns a reader for name. Missing files surface as fs.ErrNotExist.
func (s *FileStore) Open(name string) (*os.File, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.dir, clean))
}

// Stat returns file info for name.
func (s *FileStore) Stat(name string) (fs.FileInfo, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	return os.Stat(filepath.Join(s.dir, clean))
}

// Remove deletes name. Removing a missing file is not an error.
func (s *FileStore) Remove(name string) error {
	clean, err := CleanName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, clean)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w", clean, err)
	}
	return nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
