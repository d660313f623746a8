// Package storage is the local blob store for uploaded files. The rest of
// the application treats the returned storage key as opaque.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/frosty888/eProtokoll/internal/apperrors"
	"github.com/frosty888/eProtokoll/internal/config"
	"github.com/google/uuid"
)

type StoredFile struct {
	OriginalName string
	StorageKey   string
	Size         int64
}

type Store struct {
	dir         string
	maxFileSize int64
	allowedExts map[string]struct{}
}

func NewStore(cfg config.StorageConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	return &Store{
		dir:         cfg.UploadDir,
		maxFileSize: cfg.MaxFileSize,
		allowedExts: allowed,
	}, nil
}

// Save writes the stream under a fresh unique key and returns the stored
// metadata. The original name only survives as display metadata.
func (s *Store) Save(originalName string, size int64, r io.Reader) (*StoredFile, error) {
	const op = "storage.save"

	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := s.allowedExts[ext]; !ok {
		return nil, apperrors.Validation(op, "file type %q not allowed", ext)
	}
	if size > s.maxFileSize {
		return nil, apperrors.Validation(op, "file exceeds maximum size of %d bytes", s.maxFileSize)
	}

	key := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.New().String(), ext)
	path := filepath.Join(s.dir, key)

	f, err := os.Create(path)
	if err != nil {
		return nil, apperrors.Persistence(op, key, err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		os.Remove(path)
		return nil, apperrors.Persistence(op, key, err)
	}
	if written > s.maxFileSize {
		os.Remove(path)
		return nil, apperrors.Validation(op, "file exceeds maximum size of %d bytes", s.maxFileSize)
	}

	return &StoredFile{
		OriginalName: originalName,
		StorageKey:   key,
		Size:         written,
	}, nil
}

// Open returns a reader for a previously stored key.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	const op = "storage.open"

	// Keys are generated by Save; reject anything that escapes the directory.
	if key != filepath.Base(key) {
		return nil, apperrors.Validation(op, "invalid storage key")
	}

	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound(op, key)
		}
		return nil, apperrors.Persistence(op, key, err)
	}
	return f, nil
}
