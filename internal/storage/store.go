// Package storage keeps uploaded PDFs on local disk until they are processed.
//
// Uploads are transient: the pipeline removes a file once it has been read,
// and Sweep removes whatever a crash or an abandoned upload left behind.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scribeai/internal/logger"
	"scribeai/pkg/models"
)

const (
	filePrefix = "scribeai_"
	fileExt    = ".pdf"
)

// Store is a directory of uploaded files.
type Store struct {
	dir     string
	maxSize int64
	now     func() time.Time
	log     zerolog.Logger
}

// New creates the directory when needed. A maxSize of 0 uses the 20 MiB
// default.
func New(dir string, maxSize int64) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &StorageError{Op: "open", Path: dir, Err: err}
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, &StorageError{Op: "open", Path: abs, Err: err}
	}
	if maxSize <= 0 {
		maxSize = models.MaxFileSizeBytes
	}

	return &Store{
		dir:     abs,
		maxSize: maxSize,
		now:     time.Now,
		log:     logger.WithComponent("storage"),
	}, nil
}

// Dir returns the absolute store directory.
func (s *Store) Dir() string { return s.dir }

// MaxSize returns the upload size limit in bytes.
func (s *Store) MaxSize() int64 { return s.maxSize }

// newID returns scribeai_{unix millis}_{7 random hex chars}.
func (s *Store) newID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("%s%d_%s", filePrefix, s.now().UnixMilli(), random)
}

// Save writes r to a new file. size is the size the client declared; the
// limit is also enforced on the bytes actually read.
func (s *Store) Save(name string, size int64, r io.Reader) (*models.UploadedFile, error) {
	const op = "save"

	if size > s.maxSize {
		return nil, ErrTooLarge
	}

	id := s.newID()
	path := filepath.Join(s.dir, id+fileExt)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, &StorageError{Op: op, Path: path, Err: err}
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, &StorageError{Op: op, Path: path, Err: err}
	}

	s.log.Debug().
		Str("file_id", id).
		Str("file_name", name).
		Int64("bytes", written).
		Msg("Upload stored")

	return &models.UploadedFile{
		ID:         id,
		Name:       name,
		Size:       written,
		Path:       path,
		UploadedAt: s.now(),
	}, nil
}

// Resolve maps a client supplied path to a file of this store. Only paths
// naming an upload directly inside the store directory are accepted.
func (s *Store) Resolve(path string) (string, error) {
	if path == "" {
		return "", ErrOutsideStore
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrOutsideStore
	}
	if filepath.Dir(abs) != s.dir {
		return "", ErrOutsideStore
	}
	base := filepath.Base(abs)
	if !strings.HasPrefix(base, filePrefix) || !strings.HasSuffix(base, fileExt) {
		return "", ErrOutsideStore
	}
	return abs, nil
}

// Exists reports whether path names an existing upload of this store.
func (s *Store) Exists(path string) bool {
	abs, err := s.Resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// Open reads an upload into memory.
func (s *Store) Open(path string) ([]byte, error) {
	abs, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Path: abs, Err: err}
	}
	return data, nil
}

// Remove deletes an upload. Removing a file that is already gone is not an
// error.
func (s *Store) Remove(path string) error {
	abs, err := s.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &StorageError{Op: "remove", Path: abs, Err: err}
	}
	return nil
}

// Sweep removes uploads last modified more than olderThan ago and returns
// how many were removed.
func (s *Store) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, &StorageError{Op: "sweep", Path: s.dir, Err: err}
	}

	cutoff := s.now().Add(-olderThan)
	removed := 0
	var errs []error

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Dur("older_than", olderThan).Msg("Swept stale uploads")
	}
	if len(errs) > 0 {
		return removed, &StorageError{Op: "sweep", Path: s.dir, Err: errors.Join(errs...)}
	}
	return removed, nil
}
