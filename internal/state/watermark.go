package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"wikisync/pkg/logging"
)

// ErrNoWatermark is returned by Load when no watermark has been stored yet.
var ErrNoWatermark = errors.New("no watermark stored")

// FileStore keeps the watermark in a single text file.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the watermark file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the stored watermark, or ErrNoWatermark if the file does not
// exist or is empty.
func (s *FileStore) Load() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoWatermark
		}
		return "", fmt.Errorf("failed to read watermark %s: %w", s.path, err)
	}

	ts := strings.TrimSpace(string(data))
	if ts == "" {
		return "", ErrNoWatermark
	}
	if err := Validate(ts); err != nil {
		return "", fmt.Errorf("watermark file %s: %w", s.path, err)
	}
	return ts, nil
}

// Save replaces the stored watermark. The file is written to a temporary
// sibling and renamed into place so a crash never leaves a torn value.
func (s *FileStore) Save(ts string) error {
	if err := Validate(ts); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary watermark file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(ts + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write watermark: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync watermark: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close watermark: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace watermark %s: %w", s.path, err)
	}

	logging.Info("Watermark", "Saved watermark %s to %s", ts, s.path)
	return nil
}

// ModTime returns when the watermark was last saved. Since only successful
// runs save it, this is the time of the last successful run.
func (s *FileStore) ModTime() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, ErrNoWatermark
		}
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Validate checks that ts is an ISO 8601 timestamp as the API reports it.
func Validate(ts string) error {
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		return fmt.Errorf("invalid watermark %q: expected a timestamp like 2024-01-01T00:00:00Z", ts)
	}
	return nil
}
