package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/datebook/internal/event"
	"github.com/pfrederiksen/datebook/internal/logger"
)

// DefaultFileName is the base name of the default data file.
const DefaultFileName = "events.json"

// Storage reads and writes one JSON data file.
type Storage struct {
	path string
}

// New creates a Storage for path, expanding a leading ~/ and creating the
// parent directory if needed. The file itself is not created until the first
// save.
func New(path string) (*Storage, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if path == "" {
		return nil, fmt.Errorf("data file path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{path: path}, nil
}

// Path returns the resolved data file path.
func (s *Storage) Path() string {
	return s.path
}

// Load reads the data file. A missing file yields empty buckets; an unreadable
// structure yields a *CorruptStorageError.
func (s *Storage) Load() (event.Buckets, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no data file, starting empty", logger.Fields{"path": s.path})
			return event.Buckets{}, nil
		}
		return nil, fmt.Errorf("reading events: %w", err)
	}

	buckets, err := Decode(data)
	if err != nil {
		return nil, &CorruptStorageError{Path: s.path, Err: err}
	}

	logger.Debug("loaded events", logger.Fields{
		"path":    s.path,
		"dates":   len(buckets),
		"records": buckets.Len(),
	})
	return buckets, nil
}

// Save replaces the data file with b. The new content is written to a
// temporary file next to the target and renamed into place.
func (s *Storage) Save(b event.Buckets) error {
	start := time.Now()

	data, err := Encode(b)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		logger.Error("saving events", logger.Fields{"path": s.path}, err)
		return fmt.Errorf("writing events: %w", err)
	}

	logger.RecordTiming("storage.save", time.Since(start))
	logger.Debug("saved events", logger.Fields{
		"path":    s.path,
		"records": b.Len(),
		"bytes":   len(data),
	})
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
