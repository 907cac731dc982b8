package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SummaryFile is the name of the cached summary image
const SummaryFile = "summary.png"

// ErrNotGenerated is returned when no summary image has been rendered yet
var ErrNotGenerated = errors.New("summary image not generated")

// Cache keeps the latest summary image on disk
type Cache struct {
	dir string
}

// NewCache creates a cache rooted at dir
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Path returns the location of the cached summary image
func (c *Cache) Path() string {
	return filepath.Join(c.dir, SummaryFile)
}

// Save replaces the cached image. Readers never observe a partial file.
func (c *Cache) Save(data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, SummaryFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write summary image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close summary image: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.Path()); err != nil {
		return fmt.Errorf("failed to move summary image into place: %w", err)
	}
	return nil
}

// Load returns the cached image or ErrNotGenerated
func (c *Cache) Load() ([]byte, error) {
	data, err := os.ReadFile(c.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotGenerated
		}
		return nil, fmt.Errorf("failed to read summary image: %w", err)
	}
	return data, nil
}
