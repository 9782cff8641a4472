// Package preferences provides ports.PreferenceStore implementations: a
// file-backed store, an in-memory store and a chain that picks the first
// store that works on this machine.
package preferences

import (
	"errors"
	"fmt"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
)

const (
	probeKey = ".probe"

	dirPerm  = 0o700
	filePerm = 0o600
)

// ErrInvalidKey is returned for keys that cannot be used as file names.
var ErrInvalidKey = errors.New("invalid preference key")

// DiskStore keeps one small file per key under a directory, with an
// in-process read cache.
type DiskStore struct {
	d   *diskv.Diskv
	dir string
}

// NewDiskStore creates a store rooted at cfg.Dir. Nothing touches the disk
// until the first write or Probe.
func NewDiskStore(cfg config.PreferencesConfig) *DiskStore {
	return &DiskStore{
		d: diskv.New(diskv.Options{
			BasePath:     cfg.Dir,
			CacheSizeMax: cfg.CacheBytes,
			PathPerm:     dirPerm,
			FilePerm:     filePerm,
		}),
		dir: cfg.Dir,
	}
}

// Dir returns the directory holding the preference files.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Get returns the stored value. Unreadable entries count as absent.
func (s *DiskStore) Get(key string) (string, bool) {
	if validKey(key) != nil || !s.d.Has(key) {
		return "", false
	}

	val, err := s.d.Read(key)
	if err != nil {
		return "", false
	}

	return string(val), true
}

// Set writes value under key.
func (s *DiskStore) Set(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}

	if err := s.d.Write(key, []byte(value)); err != nil {
		return fmt.Errorf("writing preference %s: %w", key, err)
	}

	return nil
}

// Probe checks that the directory is writable by writing and erasing a
// marker file.
func (s *DiskStore) Probe() error {
	if err := s.d.Write(probeKey, []byte("ok")); err != nil {
		return fmt.Errorf("preferences dir %s not writable: %w", s.dir, err)
	}

	return s.d.Erase(probeKey)
}

func validKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return nil
}
