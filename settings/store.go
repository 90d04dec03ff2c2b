package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gogpu/mandel"
)

// storeFileName is the record name inside the application config
// directory.
const storeFileName = "params" + FileExt

// Store remembers the last-used parameters across sessions, the way a
// desktop viewer restores its previous state on launch.
type Store struct {
	path string
}

// NewStore returns a store rooted in the user's config directory,
// under an application subdirectory.
func NewStore(appName string) (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("settings: locate config dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, appName, storeFileName)}, nil
}

// NewStoreAt returns a store reading and writing exactly path. Used by
// tests and by callers managing their own locations.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored parameters. A store that has never been
// written returns the defaults and no error; a corrupt or invalid
// record is an error.
func (s *Store) Load() (Params, error) {
	p, err := Load(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Params{}, err
	}

	mandel.Logger().Debug("settings loaded",
		slog.String("path", s.path))
	return p, nil
}

// Save validates and writes the parameters, creating the config
// directory on first use.
func (s *Store) Save(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: create config dir: %w", err)
	}
	if err := os.WriteFile(s.path, p.Encode(), 0o644); err != nil {
		return fmt.Errorf("settings: write params: %w", err)
	}

	mandel.Logger().Debug("settings saved",
		slog.String("path", s.path))
	return nil
}
