// Package collection persists named requests, one YAML document per name,
// under a single storage root.
package collection

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sadopc/treq/internal/core/errs"
	"github.com/sadopc/treq/internal/core/request"
	"github.com/sadopc/treq/internal/logging"
)

// documentVersion is written into every saved document.
const documentVersion = "1"

// document is the on-disk form of a saved request.
type document struct {
	Version      string `yaml:"version"`
	request.Data `yaml:",inline"`
}

// Store is a directory of saved requests.
// It is not safe for concurrent use; session.Session guards it with its own lock.
type Store struct {
	root string
	log  *slog.Logger
}

// New creates a store rooted at dir. The directory is created lazily.
func New(dir string) *Store {
	return &Store{root: dir, log: logging.Nop()}
}

// SetLogger sets the logger used for debug output.
func (s *Store) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// Root returns the storage directory.
func (s *Store) Root() string {
	return s.root
}

// ValidateName rejects names that are empty, hidden, or could escape the root.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
	case strings.ContainsAny(name, "/\\\x00"):
	case strings.HasPrefix(name, "."):
	case !filepath.IsLocal(name) || filepath.Base(name) != name:
	default:
		return nil
	}
	return fmt.Errorf("saved name %q: %w", name, errs.ErrInvalidName)
}

func (s *Store) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}
