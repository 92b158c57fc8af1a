package collection

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/net/http/httpguts"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/treq/internal/core/errs"
	"github.com/sadopc/treq/internal/core/request"
)

// Save writes d under name, replacing any previous content. The document is
// written to a temporary file and renamed into place. Header keys must be
// valid HTTP field names.
func (s *Store) Save(name string, d request.Data) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	for k := range d.Headers {
		if !httpguts.ValidHeaderFieldName(k) {
			return fmt.Errorf("saved request %q: header %q: %w", name, k, errs.ErrInvalidName)
		}
	}
	data, err := MarshalRequest(d)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("writing saved request %q: %w", name, err)
	}
	s.log.Debug("saved request", "name", name, "bytes", len(data))
	return nil
}

// MarshalRequest encodes d as a saved request document.
func MarshalRequest(d request.Data) ([]byte, error) {
	data, err := yaml.Marshal(document{Version: documentVersion, Data: d})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return data, nil
}

// Remove deletes the request saved under name.
func (s *Store) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return notFound(name, err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing saved request %q: %w", name, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("saved request %q: %w", name, errs.ErrNotFound)
	}
	s.log.Debug("removed saved request", "name", name)
	return nil
}

// Rename moves the request saved under from to to, replacing any request
// already saved under to.
func (s *Store) Rename(from, to string) error {
	fromPath, err := s.path(from)
	if err != nil {
		return err
	}
	toPath, err := s.path(to)
	if err != nil {
		return err
	}

	info, err := os.Stat(fromPath)
	if err != nil {
		return notFound(from, err)
	}
	if info.Size() == 0 {
		_ = os.Remove(fromPath)
		return fmt.Errorf("saved request %q: %w", from, errs.ErrNotFound)
	}
	if from == to {
		return nil
	}
	if err := os.Rename(fromPath, toPath); err != nil {
		return fmt.Errorf("renaming saved request %q to %q: %w", from, to, err)
	}
	s.log.Debug("renamed saved request", "from", from, "to", to)
	return nil
}

func notFound(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("saved request %q: %w", name, errs.ErrNotFound)
	}
	return fmt.Errorf("saved request %q: %w", name, err)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
