package collection

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/treq/internal/core/errs"
	"github.com/sadopc/treq/internal/core/request"
)

// Load reads the request saved under name. A missing entry is first created
// empty; an empty entry is removed again and reported as errs.ErrNotFound.
// Undecodable content is left on disk and reported as errs.ErrCorruptData.
func (s *Store) Load(name string) (request.Data, error) {
	path, err := s.path(name)
	if err != nil {
		return request.Data{}, err
	}

	data, err := readOrCreate(path)
	if err != nil {
		return request.Data{}, fmt.Errorf("reading saved request %q: %w", name, err)
	}

	if len(data) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return request.Data{}, fmt.Errorf("removing empty saved request %q: %w", name, err)
		}
		s.log.Debug("removed empty saved request", "name", name)
		return request.Data{}, fmt.Errorf("saved request %q: %w", name, errs.ErrNotFound)
	}

	d, err := LoadFromBytes(data)
	if err != nil {
		return request.Data{}, fmt.Errorf("saved request %q: %w", name, err)
	}
	return d, nil
}

// LoadFromBytes decodes a saved request document.
func LoadFromBytes(data []byte) (request.Data, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("no document")
		}
		return request.Data{}, fmt.Errorf("%w: %v", errs.ErrCorruptData, err)
	}
	if doc.Headers == nil {
		doc.Headers = make(map[string]string)
	}
	return doc.Data, nil
}

// List returns the names of all non-empty saved requests, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing saved requests: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func readOrCreate(path string) ([]byte, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
