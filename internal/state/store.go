package state

import (
	"bytes"
	"context"
	"fmt"

	"github.com/raoulx24/retrificator/internal/fs"
)

// Store loads and saves State as a JSON file.
type Store struct {
	path string
	fs   fs.FS
}

func NewStore(path string, filesystem fs.FS) *Store {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Store{path: path, fs: filesystem}
}

func (s *Store) Path() string { return s.path }

// Load reads the state file. A missing file is an empty State. On any other
// failure Load returns an empty State together with the error, so callers can
// log it and carry on.
func (s *Store) Load() (*State, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if fs.IsNotExist(err) {
			return New(), nil
		}
		return New(), fmt.Errorf("reading %s: %w", s.path, err)
	}

	st, err := Decode(bytes.NewReader(data))
	if err != nil {
		return New(), fmt.Errorf("%s: %w", s.path, err)
	}
	return st, nil
}

// Save replaces the state file atomically. On failure the previous file is
// left untouched.
func (s *Store) Save(ctx context.Context, st *State) error {
	var buf bytes.Buffer
	if err := Encode(&buf, st); err != nil {
		return err
	}
	if err := s.fs.WriteFileAtomic(ctx, s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}
