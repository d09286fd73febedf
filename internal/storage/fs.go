package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FSStore keeps blobs as files below a base directory.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errors.Wrap(err, "create blob dir")
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) path(key string) (string, error) {
	if !fs.ValidPath(key) || key == "." {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return filepath.Join(s.base, filepath.FromSlash(key)), nil
}

// Put writes r under key. The file appears only once fully written.
func (s *FSStore) Put(ctx context.Context, key string, r io.Reader) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(err, "create blob dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return errors.Wrap(err, "create blob")
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write blob")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close blob")
	}
	return errors.Wrap(os.Rename(tmp.Name(), dst), "commit blob")
}

func (s *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(ErrNotFound, "%q", key)
	}
	return f, err
}
