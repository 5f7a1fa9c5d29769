package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/harborlens/harborlens/internal/storage"
)

// Source yields the raw CSV files by name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource reads CSVs from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("open csv %q: %w", name, err)
	}
	return f, nil
}

// ObjectSource reads CSVs from a bucket under a fixed prefix.
type ObjectSource struct {
	Store  storage.ObjectStore
	Prefix string
}

func (s ObjectSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := name
	if s.Prefix != "" {
		key = path.Join(s.Prefix, name)
	}
	reader, err := s.Store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch csv %q: %w", key, err)
	}
	return reader, nil
}
