// Package source reads plan, manifest and result documents from local
// files or S3-compatible buckets, and writes snapshots back.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store opens and saves documents by location.
type Store interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Save(ctx context.Context, location string, data []byte) error
}

// IsS3 reports whether location uses the s3:// scheme.
func IsS3(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", location, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%s: not an s3:// location", location)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%s: want s3://bucket/key", location)
	}
	return u.Host, key, nil
}

// FileStore reads and writes local files. Relative locations resolve
// against Dir when it is set.
type FileStore struct {
	Dir string
}

func (f FileStore) path(location string) string {
	if f.Dir == "" || filepath.IsAbs(location) {
		return location
	}
	return filepath.Join(f.Dir, location)
}

func (f FileStore) Open(_ context.Context, location string) (io.ReadCloser, error) {
	file, err := os.Open(f.path(location))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	return file, nil
}

func (f FileStore) Save(_ context.Context, location string, data []byte) error {
	p := f.path(location)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("save %s: %w", location, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", location, err)
	}
	return nil
}

// Mux dispatches s3:// locations to an S3 store and everything else to
// Files. The S3 store is built on first use.
type Mux struct {
	Files Store
	NewS3 func(ctx context.Context) (Store, error)

	once sync.Once
	s3   Store
	err  error
}

func (m *Mux) store(ctx context.Context, location string) (Store, error) {
	if !IsS3(location) {
		if m.Files == nil {
			return FileStore{}, nil
		}
		return m.Files, nil
	}
	if m.NewS3 == nil {
		return nil, fmt.Errorf("%s: s3 locations are not configured", location)
	}
	m.once.Do(func() {
		m.s3, m.err = m.NewS3(ctx)
	})
	return m.s3, m.err
}

func (m *Mux) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	s, err := m.store(ctx, location)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, location)
}

func (m *Mux) Save(ctx context.Context, location string, data []byte) error {
	s, err := m.store(ctx, location)
	if err != nil {
		return err
	}
	return s.Save(ctx, location, data)
}

// ReadAll opens location and returns its contents.
func ReadAll(ctx context.Context, s Store, location string) ([]byte, error) {
	rc, err := s.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}
