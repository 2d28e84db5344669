package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// ErrBlobNotFound is returned by a Backend when the named blob was never written.
var ErrBlobNotFound = errors.New("blob not found")

// Backend is durable storage for named blobs. WriteBatch must apply all blobs or none.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	WriteBatch(ctx context.Context, blobs map[string][]byte) error
}

// FileBackend keeps each blob as a file in one directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the backing directory.
func (b *FileBackend) Dir() string { return b.dir }

func (b *FileBackend) path(name string) string { return filepath.Join(b.dir, name) }

func (b *FileBackend) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(b.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// WriteBatch stages every blob in a temp file, then renames them into place. If a rename fails
// the blobs already replaced are restored to their previous content.
func (b *FileBackend) WriteBatch(_ context.Context, blobs map[string][]byte) error {
	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)

	temps := make(map[string]string, len(names))
	removeTemps := func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}
	for _, name := range names {
		tmp := b.path("." + name + "." + uuid.NewString() + ".tmp")
		if err := writeSynced(tmp, blobs[name]); err != nil {
			_ = os.Remove(tmp)
			removeTemps()
			return fmt.Errorf("stage %s: %w", name, err)
		}
		temps[name] = tmp
	}

	type previous struct {
		data    []byte
		existed bool
	}
	before := make(map[string]previous, len(names))
	for _, name := range names {
		data, err := os.ReadFile(b.path(name))
		before[name] = previous{data: data, existed: err == nil}
	}

	for i, name := range names {
		if err := os.Rename(temps[name], b.path(name)); err != nil {
			for _, done := range names[:i] {
				prev := before[done]
				if prev.existed {
					_ = os.WriteFile(b.path(done), prev.data, 0o644)
				} else {
					_ = os.Remove(b.path(done))
				}
			}
			for _, pending := range names[i:] {
				_ = os.Remove(temps[pending])
			}
			return fmt.Errorf("replace %s: %w", name, err)
		}
	}
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
