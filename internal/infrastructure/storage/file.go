package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// File keeps every key in one JSON object on disk. Each write replaces the
// file atomically. With a secret the file is sealed with NaCl secretbox.
type File struct {
	path   string
	sealer *sealer
	log    zerolog.Logger

	mu     sync.Mutex
	values map[string]string
}

// NewFile opens the store at path. A missing file is an empty store. A file
// that cannot be read back (corrupt, or sealed with another secret) is
// logged and replaced on the next write.
func NewFile(path, secret string, log zerolog.Logger) (*File, error) {
	if path == "" {
		return nil, errors.New("storage: file path is empty")
	}
	f := &File{path: path, log: log, values: make(map[string]string)}
	if secret != "" {
		s, err := newSealer(secret)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		f.sealer = s
	}
	if err := f.load(); err != nil {
		if !errors.Is(err, fs.ErrPermission) {
			log.Warn().Err(err).Str("path", path).Msg("discarding unreadable session file")
			return f, nil
		}
		return nil, fmt.Errorf("storage: %w", err)
	}
	return f, nil
}

func (f *File) Path() string { return f.path }

func (f *File) load() error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	switch {
	case f.sealer != nil:
		if data, err = f.sealer.open(data); err != nil {
			return err
		}
	case isSealed(data):
		return fmt.Errorf("%w: set PMDESK_STORAGE_SECRET to read it", errSealed)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decode session file: %w", err)
	}
	f.values = values
	return nil
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := false
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.flush()
}

// flush writes the map to a temp file in the same directory and renames it
// over the target. Caller holds f.mu.
func (f *File) flush() error {
	data, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}
	if f.sealer != nil {
		if data, err = f.sealer.seal(data); err != nil {
			return fmt.Errorf("storage: seal: %w", err)
		}
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("storage: replace: %w", err)
	}
	return nil
}
