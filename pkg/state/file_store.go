package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps one JSON file per key under Dir. Writes go to a temp file in
// the same directory and are renamed into place, so readers see either the old
// or the new snapshot.
type FileStore[T any] struct {
	Dir string

	mu  sync.Mutex
	now func() time.Time
}

type fileEnvelope[T any] struct {
	Meta     Meta `json:"meta"`
	Snapshot T    `json:"snapshot"`
}

// NewFileStore returns a store rooted at dir. The directory is created on the
// first save.
func NewFileStore[T any](dir string) *FileStore[T] {
	return &FileStore[T]{Dir: dir, now: time.Now}
}

// Path returns the file backing key.
func (s *FileStore[T]) Path(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

func (s *FileStore[T]) Load(ctx context.Context, key string) (T, Meta, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, Meta{}, false, err
	}
	if err := ValidateKey(key); err != nil {
		return zero, Meta{}, false, err
	}

	env, ok, err := s.read(key)
	if err != nil || !ok {
		return zero, Meta{}, false, err
	}
	return env.Snapshot, env.Meta, true, nil
}

func (s *FileStore[T]) Save(ctx context.Context, key string, snapshot T, meta Meta) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	if err := ValidateKey(key); err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current Meta
	exists := false
	if meta.ETag != "" {
		env, ok, err := s.read(key)
		if err != nil {
			return Meta{}, err
		}
		current, exists = env.Meta, ok
	}
	next, err := nextMeta(current, exists, meta, s.clock())
	if err != nil {
		return Meta{}, err
	}

	if err := s.write(key, fileEnvelope[T]{Meta: next, Snapshot: snapshot}); err != nil {
		return Meta{}, err
	}
	return cloneMeta(next), nil
}

func (s *FileStore[T]) read(key string) (fileEnvelope[T], bool, error) {
	var env fileEnvelope[T]
	raw, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return env, false, nil
		}
		return env, false, fmt.Errorf("state: read %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return env, true, nil
}

func (s *FileStore[T]) write(key string, env fileEnvelope[T]) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("state: create dir: %w", err)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.Dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("state: temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("state: write %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("state: sync %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("state: close %q: %w", key, err)
	}
	if err := os.Rename(tmpPath, s.Path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("state: rename %q: %w", key, err)
	}
	return nil
}

func (s *FileStore[T]) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
