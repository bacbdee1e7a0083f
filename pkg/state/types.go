package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

var ErrInvalidKey = errors.New("state: invalid key")

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one snapshot per key.
type Store[T any] interface {
	Load(ctx context.Context, key string) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, key string, snapshot T, meta Meta) (Meta, error)
}

// Mutator edits a loaded snapshot in place.
type Mutator[T any] func(*T) error

// Mutate loads key, applies fn and saves the result, guarding the save with the
// loaded ETag. A missing key starts from the zero value. meta.ETag, when set,
// must match the stored ETag.
func Mutate[T any](ctx context.Context, store Store[T], key string, meta Meta, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if err := ValidateKey(key); err != nil {
		return zero, Meta{}, err
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, loaded, ok, err := store.Load(ctx, key)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("state: load %q: %w", key, err)
	}
	if !ok {
		snapshot = zero
		loaded = Meta{}
	}
	if meta.ETag != "" && meta.ETag != loaded.ETag {
		return zero, loaded, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loaded.ETag)
	}

	if err := fn(&snapshot); err != nil {
		return zero, loaded, err
	}

	request := mergeMeta(loaded, meta)
	request.ETag = loaded.ETag
	saved, err := store.Save(ctx, key, snapshot, request)
	if err != nil {
		return zero, loaded, fmt.Errorf("state: save %q: %w", key, err)
	}
	return snapshot, saved, nil
}

// ValidateKey rejects empty keys and keys that could escape a directory.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case key == "." || key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	}
	return nil
}

// nextMeta checks the requested ETag against the current record and returns
// the metadata to store for the new snapshot.
func nextMeta(current Meta, exists bool, requested Meta, now time.Time) (Meta, error) {
	if requested.ETag != "" {
		if !exists || requested.ETag != current.ETag {
			return Meta{}, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, requested.ETag, current.ETag)
		}
	}
	out := cloneMeta(requested)
	out.SnapshotID = uuid.NewString()
	out.ETag = uuid.NewString()
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = now.UTC()
	}
	return out, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
