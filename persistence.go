package resume

import (
	"context"
	"fmt"

	"github.com/goliatone/go-resume/pkg/state"
)

// DefaultStorageKey names the persisted history when callers have no better key.
const DefaultStorageKey = "resume-history-storage"

// Load builds a History from the state saved under key. A missing key yields
// the default document with empty history.
func Load(ctx context.Context, store state.Store[HistoryState], key string, opts ...Option) (*History, error) {
	if store == nil {
		return nil, fmt.Errorf("resume: store is required")
	}
	if key == "" {
		key = DefaultStorageKey
	}
	h := New(opts...)

	snapshot, _, ok, err := store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("resume: load %q: %w", key, err)
	}
	if ok {
		h.Restore(snapshot)
	}
	return h, nil
}

// Autosave saves the full history under key after every committed transition
// until the returned function is called. Failures go to onError and the logger;
// editing is never interrupted.
func (h *History) Autosave(ctx context.Context, store state.Store[HistoryState], key string, onError func(error)) func() {
	if store == nil {
		return func() {}
	}
	if key == "" {
		key = DefaultStorageKey
	}
	report := func(err error) {
		h.cfg.logger.LogHistory(HistoryLogEvent{Action: ActionAutosave, Err: err})
		if onError != nil {
			onError(err)
		}
	}

	return h.Subscribe(func(Document) {
		if err := ctx.Err(); err != nil {
			return
		}
		snapshot := h.State()
		meta := state.Meta{Extra: map[string]string{"version": snapshot.Present.Meta.Version}}
		if _, err := store.Save(ctx, key, snapshot, meta); err != nil {
			report(fmt.Errorf("resume: autosave %q: %w", key, err))
		}
	})
}

// SaveState writes the full history under key outside of autosave. When
// meta.ETag is set the save only succeeds if the stored snapshot still carries
// it, so a stale editor cannot overwrite a newer save.
func (h *History) SaveState(ctx context.Context, store state.Store[HistoryState], key string, meta state.Meta) (state.Meta, error) {
	if key == "" {
		key = DefaultStorageKey
	}
	current := h.State()
	_, saved, err := state.Mutate(ctx, store, key, meta, func(snapshot *HistoryState) error {
		*snapshot = current
		return nil
	})
	if err != nil {
		return saved, fmt.Errorf("resume: save %q: %w", key, err)
	}
	return saved, nil
}
