// Package resume is the document state manager of a résumé editor: a Document
// model, a History store with linear undo and redo, and the mutation API that
// is the only way to change the present document.
package resume

import (
	"context"
	"sync"

	"github.com/goliatone/go-resume/pkg/activity"
)

// Action names the transition that produced a history entry.
type Action string

const (
	ActionUpdateContent    Action = "content.update"
	ActionUpdateColors     Action = "colors.update"
	ActionUpdateLayout     Action = "layout.update"
	ActionUpdatePage       Action = "page.update"
	ActionUpdateFonts      Action = "fonts.update"
	ActionUpdatePreview    Action = "preview.update"
	ActionAddSection       Action = "sections.add"
	ActionRemoveSection    Action = "sections.remove"
	ActionRenameSection    Action = "sections.rename"
	ActionReorderSections  Action = "sections.reorder"
	ActionAddItem          Action = "items.add"
	ActionRemoveItem       Action = "items.remove"
	ActionUpdateItem       Action = "items.update"
	ActionReorderItems     Action = "items.reorder"
	ActionAddBullet        Action = "bullets.add"
	ActionUpdateBullet     Action = "bullets.update"
	ActionRemoveBullet     Action = "bullets.remove"
	ActionUndo             Action = "undo"
	ActionRedo             Action = "redo"
	ActionReset            Action = "reset"
	ActionClearHistory     Action = "history.clear"
	ActionReplace          Action = "replace"
	ActionRestore          Action = "restore"
	ActionAutosave         Action = "autosave"
	actionActivityDelivery Action = "activity"
)

// PatchFunc derives the next Document from a private copy of the present one.
type PatchFunc func(Document) Document

// HistoryState is the persisted layout of a History.
type HistoryState struct {
	Past    []Document `json:"past"`
	Present Document   `json:"present"`
	Future  []Document `json:"future"`
	CanUndo bool       `json:"canUndo"`
	CanRedo bool       `json:"canRedo"`
}

// History owns the present Document and the bounded past and future stacks.
// Every change to present goes through one of its methods; readers receive
// copies and may not observe a partially applied transition.
type History struct {
	// commitMu serialises transitions together with their notifications so
	// subscribers observe commits in order.
	commitMu sync.Mutex

	mu      sync.RWMutex
	past    []Document
	present Document
	future  []Document

	subscribers []subscriber
	nextSubID   uint64

	cfg     historyConfig
	emitter *activity.Emitter
}

type subscriber struct {
	id uint64
	fn func(Document)
}

// New returns a History holding the default document and no history.
func New(opts ...Option) *History {
	cfg := applyOptions(opts)
	return &History{
		present: cfg.defaultDocument(),
		cfg:     cfg,
		emitter: activity.NewEmitter(cfg.activityHooks, cfg.activityCfg),
	}
}

// Present returns a copy of the active Document.
func (h *History) Present() Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.present.Clone()
}

// CanUndo reports whether past holds at least one entry.
func (h *History) CanUndo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.past) > 0
}

// CanRedo reports whether future holds at least one entry.
func (h *History) CanRedo() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.future) > 0
}

// Past returns copies of the undo entries, oldest first.
func (h *History) Past() []Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cloneDocuments(h.past)
}

// Future returns copies of the redo entries, newest first.
func (h *History) Future() []Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cloneDocuments(h.future)
}

// Limit returns the maximum number of past entries retained.
func (h *History) Limit() int {
	return h.cfg.limit
}

// State returns a copy of the full history for persistence.
func (h *History) State() HistoryState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HistoryState{
		Past:    cloneDocuments(h.past),
		Present: h.present.Clone(),
		Future:  cloneDocuments(h.future),
		CanUndo: len(h.past) > 0,
		CanRedo: len(h.future) > 0,
	}
}

// Subscribe registers fn to receive the new present after every transition.
// Callbacks run synchronously in registration order and must not mutate the
// History. The returned function removes the subscription.
func (h *History) Subscribe(fn func(Document)) func() {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	h.nextSubID++
	id := h.nextSubID
	h.subscribers = append(h.subscribers, subscriber{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, sub := range h.subscribers {
				if sub.id == id {
					h.subscribers = append(h.subscribers[:i:i], h.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Undo moves present onto future and restores the newest past entry. It is a
// no-op when past is empty.
func (h *History) Undo() {
	h.transition(ActionUndo, func() bool {
		if len(h.past) == 0 {
			return false
		}
		last := len(h.past) - 1
		previous := h.past[last]
		h.past = h.past[:last]
		h.future = append([]Document{h.present}, h.future...)
		h.present = previous
		return true
	})
}

// Redo moves present onto past and restores the newest future entry. It is a
// no-op when future is empty.
func (h *History) Redo() {
	h.transition(ActionRedo, func() bool {
		if len(h.future) == 0 {
			return false
		}
		next := h.future[0]
		h.future = append([]Document(nil), h.future[1:]...)
		h.pushPast(h.present)
		h.present = next
		return true
	})
}

// Reset installs the default document and discards all history. It cannot be
// undone.
func (h *History) Reset() {
	h.transition(ActionReset, func() bool {
		h.past = nil
		h.future = nil
		h.present = h.cfg.defaultDocument()
		return true
	})
}

// ClearHistory drops past and future and keeps present. It cannot be undone.
func (h *History) ClearHistory() {
	h.transition(ActionClearHistory, func() bool {
		h.past = nil
		h.future = nil
		return true
	})
}

// ReplaceAll installs doc as present and discards all history.
func (h *History) ReplaceAll(doc Document) {
	h.replace(ActionReplace, doc)
}

// Restore reinstalls a persisted state. Past entries beyond the limit are
// dropped oldest first.
func (h *History) Restore(state HistoryState) {
	h.transition(ActionRestore, func() bool {
		h.past = normalizeDocuments(state.Past)
		h.trimPast()
		h.future = normalizeDocuments(state.Future)
		h.present = state.Present.Clone().normalize()
		return true
	})
}

func (h *History) replace(action Action, doc Document) {
	next := doc.Clone().normalize()
	h.transition(action, func() bool {
		h.past = nil
		h.future = nil
		h.present = next
		return true
	})
}

// apply is the single entry point for edits: it snapshots present onto past,
// installs fn's result and clears future.
func (h *History) apply(action Action, fn PatchFunc) {
	h.transition(action, func() bool {
		next := h.present.Clone()
		if fn != nil {
			next = fn(next)
		}
		h.pushPast(h.present)
		h.present = next.normalize()
		h.future = nil
		return true
	})
}

func (h *History) pushPast(doc Document) {
	h.past = append(h.past, doc)
	h.trimPast()
}

func (h *History) trimPast() {
	if over := len(h.past) - h.cfg.limit; over > 0 {
		h.past = append([]Document(nil), h.past[over:]...)
	}
}

// transition runs step under the write lock and, when it reports a change,
// logs, emits activity and notifies subscribers before the next transition
// may start.
func (h *History) transition(action Action, step func() bool) {
	h.commitMu.Lock()
	defer h.commitMu.Unlock()

	h.mu.Lock()
	if !step() {
		h.mu.Unlock()
		return
	}
	present := h.present
	pastLen, futureLen := len(h.past), len(h.future)
	subs := append([]subscriber(nil), h.subscribers...)
	h.mu.Unlock()

	h.cfg.logger.LogHistory(HistoryLogEvent{Action: action, Past: pastLen, Future: futureLen})
	h.emitActivity(action, pastLen, futureLen)

	for _, sub := range subs {
		sub.fn(present.Clone())
	}
}

func (h *History) emitActivity(action Action, pastLen, futureLen int) {
	if !h.emitter.Enabled() {
		return
	}
	event := activity.BuildDocumentEvent(activityVerb(action), activity.DocumentEventInput{
		Identity:   h.cfg.identity,
		Action:     string(action),
		Past:       pastLen,
		Future:     futureLen,
		OccurredAt: h.cfg.now(),
	})
	if err := h.emitter.Emit(context.Background(), event); err != nil {
		h.cfg.logger.LogHistory(HistoryLogEvent{Action: actionActivityDelivery, Past: pastLen, Future: futureLen, Err: err})
	}
}

func activityVerb(action Action) string {
	switch action {
	case ActionUndo:
		return activity.VerbUndone
	case ActionRedo:
		return activity.VerbRedone
	case ActionReset:
		return activity.VerbReset
	case ActionReplace:
		return activity.VerbImported
	case ActionRestore:
		return activity.VerbRestored
	case ActionClearHistory:
		return activity.VerbCleared
	default:
		return activity.VerbUpdated
	}
}

func cloneDocuments(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i := range docs {
		out[i] = docs[i].Clone()
	}
	return out
}

func normalizeDocuments(docs []Document) []Document {
	if len(docs) == 0 {
		return nil
	}
	out := make([]Document, len(docs))
	for i := range docs {
		out[i] = docs[i].Clone().normalize()
	}
	return out
}
