package resume

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-resume/pkg/activity"
)

func TestActivityEventsFollowTransitions(t *testing.T) {
	capture := &activity.CaptureHook{}
	h := newTestHistory(
		WithActivityHooks(capture, nil),
		WithActivityIdentity(activity.Identity{ActorID: "editor-1", DocumentID: "cv"}),
	)

	h.UpdateContent(ContentPatch{Name: strPtr("Ada")})
	h.Undo()
	h.Redo()
	h.Undo()
	h.Undo()
	h.Reset()
	if err := h.ImportJSON([]byte(`{"content":{},"colors":{},"layout":"one-column","page":{},"fonts":{}}`)); err != nil {
		t.Fatalf("import: %v", err)
	}
	h.ClearHistory()

	events := capture.Events()
	want := []string{
		activity.VerbUpdated,
		activity.VerbUndone,
		activity.VerbRedone,
		activity.VerbUndone,
		activity.VerbReset,
		activity.VerbImported,
		activity.VerbCleared,
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, verb := range want {
		if events[i].Verb != verb {
			t.Fatalf("event %d: expected %s, got %s", i, verb, events[i].Verb)
		}
	}

	first := events[0]
	if first.ActorID != "editor-1" || first.ObjectID != "cv" || first.ObjectType != activity.ObjectTypeDocument {
		t.Fatalf("unexpected identity on event %+v", first)
	}
	if first.Channel != activity.DefaultChannel || !first.OccurredAt.Equal(testNow) {
		t.Fatalf("unexpected channel or time on event %+v", first)
	}
	if first.Metadata["action"] != string(ActionUpdateContent) || first.Metadata["past"] != 1 {
		t.Fatalf("unexpected metadata %v", first.Metadata)
	}
}

func TestActivityFailuresAreLoggedNotSurfaced(t *testing.T) {
	var logged []HistoryLogEvent
	hook := activity.HookFunc(func(context.Context, activity.Event) error {
		return errors.New("sink offline")
	})
	h := newTestHistory(
		WithActivityHooks(hook),
		WithLogger(HistoryLoggerFunc(func(event HistoryLogEvent) {
			if event.Err != nil {
				logged = append(logged, event)
			}
		})),
	)

	h.UpdateLayout(LayoutOneColumn)
	if h.Present().Layout != LayoutOneColumn {
		t.Fatalf("expected edit committed")
	}
	if len(logged) != 1 || logged[0].Action != actionActivityDelivery {
		t.Fatalf("expected one logged delivery failure, got %+v", logged)
	}
}

func TestActivityDisabledByConfig(t *testing.T) {
	capture := &activity.CaptureHook{}
	h := newTestHistory(
		WithActivityHooks(capture),
		WithActivityConfig(activity.Config{Enabled: false}),
	)
	h.UpdateLayout(LayoutOneColumn)
	if got := len(capture.Events()); got != 0 {
		t.Fatalf("expected no events, got %d", got)
	}
}
