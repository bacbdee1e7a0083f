package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-resume/pkg/activity"
	"github.com/goliatone/go-resume/pkg/activity/usersink"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsDocumentEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildDocumentEvent(activity.VerbUndone, activity.DocumentEventInput{
		Identity: activity.Identity{
			ActorID:    actorID.String(),
			TenantID:   tenantID.String(),
			DocumentID: "resume-history-storage",
		},
		Action:     "undo",
		Past:       2,
		Future:     1,
		Channel:    "resume",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.TenantID != tenantID {
		t.Fatalf("expected tenant %s got %s", tenantID, record.TenantID)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected nil user, got %s", record.UserID)
	}
	if record.Verb != activity.VerbUndone || record.ObjectType != activity.ObjectTypeDocument {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.ObjectID != "resume-history-storage" {
		t.Fatalf("expected object id from identity, got %q", record.ObjectID)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["action"] != "undo" || record.Data["past"] != 2 || record.Data["future"] != 1 {
		t.Fatalf("expected history counters in data, got %v", record.Data)
	}
}

func TestHookNotifyKeepsNonUUIDActor(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbUpdated,
		ActorID:    "cli",
		ObjectType: activity.ObjectTypeDocument,
		ObjectID:   "present",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil actor uuid, got %s", record.ActorID)
	}
	if record.Data["actor_ref"] != "cli" {
		t.Fatalf("expected actor_ref cli, got %v", record.Data["actor_ref"])
	}
	if record.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookNotifySkipsIncompleteEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{Verb: activity.VerbUpdated})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for incomplete event, got %d", len(sink.records))
	}
}

func TestHookNotifyReturnsSinkError(t *testing.T) {
	sinkErr := errors.New("sink down")
	sink := &recordingSink{err: sinkErr}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.BuildDocumentEvent(activity.VerbReset, activity.DocumentEventInput{}))
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
}
