package activity

import (
	"strings"
	"time"
)

// Verbs emitted for document history transitions.
const (
	VerbUpdated  = "resume.updated"
	VerbUndone   = "resume.undone"
	VerbRedone   = "resume.redone"
	VerbReset    = "resume.reset"
	VerbImported = "resume.imported"
	VerbRestored = "resume.restored"
	VerbCleared  = "resume.history_cleared"
)

// ObjectTypeDocument is the object type of every document event.
const ObjectTypeDocument = "resume.document"

// Identity names who is editing which document.
type Identity struct {
	ActorID    string
	UserID     string
	TenantID   string
	DocumentID string
}

// DocumentEventInput carries the fields of one history transition.
type DocumentEventInput struct {
	Identity   Identity
	Action     string
	Past       int
	Future     int
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildDocumentEvent constructs an event for a history transition. The
// document id falls back to "present" when the identity does not name one.
func BuildDocumentEvent(verb string, input DocumentEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	if action := strings.TrimSpace(input.Action); action != "" {
		metadata["action"] = action
	}
	metadata["past"] = input.Past
	metadata["future"] = input.Future

	objectID := strings.TrimSpace(input.Identity.DocumentID)
	if objectID == "" {
		objectID = "present"
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.Identity.ActorID),
		UserID:     strings.TrimSpace(input.Identity.UserID),
		TenantID:   strings.TrimSpace(input.Identity.TenantID),
		ObjectType: ObjectTypeDocument,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
