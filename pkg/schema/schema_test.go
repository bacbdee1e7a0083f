package schema

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

type card struct {
	Name     string            `json:"name" description:"display name"`
	Kind     string            `json:"kind" enum:"a, b"`
	Size     float64           `json:"size" minimum:"1" maximum:"10"`
	Tags     []string          `json:"tags"`
	Extra    map[string]string `json:"extra,omitempty"`
	Nested   *inner            `json:"nested"`
	Created  time.Time         `json:"created"`
	Skipped  string            `json:"-"`
	internal string
}

type inner struct {
	On bool `json:"on"`
}

type loop struct {
	Next *loop `json:"next"`
}

func TestGenerateStruct(t *testing.T) {
	doc, err := Generate(card{}, WithTitle("Card"), WithID("urn:card"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc["$schema"] != Draft || doc["title"] != "Card" || doc["$id"] != "urn:card" {
		t.Fatalf("unexpected header %v", doc)
	}

	props := doc["properties"].(map[string]any)
	if _, ok := props["Skipped"]; ok {
		t.Fatalf("expected json:\"-\" field skipped")
	}
	if _, ok := props["internal"]; ok {
		t.Fatalf("expected unexported field skipped")
	}

	wantRequired := []string{"created", "kind", "name", "size", "tags"}
	if !reflect.DeepEqual(wantRequired, doc["required"]) {
		t.Fatalf("expected required %v, got %v", wantRequired, doc["required"])
	}

	kind := props["kind"].(map[string]any)
	if !reflect.DeepEqual([]any{"a", "b"}, kind["enum"]) {
		t.Fatalf("unexpected enum %v", kind["enum"])
	}
	size := props["size"].(map[string]any)
	if size["type"] != "number" || size["minimum"] != 1.0 || size["maximum"] != 10.0 {
		t.Fatalf("unexpected size schema %v", size)
	}
	tags := props["tags"].(map[string]any)
	if tags["items"].(map[string]any)["type"] != "string" {
		t.Fatalf("expected item schema for an empty slice, got %v", tags)
	}
	extra := props["extra"].(map[string]any)
	if extra["additionalProperties"].(map[string]any)["type"] != "string" {
		t.Fatalf("unexpected map schema %v", extra)
	}
	if props["created"].(map[string]any)["format"] != "date-time" {
		t.Fatalf("expected date-time format for time.Time")
	}
	if props["name"].(map[string]any)["description"] != "display name" {
		t.Fatalf("expected description tag applied")
	}
}

func TestGenerateRejectsUnsupported(t *testing.T) {
	if _, err := Generate(nil); err == nil {
		t.Fatalf("expected error for nil value")
	}
	if _, err := Generate(map[int]string{}); err == nil {
		t.Fatalf("expected error for non-string map keys")
	}
	_, err := Generate(loop{})
	if err == nil || !strings.Contains(err.Error(), "recursive") {
		t.Fatalf("expected recursive type error, got %v", err)
	}
}
