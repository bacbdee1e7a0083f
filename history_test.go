package resume

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestHistory(opts ...Option) *History {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()),
	}
	return New(append(base, opts...)...)
}

func strPtr(v string) *string { return &v }

func TestNewStartsWithDefaultDocument(t *testing.T) {
	h := newTestHistory()
	want := DefaultDocument(testNow)
	if got := h.Present(); !reflect.DeepEqual(want, got) {
		t.Fatalf("default document mismatch:\nwant: %#v\n got: %#v", want, got)
	}
	if h.CanUndo() || h.CanRedo() {
		t.Fatalf("expected empty history")
	}
	if h.Limit() != DefaultHistoryLimit {
		t.Fatalf("expected limit %d, got %d", DefaultHistoryLimit, h.Limit())
	}
}

func TestUndoRedoInverseLaw(t *testing.T) {
	h := newTestHistory()
	start := h.Present()

	h.UpdateContent(ContentPatch{Name: strPtr("Ada Lovelace")})
	h.UpdateColor(ColorAccent, "#ff0000")
	section := h.AddSection("Experience")
	item := h.AddItem(section)
	h.UpdateItem(section, item, ItemPatch{Label1: strPtr("Analyst"), Bullets: []string{"notes on the engine"}})
	h.UpdateFonts(map[string]any{FontHeading: 30})
	h.UpdateLayout(LayoutOneColumn)
	h.UpdatePage(PagePatch{Width: floatPtr(216), Height: floatPtr(279)})
	h.UpdatePreviewRenderPDF(true)
	const edits = 9

	final := h.Present()
	if got := len(h.Past()); got != edits {
		t.Fatalf("expected %d past entries, got %d", edits, got)
	}

	for i := 0; i < edits; i++ {
		h.Undo()
	}
	if got := h.Present(); !reflect.DeepEqual(start, got) {
		t.Fatalf("undo did not return to the start:\nwant: %#v\n got: %#v", start, got)
	}
	if h.CanUndo() || !h.CanRedo() {
		t.Fatalf("expected canUndo=false canRedo=true, got %t %t", h.CanUndo(), h.CanRedo())
	}

	for i := 0; i < edits; i++ {
		h.Redo()
	}
	if got := h.Present(); !reflect.DeepEqual(final, got) {
		t.Fatalf("redo did not return to the final state:\nwant: %#v\n got: %#v", final, got)
	}
	if h.CanRedo() {
		t.Fatalf("expected empty future after redoing everything")
	}
}

func TestUndoRedoOnEmptyStacksAreNoops(t *testing.T) {
	h := newTestHistory()
	calls := 0
	h.Subscribe(func(Document) { calls++ })

	before := h.State()
	h.Undo()
	h.Redo()
	if !reflect.DeepEqual(before, h.State()) {
		t.Fatalf("expected state untouched")
	}
	if calls != 0 {
		t.Fatalf("expected no notifications, got %d", calls)
	}
}

func TestNewEditClearsFuture(t *testing.T) {
	h := newTestHistory()
	h.UpdateContent(ContentPatch{Name: strPtr("one")})
	h.UpdateContent(ContentPatch{Name: strPtr("two")})
	h.Undo()
	if !h.CanRedo() {
		t.Fatalf("expected redo available after undo")
	}

	h.UpdateContent(ContentPatch{Name: strPtr("three")})
	if h.CanRedo() || len(h.Future()) != 0 {
		t.Fatalf("expected future cleared by a new edit")
	}
	h.Redo()
	if got := h.Present().Content.Name; got != "three" {
		t.Fatalf("expected redo to be a no-op, got name %q", got)
	}
}

func TestHistoryCapDropsOldestEntries(t *testing.T) {
	h := newTestHistory()
	for i := 1; i <= 60; i++ {
		h.UpdateContent(ContentPatch{Name: strPtr(fmt.Sprintf("edit-%d", i))})
	}
	if got := len(h.Past()); got != DefaultHistoryLimit {
		t.Fatalf("expected past capped at %d, got %d", DefaultHistoryLimit, got)
	}

	for h.CanUndo() {
		h.Undo()
	}
	if got := h.Present().Content.Name; got != "edit-10" {
		t.Fatalf("expected oldest recoverable state edit-10, got %q", got)
	}
}

func TestWithHistoryLimit(t *testing.T) {
	h := newTestHistory(WithHistoryLimit(3), WithHistoryLimit(0))
	for i := 0; i < 5; i++ {
		h.UpdateLayout(LayoutOneColumn)
	}
	if got := len(h.Past()); got != 3 {
		t.Fatalf("expected 3 past entries, got %d", got)
	}
}

func TestNoopMutationStillRecordsEntry(t *testing.T) {
	h := newTestHistory()
	h.UpdateLayout(h.Present().Layout)
	h.UpdateColors(nil)
	if got := len(h.Past()); got != 2 {
		t.Fatalf("expected one entry per call, got %d", got)
	}
}

func TestResetClearsHistory(t *testing.T) {
	h := newTestHistory()
	h.UpdateContent(ContentPatch{Name: strPtr("Ada")})
	h.AddSection("Education")
	h.Undo()

	h.Reset()
	st := h.State()
	if len(st.Past) != 0 || len(st.Future) != 0 || st.CanUndo || st.CanRedo {
		t.Fatalf("expected empty history after reset, got %+v", st)
	}
	if !reflect.DeepEqual(DefaultDocument(testNow), st.Present) {
		t.Fatalf("expected default document after reset, got %#v", st.Present)
	}
}

func TestClearHistoryKeepsPresent(t *testing.T) {
	h := newTestHistory()
	h.UpdateContent(ContentPatch{Name: strPtr("Ada")})
	h.UpdateContent(ContentPatch{Name: strPtr("Grace")})
	h.Undo()
	want := h.Present()

	var notified []Document
	h.Subscribe(func(doc Document) { notified = append(notified, doc) })
	h.ClearHistory()

	st := h.State()
	if len(st.Past) != 0 || len(st.Future) != 0 || st.CanUndo || st.CanRedo {
		t.Fatalf("expected empty history, got %+v", st)
	}
	if !reflect.DeepEqual(want, st.Present) {
		t.Fatalf("expected present kept:\nwant: %#v\n got: %#v", want, st.Present)
	}
	if len(notified) != 1 {
		t.Fatalf("expected one notification, got %d", len(notified))
	}

	h.Undo()
	if h.Present().Content.Name != "Ada" {
		t.Fatalf("expected undo to be a no-op after clear, got %q", h.Present().Content.Name)
	}
}

func TestReplaceAllInstallsDocumentAndClearsHistory(t *testing.T) {
	h := newTestHistory()
	h.UpdateContent(ContentPatch{Name: strPtr("Ada")})
	h.Undo()

	doc := DefaultDocument(testNow)
	doc.Content.Name = "Imported"
	doc.Colors = Colors{ColorAccent: "#000000"}
	h.ReplaceAll(doc)

	if h.CanUndo() || h.CanRedo() {
		t.Fatalf("expected history cleared after replace")
	}
	present := h.Present()
	if present.Content.Name != "Imported" || present.Colors[ColorAccent] != "#000000" {
		t.Fatalf("expected replaced document, got %#v", present)
	}
	if present.Colors[ColorBackground] != "#ffffff" {
		t.Fatalf("expected missing slots backfilled, got %q", present.Colors[ColorBackground])
	}
	doc.Content.Name = "changed"
	if h.Present().Content.Name != "Imported" {
		t.Fatalf("expected replace to copy the caller document")
	}
}

func TestWithDefaultDocumentUsedByReset(t *testing.T) {
	template := DefaultDocument(time.Time{})
	template.Content.Name = "Template"
	template.Layout = LayoutOneColumn

	h := newTestHistory(WithDefaultDocument(template))
	h.UpdateContent(ContentPatch{Name: strPtr("Edited")})
	h.Reset()

	present := h.Present()
	if present.Content.Name != "Template" || present.Layout != LayoutOneColumn {
		t.Fatalf("expected template after reset, got %#v", present)
	}
	if !present.Meta.CreatedAt.Equal(testNow) {
		t.Fatalf("expected reset to restamp createdAt, got %v", present.Meta.CreatedAt)
	}
}

func TestPresentReturnsCopy(t *testing.T) {
	h := newTestHistory()
	section := h.AddSection("Experience")
	item := h.AddItem(section)
	h.AddBullet(section, item)

	doc := h.Present()
	doc.Colors[ColorAccent] = "#000000"
	doc.Content.Contact["email"] = "leak@example.com"
	doc.Content.Sections[0].Items[0].Bullets[0] = "leaked"
	doc.Content.Sections = append(doc.Content.Sections, Section{ID: "extra"})

	fresh := h.Present()
	if fresh.Colors[ColorAccent] != DefaultColors()[ColorAccent] {
		t.Fatalf("expected palette isolated, got %q", fresh.Colors[ColorAccent])
	}
	if _, ok := fresh.Content.Contact["email"]; ok {
		t.Fatalf("expected contact isolated")
	}
	if got := fresh.Content.Sections[0].Items[0].Bullets[0]; got != "" {
		t.Fatalf("expected bullets isolated, got %q", got)
	}
	if len(fresh.Content.Sections) != 1 {
		t.Fatalf("expected sections isolated, got %d", len(fresh.Content.Sections))
	}
}

func TestSubscribersSeeCommitsInOrder(t *testing.T) {
	h := newTestHistory()
	var first, second []string
	unsubscribe := h.Subscribe(func(doc Document) { first = append(first, doc.Content.Name) })
	h.Subscribe(func(doc Document) { second = append(second, doc.Content.Name) })
	h.Subscribe(nil)()

	h.UpdateContent(ContentPatch{Name: strPtr("a")})
	h.UpdateContent(ContentPatch{Name: strPtr("b")})
	h.Undo()

	want := []string{"a", "b", "a"}
	if !reflect.DeepEqual(want, first) || !reflect.DeepEqual(want, second) {
		t.Fatalf("expected %v for both subscribers, got %v and %v", want, first, second)
	}

	unsubscribe()
	unsubscribe()
	h.Redo()
	if len(first) != 3 {
		t.Fatalf("expected no delivery after unsubscribe, got %v", first)
	}
	if len(second) != 4 || second[3] != "b" {
		t.Fatalf("expected remaining subscriber notified, got %v", second)
	}
}

func TestSubscriberReceivesCopy(t *testing.T) {
	h := newTestHistory()
	h.Subscribe(func(doc Document) { doc.Colors[ColorTitle] = "#123456" })
	h.UpdateColor(ColorAccent, "#ff0000")

	if got := h.Present().Colors[ColorTitle]; got != DefaultColors()[ColorTitle] {
		t.Fatalf("expected subscriber copy isolated, got %q", got)
	}
}

func TestRestoreTrimsPastAndNormalizes(t *testing.T) {
	h := newTestHistory(WithHistoryLimit(5))

	var past []Document
	for i := 0; i < 8; i++ {
		doc := DefaultDocument(testNow)
		doc.Content.Name = fmt.Sprintf("past-%d", i)
		past = append(past, doc)
	}
	present := DefaultDocument(testNow)
	present.Content.Name = "present"
	present.Colors = Colors{ColorAccent: "#ff0000"}
	present.Content.Sections = []Section{{ID: "s1", Title: "Skills", Items: []SectionItem{{ID: "i1"}}}}

	h.Restore(HistoryState{Past: past, Present: present, CanUndo: false, CanRedo: true})

	st := h.State()
	if len(st.Past) != 5 || st.Past[0].Content.Name != "past-3" {
		t.Fatalf("expected newest five past entries, got %d starting at %q", len(st.Past), st.Past[0].Content.Name)
	}
	if !st.CanUndo || st.CanRedo {
		t.Fatalf("expected booleans recomputed, got canUndo=%t canRedo=%t", st.CanUndo, st.CanRedo)
	}
	for _, slot := range ColorSlots {
		if st.Present.Colors[slot] == "" {
			t.Fatalf("expected slot %q filled after restore", slot)
		}
	}
	if st.Present.Content.Sections[0].Items[0].Bullets == nil {
		t.Fatalf("expected bullets normalised to an empty list")
	}
}

func TestLoggerReceivesTransitions(t *testing.T) {
	var events []HistoryLogEvent
	h := newTestHistory(WithLogger(HistoryLoggerFunc(func(event HistoryLogEvent) {
		events = append(events, event)
	})))

	h.UpdateLayout(LayoutOneColumn)
	h.Undo()
	h.Undo()

	if len(events) != 2 {
		t.Fatalf("expected two logged transitions, got %d", len(events))
	}
	if events[0].Action != ActionUpdateLayout || events[0].Past != 1 {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Action != ActionUndo || events[1].Future != 1 {
		t.Fatalf("unexpected second event %+v", events[1])
	}
}
