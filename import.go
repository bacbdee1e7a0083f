package resume

import (
	"encoding/json"
	"errors"

	"github.com/goliatone/go-resume/internal/hydrate"
)

// ImportRegions are the top-level keys a candidate document must carry.
var ImportRegions = []string{"content", "colors", "layout", "page", "fonts"}

var legacyItemKeys = map[string]string{
	"title":        "label1",
	"organization": "label2",
	"date":         "label3",
	"description":  "notes",
}

// ImportJSON parses data and imports it, see Import.
func (h *History) ImportJSON(data []byte) error {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return &ImportError{Err: err}
	}
	if payload == nil {
		return &ImportError{Missing: append([]string(nil), ImportRegions...)}
	}
	return h.Import(payload)
}

// Import installs payload as present and clears history. The payload must
// carry every region in ImportRegions; anything deeper is normalised rather
// than validated. On failure the returned error matches ErrInvalidImport and
// the History is unchanged.
func (h *History) Import(payload map[string]any) error {
	doc, err := h.decodeImport(payload)
	if err != nil {
		return err
	}
	h.ReplaceAll(doc)
	return nil
}

func (h *History) decodeImport(payload map[string]any) (Document, error) {
	decoder := hydrate.NewDecoder[Document](
		hydrate.WithPreHook[Document](hydrate.RenameKey("resume", "content")),
		hydrate.WithPreHook[Document](hydrate.RequireKeys(ImportRegions...)),
		hydrate.WithPreHook[Document](normalizeLegacyContent),
		hydrate.WithPreHook[Document](dropNonStringColors),
		hydrate.WithPostHook[Document](h.completeImport),
	)

	doc, err := decoder.Decode(hydrate.Context{Source: "import"}, payload)
	if err != nil {
		var missing *hydrate.MissingKeysError
		if errors.As(err, &missing) {
			return Document{}, &ImportError{Missing: missing.Keys}
		}
		return Document{}, &ImportError{Err: err}
	}
	return doc, nil
}

func normalizeLegacyContent(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	content, ok := payload["content"].(map[string]any)
	if !ok {
		return payload, nil
	}
	renameKey(content, "description", "summary")

	sections, _ := content["sections"].([]any)
	for _, rawSection := range sections {
		section, ok := rawSection.(map[string]any)
		if !ok {
			continue
		}
		items, _ := section["items"].([]any)
		for _, rawItem := range items {
			item, ok := rawItem.(map[string]any)
			if !ok {
				continue
			}
			for from, to := range legacyItemKeys {
				renameKey(item, from, to)
			}
		}
	}
	return payload, nil
}

func dropNonStringColors(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	colors, ok := payload["colors"].(map[string]any)
	if !ok {
		return payload, nil
	}
	for slot, value := range colors {
		if _, ok := value.(string); !ok {
			delete(colors, slot)
		}
	}
	return payload, nil
}

// completeImport fills what a hand-edited or older export may lack: ids,
// a valid layout, page and font scale, and a creation stamp.
func (h *History) completeImport(_ hydrate.Context, doc *Document) error {
	defaults := DefaultDocument(h.cfg.now())
	if doc.Meta.CreatedAt.IsZero() {
		doc.Meta.CreatedAt = defaults.Meta.CreatedAt
	}
	if !doc.Layout.Valid() {
		doc.Layout = defaults.Layout
	}
	if doc.Page.Width <= 0 {
		doc.Page.Width = defaults.Page.Width
	}
	if doc.Page.Height <= 0 {
		doc.Page.Height = defaults.Page.Height
	}
	fonts := DefaultFonts()
	for _, slot := range []string{FontHeading, FontSubheading, FontAccent, FontBody, FontContact, FontLabel} {
		if field := doc.Fonts.slot(slot); *field <= 0 {
			*field = *fonts.slot(slot)
		}
	}
	if doc.Content.Sections != nil {
		doc.Content.Sections = h.materializeSections(doc.Content.Sections)
	}
	*doc = doc.normalize()
	return nil
}

func renameKey(m map[string]any, from, to string) {
	value, ok := m[from]
	if !ok {
		return
	}
	if _, exists := m[to]; !exists {
		m[to] = value
	}
	delete(m, from)
}
