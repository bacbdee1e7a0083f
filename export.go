package resume

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-resume/pkg/schema"
)

// ExportJSON returns the present document as indented JSON. It does not touch
// history.
func (h *History) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(h.Present(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("resume: export json: %w", err)
	}
	return data, nil
}

// ExportLegacyJSON returns the present document in the layout of the original
// browser editor: content under "resume", the summary as "description" and
// item labels under their title/organization/date/description names. Import
// accepts the result.
func (h *History) ExportLegacyJSON() ([]byte, error) {
	raw, err := json.Marshal(h.Present())
	if err != nil {
		return nil, fmt.Errorf("resume: export legacy json: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("resume: export legacy json: %w", err)
	}

	content, _ := payload["content"].(map[string]any)
	delete(payload, "content")
	payload["resume"] = content
	renameKey(content, "summary", "description")
	sections, _ := content["sections"].([]any)
	for _, rawSection := range sections {
		section, _ := rawSection.(map[string]any)
		items, _ := section["items"].([]any)
		for _, rawItem := range items {
			item, ok := rawItem.(map[string]any)
			if !ok {
				continue
			}
			for legacy, current := range legacyItemKeys {
				renameKey(item, current, legacy)
			}
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("resume: export legacy json: %w", err)
	}
	return data, nil
}

// DocumentSchema returns the JSON Schema of an exported Document.
func DocumentSchema() (map[string]any, error) {
	return schema.Generate(Document{},
		schema.WithTitle("Résumé document"),
		schema.WithDescription("Document version "+DocumentVersion),
	)
}
