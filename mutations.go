package resume

import (
	"encoding/json"
	"math"

	"github.com/goliatone/go-resume/layering"
)

// ContentPatch is a partial update of Content. Nil fields are left untouched;
// Contact merges by key and Sections, when non-nil, replaces the list.
type ContentPatch struct {
	Name     *string
	Summary  *string
	Contact  map[string]any
	Sections []Section
}

// PagePatch is a partial update of Page. Nil, non-finite and non-positive
// values are dropped.
type PagePatch struct {
	Width  *float64
	Height *float64
}

// UpdateContent merges patch into the document content.
func (h *History) UpdateContent(patch ContentPatch) {
	contact := stringSlots(patch.Contact)
	sections := h.materializeSections(patch.Sections)
	h.apply(ActionUpdateContent, func(doc Document) Document {
		if patch.Name != nil {
			doc.Content.Name = *patch.Name
		}
		if patch.Summary != nil {
			doc.Content.Summary = *patch.Summary
		}
		if len(contact) > 0 {
			doc.Content.Contact = layering.MergeLayers(Contact(contact), doc.Content.Contact)
		}
		if sections != nil {
			doc.Content.Sections = sections
		}
		return doc
	})
}

// UpdateColors merges the string entries of patch into the palette by slot.
func (h *History) UpdateColors(patch map[string]any) {
	colors := Colors(stringSlots(patch))
	h.apply(ActionUpdateColors, func(doc Document) Document {
		doc.Colors = layering.MergeLayers(colors, doc.Colors)
		return doc
	})
}

// UpdateColor sets a single palette slot.
func (h *History) UpdateColor(slot, value string) {
	h.UpdateColors(map[string]any{slot: value})
}

// ResetColors merges the default palette back over the named slots. Extra
// slots are kept.
func (h *History) ResetColors() {
	h.apply(ActionUpdateColors, func(doc Document) Document {
		doc.Colors = layering.MergeLayers(DefaultColors(), doc.Colors)
		return doc
	})
}

// UpdateLayout switches the layout. Unknown layouts are dropped.
func (h *History) UpdateLayout(layout Layout) {
	h.apply(ActionUpdateLayout, func(doc Document) Document {
		if layout.Valid() {
			doc.Layout = layout
		}
		return doc
	})
}

// UpdatePage merges patch into the page geometry. Callers are expected to clamp
// values first, see ClampPageDimension.
func (h *History) UpdatePage(patch PagePatch) {
	h.apply(ActionUpdatePage, func(doc Document) Document {
		if v, ok := positive(patch.Width); ok {
			doc.Page.Width = v
		}
		if v, ok := positive(patch.Height); ok {
			doc.Page.Height = v
		}
		return doc
	})
}

// UpdateFonts merges numeric entries of patch into the font scale by slot
// name. Unknown slots and non-numeric or non-positive values are dropped.
func (h *History) UpdateFonts(patch map[string]any) {
	sizes := make(map[string]float64, len(patch))
	for slot, raw := range patch {
		if v, ok := toNumber(raw); ok && v > 0 {
			sizes[slot] = v
		}
	}
	h.apply(ActionUpdateFonts, func(doc Document) Document {
		for slot, size := range sizes {
			if field := doc.Fonts.slot(slot); field != nil {
				*field = size
			}
		}
		return doc
	})
}

// UpdatePreviewRenderPDF selects the preview render mode.
func (h *History) UpdatePreviewRenderPDF(enabled bool) {
	h.apply(ActionUpdatePreview, func(doc Document) Document {
		doc.PreviewRenderPDF = enabled
		return doc
	})
}

func (f *Fonts) slot(name string) *float64 {
	switch name {
	case FontHeading:
		return &f.Heading
	case FontSubheading:
		return &f.Subheading
	case FontAccent:
		return &f.Accent
	case FontBody:
		return &f.Body
	case FontContact:
		return &f.Contact
	case FontLabel, "labelSize":
		return &f.Label
	default:
		return nil
	}
}

func stringSlots(patch map[string]any) map[string]string {
	if len(patch) == 0 {
		return nil
	}
	out := make(map[string]string, len(patch))
	for key, raw := range patch {
		if value, ok := raw.(string); ok {
			out[key] = value
		}
	}
	return out
}

func positive(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return 0, false
	}
	return *v, true
}

func toNumber(raw any) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case uint:
		v = float64(n)
	case uint32:
		v = float64(n)
	case uint64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
