package resume

import "github.com/goliatone/go-resume/layering"

// DefaultSectionTitle is used by AddSection when no title is given.
const DefaultSectionTitle = "New Section"

// ItemPatch is a partial update of a SectionItem. Nil fields are left
// untouched; Bullets, when non-nil, replaces the list.
type ItemPatch struct {
	Label1  *string
	Label2  *string
	Label3  *string
	Notes   *string
	Bullets []string
}

// AddSection appends an empty section and returns its id.
func (h *History) AddSection(title string) string {
	if title == "" {
		title = DefaultSectionTitle
	}
	id := h.cfg.newID()
	h.apply(ActionAddSection, func(doc Document) Document {
		doc.Content.Sections = append(doc.Content.Sections, Section{
			ID:    id,
			Title: title,
			Items: []SectionItem{},
		})
		return doc
	})
	return id
}

// RemoveSection drops the section with id.
func (h *History) RemoveSection(id string) {
	h.apply(ActionRemoveSection, func(doc Document) Document {
		kept := doc.Content.Sections[:0:0]
		for _, section := range doc.Content.Sections {
			if section.ID != id {
				kept = append(kept, section)
			}
		}
		doc.Content.Sections = kept
		return doc
	})
}

// UpdateSectionTitle renames the section with id.
func (h *History) UpdateSectionTitle(id, title string) {
	h.apply(ActionRenameSection, func(doc Document) Document {
		if section := doc.section(id); section != nil {
			section.Title = title
		}
		return doc
	})
}

// ReorderSections rebuilds the section list in the order of ids. Ids that do
// not resolve are skipped and repeated ids keep their first position. Sections
// missing from ids follow in their current order.
func (h *History) ReorderSections(ids []string) {
	h.apply(ActionReorderSections, func(doc Document) Document {
		doc.Content.Sections = reorder(doc.Content.Sections, ids, func(s Section) string { return s.ID })
		return doc
	})
}

// AddItem appends an empty item to the section and returns its id, or "" when
// the section does not exist. A history entry is recorded either way.
func (h *History) AddItem(sectionID string) string {
	var id string
	h.apply(ActionAddItem, func(doc Document) Document {
		section := doc.section(sectionID)
		if section == nil {
			return doc
		}
		id = h.cfg.newID()
		section.Items = append(section.Items, SectionItem{ID: id, Bullets: []string{}})
		return doc
	})
	return id
}

// RemoveItem drops the item from the section.
func (h *History) RemoveItem(sectionID, itemID string) {
	h.apply(ActionRemoveItem, func(doc Document) Document {
		section := doc.section(sectionID)
		if section == nil {
			return doc
		}
		kept := section.Items[:0:0]
		for _, item := range section.Items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		section.Items = kept
		return doc
	})
}

// UpdateItem merges patch into the item.
func (h *History) UpdateItem(sectionID, itemID string, patch ItemPatch) {
	bullets := layering.Clone(patch.Bullets)
	h.apply(ActionUpdateItem, func(doc Document) Document {
		item := doc.item(sectionID, itemID)
		if item == nil {
			return doc
		}
		if patch.Label1 != nil {
			item.Label1 = *patch.Label1
		}
		if patch.Label2 != nil {
			item.Label2 = *patch.Label2
		}
		if patch.Label3 != nil {
			item.Label3 = *patch.Label3
		}
		if patch.Notes != nil {
			item.Notes = *patch.Notes
		}
		if bullets != nil {
			item.Bullets = bullets
		}
		return doc
	})
}

// ReorderItems rebuilds the item list of a section in the order of ids, with
// the same rules as ReorderSections.
func (h *History) ReorderItems(sectionID string, ids []string) {
	h.apply(ActionReorderItems, func(doc Document) Document {
		if section := doc.section(sectionID); section != nil {
			section.Items = reorder(section.Items, ids, func(i SectionItem) string { return i.ID })
		}
		return doc
	})
}

// AddBullet appends an empty bullet to the item.
func (h *History) AddBullet(sectionID, itemID string) {
	h.apply(ActionAddBullet, func(doc Document) Document {
		if item := doc.item(sectionID, itemID); item != nil {
			item.Bullets = append(item.Bullets, "")
		}
		return doc
	})
}

// UpdateBullet replaces the bullet at index. Out of range indexes are ignored.
func (h *History) UpdateBullet(sectionID, itemID string, index int, text string) {
	h.apply(ActionUpdateBullet, func(doc Document) Document {
		item := doc.item(sectionID, itemID)
		if item == nil || index < 0 || index >= len(item.Bullets) {
			return doc
		}
		item.Bullets[index] = text
		return doc
	})
}

// RemoveBullet deletes the bullet at index. Out of range indexes are ignored.
func (h *History) RemoveBullet(sectionID, itemID string, index int) {
	h.apply(ActionRemoveBullet, func(doc Document) Document {
		item := doc.item(sectionID, itemID)
		if item == nil || index < 0 || index >= len(item.Bullets) {
			return doc
		}
		item.Bullets = append(item.Bullets[:index:index], item.Bullets[index+1:]...)
		return doc
	})
}

// materializeSections deep-copies caller sections and assigns fresh ids to
// entries that lack one or repeat an id already used in the document.
func (h *History) materializeSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := layering.Clone(sections)
	used := make(map[string]struct{})
	claim := func(id string) string {
		if _, taken := used[id]; id == "" || taken {
			id = h.cfg.newID()
		}
		used[id] = struct{}{}
		return id
	}
	for i := range out {
		out[i].ID = claim(out[i].ID)
		for j := range out[i].Items {
			out[i].Items[j].ID = claim(out[i].Items[j].ID)
		}
		out[i] = out[i].normalize()
	}
	return out
}

func (d *Document) section(id string) *Section {
	for i := range d.Content.Sections {
		if d.Content.Sections[i].ID == id {
			return &d.Content.Sections[i]
		}
	}
	return nil
}

func (d *Document) item(sectionID, itemID string) *SectionItem {
	section := d.section(sectionID)
	if section == nil {
		return nil
	}
	for i := range section.Items {
		if section.Items[i].ID == itemID {
			return &section.Items[i]
		}
	}
	return nil
}

// reorder places entries by position so every entry appears exactly once in
// the result, whatever ids says.
func reorder[T any](entries []T, ids []string, idOf func(T) string) []T {
	first := make(map[string]int, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		first[idOf(entries[i])] = i
	}
	out := make([]T, 0, len(entries))
	placed := make([]bool, len(entries))
	for _, id := range ids {
		i, ok := first[id]
		if !ok || placed[i] {
			continue
		}
		placed[i] = true
		out = append(out, entries[i])
	}
	for i, entry := range entries {
		if !placed[i] {
			out = append(out, entry)
		}
	}
	return out
}
