package resume

import (
	"time"

	"github.com/goliatone/go-resume/layering"
)

// DocumentVersion is stamped on every Document created by this package.
const DocumentVersion = "1.1"

// Layout selects how sections are arranged on the page.
type Layout string

const (
	LayoutOneColumn Layout = "one-column"
	LayoutTwoColumn Layout = "two-column"
)

// Valid reports whether l is one of the supported layouts.
func (l Layout) Valid() bool {
	return l == LayoutOneColumn || l == LayoutTwoColumn
}

// Named color slots. Colors always carries these; extra slots are allowed.
const (
	ColorBackground = "background"
	ColorTitle      = "title"
	ColorSubtitle   = "subtitle"
	ColorText       = "text"
	ColorBorder     = "border"
	ColorAccent     = "accent"
)

// ColorSlots lists the required palette slots in display order.
var ColorSlots = []string{ColorBackground, ColorTitle, ColorSubtitle, ColorText, ColorBorder, ColorAccent}

// Named font slots accepted by UpdateFonts.
const (
	FontHeading    = "heading"
	FontSubheading = "subheading"
	FontAccent     = "accent"
	FontBody       = "body"
	FontContact    = "contact"
	FontLabel      = "label"
)

// Document is the unit tracked by the history store.
type Document struct {
	Meta             Meta    `json:"meta"`
	Content          Content `json:"content"`
	Colors           Colors  `json:"colors"`
	Fonts            Fonts   `json:"fonts"`
	Layout           Layout  `json:"layout" enum:"one-column,two-column"`
	Page             Page    `json:"page"`
	PreviewRenderPDF bool    `json:"previewRenderPdf"`
}

// Meta records when and with which schema version a document was created.
type Meta struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
}

// Content holds the résumé text.
type Content struct {
	Name     string    `json:"name"`
	Summary  string    `json:"summary"`
	Contact  Contact   `json:"contact"`
	Sections []Section `json:"sections"`
}

// Contact maps contact fields (email, phone, location, ...) to their values.
type Contact map[string]string

func (c Contact) Email() string    { return c["email"] }
func (c Contact) Phone() string    { return c["phone"] }
func (c Contact) Location() string { return c["location"] }

// Section is a titled, ordered group of items such as "Experience".
type Section struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Items []SectionItem `json:"items"`
}

// SectionItem is one entry in a section. Label1 is the primary heading, Label2
// the sub-heading and Label3 the date or meta line.
type SectionItem struct {
	ID      string   `json:"id"`
	Label1  string   `json:"label1"`
	Label2  string   `json:"label2"`
	Label3  string   `json:"label3"`
	Notes   string   `json:"notes"`
	Bullets []string `json:"bullets"`
}

// Colors maps slot names to hex color strings.
type Colors map[string]string

// Fonts holds pixel sizes for each text role.
type Fonts struct {
	Heading    float64 `json:"heading"`
	Subheading float64 `json:"subheading"`
	Accent     float64 `json:"accent"`
	Body       float64 `json:"body"`
	Contact    float64 `json:"contact"`
	Label      float64 `json:"label"`
}

// Page holds the page geometry in millimeters.
type Page struct {
	Width  float64 `json:"width" minimum:"50" maximum:"500"`
	Height float64 `json:"height" minimum:"50" maximum:"500"`
}

// DefaultColors returns the stock palette.
func DefaultColors() Colors {
	return Colors{
		ColorBackground: "#ffffff",
		ColorTitle:      "#22223b",
		ColorSubtitle:   "#4a4e69",
		ColorText:       "#22223b",
		ColorBorder:     "#e0e0e0",
		ColorAccent:     "#3a86ff",
	}
}

// DefaultFonts returns the stock type scale.
func DefaultFonts() Fonts {
	return Fonts{
		Heading:    28,
		Subheading: 16,
		Accent:     13,
		Body:       12,
		Contact:    12,
		Label:      18,
	}
}

// DefaultDocument returns an empty A4 two-column document created at createdAt.
func DefaultDocument(createdAt time.Time) Document {
	return Document{
		Meta: Meta{
			Version:   DocumentVersion,
			CreatedAt: createdAt.UTC(),
		},
		Content: Content{
			Contact:  Contact{},
			Sections: []Section{},
		},
		Colors: DefaultColors(),
		Fonts:  DefaultFonts(),
		Layout: LayoutTwoColumn,
		Page:   Page{Width: 210, Height: 297},
	}
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	return layering.Clone(d)
}

// Section returns the section with id and whether it exists.
func (d Document) Section(id string) (Section, bool) {
	for _, section := range d.Content.Sections {
		if section.ID == id {
			return section, true
		}
	}
	return Section{}, false
}

// normalize fills the structural guarantees every stored Document carries:
// required color slots, non-nil collections and non-nil bullet lists.
func (d Document) normalize() Document {
	if d.Colors == nil {
		d.Colors = Colors{}
	}
	defaults := DefaultColors()
	for _, slot := range ColorSlots {
		if _, ok := d.Colors[slot]; !ok {
			d.Colors[slot] = defaults[slot]
		}
	}
	if d.Content.Contact == nil {
		d.Content.Contact = Contact{}
	}
	if d.Content.Sections == nil {
		d.Content.Sections = []Section{}
	}
	for i := range d.Content.Sections {
		d.Content.Sections[i] = d.Content.Sections[i].normalize()
	}
	if d.Meta.Version == "" {
		d.Meta.Version = DocumentVersion
	}
	return d
}

func (s Section) normalize() Section {
	if s.Items == nil {
		s.Items = []SectionItem{}
	}
	for i := range s.Items {
		if s.Items[i].Bullets == nil {
			s.Items[i].Bullets = []string{}
		}
	}
	return s
}
