// Package render paints a Document into a paginated PDF using go-pdf/fpdf.
package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	resume "github.com/goliatone/go-resume"
)

const (
	pxToPt         = 0.75
	mainColumnPart = 0.65
	columnGap      = 6.0
	lineFactor     = 0.45
)

// Option configures PDF rendering.
type Option func(*config)

type config struct {
	family string
	margin float64
}

// WithFontFamily selects a core PDF font family (Helvetica, Times, Courier).
func WithFontFamily(family string) Option {
	return func(cfg *config) {
		if family != "" {
			cfg.family = family
		}
	}
}

// WithMargin sets the page margin in millimeters.
func WithMargin(mm float64) Option {
	return func(cfg *config) {
		if mm >= 0 {
			cfg.margin = mm
		}
	}
}

type column int

const (
	columnMain column = iota
	columnSide
)

type renderer struct {
	pdf    *fpdf.Fpdf
	doc    resume.Document
	cfg    config
	tr     func(string) string
	column column
	top    float64
}

// PDF writes doc to w. Two-column documents put the first half of the sections
// (rounded up) in a wide main column and the rest in a side column.
func PDF(w io.Writer, doc resume.Document, opts ...Option) error {
	cfg := config{family: "Helvetica", margin: 15}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	width, height := doc.Page.Width, doc.Page.Height
	if width <= 0 || height <= 0 {
		width, height = 210, 297
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(cfg.margin, cfg.margin, cfg.margin)
	pdf.SetAutoPageBreak(true, cfg.margin)
	pdf.SetTitle(doc.Content.Name, true)
	pdf.SetCreator("go-resume", true)

	r := &renderer{
		pdf: pdf,
		doc: doc,
		cfg: cfg,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
	pdf.SetHeaderFunc(r.paintBackground)
	pdf.SetAcceptPageBreakFunc(r.acceptPageBreak)

	pdf.AddPage()
	r.header()
	r.body()

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render: write pdf: %w", err)
	}
	return nil
}

func (r *renderer) paintBackground() {
	red, green, blue := r.color(resume.ColorBackground)
	w, h := r.pdf.GetPageSize()
	r.pdf.SetFillColor(red, green, blue)
	r.pdf.Rect(0, 0, w, h, "F")
}

// acceptPageBreak moves the side column onto pages the main column already
// created instead of appending new ones.
func (r *renderer) acceptPageBreak() bool {
	if r.column == columnSide && r.pdf.PageNo() < r.pdf.PageCount() {
		x := r.pdf.GetX()
		r.pdf.SetPage(r.pdf.PageNo() + 1)
		r.pdf.SetXY(x, r.cfg.margin)
		return false
	}
	return true
}

func (r *renderer) header() {
	content := r.doc.Content
	width := r.contentWidth()

	r.setFont("B", r.doc.Fonts.Heading)
	r.setTextColor(resume.ColorTitle)
	r.pdf.MultiCell(width, r.lineHeight(r.doc.Fonts.Heading), r.tr(content.Name), "", "L", false)

	if contact := contactLine(content.Contact); contact != "" {
		r.setFont("", r.doc.Fonts.Contact)
		r.setTextColor(resume.ColorSubtitle)
		r.pdf.MultiCell(width, r.lineHeight(r.doc.Fonts.Contact), r.tr(contact), "", "L", false)
	}
	if content.Summary != "" {
		r.pdf.Ln(2)
		r.setFont("", r.doc.Fonts.Body)
		r.setTextColor(resume.ColorText)
		r.pdf.MultiCell(width, r.lineHeight(r.doc.Fonts.Body), r.tr(content.Summary), "", "L", false)
	}

	r.pdf.Ln(3)
	red, green, blue := r.color(resume.ColorBorder)
	r.pdf.SetDrawColor(red, green, blue)
	y := r.pdf.GetY()
	r.pdf.Line(r.cfg.margin, y, r.cfg.margin+width, y)
	r.pdf.Ln(4)
}

func (r *renderer) body() {
	sections := r.doc.Content.Sections
	if r.doc.Layout != resume.LayoutTwoColumn || len(sections) < 2 {
		r.column = columnMain
		r.sections(sections, r.cfg.margin, r.contentWidth())
		return
	}

	split := (len(sections) + 1) / 2
	mainWidth := (r.contentWidth() - columnGap) * mainColumnPart
	sideWidth := r.contentWidth() - columnGap - mainWidth
	sideX := r.cfg.margin + mainWidth + columnGap

	startPage, startY := r.pdf.PageNo(), r.pdf.GetY()
	r.column = columnMain
	r.sections(sections[:split], r.cfg.margin, mainWidth)

	r.column = columnSide
	r.pdf.SetPage(startPage)
	r.pdf.SetXY(sideX, startY)
	r.sections(sections[split:], sideX, sideWidth)
}

func (r *renderer) sections(sections []resume.Section, x, width float64) {
	for _, section := range sections {
		r.pdf.SetX(x)
		r.setFont("B", r.doc.Fonts.Label)
		r.setTextColor(resume.ColorAccent)
		r.pdf.MultiCell(width, r.lineHeight(r.doc.Fonts.Label), r.tr(section.Title), "", "L", false)
		r.pdf.Ln(1)

		for _, item := range section.Items {
			r.item(item, x, width)
		}
		r.pdf.Ln(3)
	}
}

func (r *renderer) item(item resume.SectionItem, x, width float64) {
	if item.Label1 != "" {
		r.pdf.SetX(x)
		r.setFont("B", r.doc.Fonts.Subheading)
		r.setTextColor(resume.ColorTitle)
		r.pdf.MultiCell(width, r.lineHeight(r.doc.Fonts.Subheading), r.tr(item.Label1), "", "L", false)
	}
	if meta := joinNonEmpty(" | ", item.Label2, item.Label3); meta != "" {
		r.pdf.SetX(x)
		r.setFont("I", r.doc.Fonts.Accent)
		r.setTextColor(resume.ColorSubtitle)
		r.pdf.MultiCell(width, r.lineHeight(r.doc.Fonts.Accent), r.tr(meta), "", "L", false)
	}
	r.setFont("", r.doc.Fonts.Body)
	r.setTextColor(resume.ColorText)
	lh := r.lineHeight(r.doc.Fonts.Body)
	if item.Notes != "" {
		r.pdf.SetX(x)
		r.pdf.MultiCell(width, lh, r.tr(item.Notes), "", "L", false)
	}
	for _, bullet := range item.Bullets {
		if strings.TrimSpace(bullet) == "" {
			continue
		}
		r.pdf.SetX(x)
		r.pdf.CellFormat(4, lh, r.tr("•"), "", 0, "L", false, 0, "")
		r.pdf.MultiCell(width-4, lh, r.tr(bullet), "", "L", false)
	}
	r.pdf.Ln(2)
}

func (r *renderer) contentWidth() float64 {
	w, _ := r.pdf.GetPageSize()
	return w - 2*r.cfg.margin
}

func (r *renderer) setFont(style string, px float64) {
	r.pdf.SetFont(r.cfg.family, style, fontPoints(px))
}

func (r *renderer) setTextColor(slot string) {
	red, green, blue := r.color(slot)
	r.pdf.SetTextColor(red, green, blue)
}

// lineHeight converts a pixel font size to a line height in millimeters.
func (r *renderer) lineHeight(px float64) float64 {
	return fontPoints(px) * lineFactor
}

func (r *renderer) color(slot string) (int, int, int) {
	if red, green, blue, ok := ParseHexColor(r.doc.Colors[slot]); ok {
		return red, green, blue
	}
	red, green, blue, _ := ParseHexColor(resume.DefaultColors()[slot])
	return red, green, blue
}

func fontPoints(px float64) float64 {
	if px <= 0 {
		px = 12
	}
	return px * pxToPt
}

// ParseHexColor parses #rgb or #rrggbb.
func ParseHexColor(value string) (int, int, int, bool) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff), true
}

func contactLine(contact resume.Contact) string {
	parts := []string{contact.Email(), contact.Phone(), contact.Location()}
	extra := make([]string, 0, len(contact))
	for key, value := range contact {
		switch key {
		case "email", "phone", "location":
			continue
		}
		if value != "" {
			extra = append(extra, value)
		}
	}
	sort.Strings(extra)
	return joinNonEmpty("  ·  ", append(parts, extra...)...)
}

func joinNonEmpty(sep string, values ...string) string {
	kept := values[:0:0]
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			kept = append(kept, value)
		}
	}
	return strings.Join(kept, sep)
}
