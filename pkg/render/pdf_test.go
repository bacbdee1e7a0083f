package render_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	resume "github.com/goliatone/go-resume"
	"github.com/goliatone/go-resume/pkg/render"
)

func sampleDocument(sections int) resume.Document {
	doc := resume.DefaultDocument(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	doc.Content.Name = "Zoë Müller"
	doc.Content.Summary = "Platform engineer focused on storage and delivery."
	doc.Content.Contact = resume.Contact{"email": "zoe@example.com", "phone": "555-0100", "website": "zoe.dev"}
	for i := 0; i < sections; i++ {
		section := resume.Section{ID: fmt.Sprintf("s%d", i), Title: fmt.Sprintf("Section %d", i)}
		for j := 0; j < 6; j++ {
			section.Items = append(section.Items, resume.SectionItem{
				ID:      fmt.Sprintf("s%d-i%d", i, j),
				Label1:  "Senior Engineer",
				Label2:  "Example Corp",
				Label3:  "2020 - 2024",
				Notes:   "Worked on the document pipeline.",
				Bullets: []string{"Shipped the exporter", "", "Cut render time in half"},
			})
		}
		doc.Content.Sections = append(doc.Content.Sections, section)
	}
	return doc
}

func TestPDFWritesDocument(t *testing.T) {
	for _, layout := range []resume.Layout{resume.LayoutOneColumn, resume.LayoutTwoColumn} {
		doc := sampleDocument(7)
		doc.Layout = layout

		var buf bytes.Buffer
		if err := render.PDF(&buf, doc); err != nil {
			t.Fatalf("%s: render: %v", layout, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
			t.Fatalf("%s: expected PDF header, got %q", layout, buf.Bytes()[:8])
		}
	}
}

func TestPDFHandlesEmptyDocument(t *testing.T) {
	doc := resume.DefaultDocument(time.Now())
	doc.Page = resume.Page{}
	doc.Colors = resume.Colors{"accent": "not-a-color"}

	var buf bytes.Buffer
	if err := render.PDF(&buf, doc, render.WithFontFamily("Times"), render.WithMargin(10)); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected output")
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in      string
		r, g, b int
		ok      bool
	}{
		{"#3a86ff", 0x3a, 0x86, 0xff, true},
		{"#fff", 255, 255, 255, true},
		{" #000000 ", 0, 0, 0, true},
		{"#12345", 0, 0, 0, false},
		{"#gggggg", 0, 0, 0, false},
		{"", 0, 0, 0, false},
	}
	for _, tc := range cases {
		r, g, b, ok := render.ParseHexColor(tc.in)
		if ok != tc.ok || r != tc.r || g != tc.g || b != tc.b {
			t.Fatalf("ParseHexColor(%q): expected (%d,%d,%d,%v), got (%d,%d,%d,%v)", tc.in, tc.r, tc.g, tc.b, tc.ok, r, g, b, ok)
		}
	}
}
