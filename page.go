package resume

import "math"

// Page dimension bounds in millimeters enforced by the sizing helpers.
const (
	MinPageSize = 50.0
	MaxPageSize = 500.0
)

// PresetCustom is reported by FindPreset when no preset matches.
const PresetCustom = "custom"

const (
	presetTolerance = 0.5
	fallbackAspect  = 210.0 / 297.0
)

// PagePreset is a named paper size.
type PagePreset struct {
	Name string
	Page Page
}

// PagePresets lists the supported paper sizes in display order.
var PagePresets = []PagePreset{
	{Name: "A4", Page: Page{Width: 210, Height: 297}},
	{Name: "Letter", Page: Page{Width: 216, Height: 279}},
	{Name: "Legal", Page: Page{Width: 216, Height: 356}},
	{Name: "Tabloid", Page: Page{Width: 279, Height: 432}},
	{Name: "Executive", Page: Page{Width: 184, Height: 267}},
	{Name: "A5", Page: Page{Width: 148, Height: 210}},
	{Name: "B5", Page: Page{Width: 176, Height: 250}},
}

// ClampPageDimension bounds v to [MinPageSize, MaxPageSize]. NaN clamps to the
// minimum.
func ClampPageDimension(v float64) float64 {
	if math.IsNaN(v) || v < MinPageSize {
		return MinPageSize
	}
	if v > MaxPageSize {
		return MaxPageSize
	}
	return v
}

// LookupPreset returns the preset page for name.
func LookupPreset(name string) (Page, bool) {
	for _, preset := range PagePresets {
		if preset.Name == name {
			return preset.Page, true
		}
	}
	return Page{}, false
}

// FindPreset returns the name of the preset within half a millimeter of page on
// both sides, or PresetCustom.
func FindPreset(page Page) string {
	for _, preset := range PagePresets {
		if math.Abs(preset.Page.Width-page.Width) < presetTolerance &&
			math.Abs(preset.Page.Height-page.Height) < presetTolerance {
			return preset.Name
		}
	}
	return PresetCustom
}

// ResizeWidth clamps width and, when locked, derives the height from the
// current aspect ratio rounded to two decimals.
func ResizeWidth(page Page, width float64, locked bool) Page {
	width = ClampPageDimension(width)
	next := Page{Width: width, Height: page.Height}
	if locked {
		next.Height = round2(width / aspect(page))
	}
	return next
}

// ResizeHeight clamps height and, when locked, derives the width from the
// current aspect ratio rounded to two decimals.
func ResizeHeight(page Page, height float64, locked bool) Page {
	height = ClampPageDimension(height)
	next := Page{Width: page.Width, Height: height}
	if locked {
		next.Width = round2(height * aspect(page))
	}
	return next
}

// ApplyPagePreset records one page update for the named preset. Unknown names
// return false and record nothing.
func (h *History) ApplyPagePreset(name string) bool {
	page, ok := LookupPreset(name)
	if !ok {
		return false
	}
	h.UpdatePage(PagePatch{Width: &page.Width, Height: &page.Height})
	return true
}

func aspect(page Page) float64 {
	if page.Width > 0 && page.Height > 0 {
		if ratio := page.Width / page.Height; !math.IsInf(ratio, 0) && !math.IsNaN(ratio) {
			return ratio
		}
	}
	return fallbackAspect
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
