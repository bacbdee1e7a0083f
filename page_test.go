package resume

import (
	"math"
	"testing"
)

func TestClampPageDimension(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: 10, want: MinPageSize},
		{in: 210, want: 210},
		{in: 900, want: MaxPageSize},
		{in: math.NaN(), want: MinPageSize},
		{in: math.Inf(1), want: MaxPageSize},
	}
	for _, tc := range cases {
		if got := ClampPageDimension(tc.in); got != tc.want {
			t.Fatalf("ClampPageDimension(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestResizeKeepsAspectWhenLocked(t *testing.T) {
	a4 := Page{Width: 210, Height: 297}

	got := ResizeWidth(a4, 105, true)
	if got.Width != 105 || got.Height != 148.5 {
		t.Fatalf("expected 105 x 148.5, got %+v", got)
	}

	got = ResizeHeight(a4, 100, true)
	if got.Height != 100 || got.Width != 70.71 {
		t.Fatalf("expected 70.71 x 100, got %+v", got)
	}

	got = ResizeWidth(a4, 1000, false)
	if got.Width != MaxPageSize || got.Height != 297 {
		t.Fatalf("expected clamped width and untouched height, got %+v", got)
	}

	got = ResizeWidth(Page{}, 100, true)
	if got.Height != 141.43 {
		t.Fatalf("expected A4 aspect fallback, got %+v", got)
	}
}

func TestFindPreset(t *testing.T) {
	if got := FindPreset(Page{Width: 210.3, Height: 296.8}); got != "A4" {
		t.Fatalf("expected A4 within tolerance, got %q", got)
	}
	if got := FindPreset(Page{Width: 216, Height: 279}); got != "Letter" {
		t.Fatalf("expected Letter, got %q", got)
	}
	if got := FindPreset(Page{Width: 211, Height: 297}); got != PresetCustom {
		t.Fatalf("expected custom, got %q", got)
	}
}

func TestApplyPagePreset(t *testing.T) {
	h := newTestHistory()
	if !h.ApplyPagePreset("Legal") {
		t.Fatalf("expected Legal preset applied")
	}
	if got := h.Present().Page; got != (Page{Width: 216, Height: 356}) {
		t.Fatalf("unexpected page %+v", got)
	}
	if h.ApplyPagePreset("Foolscap") {
		t.Fatalf("expected unknown preset rejected")
	}
	if len(h.Past()) != 1 {
		t.Fatalf("expected only the known preset recorded, got %d", len(h.Past()))
	}
}
