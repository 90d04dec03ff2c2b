package mandel

import (
	"errors"
	"testing"
)

// =============================================================================
// Palette Lookup Tests
// =============================================================================

func TestPaletteByName(t *testing.T) {
	tests := []struct {
		name     string
		arg      string
		wantName string
	}{
		{"default_empty", "", "hsv"},
		{"hsv", "hsv", "hsv"},
		{"linear", "linear", "linear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PaletteByName(tt.arg)
			if err != nil {
				t.Fatalf("PaletteByName(%q) error: %v", tt.arg, err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("PaletteByName(%q).Name() = %q, want %q", tt.arg, p.Name(), tt.wantName)
			}
		})
	}
}

func TestPaletteByName_Unknown(t *testing.T) {
	p, err := PaletteByName("plasma")
	if p != nil {
		t.Errorf("PaletteByName(unknown) palette = %v, want nil", p)
	}
	if !errors.Is(err, ErrUnknownPalette) {
		t.Errorf("PaletteByName(unknown) error = %v, want ErrUnknownPalette", err)
	}
}

// =============================================================================
// HSV Palette Tests
// =============================================================================

func TestHSVPalette_InSetIsBlack(t *testing.T) {
	p := HSVPalette{}
	for _, maxIter := range []int{1, 2, 100, 1000} {
		if got := p.At(maxIter, maxIter); got != Black {
			t.Errorf("At(%d, %d) = %v, want Black", maxIter, maxIter, got)
		}
	}
}

// TestHSVPalette_LowCountsAreRed verifies counts below the triple log
// domain (inner logs negative or undefined) normalize to hue zero.
func TestHSVPalette_LowCountsAreRed(t *testing.T) {
	p := HSVPalette{}
	for _, n := range []int{0, 1, 2, 3, 15} {
		if got := p.At(n, 1000); got != Red {
			t.Errorf("At(%d, 1000) = %v, want Red", n, got)
		}
	}
}

// TestHSVPalette_SpectrumOnset verifies the first count with a finite
// positive triple log leaves hue zero.
func TestHSVPalette_SpectrumOnset(t *testing.T) {
	p := HSVPalette{}
	got := p.At(16, 1000)
	// Hue near 10°: first sector, red dominant, green rising, no blue.
	if got.R != 1 {
		t.Errorf("At(16, 1000).R = %v, want 1", got.R)
	}
	if got.B != 0 {
		t.Errorf("At(16, 1000).B = %v, want 0", got.B)
	}
	if got.G <= 0 || got.G >= 1 {
		t.Errorf("At(16, 1000).G = %v, want in (0, 1)", got.G)
	}
}

// TestHSVPalette_ExteriorFullySaturated verifies every escaped count maps
// to a fully saturated, fully bright, opaque color.
func TestHSVPalette_ExteriorFullySaturated(t *testing.T) {
	p := HSVPalette{}
	for _, n := range []int{0, 16, 50, 100, 500, 999} {
		c := p.At(n, 1000)
		peak := c.R
		if c.G > peak {
			peak = c.G
		}
		if c.B > peak {
			peak = c.B
		}
		if peak != 1 {
			t.Errorf("At(%d, 1000) = %v, want peak channel 1", n, c)
		}
		if c.A != 1 {
			t.Errorf("At(%d, 1000).A = %v, want 1", n, c.A)
		}
	}
}

// TestHSVPalette_TinyBudget verifies small iteration budgets, where the
// normalizing denominator itself is negative, stay clamped in range.
func TestHSVPalette_TinyBudget(t *testing.T) {
	p := HSVPalette{}
	for n := 0; n < 10; n++ {
		c := p.At(n, 10)
		if c != Red && c != Black {
			t.Errorf("At(%d, 10) = %v, want a clamped in-range color", n, c)
		}
		if c == Black {
			t.Errorf("At(%d, 10) = Black, reserved for the in-set count", n)
		}
	}
}

// =============================================================================
// Linear Palette Tests
// =============================================================================

func TestLinearPalette_InSetIsBlack(t *testing.T) {
	p := LinearPalette{}
	for _, maxIter := range []int{1, 2, 100, 1000} {
		if got := p.At(maxIter, maxIter); got != Black {
			t.Errorf("At(%d, %d) = %v, want Black", maxIter, maxIter, got)
		}
	}
}

// TestLinearPalette_KnownBytes pins the channel bytes for a 1000
// iteration budget. The scaled value packs low byte into red, so red
// cycles fastest across neighboring counts.
func TestLinearPalette_KnownBytes(t *testing.T) {
	p := LinearPalette{}

	tests := []struct {
		n       int
		r, g, b uint8
	}{
		{0, 255, 255, 255},
		{1, 118, 190, 255},
		{250, 0, 0, 192},
		{500, 0, 0, 128},
		{999, 137, 65, 0},
	}

	for _, tt := range tests {
		c := p.At(tt.n, 1000)
		gotR := uint8(clamp255(c.R * 255))
		gotG := uint8(clamp255(c.G * 255))
		gotB := uint8(clamp255(c.B * 255))
		if gotR != tt.r || gotG != tt.g || gotB != tt.b {
			t.Errorf("At(%d, 1000) = (%d, %d, %d), want (%d, %d, %d)",
				tt.n, gotR, gotG, gotB, tt.r, tt.g, tt.b)
		}
	}
}

func TestLinearPalette_Opaque(t *testing.T) {
	p := LinearPalette{}
	for _, n := range []int{0, 1, 999, 1000} {
		if c := p.At(n, 1000); c.A != 1 {
			t.Errorf("At(%d, 1000).A = %v, want 1", n, c.A)
		}
	}
}

// =============================================================================
// Lookup Table Tests
// =============================================================================

func TestBuildLUT_Layout(t *testing.T) {
	const maxIter = 100
	for _, p := range []Palette{HSVPalette{}, LinearPalette{}} {
		t.Run(p.Name(), func(t *testing.T) {
			lut := buildLUT(p, maxIter)

			if len(lut) != (maxIter+1)*4 {
				t.Fatalf("len(lut) = %d, want %d", len(lut), (maxIter+1)*4)
			}

			// Every entry matches the palette, byte for byte.
			for n := 0; n <= maxIter; n++ {
				c := p.At(n, maxIter)
				i := n * 4
				wantR := uint8(clamp255(c.R * 255))
				wantG := uint8(clamp255(c.G * 255))
				wantB := uint8(clamp255(c.B * 255))
				wantA := uint8(clamp255(c.A * 255))
				if lut[i] != wantR || lut[i+1] != wantG || lut[i+2] != wantB || lut[i+3] != wantA {
					t.Fatalf("lut[%d] = (%d, %d, %d, %d), want (%d, %d, %d, %d)",
						n, lut[i], lut[i+1], lut[i+2], lut[i+3], wantR, wantG, wantB, wantA)
				}
			}

			// The in-set entry is opaque black.
			i := maxIter * 4
			if lut[i] != 0 || lut[i+1] != 0 || lut[i+2] != 0 || lut[i+3] != 255 {
				t.Errorf("in-set entry = (%d, %d, %d, %d), want (0, 0, 0, 255)",
					lut[i], lut[i+1], lut[i+2], lut[i+3])
			}
		})
	}
}

func BenchmarkBuildLUT(b *testing.B) {
	p := HSVPalette{}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		buildLUT(p, 1000)
	}
}
