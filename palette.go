package mandel

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownPalette is returned by PaletteByName for an unrecognized name.
var ErrUnknownPalette = errors.New("mandel: unknown palette")

// Palette maps an escape iteration count to a color. Implementations
// must be stateless: At is called concurrently and for every entry of
// a lookup table before each pass.
type Palette interface {
	// At returns the color for iteration count n out of maxIter.
	// n == maxIter is the in-set case and must map to the palette's
	// designated in-set color.
	At(n, maxIter int) RGBA

	// Name returns a short stable identifier, used in settings files
	// and lookup-table cache keys.
	Name() string
}

// PaletteByName resolves a palette identifier as stored in settings
// files or passed on the command line. The empty string selects the
// default HSV palette.
func PaletteByName(name string) (Palette, error) {
	switch name {
	case "", "hsv":
		return HSVPalette{}, nil
	case "linear":
		return LinearPalette{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
}

// HSVPalette maps iteration counts to fully saturated hues through a
// triple logarithm: hue = log(log(log(n))) / log(log(log(maxIter))) * 360.
// The triple log compresses the low counts that dominate a typical
// image, spreading the spectrum across the interesting boundary region.
// In-set points are black.
//
// The zero value is ready to use.
type HSVPalette struct{}

// Name implements Palette.
func (HSVPalette) Name() string { return "hsv" }

// At implements Palette. Counts too small for the triple log (n <= e,
// where the inner logs go negative) normalize to hue 0.
func (HSVPalette) At(n, maxIter int) RGBA {
	if n >= maxIter {
		return Black
	}
	norm := tripleLog(float64(n)) / tripleLog(float64(maxIter))
	norm = clampUnit(norm)
	return HSV(norm*360, 1, 1)
}

// tripleLog returns log(log(log(v))). Finite only for v > e; smaller
// inputs produce -Inf or NaN, which clampUnit resolves to 0.
func tripleLog(v float64) float64 {
	return math.Log(math.Log(math.Log(v)))
}

// clampUnit restricts v to [0, 1]. NaN maps to 0.
func clampUnit(v float64) float64 {
	if !(v >= 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LinearPalette is the legacy color scheme: the iteration count scaled
// linearly across the 24-bit RGB cube, low byte in red, so the red
// channel cycles fastest and the image shows fine contour banding.
// In-set points are black.
//
// The zero value is ready to use.
type LinearPalette struct{}

// Name implements Palette.
func (LinearPalette) Name() string { return "linear" }

// At implements Palette.
func (LinearPalette) At(n, maxIter int) RGBA {
	if n >= maxIter {
		return Black
	}
	v := uint32(16777216.0 - 16777216.0/float64(maxIter)*float64(n))
	if v > 0xFFFFFF {
		v = 0xFFFFFF
	}
	return RGB(
		float64(v&0xFF)/255,
		float64(v>>8&0xFF)/255,
		float64(v>>16&0xFF)/255,
	)
}

// buildLUT precomputes packed RGBA bytes for every iteration count in
// [0, maxIter]. Entry n occupies bytes [4n, 4n+4), matching the Pixmap
// layout so workers copy entries straight into the output buffer.
func buildLUT(p Palette, maxIter int) []uint8 {
	lut := make([]uint8, (maxIter+1)*4)
	for n := 0; n <= maxIter; n++ {
		c := p.At(n, maxIter)
		i := n * 4
		lut[i+0] = uint8(clamp255(c.R * 255))
		lut[i+1] = uint8(clamp255(c.G * 255))
		lut[i+2] = uint8(clamp255(c.B * 255))
		lut[i+3] = uint8(clamp255(c.A * 255))
	}
	return lut
}
