package mandel

import (
	"errors"
	"fmt"

	"github.com/gogpu/mandel/internal/engine"
)

// Default view bounds frame the full set in the classic aspect.
const (
	DefaultXMin = -2.0
	DefaultXMax = 0.47
	DefaultYMin = -1.12
	DefaultYMax = 1.12
)

// Default pass parameters.
const (
	// DefaultMaxIter balances detail against render time. Higher values
	// sharpen the set boundary but shift the whole palette.
	DefaultMaxIter = 1000

	// DefaultSlices keeps individual slices small enough that a pool of
	// workers stays busy until the very end of a pass.
	DefaultSlices = 5000

	// DefaultThreads is the worker count used when a Viewport does not
	// specify one.
	DefaultThreads = 12
)

// Validation errors for Viewport.
var (
	// ErrBadBounds is returned when a bound pair does not satisfy min < max.
	ErrBadBounds = errors.New("mandel: viewport bounds must satisfy min < max")

	// ErrBadDimensions is returned for non-positive pixel dimensions.
	ErrBadDimensions = errors.New("mandel: viewport dimensions must be positive")

	// ErrBadIterations is returned for a non-positive iteration bound.
	ErrBadIterations = errors.New("mandel: max iterations must be at least 1")

	// ErrBadSlices is returned for a non-positive slice count.
	ErrBadSlices = errors.New("mandel: slice count must be at least 1")

	// ErrBadThreads is returned when the thread count is outside [1, 64].
	ErrBadThreads = errors.New("mandel: thread count must be between 1 and 64")
)

// Viewport describes one render pass: a window of the complex plane,
// the pixel dimensions of the output, and the pass parameters. It is a
// plain value, never mutated by a pass, and safe to share between
// goroutines.
//
// Pixel (0,0) maps to (XMin, YMin); X grows right, Y grows down.
type Viewport struct {
	XMin, XMax float64
	YMin, YMax float64

	// Width and Height are the output dimensions in pixels.
	Width, Height int

	// MaxIter is the escape-time iteration bound.
	MaxIter int

	// Slices is the target number of work slices for the pass. The
	// actual count may differ by one after remainder handling.
	Slices int

	// Threads is the number of workers computing the pass, 1 to 64.
	Threads int
}

// DefaultViewport returns the classic full-set view at the given pixel
// dimensions, with default pass parameters.
func DefaultViewport(width, height int) Viewport {
	return Viewport{
		XMin:    DefaultXMin,
		XMax:    DefaultXMax,
		YMin:    DefaultYMin,
		YMax:    DefaultYMax,
		Width:   width,
		Height:  height,
		MaxIter: DefaultMaxIter,
		Slices:  DefaultSlices,
		Threads: DefaultThreads,
	}
}

// Validate reports the first violated Viewport invariant, or nil.
// The negated comparisons also reject NaN bounds.
func (vp Viewport) Validate() error {
	switch {
	case !(vp.XMin < vp.XMax) || !(vp.YMin < vp.YMax):
		return ErrBadBounds
	case vp.Width <= 0 || vp.Height <= 0:
		return ErrBadDimensions
	case vp.MaxIter < 1:
		return ErrBadIterations
	case vp.Slices < 1:
		return ErrBadSlices
	case vp.Threads < engine.MinWorkers || vp.Threads > engine.MaxWorkers:
		return ErrBadThreads
	}
	return nil
}

// TotalPixels returns Width * Height.
func (vp Viewport) TotalPixels() int { return vp.Width * vp.Height }

// Span returns the extent of the window in plane units.
func (vp Viewport) Span() (dx, dy float64) {
	return vp.XMax - vp.XMin, vp.YMax - vp.YMin
}

// Center returns the plane coordinates at the middle of the window.
func (vp Viewport) Center() (re, im float64) {
	return (vp.XMin + vp.XMax) / 2, (vp.YMin + vp.YMax) / 2
}

// PointAt returns the plane coordinates that pixel (px, py) maps to.
// The mapping is a pure function of (px, py) and the viewport, which
// is what makes a pass deterministic under any worker interleaving.
func (vp Viewport) PointAt(px, py int) (re, im float64) {
	re = (vp.XMax-vp.XMin)/float64(vp.Width)*float64(px) + vp.XMin
	im = (vp.YMax-vp.YMin)/float64(vp.Height)*float64(py) + vp.YMin
	return re, im
}

// Recentered returns a copy of vp with the same span centered on the
// plane point (re, im).
func (vp Viewport) Recentered(re, im float64) Viewport {
	dx, dy := vp.Span()
	out := vp
	out.XMin = re - dx/2
	out.XMax = re + dx/2
	out.YMin = im - dy/2
	out.YMax = im + dy/2
	return out
}

// ZoomedAbout returns a copy of vp with the span scaled by factor,
// keeping the plane point under pixel (px, py) fixed at that pixel.
// factor < 1 zooms in, factor > 1 zooms out.
func (vp Viewport) ZoomedAbout(px, py int, factor float64) Viewport {
	re, im := vp.PointAt(px, py)
	fx := float64(px) / float64(vp.Width)
	fy := float64(py) / float64(vp.Height)

	dx, dy := vp.Span()
	dx *= factor
	dy *= factor

	out := vp
	out.XMin = re - dx*fx
	out.XMax = out.XMin + dx
	out.YMin = im - dy*fy
	out.YMax = out.YMin + dy
	return out
}

// SubView returns a copy of vp whose window covers the pixel rectangle
// spanned by the corners (x0, y0) and (x1, y1). Corner order does not
// matter. Used for drag-rectangle zooming.
func (vp Viewport) SubView(x0, y0, x1, y1 int) Viewport {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	r0, i0 := vp.PointAt(x0, y0)
	r1, i1 := vp.PointAt(x1, y1)

	out := vp
	out.XMin, out.XMax = r0, r1
	out.YMin, out.YMax = i0, i1
	return out
}

// String formats the window bounds and pass parameters for logs and
// status displays.
func (vp Viewport) String() string {
	return fmt.Sprintf("x[%g, %g] y[%g, %g] %dx%d iter=%d slices=%d threads=%d",
		vp.XMin, vp.XMax, vp.YMin, vp.YMax,
		vp.Width, vp.Height, vp.MaxIter, vp.Slices, vp.Threads)
}
