package mandel

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// =============================================================================
// Validation Tests
// =============================================================================

func TestViewport_Validate(t *testing.T) {
	valid := DefaultViewport(800, 600)

	tests := []struct {
		name    string
		mutate  func(*Viewport)
		wantErr error
	}{
		{"default_valid", func(vp *Viewport) {}, nil},
		{"x_reversed", func(vp *Viewport) { vp.XMin, vp.XMax = vp.XMax, vp.XMin }, ErrBadBounds},
		{"x_collapsed", func(vp *Viewport) { vp.XMax = vp.XMin }, ErrBadBounds},
		{"y_reversed", func(vp *Viewport) { vp.YMin, vp.YMax = vp.YMax, vp.YMin }, ErrBadBounds},
		{"nan_bound", func(vp *Viewport) { vp.XMin = math.NaN() }, ErrBadBounds},
		{"zero_width", func(vp *Viewport) { vp.Width = 0 }, ErrBadDimensions},
		{"negative_height", func(vp *Viewport) { vp.Height = -1 }, ErrBadDimensions},
		{"zero_iterations", func(vp *Viewport) { vp.MaxIter = 0 }, ErrBadIterations},
		{"zero_slices", func(vp *Viewport) { vp.Slices = 0 }, ErrBadSlices},
		{"zero_threads", func(vp *Viewport) { vp.Threads = 0 }, ErrBadThreads},
		{"too_many_threads", func(vp *Viewport) { vp.Threads = 65 }, ErrBadThreads},
		{"max_threads_ok", func(vp *Viewport) { vp.Threads = 64 }, nil},
		{"one_thread_ok", func(vp *Viewport) { vp.Threads = 1 }, nil},
		{"one_slice_ok", func(vp *Viewport) { vp.Slices = 1 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := valid
			tt.mutate(&vp)
			err := vp.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultViewport(t *testing.T) {
	vp := DefaultViewport(800, 600)

	if vp.XMin != DefaultXMin || vp.XMax != DefaultXMax ||
		vp.YMin != DefaultYMin || vp.YMax != DefaultYMax {
		t.Errorf("bounds = x[%v, %v] y[%v, %v], want defaults",
			vp.XMin, vp.XMax, vp.YMin, vp.YMax)
	}
	if vp.Width != 800 || vp.Height != 600 {
		t.Errorf("dimensions = %dx%d, want 800x600", vp.Width, vp.Height)
	}
	if vp.MaxIter != DefaultMaxIter || vp.Slices != DefaultSlices || vp.Threads != DefaultThreads {
		t.Errorf("params = (%d, %d, %d), want defaults", vp.MaxIter, vp.Slices, vp.Threads)
	}
	if err := vp.Validate(); err != nil {
		t.Errorf("DefaultViewport failed validation: %v", err)
	}
}

// =============================================================================
// Coordinate Mapping Tests
// =============================================================================

func TestViewport_PointAt(t *testing.T) {
	vp := Viewport{
		XMin: -2, XMax: 2,
		YMin: -1, YMax: 1,
		Width: 4, Height: 2,
	}

	tests := []struct {
		name   string
		px, py int
		re, im float64
	}{
		{"top_left", 0, 0, -2, -1},
		{"one_right", 1, 0, -1, -1},
		{"one_down", 0, 1, -2, 0},
		{"center_column", 2, 1, 0, 0},
		// The pixel grid covers [min, max): pixel Width-1 sits one step
		// short of XMax.
		{"last_column", 3, 0, 1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, im := vp.PointAt(tt.px, tt.py)
			if re != tt.re || im != tt.im {
				t.Errorf("PointAt(%d, %d) = (%v, %v), want (%v, %v)",
					tt.px, tt.py, re, im, tt.re, tt.im)
			}
		})
	}
}

func TestViewport_SpanAndCenter(t *testing.T) {
	vp := Viewport{XMin: -2, XMax: 0.47, YMin: -1.12, YMax: 1.12}

	dx, dy := vp.Span()
	if absDiff(dx, 2.47) > 1e-12 || absDiff(dy, 2.24) > 1e-12 {
		t.Errorf("Span() = (%v, %v), want (2.47, 2.24)", dx, dy)
	}

	re, im := vp.Center()
	if absDiff(re, -0.765) > 1e-12 || absDiff(im, 0) > 1e-12 {
		t.Errorf("Center() = (%v, %v), want (-0.765, 0)", re, im)
	}
}

func TestViewport_TotalPixels(t *testing.T) {
	vp := Viewport{Width: 640, Height: 480}
	if got := vp.TotalPixels(); got != 307200 {
		t.Errorf("TotalPixels() = %d, want 307200", got)
	}
}

// =============================================================================
// Navigation Tests
// =============================================================================

func TestViewport_Recentered(t *testing.T) {
	vp := DefaultViewport(800, 600)
	out := vp.Recentered(-0.5, 0.25)

	re, im := out.Center()
	if absDiff(re, -0.5) > 1e-12 || absDiff(im, 0.25) > 1e-12 {
		t.Errorf("Center() = (%v, %v), want (-0.5, 0.25)", re, im)
	}

	dx0, dy0 := vp.Span()
	dx1, dy1 := out.Span()
	if absDiff(dx0, dx1) > 1e-12 || absDiff(dy0, dy1) > 1e-12 {
		t.Errorf("Span changed: (%v, %v) → (%v, %v)", dx0, dy0, dx1, dy1)
	}

	// Pass parameters carry over unchanged.
	if out.Width != vp.Width || out.MaxIter != vp.MaxIter || out.Threads != vp.Threads {
		t.Errorf("Recentered changed pass parameters: %+v", out)
	}
}

func TestViewport_ZoomedAbout(t *testing.T) {
	vp := DefaultViewport(800, 600)
	const px, py = 200, 450

	wantRe, wantIm := vp.PointAt(px, py)
	out := vp.ZoomedAbout(px, py, 0.5)

	// The anchor pixel maps to the same plane point after the zoom.
	gotRe, gotIm := out.PointAt(px, py)
	if absDiff(gotRe, wantRe) > 1e-12 || absDiff(gotIm, wantIm) > 1e-12 {
		t.Errorf("anchor moved: (%v, %v) → (%v, %v)", wantRe, wantIm, gotRe, gotIm)
	}

	// The span halved.
	dx0, dy0 := vp.Span()
	dx1, dy1 := out.Span()
	if absDiff(dx1, dx0/2) > 1e-12 || absDiff(dy1, dy0/2) > 1e-12 {
		t.Errorf("Span = (%v, %v), want (%v, %v)", dx1, dy1, dx0/2, dy0/2)
	}
}

func TestViewport_ZoomedAbout_Out(t *testing.T) {
	vp := DefaultViewport(800, 600)
	out := vp.ZoomedAbout(400, 300, 2)

	dx0, _ := vp.Span()
	dx1, _ := out.Span()
	if absDiff(dx1, dx0*2) > 1e-12 {
		t.Errorf("Span dx = %v, want %v", dx1, dx0*2)
	}
}

func TestViewport_SubView(t *testing.T) {
	vp := Viewport{
		XMin: -2, XMax: 2,
		YMin: -2, YMax: 2,
		Width: 4, Height: 4,
		MaxIter: 100, Slices: 10, Threads: 2,
	}

	out := vp.SubView(1, 1, 3, 2)
	if out.XMin != -1 || out.XMax != 1 || out.YMin != -1 || out.YMax != 0 {
		t.Errorf("SubView = x[%v, %v] y[%v, %v], want x[-1, 1] y[-1, 0]",
			out.XMin, out.XMax, out.YMin, out.YMax)
	}

	// Corner order does not matter.
	swapped := vp.SubView(3, 2, 1, 1)
	if swapped != out {
		t.Errorf("SubView with swapped corners = %+v, want %+v", swapped, out)
	}
}

func TestViewport_String(t *testing.T) {
	vp := DefaultViewport(800, 600)
	s := vp.String()
	for _, want := range []string{"800x600", "iter=1000", "slices=5000", "threads=12"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
