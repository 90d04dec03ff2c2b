// Package mandel renders escape-time images of the Mandelbrot set.
//
// # Overview
//
// mandel is a pure Go renderer for the Mandelbrot set. A render is a
// single pass over a rectangular window of the complex plane: the
// window is cut into many small pixel slices, a fixed pool of workers
// competes for the slices, and each worker colors its pixels into a
// shared RGBA buffer. Slices never overlap, so every pixel has exactly
// one writer and the pass needs no pixel-level locking.
//
// # Quick Start
//
//	import "github.com/gogpu/mandel"
//
//	r := mandel.NewRenderer()
//
//	vp := mandel.DefaultViewport(1920, 1080)
//	res, err := r.Render(context.Background(), vp)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res.Pixmap.SavePNG("mandelbrot.png")
//
// # Cancellation
//
// Render honors its context. Cancel the context and the pass stops at
// the next slice boundary, returning [ErrAborted]. Slices already
// claimed by a worker run to completion, so the buffer is always in a
// consistent state.
//
// # Precision
//
// The default kernel iterates in float64, which holds up to roughly
// 10^13x magnification. Past that, enable the arbitrary-precision
// kernel with [WithKernel]([NewBigFloatKernel]). It is orders of
// magnitude slower and only worth it for extreme zooms.
//
// # Architecture
//
// The library is organized into:
//   - Public API: Renderer, Viewport, Palette, Pixmap, IterGrid
//   - Internal: engine (slice queue, worker pool, pass monitor)
//   - Persistence: settings (named parameter files)
//   - Frontends: cmd/mandel (CLI), cmd/mandelweb (HTTP), cmd/mandelview (interactive)
//
// # Coordinate System
//
// Pixel (0,0) maps to the top-left corner of the viewport: X increases
// right across [Viewport.XMin, Viewport.XMax] and Y increases down
// across [Viewport.YMin, Viewport.YMax]. Pixels are addressed by flat
// index p, with column p % width and row p / width.
package mandel

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
