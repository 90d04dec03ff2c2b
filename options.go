package mandel

import "time"

// RenderOption configures a Renderer during creation.
// Use functional options to customize Renderer behavior.
//
// Example:
//
//	// Default: float64 kernel, HSV palette
//	r := mandel.NewRenderer()
//
//	// Linear palette with a progress callback
//	r := mandel.NewRenderer(
//	    mandel.WithPalette(mandel.LinearPalette{}),
//	    mandel.WithProgress(func(p mandel.Progress) {
//	        fmt.Printf("\r%d%%", p.Percent())
//	    }),
//	)
type RenderOption func(*renderOptions)

// renderOptions holds optional configuration for Renderer creation.
type renderOptions struct {
	kernel     Kernel
	palette    Palette
	keepGrid   bool
	interval   time.Duration
	onProgress func(Progress)
}

// defaultRenderOptions returns the default renderer options.
func defaultRenderOptions() renderOptions {
	return renderOptions{
		kernel:   Float64Kernel{},
		palette:  HSVPalette{},
		keepGrid: true,
		interval: 0, // engine default
	}
}

// WithKernel sets the numeric kernel for the Renderer.
//
// Example:
//
//	// Arbitrary precision for deep zooms:
//	r := mandel.NewRenderer(mandel.WithKernel(mandel.NewBigFloatKernel(256)))
func WithKernel(k Kernel) RenderOption {
	return func(o *renderOptions) {
		if k != nil {
			o.kernel = k
		}
	}
}

// WithPalette sets the palette mapping iteration counts to colors.
func WithPalette(p Palette) RenderOption {
	return func(o *renderOptions) {
		if p != nil {
			o.palette = p
		}
	}
}

// WithIterGrid controls whether completed passes keep their iteration
// grid. The grid enables Result.Iterations and recoloring but costs
// four bytes per pixel. Enabled by default.
func WithIterGrid(keep bool) RenderOption {
	return func(o *renderOptions) {
		o.keepGrid = keep
	}
}

// WithProgress installs a callback invoked from the monitor goroutine
// while a pass runs, and once more on completion. The callback must
// not block; a slow callback delays cancellation polling.
func WithProgress(fn func(Progress)) RenderOption {
	return func(o *renderOptions) {
		o.onProgress = fn
	}
}

// WithProgressInterval sets how often the monitor samples progress and
// polls for cancellation. Non-positive values select the engine
// default of 50ms.
func WithProgressInterval(d time.Duration) RenderOption {
	return func(o *renderOptions) {
		o.interval = d
	}
}
