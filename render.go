package mandel

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/mandel/cache"
	"github.com/gogpu/mandel/internal/engine"
)

// ErrAborted is returned by Render when the pass was canceled before
// completion. The partial output is discarded; the caller keeps
// whatever it was displaying before.
var ErrAborted = errors.New("mandel: render pass aborted")

// lutCacheCapacity bounds the number of palette lookup tables kept per
// Renderer. A table exists per (palette, maxIter) pair, so a handful
// covers typical interactive use.
const lutCacheCapacity = 8

// lutKey identifies one palette lookup table.
type lutKey struct {
	palette string
	maxIter int
}

// Progress is a snapshot of a running pass, delivered to the callback
// installed with [WithProgress].
type Progress struct {
	// PassID identifies the pass the snapshot belongs to.
	PassID uuid.UUID

	// Done and Total count work slices, not pixels. Done never
	// decreases within a pass and equals Total in the final snapshot
	// of a completed pass.
	Done  int
	Total int

	// Elapsed is the time since the pass started.
	Elapsed time.Duration
}

// Percent returns completion as an integer percentage.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Done * 100 / p.Total
}

// Stats summarizes a completed pass.
type Stats struct {
	PassID   uuid.UUID
	Viewport Viewport
	Palette  string

	// Slices is the actual slice count after remainder handling, which
	// may differ by one from Viewport.Slices.
	Slices  int
	Workers int

	Elapsed time.Duration

	// TotalIterations is the summed escape-time work over all pixels,
	// a machine-independent measure of how expensive the view was.
	TotalIterations uint64
}

// Result is the output of a completed pass.
type Result struct {
	// Pixmap holds the colored image, every pixel written exactly once.
	Pixmap *Pixmap

	// Iterations holds the raw counts when the renderer keeps grids
	// (see [WithIterGrid]), nil otherwise.
	Iterations *IterGrid

	Stats Stats
}

// Renderer computes Mandelbrot images. A Renderer is safe for
// concurrent use; each Render call owns its pass state and output
// buffers, sharing only the immutable kernel, the palette, and the
// lookup-table cache.
type Renderer struct {
	kernel     Kernel
	palette    Palette
	keepGrid   bool
	interval   time.Duration
	onProgress func(Progress)
	luts       *cache.LRU[lutKey, []uint8]
}

// NewRenderer creates a Renderer with the given options.
func NewRenderer(opts ...RenderOption) *Renderer {
	o := defaultRenderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{
		kernel:     o.kernel,
		palette:    o.palette,
		keepGrid:   o.keepGrid,
		interval:   o.interval,
		onProgress: o.onProgress,
		luts:       cache.New[lutKey, []uint8](lutCacheCapacity),
	}
}

// Palette returns the renderer's palette.
func (r *Renderer) Palette() Palette { return r.palette }

// Kernel returns the renderer's numeric kernel.
func (r *Renderer) Kernel() Kernel { return r.kernel }

// Render computes the image for vp, blocking until the pass completes
// or ctx is canceled. On cancellation it returns ErrAborted and a nil
// Result.
//
// The output is deterministic: for a fixed vp, kernel, and palette,
// the returned pixels are byte-for-byte identical regardless of thread
// count or slice scheduling.
func (r *Renderer) Render(ctx context.Context, vp Viewport) (*Result, error) {
	if err := vp.Validate(); err != nil {
		return nil, err
	}

	passID := uuid.New()
	log := Logger().With(slog.String("pass", passID.String()))

	lut := r.luts.GetOrCreate(lutKey{r.palette.Name(), vp.MaxIter}, func() []uint8 {
		return buildLUT(r.palette, vp.MaxIter)
	})

	pm := NewPixmap(vp.Width, vp.Height)
	var grid *IterGrid
	if r.keepGrid {
		grid = NewIterGrid(vp.Width, vp.Height, vp.MaxIter)
	}

	var totalIters atomic.Uint64
	pass, err := engine.NewPass(engine.Config{
		TotalPixels: vp.TotalPixels(),
		Slices:      vp.Slices,
		Workers:     vp.Threads,
		Process:     r.processFunc(vp, pm, grid, lut, &totalIters),
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log.Info("render pass starting",
		slog.String("viewport", vp.String()),
		slog.Int("slices", pass.TotalSlices()))

	var onTick func(done, total int)
	if r.onProgress != nil {
		fn := r.onProgress
		onTick = func(done, total int) {
			fn(Progress{
				PassID:  passID,
				Done:    done,
				Total:   total,
				Elapsed: time.Since(start),
			})
		}
	}

	if err := pass.Run(ctx, r.interval, onTick); err != nil {
		log.Info("render pass aborted",
			slog.Int("completed", pass.CompletedSlices()),
			slog.Int("total", pass.TotalSlices()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, ErrAborted
	}

	elapsed := time.Since(start)
	log.Info("render pass complete",
		slog.Duration("elapsed", elapsed),
		slog.Uint64("iterations", totalIters.Load()))

	return &Result{
		Pixmap:     pm,
		Iterations: grid,
		Stats: Stats{
			PassID:          passID,
			Viewport:        vp,
			Palette:         r.palette.Name(),
			Slices:          pass.TotalSlices(),
			Workers:         vp.Threads,
			Elapsed:         elapsed,
			TotalIterations: totalIters.Load(),
		},
	}, nil
}

// processFunc builds the per-slice worker body: decompose the flat
// pixel index, map to the plane, iterate, and write the palette entry.
// Everything it touches is either immutable or owned by the slice
// being processed.
func (r *Renderer) processFunc(vp Viewport, pm *Pixmap, grid *IterGrid, lut []uint8, totalIters *atomic.Uint64) func(start, end int) {
	kern := r.kernel
	mapper, hasMapper := kern.(planeMapper)

	width := vp.Width
	maxIter := vp.MaxIter

	// Hoisting the per-axis scale out of the loop computes the same
	// float64 sequence as dividing per pixel.
	xScale := (vp.XMax - vp.XMin) / float64(vp.Width)
	yScale := (vp.YMax - vp.YMin) / float64(vp.Height)

	data := pm.data
	var counts []uint32
	if grid != nil {
		counts = grid.counts
	}

	return func(start, end int) {
		var iters uint64
		for p := start; p < end; p++ {
			px := p % width
			py := p / width

			var n int
			if hasMapper {
				n = mapper.EscapeAt(vp, px, py)
			} else {
				cRe := xScale*float64(px) + vp.XMin
				cIm := yScale*float64(py) + vp.YMin
				n = kern.Escape(cRe, cIm, maxIter)
			}

			iters += uint64(n)
			copy(data[p*4:p*4+4], lut[n*4:n*4+4])
			if counts != nil {
				counts[p] = uint32(n)
			}
		}
		totalIters.Add(iters)
	}
}
