// Command mandelview is an interactive Mandelbrot explorer.
//
// Controls:
//
//	wheel        zoom about the cursor
//	left drag    zoom into the dragged rectangle
//	left click   recenter on the clicked point
//	right click  back to the previous view
//	ESC          abort the running pass
//	A            toggle axes
//	H            toggle palette
//	S / L        save / load parameters
//	R            reset to the full set
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/settings"
)

// clickSlop is the cursor travel in pixels below which a press-release
// counts as a click rather than a drag.
const clickSlop = 4

const helpText = "wheel: zoom  drag: rect zoom  click: center  rclick: back\nESC: abort  A: axes  H: palette  S/L: save/load  R: reset"

// Game owns the view state and the offscreen frame. Renders run on
// their own goroutine; the frame loop only polls for results.
type Game struct {
	width  int
	height int

	vp      mandel.Viewport
	history mandel.ViewStack
	pal     mandel.Palette
	kern    mandel.Kernel
	axes    bool
	store   *settings.Store

	offscreen *ebiten.Image
	lastFrame *mandel.Pixmap
	lastStats mandel.Stats

	results chan *mandel.Result
	cancel  context.CancelFunc

	mu       sync.Mutex
	prog     mandel.Progress
	inFlight bool

	dragging       bool
	pressed        bool
	dragX0, dragY0 int
}

func NewGame(p settings.Params, kern mandel.Kernel, store *settings.Store, width, height int) *Game {
	g := &Game{
		width:     width,
		height:    height,
		vp:        p.Viewport(width, height),
		pal:       p.Palette(),
		kern:      kern,
		axes:      p.ShowAxes,
		store:     store,
		offscreen: ebiten.NewImage(width, height),
		results:   make(chan *mandel.Result, 1),
	}
	g.startRender()
	return g
}

// startRender aborts the running pass and launches one for the current
// view. The goroutine delivers its result through g.results; aborted
// passes deliver nothing.
func (g *Game) startRender() {
	g.abort()

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.mu.Lock()
	g.inFlight = true
	g.prog = mandel.Progress{}
	g.mu.Unlock()

	r := mandel.NewRenderer(
		mandel.WithKernel(g.kern),
		mandel.WithPalette(g.pal),
		mandel.WithIterGrid(false),
		mandel.WithProgressInterval(50*time.Millisecond),
		mandel.WithProgress(func(p mandel.Progress) {
			g.mu.Lock()
			g.prog = p
			g.mu.Unlock()
		}),
	)

	vp := g.vp
	go func() {
		res, err := r.Render(ctx, vp)
		if err != nil {
			// Aborted, or the view degenerated past float64.
			mandel.Logger().Debug("pass ended without frame", slog.Any("error", err))
			return
		}
		select {
		case <-g.results:
		default:
		}
		g.results <- res
	}()
}

// abort cancels the running pass, keeping the displayed frame.
func (g *Game) abort() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// compose redraws the offscreen image from the last finished frame and
// the overlay toggles.
func (g *Game) compose() {
	if g.lastFrame == nil {
		return
	}
	pm := g.lastFrame
	if g.axes {
		pm = pm.Clone()
		mandel.DrawAxes(pm, g.lastStats.Viewport)
	}
	// Frames are fully opaque, so straight alpha equals premultiplied.
	g.offscreen.WritePixels(pm.Data())
}

// setView pushes the current view and renders the new one.
func (g *Game) setView(vp mandel.Viewport) {
	g.history.Push(g.vp)
	g.vp = vp
	g.startRender()
}

func (g *Game) Update() error {
	select {
	case res := <-g.results:
		g.lastFrame = res.Pixmap
		g.lastStats = res.Stats
		g.mu.Lock()
		g.inFlight = false
		g.mu.Unlock()
		g.compose()
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.abort()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		g.axes = !g.axes
		g.compose()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		if g.pal.Name() == "hsv" {
			g.pal = mandel.LinearPalette{}
		} else {
			g.pal = mandel.HSVPalette{}
		}
		g.startRender()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.setView(mandel.DefaultViewport(g.width, g.height))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.saveParams()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.loadParams()
	}

	if _, scrollY := ebiten.Wheel(); scrollY != 0 {
		mx, my := ebiten.CursorPosition()
		g.setView(g.vp.ZoomedAbout(mx, my, math.Pow(0.5, scrollY)))
	}

	g.updateMouse()
	return nil
}

// updateMouse turns press-drag-release into a rectangle zoom and a
// short press into a recenter click.
func (g *Game) updateMouse() {
	mx, my := ebiten.CursorPosition()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.pressed = true
		g.dragging = false
		g.dragX0, g.dragY0 = mx, my
	}
	if g.pressed && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if abs(mx-g.dragX0) > clickSlop || abs(my-g.dragY0) > clickSlop {
			g.dragging = true
		}
	}
	if g.pressed && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.pressed = false
		switch {
		case g.dragging && mx != g.dragX0 && my != g.dragY0:
			g.setView(g.vp.SubView(g.dragX0, g.dragY0, mx, my))
		case !g.dragging:
			re, im := g.vp.PointAt(mx, my)
			g.setView(g.vp.Recentered(re, im))
		}
		g.dragging = false
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		if vp, ok := g.history.Pop(g.vp); ok {
			g.vp = vp
			g.startRender()
		}
	}
}

func (g *Game) saveParams() {
	p := settings.FromViewport(g.vp)
	p.ShowAxes = g.axes
	p.UseHSV = g.pal.Name() == "hsv"
	_, p.HighPrecision = g.kern.(*mandel.BigFloatKernel)
	if err := g.store.Save(p); err != nil {
		mandel.Logger().Error("save parameters", slog.Any("error", err))
	}
}

func (g *Game) loadParams() {
	p, err := g.store.Load()
	if err != nil {
		mandel.Logger().Error("load parameters", slog.Any("error", err))
		return
	}
	g.history.Push(g.vp)
	g.vp = p.Viewport(g.width, g.height)
	g.pal = p.Palette()
	g.axes = p.ShowAxes
	g.startRender()
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.offscreen, nil)

	if g.dragging {
		mx, my := ebiten.CursorPosition()
		x0, y0 := float32(min(g.dragX0, mx)), float32(min(g.dragY0, my))
		w, h := float32(abs(mx-g.dragX0)), float32(abs(my-g.dragY0))
		vector.StrokeRect(screen, x0, y0, w, h, 1, mandel.White.Color(), false)
	}

	g.mu.Lock()
	inFlight, prog := g.inFlight, g.prog
	g.mu.Unlock()

	status := g.statusText(inFlight, prog)
	ebitenutil.DebugPrint(screen, helpText+"\n"+status)
}

func (g *Game) statusText(inFlight bool, prog mandel.Progress) string {
	if inFlight {
		if prog.Total == 0 {
			return "rendering..."
		}
		return fmt.Sprintf("rendering %d%% (%d/%d slices)", prog.Percent(), prog.Done, prog.Total)
	}
	if g.lastStats.PassID == uuid.Nil {
		return "aborted"
	}
	re, im := g.lastStats.Viewport.Center()
	dx, _ := g.lastStats.Viewport.Span()
	return fmt.Sprintf("center %.10g%+.10gi  span %.3e  iter %d  %s  %v",
		re, im, dx, g.lastStats.Viewport.MaxIter, g.lastStats.Palette,
		g.lastStats.Elapsed.Round(time.Millisecond))
}

func (g *Game) Layout(int, int) (int, int) {
	return g.width, g.height
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func main() {
	var (
		width    = flag.Int("width", 800, "window width in pixels")
		height   = flag.Int("height", 600, "window height in pixels")
		highPrec = flag.Bool("highprec", false, "iterate with arbitrary precision")
		precBits = flag.Uint("prec", 0, "mantissa bits for -highprec (0 selects the default)")
		verbose  = flag.Bool("v", false, "log render internals to stderr")
	)
	flag.Parse()

	if *verbose {
		mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	store, err := settings.NewStore("mandel")
	if err != nil {
		// No user config dir; fall back to the working directory.
		store = settings.NewStoreAt("mandel" + settings.FileExt)
	}
	params, err := store.Load()
	if err != nil {
		log.Printf("ignoring saved parameters: %v", err)
		params = settings.Default()
	}

	var kern mandel.Kernel = mandel.Float64Kernel{}
	if *highPrec {
		kern = mandel.NewBigFloatKernel(*precBits)
	}

	g := NewGame(params, kern, store, *width, *height)

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("mandelview")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}

	// Window closed; keep the last view for next time.
	g.saveParams()
}
