// Command mandel renders the Mandelbrot set to an image file.
//
// A render is driven either by flags or by a parameter file saved with
// -save-params; explicit flags override the file. With -recolor the
// command maps a previously exported iteration grid through a palette
// instead of rendering.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/settings"
)

var (
	xMin = flag.Float64("xmin", mandel.DefaultXMin, "left edge of the window")
	xMax = flag.Float64("xmax", mandel.DefaultXMax, "right edge of the window")
	yMin = flag.Float64("ymin", mandel.DefaultYMin, "top edge of the window")
	yMax = flag.Float64("ymax", mandel.DefaultYMax, "bottom edge of the window")

	width  = flag.Int("width", 800, "image width in pixels")
	height = flag.Int("height", 600, "image height in pixels")

	iter    = flag.Int("iter", mandel.DefaultMaxIter, "maximum iterations per pixel")
	slices  = flag.Int("slices", mandel.DefaultSlices, "work slices per pass")
	threads = flag.Int("threads", mandel.DefaultThreads, "worker goroutines (1-64)")

	paletteName = flag.String("palette", "hsv", "color palette: hsv or linear")
	highPrec    = flag.Bool("highprec", false, "iterate with arbitrary precision")
	precBits    = flag.Uint("prec", 0, "mantissa bits for -highprec (0 selects the default)")

	paramsFile = flag.String("params", "", "load parameters from a "+settings.FileExt+" file")
	saveParams = flag.String("save-params", "", "save the effective parameters to a "+settings.FileExt+" file")

	output      = flag.String("o", "mandelbrot.png", "output image: .png or .bmp")
	gridFile    = flag.String("grid", "", "also export the iteration grid to a .mbi file")
	recolorFile = flag.String("recolor", "", "recolor a saved .mbi grid instead of rendering")

	showAxes   = flag.Bool("axes", false, "draw the real and imaginary axes")
	showStatus = flag.Bool("status", false, "draw the status bar")

	quiet   = flag.Bool("q", false, "suppress the progress line")
	verbose = flag.Bool("v", false, "log render internals to stderr")
)

// printer groups large numbers for human eyes.
var printer = message.NewPrinter(language.English)

func main() {
	flag.Parse()

	if *verbose {
		mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	base := settings.Default()
	if *paramsFile != "" {
		loaded, err := settings.Load(*paramsFile)
		if err != nil {
			log.Fatalf("load parameters: %v", err)
		}
		base = loaded
	}
	pal := resolvePalette(base)

	if *recolorFile != "" {
		recolor(pal, *recolorFile, *output)
		return
	}
	render(base, pal)
}

// resolvePalette picks the palette from the -palette flag, or from the
// parameter file when the flag was not given.
func resolvePalette(base settings.Params) mandel.Palette {
	if !flagWasSet("palette") && *paramsFile != "" {
		return base.Palette()
	}
	pal, err := mandel.PaletteByName(*paletteName)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return pal
}

// effectiveParams merges the loaded parameters with explicitly set
// flags. Flags win.
func effectiveParams(p settings.Params, pal mandel.Palette) settings.Params {
	p.UseHSV = pal.Name() == "hsv"

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "xmin":
			p.XMin = *xMin
		case "xmax":
			p.XMax = *xMax
		case "ymin":
			p.YMin = *yMin
		case "ymax":
			p.YMax = *yMax
		case "iter":
			p.Iterations = *iter
		case "slices":
			p.Slices = *slices
		case "threads":
			p.Threads = *threads
		case "highprec":
			p.HighPrecision = *highPrec
		case "axes":
			p.ShowAxes = *showAxes
		}
	})
	return p
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// render runs one pass and writes the outputs.
func render(base settings.Params, pal mandel.Palette) {
	p := effectiveParams(base, pal)
	vp := p.Viewport(*width, *height)
	if err := vp.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	if *saveParams != "" {
		sp := settings.FromViewport(vp)
		sp.ShowAxes = p.ShowAxes
		sp.UseHSV = p.UseHSV
		sp.HighPrecision = p.HighPrecision
		if err := sp.Save(*saveParams); err != nil {
			log.Fatalf("save parameters: %v", err)
		}
	}

	opts := []mandel.RenderOption{
		mandel.WithPalette(pal),
		mandel.WithIterGrid(*gridFile != ""),
	}
	if p.HighPrecision {
		opts = append(opts, mandel.WithKernel(mandel.NewBigFloatKernel(*precBits)))
	}
	if !*quiet {
		opts = append(opts,
			mandel.WithProgressInterval(100*time.Millisecond),
			mandel.WithProgress(func(pr mandel.Progress) {
				printer.Fprintf(os.Stderr, "\r%3d%% (%d/%d slices)", pr.Percent(), pr.Done, pr.Total)
			}))
	}

	// Ctrl-C aborts the pass at the next slice boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := mandel.NewRenderer(opts...).Render(ctx, vp)
	if err != nil {
		fmt.Fprintln(os.Stderr)
		log.Fatalf("render: %v", err)
	}
	if !*quiet {
		fmt.Fprint(os.Stderr, "\r")
	}

	if p.ShowAxes {
		mandel.DrawAxes(res.Pixmap, vp)
	}
	if *showStatus {
		mandel.DrawStatusBar(res.Pixmap, mandel.StatusLine(res.Stats))
	}

	if err := saveImage(res.Pixmap, *output); err != nil {
		log.Fatalf("%v", err)
	}
	if *gridFile != "" {
		if err := res.Iterations.SaveFile(*gridFile); err != nil {
			log.Fatalf("save grid: %v", err)
		}
	}

	printer.Fprintf(os.Stderr, "%s: %dx%d, %d iterations in %v\n",
		*output, vp.Width, vp.Height,
		res.Stats.TotalIterations, res.Stats.Elapsed.Round(time.Millisecond))
}

// recolor maps a saved iteration grid through pal without recomputing.
func recolor(pal mandel.Palette, in, out string) {
	g, err := mandel.LoadIterGrid(in)
	if err != nil {
		log.Fatalf("load grid: %v", err)
	}
	if err := saveImage(g.Recolor(pal), out); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("recolored %dx%d grid (iter=%d) with the %s palette to %s",
		g.Width(), g.Height(), g.MaxIter(), pal.Name(), out)
}

// saveImage writes pm in the format named by the path extension.
func saveImage(pm *mandel.Pixmap, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return pm.SavePNG(path)
	case ".bmp":
		return pm.SaveBMP(path)
	}
	return fmt.Errorf("unsupported output format %q (use .png or .bmp)", filepath.Ext(path))
}
