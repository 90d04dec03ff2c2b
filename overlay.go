package mandel

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Overlay colors follow the classic viewer chrome: gray hairline axes,
// white-on-blue status text.
var (
	axisColor       = RGB(127.0/255, 127.0/255, 127.0/255)
	statusBarColor  = RGB(0, 0, 250.0/255)
	statusTextColor = RGB(250.0/255, 250.0/255, 250.0/255)
)

// statusBarHeight is the pixel height of the status strip, sized for
// the 7x13 bitmap face with a little breathing room.
const statusBarHeight = 16

// DrawAxes draws the real and imaginary axes over a rendered image,
// each only when the zero line falls inside the viewport window.
func DrawAxes(pm *Pixmap, vp Viewport) {
	w, h := pm.Width(), pm.Height()

	// Pixel column where the plane's x = 0 lands.
	x0 := int(-float64(w)*vp.XMin/(vp.XMax-vp.XMin) + 0.5)
	if x0 >= 0 && x0 < w {
		for y := 0; y < h; y++ {
			pm.SetPixel(x0, y, axisColor)
		}
	}

	// Pixel row where the plane's y = 0 lands.
	y0 := int(-float64(h)*vp.YMin/(vp.YMax-vp.YMin) + 0.5)
	if y0 >= 0 && y0 < h {
		for x := 0; x < w; x++ {
			pm.SetPixel(x, y0, axisColor)
		}
	}
}

// StatusLine formats the classic status bar text for a completed pass.
func StatusLine(stats Stats) string {
	vp := stats.Viewport
	return fmt.Sprintf(
		"xMin:  %+.6E    xMax:  %+.6E    yMin:  %+.6E i    yMax:  %+.6E i    Slices:  %d    Threads:  %d    MilliSeconds:  %d",
		vp.XMin, vp.XMax, vp.YMin, vp.YMax,
		stats.Slices, stats.Workers, stats.Elapsed.Milliseconds())
}

// DrawStatusBar paints a blue strip over the bottom statusBarHeight
// rows of the pixmap and renders text into it. Text that does not fit
// is clipped at the right edge.
func DrawStatusBar(pm *Pixmap, text string) {
	top := pm.Height() - statusBarHeight
	pm.FillRect(0, top, pm.Width(), statusBarHeight, statusBarColor)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  pm,
		Src:  image.NewUniform(statusTextColor.Color()),
		Face: face,
		Dot:  fixed.P(6, top+1+face.Ascent),
	}
	d.DrawString(text)
}
