package mandel

// Kernel computes escape-time iteration counts for points of the
// complex plane. Implementations must be pure: no mutable state shared
// between calls, safe to invoke concurrently from any number of workers.
type Kernel interface {
	// Escape returns the number of iterations of z -> z*z + c before
	// |z|^2 exceeds 4, starting from z = 0 with c = cRe + i*cIm.
	// The result is in [0, maxIter]; maxIter means the point never
	// escaped within the bound and is treated as inside the set.
	Escape(cRe, cIm float64, maxIter int) int
}

// planeMapper is implemented by kernels that compute the
// pixel-to-plane mapping themselves, at their own precision.
// The renderer prefers EscapeAt over the float64 mapping when the
// kernel provides it.
type planeMapper interface {
	EscapeAt(vp Viewport, px, py int) int
}

// Float64Kernel iterates in IEEE-754 double precision. It is the
// default kernel and by far the fastest; precision holds up to roughly
// 10^13x magnification, after which neighboring pixels collapse onto
// the same coordinate.
//
// The zero value is ready to use.
type Float64Kernel struct{}

// Escape implements Kernel using the optimized escape-time form:
// x2 and y2 carry the squares forward so each iteration costs three
// multiplications instead of five.
func (Float64Kernel) Escape(cRe, cIm float64, maxIter int) int {
	var x, y, x2, y2 float64
	n := 0
	for x2+y2 <= 4.0 && n < maxIter {
		y = (x+x)*y + cIm
		x = x2 - y2 + cRe
		x2 = x * x
		y2 = y * y
		n++
	}
	return n
}
