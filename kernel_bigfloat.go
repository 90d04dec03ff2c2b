package mandel

import "math/big"

// Precision bounds for BigFloatKernel, in mantissa bits.
const (
	// DefaultBigFloatPrec doubles float64's 53-bit mantissa, enough
	// for magnifications far beyond the float64 limit.
	DefaultBigFloatPrec = 128

	MinBigFloatPrec = 64
	MaxBigFloatPrec = 4096
)

// BigFloatKernel iterates with arbitrary-precision floating point.
// It is orders of magnitude slower than Float64Kernel and only worth
// using at magnifications where float64 pixels collapse. Use
// [WithKernel] to install it on a Renderer.
//
// BigFloatKernel also maps pixels to plane coordinates at its own
// precision, so deep zooms do not lose the sub-float64 detail in the
// mapping step itself.
type BigFloatKernel struct {
	prec uint
}

// NewBigFloatKernel creates a kernel iterating at the given mantissa
// precision in bits. A prec of 0 selects DefaultBigFloatPrec; other
// out-of-range values are clamped to [MinBigFloatPrec, MaxBigFloatPrec].
func NewBigFloatKernel(prec uint) *BigFloatKernel {
	switch {
	case prec == 0:
		prec = DefaultBigFloatPrec
	case prec < MinBigFloatPrec:
		prec = MinBigFloatPrec
	case prec > MaxBigFloatPrec:
		prec = MaxBigFloatPrec
	}
	return &BigFloatKernel{prec: prec}
}

// Prec returns the mantissa precision in bits.
func (k *BigFloatKernel) Prec() uint { return k.prec }

// Escape implements Kernel. The float64 inputs are widened to the
// kernel's precision before iterating.
func (k *BigFloatKernel) Escape(cRe, cIm float64, maxIter int) int {
	x0 := new(big.Float).SetPrec(k.prec).SetFloat64(cRe)
	y0 := new(big.Float).SetPrec(k.prec).SetFloat64(cIm)
	return k.escape(x0, y0, maxIter)
}

// EscapeAt computes the pixel-to-plane mapping at the kernel's
// precision, then iterates. This is the path the renderer uses.
func (k *BigFloatKernel) EscapeAt(vp Viewport, px, py int) int {
	x0 := k.mapAxis(vp.XMin, vp.XMax, vp.Width, px)
	y0 := k.mapAxis(vp.YMin, vp.YMax, vp.Height, py)
	return k.escape(x0, y0, vp.MaxIter)
}

// mapAxis computes (max-min)/extent*pixel + min at the kernel's
// precision, mirroring the float64 mapping in Viewport.PointAt.
func (k *BigFloatKernel) mapAxis(min, max float64, extent, pixel int) *big.Float {
	lo := new(big.Float).SetPrec(k.prec).SetFloat64(min)
	hi := new(big.Float).SetPrec(k.prec).SetFloat64(max)

	v := new(big.Float).SetPrec(k.prec).Sub(hi, lo)
	v.Quo(v, new(big.Float).SetPrec(k.prec).SetInt64(int64(extent)))
	v.Mul(v, new(big.Float).SetPrec(k.prec).SetInt64(int64(pixel)))
	v.Add(v, lo)
	return v
}

// escape runs the optimized escape-time loop on big.Float operands.
// All temporaries are local, keeping the kernel safe for concurrent use.
func (k *BigFloatKernel) escape(x0, y0 *big.Float, maxIter int) int {
	prec := k.prec
	x := new(big.Float).SetPrec(prec)
	y := new(big.Float).SetPrec(prec)
	x2 := new(big.Float).SetPrec(prec)
	y2 := new(big.Float).SetPrec(prec)
	sum := new(big.Float).SetPrec(prec)
	t := new(big.Float).SetPrec(prec)
	four := new(big.Float).SetPrec(prec).SetInt64(4)

	n := 0
	for n < maxIter {
		if sum.Add(x2, y2); sum.Cmp(four) > 0 {
			break
		}
		// y = 2xy + y0
		t.Add(x, x)
		t.Mul(t, y)
		y.Add(t, y0)
		// x = x2 - y2 + x0
		t.Sub(x2, y2)
		x.Add(t, x0)
		x2.Mul(x, x)
		y2.Mul(y, y)
		n++
	}
	return n
}
