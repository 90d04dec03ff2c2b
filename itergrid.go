package mandel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
)

// itergridMagic identifies a serialized iteration grid. The version is
// part of the magic so an incompatible layout fails loudly.
const itergridMagic = "MGRID_v1\n"

// ErrGridFormat is returned when decoding a malformed iteration grid.
var ErrGridFormat = errors.New("mandel: malformed iteration grid")

// maxGridPixels bounds the decoded allocation so a corrupt header
// cannot request an absurd buffer.
const maxGridPixels = 1 << 30

// IterGrid holds the per-pixel escape iteration counts of a completed
// pass. Keeping the counts alongside the pixmap lets a caller recolor
// the image with a different palette, or serialize the pass for later
// recoloring, without recomputing the fractal.
type IterGrid struct {
	width   int
	height  int
	maxIter int
	counts  []uint32
}

// NewIterGrid creates a zeroed grid for a pass of the given dimensions.
func NewIterGrid(width, height, maxIter int) *IterGrid {
	return &IterGrid{
		width:   width,
		height:  height,
		maxIter: maxIter,
		counts:  make([]uint32, width*height),
	}
}

// Width returns the grid width in pixels.
func (g *IterGrid) Width() int { return g.width }

// Height returns the grid height in pixels.
func (g *IterGrid) Height() int { return g.height }

// MaxIter returns the iteration bound the grid was computed with.
func (g *IterGrid) MaxIter() int { return g.maxIter }

// At returns the iteration count for pixel (x, y).
// Out-of-bounds coordinates return 0.
func (g *IterGrid) At(x, y int) int {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return 0
	}
	return int(g.counts[y*g.width+x])
}

// Counts returns the raw counts in flat pixel-index order. During a
// pass each worker writes only the indices of its claimed slice; after
// the pass the slice is safe to read freely.
func (g *IterGrid) Counts() []uint32 {
	return g.counts
}

// Recolor maps the stored counts through a palette into a fresh
// pixmap. The fractal is not recomputed.
func (g *IterGrid) Recolor(p Palette) *Pixmap {
	lut := buildLUT(p, g.maxIter)
	pm := NewPixmap(g.width, g.height)
	for i, n := range g.counts {
		c := int(n)
		if c > g.maxIter {
			c = g.maxIter
		}
		copy(pm.data[i*4:i*4+4], lut[c*4:c*4+4])
	}
	return pm
}

// Encode serializes the grid: a magic string, big-endian dimensions
// and iteration bound, and the count plane, the whole record
// zstd-compressed. Neighboring counts are highly similar, so the
// compressed form is a fraction of the raw plane.
func (g *IterGrid) Encode() ([]byte, error) {
	raw := make([]byte, 0, len(itergridMagic)+12+len(g.counts)*4)
	raw = append(raw, itergridMagic...)
	raw = binary.BigEndian.AppendUint32(raw, uint32(g.width))
	raw = binary.BigEndian.AppendUint32(raw, uint32(g.height))
	raw = binary.BigEndian.AppendUint32(raw, uint32(g.maxIter))
	for _, n := range g.counts {
		raw = binary.BigEndian.AppendUint32(raw, n)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("mandel: zstd encode: %w", err)
	}
	defer func() {
		_ = enc.Close()
	}()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/8)), nil
}

// DecodeIterGrid parses a grid serialized by Encode.
func DecodeIterGrid(data []byte) (*IterGrid, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("mandel: zstd decode: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGridFormat, err)
	}

	if len(raw) < len(itergridMagic)+12 {
		return nil, fmt.Errorf("%w: truncated header", ErrGridFormat)
	}
	if string(raw[:len(itergridMagic)]) != itergridMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrGridFormat)
	}
	pos := len(itergridMagic)

	width := int(binary.BigEndian.Uint32(raw[pos:]))
	height := int(binary.BigEndian.Uint32(raw[pos+4:]))
	maxIter := int(binary.BigEndian.Uint32(raw[pos+8:]))
	pos += 12

	if width <= 0 || height <= 0 || width*height > maxGridPixels {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrGridFormat, width, height)
	}
	total := width * height
	if len(raw)-pos != total*4 {
		return nil, fmt.Errorf("%w: plane is %d bytes, want %d", ErrGridFormat, len(raw)-pos, total*4)
	}

	g := NewIterGrid(width, height, maxIter)
	for i := 0; i < total; i++ {
		g.counts[i] = binary.BigEndian.Uint32(raw[pos+i*4:])
	}
	return g, nil
}

// SaveFile writes the encoded grid to path.
func (g *IterGrid) SaveFile(path string) error {
	data, err := g.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadIterGrid reads and decodes a grid from path.
func LoadIterGrid(path string) (*IterGrid, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	return DecodeIterGrid(data)
}
