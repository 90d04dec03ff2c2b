// Package settings persists render parameters between sessions.
//
// A Params record captures everything needed to reproduce a view:
// plane bounds, pass parameters, and presentation toggles. Records
// travel as fixed-size binary files (conventionally *.mbf) and through
// a Store that remembers the last-used parameters in the user's
// config directory.
package settings

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/gogpu/mandel"
)

// FileExt is the conventional extension for saved parameter files.
const FileExt = ".mbf"

// encodedSize is the exact byte length of an encoded Params record:
// four float64 bounds, then six int32 fields, all little-endian.
const encodedSize = 56

// Codec and validation errors.
var (
	// ErrFormat is returned when a record is not exactly one encoded
	// Params in size.
	ErrFormat = errors.New("settings: malformed params record")

	// ErrInvalid is returned when a structurally sound record holds
	// out-of-range values. The record is rejected wholesale; no field
	// is salvaged.
	ErrInvalid = errors.New("settings: invalid params")
)

// Params is the full persisted parameter record.
type Params struct {
	// Plane window bounds.
	XMin, XMax float64
	YMin, YMax float64

	// Pass parameters.
	Iterations int
	Slices     int
	Threads    int

	// Presentation toggles.
	ShowAxes      bool
	UseHSV        bool
	HighPrecision bool
}

// Default returns the classic full-set parameters.
func Default() Params {
	return Params{
		XMin:       mandel.DefaultXMin,
		XMax:       mandel.DefaultXMax,
		YMin:       mandel.DefaultYMin,
		YMax:       mandel.DefaultYMax,
		Iterations: mandel.DefaultMaxIter,
		Slices:     mandel.DefaultSlices,
		Threads:    mandel.DefaultThreads,
		ShowAxes:   false,
		UseHSV:     true,
	}
}

// FromViewport captures the window and pass parameters of vp. The
// presentation toggles keep their zero values; set them separately.
func FromViewport(vp mandel.Viewport) Params {
	return Params{
		XMin:       vp.XMin,
		XMax:       vp.XMax,
		YMin:       vp.YMin,
		YMax:       vp.YMax,
		Iterations: vp.MaxIter,
		Slices:     vp.Slices,
		Threads:    vp.Threads,
	}
}

// Viewport builds a render viewport from the record at the given pixel
// dimensions, which are a display concern and not persisted.
func (p Params) Viewport(width, height int) mandel.Viewport {
	return mandel.Viewport{
		XMin:    p.XMin,
		XMax:    p.XMax,
		YMin:    p.YMin,
		YMax:    p.YMax,
		Width:   width,
		Height:  height,
		MaxIter: p.Iterations,
		Slices:  p.Slices,
		Threads: p.Threads,
	}
}

// Palette returns the palette selected by the UseHSV toggle.
func (p Params) Palette() mandel.Palette {
	if p.UseHSV {
		return mandel.HSVPalette{}
	}
	return mandel.LinearPalette{}
}

// Validate reports the first out-of-range field, or nil. The negated
// bound comparisons also reject NaN.
func (p Params) Validate() error {
	switch {
	case !(p.XMin < p.XMax):
		return fmt.Errorf("%w: x bounds [%g, %g]", ErrInvalid, p.XMin, p.XMax)
	case !(p.YMin < p.YMax):
		return fmt.Errorf("%w: y bounds [%g, %g]", ErrInvalid, p.YMin, p.YMax)
	case p.Iterations < 1:
		return fmt.Errorf("%w: iterations %d", ErrInvalid, p.Iterations)
	case p.Slices < 1:
		return fmt.Errorf("%w: slices %d", ErrInvalid, p.Slices)
	case p.Threads < 1 || p.Threads > 64:
		return fmt.Errorf("%w: threads %d", ErrInvalid, p.Threads)
	}
	return nil
}

// Encode serializes the record to its fixed binary form.
func (p Params) Encode() []byte {
	out := make([]byte, 0, encodedSize)
	out = binary.LittleEndian.AppendUint64(out, math.Float64bits(p.XMin))
	out = binary.LittleEndian.AppendUint64(out, math.Float64bits(p.XMax))
	out = binary.LittleEndian.AppendUint64(out, math.Float64bits(p.YMin))
	out = binary.LittleEndian.AppendUint64(out, math.Float64bits(p.YMax))
	out = binary.LittleEndian.AppendUint32(out, uint32(p.Iterations))
	out = binary.LittleEndian.AppendUint32(out, uint32(p.Slices))
	out = binary.LittleEndian.AppendUint32(out, uint32(p.Threads))
	out = binary.LittleEndian.AppendUint32(out, encodeBool(p.ShowAxes))
	out = binary.LittleEndian.AppendUint32(out, encodeBool(p.UseHSV))
	out = binary.LittleEndian.AppendUint32(out, encodeBool(p.HighPrecision))
	return out
}

// Decode parses and validates an encoded record. A record that fails
// validation is rejected wholesale.
func Decode(data []byte) (Params, error) {
	if len(data) != encodedSize {
		return Params{}, fmt.Errorf("%w: %d bytes, want %d", ErrFormat, len(data), encodedSize)
	}

	p := Params{
		XMin:          math.Float64frombits(binary.LittleEndian.Uint64(data[0:])),
		XMax:          math.Float64frombits(binary.LittleEndian.Uint64(data[8:])),
		YMin:          math.Float64frombits(binary.LittleEndian.Uint64(data[16:])),
		YMax:          math.Float64frombits(binary.LittleEndian.Uint64(data[24:])),
		Iterations:    int(int32(binary.LittleEndian.Uint32(data[32:]))),
		Slices:        int(int32(binary.LittleEndian.Uint32(data[36:]))),
		Threads:       int(int32(binary.LittleEndian.Uint32(data[40:]))),
		ShowAxes:      binary.LittleEndian.Uint32(data[44:]) != 0,
		UseHSV:        binary.LittleEndian.Uint32(data[48:]) != 0,
		HighPrecision: binary.LittleEndian.Uint32(data[52:]) != 0,
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Save validates and writes the record to path.
func (p Params) Save(path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return os.WriteFile(path, p.Encode(), 0o644)
}

// Load reads and decodes a record from path.
func Load(path string) (Params, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return Params{}, err
	}
	return Decode(data)
}

func encodeBool(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
