// Package engine implements the work-distribution core for escape-time
// rendering: a queue of pixel-range slices, a pool of workers that
// compete for slices until none remain, and a polling monitor that
// reports progress and observes cooperative cancellation.
//
// The engine never interprets pixels. Callers hand it a total pixel
// count and a Process callback; the callback owns the mapping from
// linear pixel indices to coordinates, colors, and output buffers.
// Because every slice covers a disjoint index range, Process needs no
// locking as long as it writes only within the range it was given.
//
// Thread safety: a Pass may be driven from one goroutine (Run) while
// any number of others call Cancel, Aborted, or the slice counters.
package engine

// A Slice is a half-open range [Start, End) of linear pixel indices,
// claimed and processed by exactly one worker as a single unit of work.
type Slice struct {
	// Start is the first pixel index covered by the slice.
	Start int

	// End is one past the last pixel index covered by the slice.
	End int
}

// Len returns the number of pixels covered by the slice.
func (s Slice) Len() int { return s.End - s.Start }

// Partition splits [0, totalPixels) into roughly sliceCount contiguous
// slices of width totalPixels/sliceCount, with one final slice covering
// the remainder. The result always covers the full range with no gap
// and no overlap, and contains no empty slice; the actual number of
// slices is a best effort, not a guarantee, and can differ from
// sliceCount when the division is uneven.
//
// Partition returns nil if totalPixels or sliceCount is not positive.
func Partition(totalPixels, sliceCount int) []Slice {
	if totalPixels <= 0 || sliceCount <= 0 {
		return nil
	}

	step := totalPixels / sliceCount
	if step < 1 {
		// More slices requested than pixels: degrade to one pixel each.
		step = 1
	}

	slices := make([]Slice, 0, sliceCount+1)
	start := 0
	for start+step <= totalPixels {
		slices = append(slices, Slice{Start: start, End: start + step})
		start += step
	}
	if start < totalPixels {
		slices = append(slices, Slice{Start: start, End: totalPixels})
	}
	return slices
}
