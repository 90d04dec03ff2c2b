package mandel

// ViewStack remembers previous view bounds so interactive zooming can
// be undone. Only the plane window is recorded; popping restores it
// onto the caller's current viewport, leaving pixel dimensions and
// pass parameters as they are.
//
// ViewStack is not safe for concurrent use. It belongs to whichever
// goroutine owns the current view, typically a UI event loop.
type ViewStack struct {
	entries []viewBounds
}

type viewBounds struct {
	xMin, xMax, yMin, yMax float64
}

// Push records the window of vp.
func (s *ViewStack) Push(vp Viewport) {
	s.entries = append(s.entries, viewBounds{
		xMin: vp.XMin, xMax: vp.XMax,
		yMin: vp.YMin, yMax: vp.YMax,
	})
}

// Pop restores the most recently pushed window onto current and
// returns the result. Returns (current, false) when the stack is
// empty.
func (s *ViewStack) Pop(current Viewport) (Viewport, bool) {
	if len(s.entries) == 0 {
		return current, false
	}
	b := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]

	out := current
	out.XMin, out.XMax = b.xMin, b.xMax
	out.YMin, out.YMax = b.yMin, b.yMax
	return out, true
}

// Len returns the number of recorded windows.
func (s *ViewStack) Len() int { return len(s.entries) }

// Clear drops all recorded windows.
func (s *ViewStack) Clear() { s.entries = s.entries[:0] }
