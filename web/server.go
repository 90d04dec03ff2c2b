// Package web serves the renderer over HTTP: an embedded browser
// client at /, a one-shot PNG endpoint at /render, and a websocket at
// /ws that streams progress snapshots and finished frames. A new
// request on a websocket session aborts the session's in-flight pass,
// so the browser can zoom again without waiting.
package web

import (
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gogpu/mandel"
)

//go:embed index.html
var indexHTML []byte

// DefaultProgressInterval is how often websocket sessions report
// progress when the Server does not specify an interval.
const DefaultProgressInterval = 100 * time.Millisecond

// Default output dimensions for requests that leave width or height
// unset.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// RenderRequest is the JSON request body accepted by POST /render and
// by websocket sessions. Zero-valued fields fall back to the package
// defaults, so the empty request renders the classic full-set view.
type RenderRequest struct {
	XMin float64 `json:"xMin"`
	XMax float64 `json:"xMax"`
	YMin float64 `json:"yMin"`
	YMax float64 `json:"yMax"`

	Width  int `json:"width"`
	Height int `json:"height"`

	MaxIter int `json:"maxIter"`
	Slices  int `json:"slices"`
	Threads int `json:"threads"`

	// Palette selects the color scheme by name; empty means the
	// default HSV palette.
	Palette string `json:"palette"`

	// HighPrec switches to the arbitrary-precision kernel.
	HighPrec bool `json:"highPrec"`
}

// normalize fills zero-valued fields with defaults. Both bounds of an
// axis must be zero to count as unset, so a window touching zero on
// one side is preserved.
func (req *RenderRequest) normalize() {
	if req.Width <= 0 {
		req.Width = DefaultWidth
	}
	if req.Height <= 0 {
		req.Height = DefaultHeight
	}
	if req.XMin == 0 && req.XMax == 0 {
		req.XMin, req.XMax = mandel.DefaultXMin, mandel.DefaultXMax
	}
	if req.YMin == 0 && req.YMax == 0 {
		req.YMin, req.YMax = mandel.DefaultYMin, mandel.DefaultYMax
	}
	if req.MaxIter <= 0 {
		req.MaxIter = mandel.DefaultMaxIter
	}
	if req.Slices <= 0 {
		req.Slices = mandel.DefaultSlices
	}
	if req.Threads <= 0 {
		req.Threads = mandel.DefaultThreads
	}
}

// viewport converts the request to a render viewport. Call normalize
// first.
func (req RenderRequest) viewport() mandel.Viewport {
	return mandel.Viewport{
		XMin:    req.XMin,
		XMax:    req.XMax,
		YMin:    req.YMin,
		YMax:    req.YMax,
		Width:   req.Width,
		Height:  req.Height,
		MaxIter: req.MaxIter,
		Slices:  req.Slices,
		Threads: req.Threads,
	}
}

// rendererKey identifies a shared renderer configuration. The LUT
// cache lives on the Renderer, so sharing one per configuration reuses
// palette tables across requests.
type rendererKey struct {
	palette  string
	highPrec bool
}

// Server routes render requests to the library. It implements
// http.Handler; mount it directly or via ListenAndServe.
type Server struct {
	mux      *http.ServeMux
	interval time.Duration

	mu        sync.Mutex
	renderers map[rendererKey]*mandel.Renderer
}

// Option configures a Server during creation.
type Option func(*Server)

// WithProgressInterval sets how often websocket sessions report
// progress. Non-positive values keep DefaultProgressInterval.
func WithProgressInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// NewServer creates a Server with the given options.
func NewServer(opts ...Option) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		interval:  DefaultProgressInterval,
		renderers: make(map[rendererKey]*mandel.Renderer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /render", s.handleRender)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	mandel.Logger().Info("web server listening", slog.String("addr", addr))
	return srv.ListenAndServe()
}

// rendererFor returns the shared renderer for the given configuration,
// creating it on first use. Shared renderers carry no progress
// callback; websocket sessions build their own per pass.
func (s *Server) rendererFor(p mandel.Palette, highPrec bool) *mandel.Renderer {
	key := rendererKey{palette: p.Name(), highPrec: highPrec}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.renderers[key]; ok {
		return r
	}

	opts := []mandel.RenderOption{
		mandel.WithPalette(p),
		mandel.WithIterGrid(false),
	}
	if highPrec {
		opts = append(opts, mandel.WithKernel(mandel.NewBigFloatKernel(0)))
	}
	r := mandel.NewRenderer(opts...)
	s.renderers[key] = r
	return r
}

// handleIndex serves the embedded browser client.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

// handleRender renders one frame and streams it back as PNG. The pass
// is tied to the request context, so a dropped connection aborts it.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "web: decode request: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.normalize()

	pal, err := mandel.PaletteByName(req.Palette)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	vp := req.viewport()
	if err := vp.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.rendererFor(pal, req.HighPrec).Render(r.Context(), vp)
	if err != nil {
		if errors.Is(err, mandel.ErrAborted) {
			// Client is gone; there is nobody to answer.
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := res.Pixmap.EncodePNG(w); err != nil {
		mandel.Logger().Error("png encode failed", slog.Any("error", err))
	}
}
