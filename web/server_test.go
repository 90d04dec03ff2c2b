package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gogpu/mandel"
)

// testRequest is a small, fast render request used throughout.
func testRequest() RenderRequest {
	return RenderRequest{
		XMin: -2, XMax: 0.5, YMin: -1.2, YMax: 1.2,
		Width: 32, Height: 24,
		MaxIter: 50, Slices: 8, Threads: 2,
	}
}

// =============================================================================
// Request Normalization Tests
// =============================================================================

func TestRenderRequest_Normalize(t *testing.T) {
	t.Run("empty_request_gets_defaults", func(t *testing.T) {
		var req RenderRequest
		req.normalize()

		if req.Width != DefaultWidth || req.Height != DefaultHeight {
			t.Errorf("dimensions = %dx%d, want %dx%d", req.Width, req.Height, DefaultWidth, DefaultHeight)
		}
		if req.XMin != mandel.DefaultXMin || req.XMax != mandel.DefaultXMax {
			t.Errorf("x bounds = [%g, %g], want [%g, %g]", req.XMin, req.XMax, mandel.DefaultXMin, mandel.DefaultXMax)
		}
		if req.YMin != mandel.DefaultYMin || req.YMax != mandel.DefaultYMax {
			t.Errorf("y bounds = [%g, %g], want [%g, %g]", req.YMin, req.YMax, mandel.DefaultYMin, mandel.DefaultYMax)
		}
		if req.MaxIter != mandel.DefaultMaxIter {
			t.Errorf("MaxIter = %d, want %d", req.MaxIter, mandel.DefaultMaxIter)
		}
		if req.Slices != mandel.DefaultSlices {
			t.Errorf("Slices = %d, want %d", req.Slices, mandel.DefaultSlices)
		}
		if req.Threads != mandel.DefaultThreads {
			t.Errorf("Threads = %d, want %d", req.Threads, mandel.DefaultThreads)
		}
	})

	t.Run("set_fields_kept", func(t *testing.T) {
		req := testRequest()
		req.normalize()

		want := testRequest()
		if req != want {
			t.Errorf("normalize changed a fully specified request: %+v", req)
		}
	})

	t.Run("zero_touching_bound_kept", func(t *testing.T) {
		req := RenderRequest{XMin: 0, XMax: 1, YMin: -1, YMax: 0}
		req.normalize()

		if req.XMin != 0 || req.XMax != 1 {
			t.Errorf("x bounds = [%g, %g], want [0, 1]", req.XMin, req.XMax)
		}
		if req.YMin != -1 || req.YMax != 0 {
			t.Errorf("y bounds = [%g, %g], want [-1, 0]", req.YMin, req.YMax)
		}
	})

	t.Run("viewport_is_valid", func(t *testing.T) {
		var req RenderRequest
		req.normalize()
		if err := req.viewport().Validate(); err != nil {
			t.Errorf("normalized empty request invalid: %v", err)
		}
	})
}

func TestRequestKernel(t *testing.T) {
	if _, ok := requestKernel(RenderRequest{}).(mandel.Float64Kernel); !ok {
		t.Error("default request should use the float64 kernel")
	}
	k, ok := requestKernel(RenderRequest{HighPrec: true}).(*mandel.BigFloatKernel)
	if !ok {
		t.Fatal("highPrec request should use the arbitrary-precision kernel")
	}
	if got := k.Prec(); got != mandel.DefaultBigFloatPrec {
		t.Errorf("Prec() = %d, want %d", got, mandel.DefaultBigFloatPrec)
	}
}

// =============================================================================
// HTTP Endpoint Tests
// =============================================================================

func TestServer_Index(t *testing.T) {
	srv := httptest.NewServer(NewServer())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, want := range []string{"Mandelbrot", "/ws", "maxIter"} {
		if !strings.Contains(body.String(), want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestServer_UnknownPathIs404(t *testing.T) {
	srv := httptest.NewServer(NewServer())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServer_Render(t *testing.T) {
	srv := httptest.NewServer(NewServer())
	defer srv.Close()

	req := testRequest()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(srv.URL+"/render", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /render: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}

	var got bytes.Buffer
	if _, err := got.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}

	// The endpoint must produce exactly what the library produces.
	ref, err := mandel.NewRenderer(mandel.WithIterGrid(false)).Render(t.Context(), req.viewport())
	if err != nil {
		t.Fatalf("reference render: %v", err)
	}
	var want bytes.Buffer
	if err := ref.Pixmap.EncodePNG(&want); err != nil {
		t.Fatalf("encode reference: %v", err)
	}
	if !bytes.Equal(got.Bytes(), want.Bytes()) {
		t.Error("response PNG differs from a direct library render")
	}
}

func TestServer_RenderErrors(t *testing.T) {
	srv := httptest.NewServer(NewServer())
	defer srv.Close()

	bad := testRequest()
	bad.XMin, bad.XMax = 1, -1
	badBounds, err := json.Marshal(bad)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	unknown := testRequest()
	unknown.Palette = "neon"
	badPalette, err := json.Marshal(unknown)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed_json", "{", http.StatusBadRequest},
		{"inverted_bounds", string(badBounds), http.StatusBadRequest},
		{"unknown_palette", string(badPalette), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/render", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST /render: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestServer_RenderMethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(NewServer())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/render")
	if err != nil {
		t.Fatalf("GET /render: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestServer_RendererReuse(t *testing.T) {
	s := NewServer()

	a := s.rendererFor(mandel.HSVPalette{}, false)
	b := s.rendererFor(mandel.HSVPalette{}, false)
	if a != b {
		t.Error("same configuration should reuse one renderer")
	}

	c := s.rendererFor(mandel.LinearPalette{}, false)
	if c == a {
		t.Error("different palettes should not share a renderer")
	}
	d := s.rendererFor(mandel.HSVPalette{}, true)
	if d == a {
		t.Error("precision change should not share a renderer")
	}
}

// =============================================================================
// Websocket Session Tests
// =============================================================================

// wsMessage is the union of every message the server sends.
type wsMessage struct {
	Type       string `json:"type"`
	Pass       string `json:"pass"`
	Done       int    `json:"done"`
	Total      int    `json:"total"`
	Percent    int    `json:"percent"`
	PNG        string `json:"png"`
	ElapsedMS  int64  `json:"elapsedMs"`
	Iterations uint64 `json:"iterations"`
	Error      string `json:"error"`
}

// dialWS connects to the test server's websocket endpoint.
func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	return conn
}

// readUntilImage collects messages up to and including the first image
// message.
func readUntilImage(t *testing.T, conn *websocket.Conn) []wsMessage {
	t.Helper()
	var msgs []wsMessage
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read message: %v", err)
		}
		msgs = append(msgs, msg)
		switch msg.Type {
		case msgImage:
			return msgs
		case msgError:
			t.Fatalf("unexpected error message: %s", msg.Error)
		}
	}
}

// decodeFrame decodes the base64 PNG payload of an image message.
func decodeFrame(t *testing.T, msg wsMessage) (width, height int) {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(msg.PNG)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestWS_RenderRoundtrip(t *testing.T) {
	srv := httptest.NewServer(NewServer(WithProgressInterval(time.Millisecond)))
	defer srv.Close()

	conn := dialWS(t, srv)
	if err := conn.WriteJSON(testRequest()); err != nil {
		t.Fatalf("write request: %v", err)
	}

	msgs := readUntilImage(t, conn)
	img := msgs[len(msgs)-1]

	if _, err := uuid.Parse(img.Pass); err != nil {
		t.Errorf("image pass = %q, not a UUID: %v", img.Pass, err)
	}
	if img.Iterations == 0 {
		t.Error("image message reports zero iterations")
	}
	w, h := decodeFrame(t, img)
	if w != 32 || h != 24 {
		t.Errorf("frame = %dx%d, want 32x24", w, h)
	}

	// The monitor always reports completion before the frame is sent.
	if len(msgs) < 2 {
		t.Fatal("expected at least one progress message before the image")
	}
	var done, total int
	for _, msg := range msgs[:len(msgs)-1] {
		if msg.Type != msgProgress {
			t.Fatalf("unexpected message type %q before image", msg.Type)
		}
		if msg.Pass != img.Pass {
			t.Errorf("progress pass = %q, image pass = %q", msg.Pass, img.Pass)
		}
		if msg.Done < done {
			t.Errorf("progress went backwards: %d after %d", msg.Done, done)
		}
		done, total = msg.Done, msg.Total
	}
	if done != total {
		t.Errorf("final progress = %d/%d, want complete", done, total)
	}
}

func TestWS_NewRequestAbortsInFlight(t *testing.T) {
	srv := httptest.NewServer(NewServer())
	defer srv.Close()

	conn := dialWS(t, srv)

	// An expensive pass, then immediately a cheap one. The first is
	// aborted before it can finish, so the only frame delivered
	// belongs to the second.
	slow := RenderRequest{
		XMin: -2, XMax: 0.5, YMin: -1.2, YMax: 1.2,
		Width: 128, Height: 96,
		MaxIter: 500000, Slices: 64, Threads: 2,
	}
	fast := testRequest()
	fast.Width, fast.Height = 16, 12

	if err := conn.WriteJSON(slow); err != nil {
		t.Fatalf("write slow request: %v", err)
	}
	if err := conn.WriteJSON(fast); err != nil {
		t.Fatalf("write fast request: %v", err)
	}

	msgs := readUntilImage(t, conn)
	w, h := decodeFrame(t, msgs[len(msgs)-1])
	if w != 16 || h != 12 {
		t.Errorf("frame = %dx%d, want the superseding request's 16x12", w, h)
	}
}

func TestWS_BadRequestKeepsSessionAlive(t *testing.T) {
	srv := httptest.NewServer(NewServer())
	defer srv.Close()

	conn := dialWS(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatalf("write malformed request: %v", err)
	}
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read error message: %v", err)
	}
	if msg.Type != msgError || msg.Error == "" {
		t.Fatalf("got %+v, want an error message", msg)
	}

	// The session survives and serves the next request.
	if err := conn.WriteJSON(testRequest()); err != nil {
		t.Fatalf("write valid request: %v", err)
	}
	msgs := readUntilImage(t, conn)
	if w, h := decodeFrame(t, msgs[len(msgs)-1]); w != 32 || h != 24 {
		t.Errorf("frame = %dx%d, want 32x24", w, h)
	}
}

func TestWS_InvalidViewportReported(t *testing.T) {
	srv := httptest.NewServer(NewServer())
	defer srv.Close()

	conn := dialWS(t, srv)

	bad := testRequest()
	bad.XMin, bad.XMax = 1, -1
	if err := conn.WriteJSON(bad); err != nil {
		t.Fatalf("write request: %v", err)
	}

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	if msg.Type != msgError {
		t.Fatalf("type = %q, want %q", msg.Type, msgError)
	}
	if !strings.Contains(msg.Error, "bounds") {
		t.Errorf("error = %q, want a bounds complaint", msg.Error)
	}
}
