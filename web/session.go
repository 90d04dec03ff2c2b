package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gogpu/mandel"
)

// Websocket message type discriminators.
const (
	msgProgress = "progress"
	msgImage    = "image"
	msgError    = "error"
)

// progressMessage reports a running pass to the client.
type progressMessage struct {
	Type    string `json:"type"`
	Pass    string `json:"pass"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
}

// imageMessage delivers a finished frame as base64 PNG.
type imageMessage struct {
	Type       string `json:"type"`
	Pass       string `json:"pass"`
	PNG        string `json:"png"`
	ElapsedMS  int64  `json:"elapsedMs"`
	Iterations uint64 `json:"iterations"`
}

// errorMessage reports a rejected or failed request.
type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleWS upgrades the connection and runs a session until the client
// disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		mandel.Logger().Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	id := uuid.New()
	sess := &session{
		srv:  s,
		conn: conn,
		log: mandel.Logger().With(
			slog.String("session", id.String()),
			slog.String("remote", r.RemoteAddr)),
	}
	sess.run(r.Context())
}

// session is one websocket connection. Reads happen on the run
// goroutine; renders happen on a per-pass goroutine; writes from both
// are serialized by writeMu.
type session struct {
	srv  *Server
	conn *websocket.Conn
	log  *slog.Logger

	writeMu sync.Mutex

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	wg sync.WaitGroup
}

// run reads render requests until the connection drops. Each request
// aborts the previous pass before starting its own.
func (s *session) run(ctx context.Context) {
	s.log.Info("session opened")
	defer func() {
		s.abort()
		s.wg.Wait()
		_ = s.conn.Close()
		s.log.Info("session closed")
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var req RenderRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.writeJSON(errorMessage{Type: msgError, Error: "web: decode request: " + err.Error()})
			continue
		}
		s.start(ctx, req)
	}
}

// abort cancels the in-flight pass, if any. It does not wait: the
// render goroutine sees ErrAborted and exits without writing.
func (s *session) abort() {
	s.cancelMu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.cancelMu.Unlock()
}

// start validates req and launches its render pass. Validation errors
// go back to the client without touching the pass already running.
func (s *session) start(ctx context.Context, req RenderRequest) {
	req.normalize()

	pal, err := mandel.PaletteByName(req.Palette)
	if err != nil {
		s.writeJSON(errorMessage{Type: msgError, Error: err.Error()})
		return
	}
	vp := req.viewport()
	if err := vp.Validate(); err != nil {
		s.writeJSON(errorMessage{Type: msgError, Error: err.Error()})
		return
	}

	s.abort()

	passCtx, cancel := context.WithCancel(ctx)
	s.cancelMu.Lock()
	s.cancel = cancel
	s.cancelMu.Unlock()

	// The progress closure belongs to this pass alone; once the pass
	// context is canceled no further snapshots reach the client.
	r := mandel.NewRenderer(
		mandel.WithKernel(requestKernel(req)),
		mandel.WithPalette(pal),
		mandel.WithIterGrid(false),
		mandel.WithProgressInterval(s.srv.interval),
		mandel.WithProgress(func(p mandel.Progress) {
			if passCtx.Err() != nil {
				return
			}
			s.writeJSON(progressMessage{
				Type:    msgProgress,
				Pass:    p.PassID.String(),
				Done:    p.Done,
				Total:   p.Total,
				Percent: p.Percent(),
			})
		}),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		res, err := r.Render(passCtx, vp)
		switch {
		case errors.Is(err, mandel.ErrAborted):
			// Superseded by a newer request or the session is closing.
			return
		case err != nil:
			s.writeJSON(errorMessage{Type: msgError, Error: err.Error()})
			return
		}
		s.writeImage(res)
	}()
}

// writeImage encodes the frame and sends it to the client.
func (s *session) writeImage(res *mandel.Result) {
	var buf bytes.Buffer
	if err := res.Pixmap.EncodePNG(&buf); err != nil {
		s.writeJSON(errorMessage{Type: msgError, Error: "web: encode png: " + err.Error()})
		return
	}

	s.writeJSON(imageMessage{
		Type:       msgImage,
		Pass:       res.Stats.PassID.String(),
		PNG:        base64.StdEncoding.EncodeToString(buf.Bytes()),
		ElapsedMS:  res.Stats.Elapsed.Milliseconds(),
		Iterations: res.Stats.TotalIterations,
	})
	s.log.Info("frame delivered",
		slog.String("pass", res.Stats.PassID.String()),
		slog.Duration("elapsed", res.Stats.Elapsed),
		slog.Int("bytes", buf.Len()))
}

// writeJSON sends one message, serializing concurrent writers. Write
// failures are logged and otherwise ignored; the read loop notices the
// dead connection and ends the session.
func (s *session) writeJSON(v any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		s.log.Debug("websocket write failed", slog.Any("error", err))
	}
}

// requestKernel picks the numeric kernel for a request.
func requestKernel(req RenderRequest) mandel.Kernel {
	if req.HighPrec {
		return mandel.NewBigFloatKernel(0)
	}
	return mandel.Float64Kernel{}
}
