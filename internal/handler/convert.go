// Package handler serves the websocket conversion endpoint.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/config"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/csc"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/imageio"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/logging"
)

const (
	webSocketReadBufferSize  = 8192
	webSocketWriteBufferSize = 8192 * 2

	closeWriteTimeout = time.Second
)

// Converter upgrades /convert requests and converts each binary frame of
// interleaved RGB. Every frame is answered with two binary messages: the
// YCC container, then the reconstructed interleaved RGB.
type Converter struct {
	cfg config.ServerConfig
	log *logging.Logger
}

// New returns a Converter bound to the server limits in cfg. A nil logger
// uses logging.Default().
func New(cfg *config.Config, log *logging.Logger) *Converter {
	if log == nil {
		log = logging.Default()
	}
	return &Converter{cfg: cfg.Server, log: log}
}

// session holds the per-connection parameters parsed from the query string.
type session struct {
	dims     csc.Dimensions
	tr       csc.Transformer
	compress bool
}

func (c *Converter) parseQuery(r *http.Request) (*session, error) {
	q := r.URL.Query()

	rows, err := strconv.Atoi(q.Get("rows"))
	if err != nil {
		return nil, fmt.Errorf("get rows: %w", err)
	}
	cols, err := strconv.Atoi(q.Get("cols"))
	if err != nil {
		return nil, fmt.Errorf("get cols: %w", err)
	}
	dims, err := csc.NewDimensions(rows, cols)
	if err != nil {
		return nil, err
	}
	if frame := int64(dims.Pixels()) * 3; frame > c.cfg.MaxFrameBytes {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit %d", frame, c.cfg.MaxFrameBytes)
	}

	variant, err := csc.ParseVariant(q.Get("variant"))
	if err != nil {
		return nil, err
	}
	tr, err := csc.New(variant, csc.BT601)
	if err != nil {
		return nil, err
	}

	s := &session{dims: dims, tr: tr}
	if v := q.Get("compress"); v != "" {
		if s.compress, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("get compress: %w", err)
		}
	}
	return s, nil
}

func (c *Converter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, err := c.parseQuery(r)
	if err != nil {
		c.log.Warn("convert: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  webSocketReadBufferSize,
		WriteBufferSize: webSocketWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || isAllowedOrigin(origin, c.cfg.AllowedOrigins)
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.Warn("upgrade websocket: %v", err)
		return
	}

	defer func() {
		if err := wsConn.Close(); err != nil {
			c.log.Debug("error closing websocket: %v", err)
		}
	}()

	wsConn.SetReadLimit(c.cfg.MaxFrameBytes)
	c.log.Info("convert session %s opened (%s, %s)", r.RemoteAddr, s.dims, s.tr.Variant())

	frames, err := c.serve(wsConn, s)
	if err != nil {
		c.log.Warn("convert session %s: %v", r.RemoteAddr, err)
	}
	c.log.Info("convert session %s closed after %d frames", r.RemoteAddr, frames)
}

// serve runs the frame loop until the peer closes or sends a bad frame.
func (c *Converter) serve(wsConn *websocket.Conn, s *session) (int, error) {
	ycc := csc.NewYCbCr(s.dims)
	rgb := csc.NewRGB(s.dims)

	for frames := 0; ; frames++ {
		msgType, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return frames, nil
			}
			return frames, fmt.Errorf("error reading message from ws: %w", err)
		}

		if msgType != websocket.BinaryMessage {
			c.closeWith(wsConn, websocket.CloseUnsupportedData, "binary frames only")
			return frames, errors.New("received non-binary frame")
		}

		src, err := decodeFrame(data, s.dims)
		if err != nil {
			c.closeWith(wsConn, websocket.CloseUnsupportedData, err.Error())
			return frames, err
		}

		if err := s.tr.Forward(src, ycc); err != nil {
			c.closeWith(wsConn, websocket.CloseInternalServerErr, "forward failed")
			return frames, err
		}
		container, err := imageio.EncodeYCC(ycc, s.compress)
		if err != nil {
			c.closeWith(wsConn, websocket.CloseInternalServerErr, "encode failed")
			return frames, err
		}
		if err := s.tr.Inverse(ycc, rgb); err != nil {
			c.closeWith(wsConn, websocket.CloseInternalServerErr, "inverse failed")
			return frames, err
		}

		for _, reply := range [][]byte{container, imageio.Interleave(rgb)} {
			if err := wsConn.WriteMessage(websocket.BinaryMessage, reply); err != nil {
				if errors.Is(err, websocket.ErrCloseSent) {
					return frames, nil
				}
				return frames, fmt.Errorf("failed sending message to ws: %w", err)
			}
		}
	}
}

// decodeFrame accepts exactly one image of interleaved R,G,B bytes.
func decodeFrame(data []byte, d csc.Dimensions) (*csc.RGB, error) {
	if want := d.Pixels() * 3; len(data) != want {
		return nil, fmt.Errorf("frame is %d bytes, want %d", len(data), want)
	}
	return imageio.Deinterleave(data, d)
}

func (c *Converter) closeWith(wsConn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	if err := wsConn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout)); err != nil {
		c.log.Debug("write close frame: %v", err)
	}
}

// isAllowedOrigin reports whether origin matches an allow-list entry.
// Localhost origins are always accepted. An empty list accepts nothing else.
func isAllowedOrigin(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}

	normalized := strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://")
	normalized = strings.TrimSuffix(normalized, "/")

	if u, err := url.Parse(origin); err == nil {
		switch u.Hostname() {
		case "localhost", "127.0.0.1":
			return true
		}
	}

	for _, entry := range allowed {
		candidate := strings.TrimSpace(entry)
		if candidate == "" {
			continue
		}

		// Entries may be listed with or without a scheme
		if candidate == origin || candidate == normalized {
			return true
		}

		if strings.TrimPrefix(candidate, "http://") == normalized || strings.TrimPrefix(candidate, "https://") == normalized {
			return true
		}
	}

	return false
}
