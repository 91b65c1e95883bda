package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/config"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/csc"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/imageio"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/logging"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins: []string{"https://trusted.example"},
			MaxFrameBytes:  1 << 20,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(New(cfg, logging.New(&bytes.Buffer{})))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, query string, header http.Header) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/convert?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func rampFrame(rows, cols int) []byte {
	buf := make([]byte, rows*cols*3)
	for i := range buf {
		buf[i] = uint8(i*13 + i/7)
	}
	return buf
}

func TestConvert_BadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing rows", "cols=4"},
		{"missing cols", "rows=4"},
		{"non-numeric rows", "rows=four&cols=4"},
		{"odd rows", "rows=3&cols=4"},
		{"zero cols", "rows=4&cols=0"},
		{"negative rows", "rows=-2&cols=4"},
		{"unknown variant", "rows=4&cols=4&variant=neon"},
		{"bad compress", "rows=4&cols=4&compress=maybe"},
		{"frame over limit", "rows=1024&cols=1024"},
	}

	h := New(testConfig(), logging.New(&bytes.Buffer{}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/convert?"+tt.query, nil)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	server := newTestServer(t, testConfig())

	for _, query := range []string{
		"rows=4&cols=6",
		"rows=4&cols=6&variant=vector",
		"rows=4&cols=6&compress=1",
	} {
		t.Run(query, func(t *testing.T) {
			conn := dial(t, server, query, nil)
			frame := bytes.Repeat([]byte{128}, 4*6*3)

			// two frames on one connection
			for i := 0; i < 2; i++ {
				require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame))

				msgType, container, err := conn.ReadMessage()
				require.NoError(t, err)
				assert.Equal(t, websocket.BinaryMessage, msgType)

				ycc, err := imageio.ReadYCC(bytes.NewReader(container))
				require.NoError(t, err)
				assert.Equal(t, csc.Dimensions{Rows: 4, Cols: 6}, ycc.Dims)
				assert.Equal(t, uint8(126), ycc.Y.At(0, 0))

				_, rgb, err := conn.ReadMessage()
				require.NoError(t, err)
				assert.Equal(t, frame, rgb)
			}
		})
	}
}

func TestConvert_MatchesLibrary(t *testing.T) {
	server := newTestServer(t, testConfig())
	conn := dial(t, server, "rows=6&cols=8&variant=vector", nil)

	frame := rampFrame(6, 8)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame))

	_, container, err := conn.ReadMessage()
	require.NoError(t, err)
	_, got, err := conn.ReadMessage()
	require.NoError(t, err)

	dims := csc.Dimensions{Rows: 6, Cols: 8}
	src, err := imageio.Deinterleave(frame, dims)
	require.NoError(t, err)
	tr, err := csc.New(csc.VariantScalar, csc.BT601)
	require.NoError(t, err)

	ycc := csc.NewYCbCr(dims)
	require.NoError(t, tr.Forward(src, ycc))
	wantContainer, err := imageio.EncodeYCC(ycc, false)
	require.NoError(t, err)
	assert.Equal(t, wantContainer, container)

	rgb := csc.NewRGB(dims)
	require.NoError(t, tr.Inverse(ycc, rgb))
	assert.Equal(t, imageio.Interleave(rgb), got)
}

func TestConvert_BadFrames(t *testing.T) {
	server := newTestServer(t, testConfig())

	t.Run("wrong size", func(t *testing.T) {
		conn := dial(t, server, "rows=2&cols=2", nil)
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))

		_, _, err := conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseUnsupportedData), "got %v", err)
	})

	t.Run("text frame", func(t *testing.T) {
		conn := dial(t, server, "rows=2&cols=2", nil)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))

		_, _, err := conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseUnsupportedData), "got %v", err)
	})
}

func TestConvert_ReadLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxFrameBytes = 2 * 2 * 3
	server := newTestServer(t, cfg)

	conn := dial(t, server, "rows=2&cols=2", nil)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 64)))

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
}

func TestConvert_Origin(t *testing.T) {
	server := newTestServer(t, testConfig())
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/convert?rows=2&cols=2"

	header := http.Header{}
	header.Set("Origin", "https://trusted.example")
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	require.NoError(t, err)
	conn.Close()

	header.Set("Origin", "http://malicious.example")
	_, resp, err := websocket.DefaultDialer.Dial(u, header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowed        []string
		expectedResult bool
	}{
		{
			name:           "empty origin",
			origin:         "",
			expectedResult: false,
		},
		{
			name:           "localhost default",
			origin:         "http://localhost:8080",
			expectedResult: true,
		},
		{
			name:           "127.0.0.1 default",
			origin:         "http://127.0.0.1:8080",
			expectedResult: true,
		},
		{
			name:           "external origin without list",
			origin:         "http://example.com:8080",
			expectedResult: false,
		},
		{
			name:           "allowed origin",
			origin:         "http://example.com:8080",
			allowed:        []string{"http://example.com:8080", "http://trusted.com"},
			expectedResult: true,
		},
		{
			name:           "not allowed origin",
			origin:         "http://malicious.com:8080",
			allowed:        []string{"http://example.com:8080", "http://trusted.com"},
			expectedResult: false,
		},
		{
			name:           "entry without scheme",
			origin:         "https://trusted.com/",
			allowed:        []string{"trusted.com"},
			expectedResult: true,
		},
		{
			name:           "localhost lookalike",
			origin:         "http://localhost.evil.net",
			expectedResult: false,
		},
		{
			name:           "loopback lookalike",
			origin:         "http://127.0.0.1.evil.net:8080",
			expectedResult: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedResult, isAllowedOrigin(tt.origin, tt.allowed))
		})
	}
}
