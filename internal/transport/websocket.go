package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsHandshakeTimeout  = 10 * time.Second
	wsCloseWriteTimeout = time.Second
)

// WebSocketTransport exchanges text frames over a WebSocket connection.
// One frame is one message.
type WebSocketTransport struct {
	url string

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewWebSocketTransport(url string) *WebSocketTransport {
	return &WebSocketTransport{url: url}
}

func (t *WebSocketTransport) Name() string {
	return "websocket"
}

func (t *WebSocketTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger := transportLogger("websocket", "target", t.url)

	if t.conn != nil {
		logger.Debug("connect skipped: already connected")

		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	logger.Info("connecting")
	conn, resp, err := dialer.DialContext(ctx, t.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			logger.Warn("connect failed", "error", err, "status_code", resp.StatusCode)
		} else {
			logger.Warn("connect failed", "error", err)
		}

		return fmt.Errorf("dial websocket: %w", err)
	}
	t.conn = conn
	logger.Info("connected", "remote", conn.RemoteAddr().String())

	return nil
}

func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger := transportLogger("websocket", "target", t.url)

	if t.conn == nil {
		logger.Debug("close skipped: not connected")

		return nil
	}

	// Best effort: tell the peer this is a normal closure before dropping
	// the socket.
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing")
	_ = t.conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(wsCloseWriteTimeout))

	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		logger.Warn("close failed", "error", err)

		return err
	}
	logger.Info("closed")

	return nil
}

func (t *WebSocketTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	logger := transportLogger("websocket")
	conn, err := t.currentConn()
	if err != nil {
		logger.Debug("read failed: not connected", "error", err)

		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		logger.Debug("read failed", "error", err)

		return nil, fmt.Errorf("read websocket message: %w", err)
	}
	logger.Debug("read message", "len", len(payload))

	return payload, nil
}

func (t *WebSocketTransport) WriteMessage(ctx context.Context, payload []byte) error {
	logger := transportLogger("websocket")
	conn, err := t.currentConn()
	if err != nil {
		logger.Debug("write failed: not connected", "error", err)

		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Time{})
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		logger.Warn("write failed", "len", len(payload), "error", err)

		return fmt.Errorf("write websocket message: %w", err)
	}
	logger.Debug("write message", "len", len(payload))

	return nil
}

func (t *WebSocketTransport) currentConn() (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, errors.New("transport is not connected")
	}

	return t.conn, nil
}
