package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

const tcpDialTimeout = 6 * time.Second

// TCPTransport sends and receives framed messages over a TCP socket.
type TCPTransport struct {
	addr string

	mu      sync.Mutex
	conn    net.Conn
	writeMu sync.Mutex
}

// NewTCPTransport creates a transport for a host:port endpoint.
func NewTCPTransport(addr string) *TCPTransport {
	return &TCPTransport{addr: addr}
}

func (t *TCPTransport) Name() string {
	return "tcp"
}

func (t *TCPTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger := transportLogger("tcp", "target", t.addr)

	if t.conn != nil {
		logger.Debug("connect skipped: already connected")

		return nil
	}
	if t.addr == "" {
		logger.Warn("connect failed: address is empty")

		return errors.New("tcp address is empty")
	}

	dialer := net.Dialer{Timeout: tcpDialTimeout}
	logger.Info("connecting")
	conn, err := dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		logger.Warn("connect failed", "error", err)

		return fmt.Errorf("dial tcp: %w", err)
	}
	t.conn = conn
	logger.Info("connected", "remote", conn.RemoteAddr().String())

	return nil
}

func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger := transportLogger("tcp", "target", t.addr)

	if t.conn == nil {
		logger.Debug("close skipped: not connected")

		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		logger.Warn("close failed", "error", err)

		return err
	}
	logger.Info("closed")

	return nil
}

func (t *TCPTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	logger := transportLogger("tcp")
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

	payload, err := readFrame(ioReadFullFunc(conn))
	if err != nil {
		logger.Debug("read frame failed", "error", err)

		return nil, err
	}
	logger.Debug("read frame", "len", len(payload))

	return payload, nil
}

func (t *TCPTransport) WriteMessage(ctx context.Context, payload []byte) error {
	logger := transportLogger("tcp")
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

	frame, err := encodeFrame(payload)
	if err != nil {
		logger.Warn("encode frame failed", "payload_len", len(payload), "error", err)

		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := conn.Write(frame); err != nil {
		logger.Warn("write frame failed", "payload_len", len(payload), "error", err)

		return fmt.Errorf("write frame: %w", err)
	}
	logger.Debug("write frame", "payload_len", len(payload), "frame_len", len(frame))

	return nil
}

func (t *TCPTransport) currentConn() (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, errors.New("transport is not connected")
	}

	return t.conn, nil
}
