package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Transport is the raw bidirectional connection primitive the channel
// client drives. Implementations own the socket lifecycle. Connect and
// Close may be called repeatedly in alternation on a single instance; the
// client treats every read/write error and unexpected close identically.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Close() error
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, payload []byte) error
}

// New selects a transport implementation from the address scheme:
// ws/wss for WebSocket endpoints, tcp for length-prefixed framed sockets.
func New(address string) (Transport, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, fmt.Errorf("address is empty")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse address %q: %w", address, err)
	}

	switch u.Scheme {
	case "ws", "wss":
		if u.Host == "" {
			return nil, fmt.Errorf("websocket address is missing host: %q", address)
		}

		return NewWebSocketTransport(u.String()), nil
	case "tcp":
		if u.Host == "" {
			return nil, fmt.Errorf("tcp address is missing host: %q", address)
		}

		return NewTCPTransport(u.Host), nil
	case "":
		return nil, fmt.Errorf("address has no scheme: %q", address)
	default:
		return nil, fmt.Errorf("unsupported address scheme: %q", u.Scheme)
	}
}
