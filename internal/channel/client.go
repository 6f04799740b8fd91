package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rechan/internal/transport"
)

const (
	// DefaultMaxRetries is the retry budget used when the caller does not
	// override it.
	DefaultMaxRetries = 5
	// DefaultInitialDelay is the base reconnection delay.
	DefaultInitialDelay = time.Second

	keepAlivePayload      = "ping"
	keepAliveWriteTimeout = 5 * time.Second
	sendTimeout           = 8 * time.Second
)

// Config is the immutable reconnection policy for one Client.
type Config struct {
	// MaxRetries is how many reconnection attempts follow a lost
	// connection before the client settles in StateTerminal. Must be
	// non-negative; zero disables reconnection entirely.
	MaxRetries int
	// InitialDelay is the base retry delay. The n-th scheduled retry
	// waits InitialDelay << n with no upper bound, so large MaxRetries
	// values imply a very large maximum delay. Must be positive.
	InitialDelay time.Duration
	// KeepAliveInterval, when positive, sends a "ping" text frame on this
	// interval while the channel is open. Zero disables keep-alive.
	KeepAliveInterval time.Duration
}

// DefaultConfig returns the standard policy: five retries starting at one
// second.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
	}
}

// Validate rejects contract violations at construction time. Everything
// else about connectivity surfaces asynchronously as state transitions.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative: %d", c.MaxRetries)
	}
	if c.InitialDelay <= 0 {
		return fmt.Errorf("initial delay must be positive: %s", c.InitialDelay)
	}
	if c.KeepAliveInterval < 0 {
		return fmt.Errorf("keep-alive interval must be non-negative: %s", c.KeepAliveInterval)
	}

	return nil
}

// StateChange describes one state transition. It is delivered to the
// observer synchronously from the goroutine applying the transition.
type StateChange struct {
	From State
	To   State
	// Err is the transport error that caused the transition, if any.
	Err error
	// Attempt is the number of failed attempts since the last successful
	// open, after applying this transition.
	Attempt int
	// RetryIn is the scheduled backoff delay when To is
	// StateRetryScheduled, zero otherwise.
	RetryIn time.Duration
}

// Events is the observer callback surface. Nil callbacks are skipped.
// Callbacks run on the client's goroutine (or, for the manual-close
// transition, on the goroutine calling Close); they must not call Close.
type Events struct {
	State   func(StateChange)
	Message func(InboundMessage)
}

// Status is the caller-facing observable snapshot.
type Status struct {
	State       State
	LastMessage InboundMessage
	IsConnected bool
}

// Client owns one transport at a time and drives it through the reconnect
// state machine. All transport I/O happens on the run goroutine; Send,
// Close, and the read-only accessors are safe from any goroutine.
type Client struct {
	id      string
	address string
	cfg     Config
	events  Events
	logger  *slog.Logger
	tr      transport.Transport

	mu      sync.Mutex
	state   State
	policy  retryPolicy
	retryIn time.Duration
	last    InboundMessage
	hasLast bool
	closed  bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Open starts a client against the given address. The address scheme
// selects the transport (ws, wss, tcp). Only configuration and address
// syntax are validated synchronously; an unreachable endpoint surfaces
// asynchronously through state transitions, never as an error here.
func Open(address string, cfg Config, events Events, logger *slog.Logger) (*Client, error) {
	tr, err := transport.New(address)
	if err != nil {
		return nil, fmt.Errorf("resolve transport: %w", err)
	}

	return openTransport(address, tr, cfg, events, logger)
}

func openTransport(address string, tr transport.Transport, cfg Config, events Events, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("channel config: %w", err)
	}
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("channel address is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		id:      uuid.NewString()[:8],
		address: address,
		cfg:     cfg,
		events:  events,
		tr:      tr,
		state:   StateConnecting,
		policy: retryPolicy{
			initial:    cfg.InitialDelay,
			maxRetries: cfg.MaxRetries,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.logger = logger.With("channel", c.id, "transport", tr.Name(), "address", address)

	go c.run(ctx)

	return c, nil
}

// ID is the per-session identifier used in log lines.
func (c *Client) ID() string { return c.id }

// Address is the endpoint this client dials.
func (c *Client) Address() string { return c.address }

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// IsConnected reports whether the channel is open right now.
func (c *Client) IsConnected() bool {
	return c.State() == StateOpen
}

// LastMessage returns the most recently received message, if any.
func (c *Client) LastMessage() (InboundMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.last, c.hasLast
}

// Attempt returns the number of failed attempts since the last successful
// open.
func (c *Client) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.policy.attempt
}

// Snapshot returns the caller-facing observable state.
func (c *Client) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		State:       c.state,
		LastMessage: c.last,
		IsConnected: c.state == StateOpen,
	}
}

// Send forwards one payload to the transport if the channel is open.
// Otherwise it drops the payload, logs, and returns ErrNotOpen; payloads
// are never queued for later delivery.
func (c *Client) Send(payload any) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	if state != StateOpen {
		c.logger.Warn("send dropped: channel not open", "state", state.String())

		return fmt.Errorf("%w: state is %s", ErrNotOpen, state)
	}

	data, err := encodeOutbound(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := c.tr.WriteMessage(ctx, data); err != nil {
		return fmt.Errorf("send payload: %w", err)
	}
	c.logger.Debug("sent", "len", len(data))

	return nil
}

// Close tears the channel down: it cancels any pending retry timer, closes
// the active transport, and transitions to StateClosed. Idempotent and
// safe from any state, including before the first connection succeeds.
// After Close returns, no further transitions or messages are observable.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.done

		return
	}
	c.closed = true
	c.mu.Unlock()

	c.apply(eventCloseRequested, nil)
	c.cancel()
	_ = c.tr.Close()
	<-c.done
	c.logger.Info("closed")
}

// run owns the state machine: each loop iteration executes the blocking
// phase of the current state and applies the resulting event.
func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer func() { _ = c.tr.Close() }()

	for {
		switch c.State() {
		case StateConnecting:
			c.runConnecting(ctx)
		case StateOpen:
			c.runOpen(ctx)
		case StateRetryScheduled:
			c.runRetryWait(ctx)
		default:
			return
		}
	}
}

func (c *Client) runConnecting(ctx context.Context) {
	if err := c.tr.Connect(ctx); err != nil {
		c.logger.Warn("connect failed", "error", err)
		c.apply(eventConnLost, err)

		return
	}
	c.apply(eventEstablished, nil)
}

func (c *Client) runOpen(ctx context.Context) {
	keepAliveCtx, cancelKeepAlive := context.WithCancel(ctx)
	if c.cfg.KeepAliveInterval > 0 {
		go c.runKeepAlive(keepAliveCtx)
	}

	err := c.readLoop(ctx)
	cancelKeepAlive()
	_ = c.tr.Close()
	c.apply(eventConnLost, err)
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := c.tr.ReadMessage(ctx)
		if err != nil {
			return err
		}

		msg := decodeInbound(payload)
		c.mu.Lock()
		c.last = msg
		c.hasLast = true
		c.mu.Unlock()

		c.logger.Debug("message received", "len", len(payload), "decoded", msg.Decoded)
		if c.events.Message != nil {
			c.events.Message(msg)
		}
	}
}

func (c *Client) runRetryWait(ctx context.Context) {
	c.mu.Lock()
	delay := c.retryIn
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
		c.apply(eventTimerFired, nil)
	}
}

func (c *Client) runKeepAlive(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeCtx, cancel := context.WithTimeout(ctx, keepAliveWriteTimeout)
			err := c.tr.WriteMessage(writeCtx, []byte(keepAlivePayload))
			cancel()
			if err != nil {
				c.logger.Debug("keep-alive write failed", "error", err)
			}
		}
	}
}

// apply feeds one event through the transition function, performs the
// transition's side effects, and notifies the observer. Transitions out of
// a terminal state never happen, so a close racing a read error cannot
// resurface as a late state change.
func (c *Client) apply(ev event, cause error) {
	c.mu.Lock()
	from := c.state
	to := transition(from, ev, !c.policy.exhausted())
	if to == from {
		c.mu.Unlock()

		return
	}

	change := StateChange{From: from, To: to, Err: cause}
	switch to {
	case StateOpen:
		c.policy.reset()
	case StateRetryScheduled:
		c.retryIn = c.policy.next()
		change.RetryIn = c.retryIn
	}
	change.Attempt = c.policy.attempt
	c.state = to
	c.mu.Unlock()

	switch to {
	case StateOpen:
		c.logger.Info("channel open")
	case StateRetryScheduled:
		c.logger.Info("retry scheduled", "delay", change.RetryIn, "attempt", change.Attempt, "error", cause)
	case StateTerminal:
		c.logger.Warn("retry budget exhausted", "attempts", change.Attempt, "error", cause)
	case StateConnecting:
		c.logger.Info("reconnecting", "attempt", change.Attempt)
	}

	if c.events.State != nil {
		c.events.State(change)
	}
}
