package events

import (
	"time"

	"rechan/internal/channel"
)

// ChannelStatus is a bus snapshot of the channel lifecycle, published on
// TopicChannelState for every transition.
type ChannelStatus struct {
	State     channel.State
	Err       string
	Attempt   int
	RetryIn   time.Duration
	Address   string
	Timestamp time.Time
}

// ChannelMessage carries one inbound frame, published on
// TopicChannelMessage. Envelope holds the "type" field when the payload is
// a JSON event envelope.
type ChannelMessage struct {
	Address   string
	Raw       string
	Value     any
	Decoded   bool
	Envelope  string
	Timestamp time.Time
}

// SendResult reports the outcome of one outbound payload, published on
// TopicChannelSend.
type SendResult struct {
	Address   string
	Payload   string
	Err       string
	Timestamp time.Time
}
