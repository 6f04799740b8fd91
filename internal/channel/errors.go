package channel

import "errors"

// ErrNotOpen is returned by Send when the channel is not open. The payload
// never reaches the transport and is never queued for later delivery.
var ErrNotOpen = errors.New("channel is not open")
