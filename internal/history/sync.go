package history

import (
	"context"

	"rechan/internal/bus"
	"rechan/internal/events"
)

// StartSync projects channel bus events into history rows. Inbound frames
// and send results are recorded; state transitions are not.
func StartSync(ctx context.Context, b bus.MessageBus, queue *WriterQueue, repo *EntryRepo) {
	msgSub := b.Subscribe(events.TopicChannelMessage)
	sendSub := b.Subscribe(events.TopicChannelSend)

	go func() {
		defer b.Unsubscribe(msgSub, events.TopicChannelMessage)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-msgSub:
				if !ok {
					return
				}
				msg, ok := raw.(events.ChannelMessage)
				if !ok {
					continue
				}
				entry := Entry{
					Address:   msg.Address,
					Direction: DirectionIn,
					Envelope:  msg.Envelope,
					Payload:   msg.Raw,
					Decoded:   msg.Decoded,
					At:        msg.Timestamp,
				}
				queue.Enqueue("insert_inbound", func(writeCtx context.Context) error {
					_, err := repo.Insert(writeCtx, entry)

					return err
				})
			}
		}
	}()

	go func() {
		defer b.Unsubscribe(sendSub, events.TopicChannelSend)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sendSub:
				if !ok {
					return
				}
				result, ok := raw.(events.SendResult)
				if !ok {
					continue
				}
				if result.Err != "" {
					// Dropped payloads never reached the wire; they are
					// not part of the traffic record.
					continue
				}
				entry := Entry{
					Address:   result.Address,
					Direction: DirectionOut,
					Payload:   result.Payload,
					At:        result.Timestamp,
				}
				queue.Enqueue("insert_outbound", func(writeCtx context.Context) error {
					_, err := repo.Insert(writeCtx, entry)

					return err
				})
			}
		}
	}()
}
