package history

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"rechan/internal/bus"
	"rechan/internal/events"
)

func TestSyncRecordsTraffic(t *testing.T) {
	repo := openTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.New(logger)
	defer b.Close()

	queue := NewWriterQueue(logger, 16)
	queue.Start(ctx)
	StartSync(ctx, b, queue, repo)

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	address := "ws://localhost:8000/ws"

	b.Publish(events.TopicChannelMessage, events.ChannelMessage{
		Address:   address,
		Raw:       `{"type":"agent_message"}`,
		Decoded:   true,
		Envelope:  "agent_message",
		Timestamp: now,
	})
	b.Publish(events.TopicChannelSend, events.SendResult{
		Address:   address,
		Payload:   "hello",
		Timestamp: now.Add(time.Second),
	})
	// Failed sends never reached the wire and must not be recorded.
	b.Publish(events.TopicChannelSend, events.SendResult{
		Address:   address,
		Payload:   "dropped",
		Err:       "channel is not open",
		Timestamp: now.Add(2 * time.Second),
	})

	var got []Entry
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := repo.ListRecent(context.Background(), address, 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(entries) >= 2 {
			got = entries

			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].Direction != DirectionIn || got[0].Envelope != "agent_message" {
		t.Fatalf("inbound entry = %+v", got[0])
	}
	if got[1].Direction != DirectionOut || got[1].Payload != "hello" {
		t.Fatalf("outbound entry = %+v", got[1])
	}
}
