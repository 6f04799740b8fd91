package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rechan/internal/app"
	"rechan/internal/bus"
	"rechan/internal/channel"
	"rechan/internal/config"
	"rechan/internal/events"
	"rechan/internal/history"
	"rechan/internal/logging"
)

const maxPayloadPreviewLen = 96

var errTerminal = errors.New("channel ended in terminal state")

func main() {
	if err := run(); err != nil {
		slog.Error("run rechan", "error", err)
		os.Exit(1)
	}
}

func run() error {
	address := flag.String("address", "", "channel endpoint (ws://, wss://, or tcp://)")
	maxRetries := flag.Int("max-retries", -1, "reconnection budget override (-1 keeps config value)")
	initialDelay := flag.Duration("initial-delay", 0, "base retry delay override, e.g. 500ms (0 keeps config value)")
	keepAlive := flag.Duration("keep-alive", 0, "ping interval override, e.g. 30s (0 keeps config value)")
	sendOnce := flag.String("send", "", "payload to send once the channel first opens")
	listenFor := flag.Duration("listen-for", 0, "listen duration, e.g. 30s (0 = until interrupt)")
	noHistory := flag.Bool("no-history", false, "disable the sqlite traffic log")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := app.ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(*address) != "" {
		cfg.Channel.Address = strings.TrimSpace(*address)
	}
	if *maxRetries >= 0 {
		cfg.Channel.MaxRetries = *maxRetries
	}
	if *initialDelay > 0 {
		cfg.Channel.InitialDelayMs = int(initialDelay.Milliseconds())
	}
	if *keepAlive > 0 {
		cfg.Channel.KeepAliveSecs = int(keepAlive.Seconds())
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() {
		if closeErr := logMgr.Close(); closeErr != nil {
			slog.Warn("close log manager", "error", closeErr)
		}
	}()
	logger := logMgr.Logger("cli")
	logger.Info("starting rechan", "version", app.BuildVersionWithDate(), "address", cfg.Channel.Address)

	b := bus.New(logMgr.Logger("bus"))
	defer b.Close()

	if cfg.History.Enabled && !*noHistory {
		db, err := history.Open(ctx, paths.DBFile)
		if err != nil {
			return fmt.Errorf("open history db: %w", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Warn("close history db", "error", closeErr)
			}
		}()

		repo := history.NewEntryRepo(db)
		writer := history.NewWriterQueue(logMgr.Logger("history"), 256)
		writer.Start(ctx)
		history.StartSync(ctx, b, writer, repo)
	}

	clientCfg := channel.Config{
		MaxRetries:        cfg.Channel.MaxRetries,
		InitialDelay:      time.Duration(cfg.Channel.InitialDelayMs) * time.Millisecond,
		KeepAliveInterval: time.Duration(cfg.Channel.KeepAliveSecs) * time.Second,
	}

	endpoint := cfg.Channel.Address
	callbacks := channel.Events{
		State: func(change channel.StateChange) {
			status := events.ChannelStatus{
				State:     change.To,
				Attempt:   change.Attempt,
				RetryIn:   change.RetryIn,
				Address:   endpoint,
				Timestamp: time.Now(),
			}
			if change.Err != nil {
				status.Err = change.Err.Error()
			}
			b.Publish(events.TopicChannelState, status)
		},
		Message: func(msg channel.InboundMessage) {
			b.Publish(events.TopicChannelMessage, events.ChannelMessage{
				Address:   endpoint,
				Raw:       msg.Raw,
				Value:     msg.Value,
				Decoded:   msg.Decoded,
				Envelope:  msg.EnvelopeType(),
				Timestamp: time.Now(),
			})
		},
	}

	ch, err := channel.Open(endpoint, clientCfg, callbacks, logMgr.Logger("channel"))
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	logger.Info("channel opened", "session", ch.ID())

	return watch(ctx, b, logger, ch, *sendOnce, *listenFor)
}

func watch(ctx context.Context, b bus.MessageBus, logger *slog.Logger, ch *channel.Client, sendOnce string, listenFor time.Duration) error {
	stateSub := b.Subscribe(events.TopicChannelState)
	msgSub := b.Subscribe(events.TopicChannelMessage)
	sendSub := b.Subscribe(events.TopicChannelSend)
	defer b.Unsubscribe(stateSub, events.TopicChannelState)
	defer b.Unsubscribe(msgSub, events.TopicChannelMessage)
	defer b.Unsubscribe(sendSub, events.TopicChannelSend)

	var listenCh <-chan time.Time
	if listenFor > 0 {
		logger.Info("listen mode", "duration", listenFor)
		listenCh = time.After(listenFor)
	}

	sent := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-listenCh:
			logger.Info("listen window elapsed")

			return nil
		case raw, ok := <-stateSub:
			if !ok {
				return nil
			}
			status, ok := raw.(events.ChannelStatus)
			if !ok {
				continue
			}
			logger.Info("state", "state", status.State, "attempt", status.Attempt, "retry_in", status.RetryIn, "error", status.Err)
			if status.State == channel.StateOpen && sendOnce != "" && !sent {
				sent = true
				result := events.SendResult{Address: ch.Address(), Payload: sendOnce, Timestamp: time.Now()}
				if err := ch.Send(sendOnce); err != nil {
					result.Err = err.Error()
					logger.Warn("send failed", "error", err)
				}
				b.Publish(events.TopicChannelSend, result)
			}
			if status.State == channel.StateTerminal {
				return errTerminal
			}
		case raw, ok := <-msgSub:
			if !ok {
				return nil
			}
			msg, ok := raw.(events.ChannelMessage)
			if !ok {
				continue
			}
			logger.Info("message", "envelope", msg.Envelope, "decoded", msg.Decoded, "payload", preview(msg.Raw))
		case raw, ok := <-sendSub:
			if !ok {
				return nil
			}
			result, ok := raw.(events.SendResult)
			if !ok {
				continue
			}
			logger.Info("send", "payload", preview(result.Payload), "error", result.Err)
		}
	}
}

func preview(payload string) string {
	payload = strings.TrimSpace(payload)
	if len(payload) <= maxPayloadPreviewLen {
		return payload
	}

	return payload[:maxPayloadPreviewLen] + "..."
}
