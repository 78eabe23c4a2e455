// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

// Package scanner coalesces transfer-complete events into directory-level
// Plex scans. Events arrive on an in-process Watermill pub/sub, queue up
// behind a single delay timer, and drain as one batch: translate paths,
// group by directory, refresh the rclone VFS cache, trigger the scan.
package scanner

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/translocus/internal/logging"
)

// TopicTransferComplete carries TransferEvent messages from the webhook
// handler to the scan coordinator.
const TopicTransferComplete = "transfer.complete"

// TransferEvent is published when a file has finished transferring and may
// need a library scan.
type TransferEvent struct {
	Path      string `json:"path"`
	MediaType string `json:"media_type,omitempty"`
}

// Bus is the in-process event pipeline between event producers (the HTTP
// webhook) and the single scan-coordinator consumer.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates the in-process pub/sub.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			newWatermillLogger(),
		),
	}
}

// PublishTransfer publishes one transfer event.
func (b *Bus) PublishTransfer(ev TransferEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal transfer event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicTransferComplete, msg); err != nil {
		return fmt.Errorf("publish transfer event: %w", err)
	}
	return nil
}

// SubscribeTransfers returns the message stream for the coordinator.
func (b *Bus) SubscribeTransfers(ctx context.Context) (<-chan *message.Message, error) {
	ch, err := b.pubsub.Subscribe(ctx, TopicTransferComplete)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicTransferComplete, err)
	}
	return ch, nil
}

// Close shuts the pub/sub down, closing all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// watermillLogger adapts the global zerolog logger to watermill.LoggerAdapter.
type watermillLogger struct {
	logger zerolog.Logger
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{
		logger: logging.With().Str("component", "eventbus").Logger(),
	}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.logger.Error().Err(err), fields).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.logger.Info(), fields).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.logger.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.logger.Trace(), fields).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	logger := l.logger
	for k, v := range fields {
		logger = logger.With().Interface(k, v).Logger()
	}
	return &watermillLogger{logger: logger}
}

func (l *watermillLogger) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
