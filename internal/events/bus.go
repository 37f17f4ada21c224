// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package events is the internal event bus.
//
// The bus carries investigation lifecycle events from the coordinator to
// decoupled consumers (audit trail, future integrations) over Watermill.
// The default transport is the in-process gochannel pub/sub; builds with
// the nats tag can switch to NATS JetStream, optionally running an
// embedded server, for deployments that need durable delivery.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
)

// Bus defaults, applied when the config leaves them zero.
const (
	DefaultRetryCount    = 3
	DefaultRetryInterval = 500 * time.Millisecond
	DefaultPoisonTopic   = "dlq.events"
	DefaultCloseTimeout  = 15 * time.Second
)

// Handler consumes one event payload. Returning an error triggers the
// retry middleware; exhausted retries route the message to the poison
// topic.
type Handler func(ctx context.Context, payload []byte) error

// transport pairs a publisher and subscriber with their teardown.
type transport struct {
	pub   message.Publisher
	sub   message.Subscriber
	close func(context.Context) error
}

// Bus routes published events to registered handlers.
type Bus struct {
	cfg    config.EventsConfig
	tr     transport
	router *message.Router
	wmLog  watermill.LoggerAdapter

	mu      sync.Mutex
	running bool
	closed  bool
}

// New builds the bus on the configured transport. Handlers must be added
// before Run.
func New(cfg config.EventsConfig) (*Bus, error) {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = DefaultRetryCount
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.PoisonTopic == "" {
		cfg.PoisonTopic = DefaultPoisonTopic
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = DefaultCloseTimeout
	}

	wmLog := newWatermillLogger(logging.WithComponent("events"))

	var tr transport
	var err error
	switch cfg.Transport {
	case "", "channel":
		tr = newChannelTransport(wmLog)
	case "nats":
		tr, err = newNATSTransport(cfg, wmLog)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fault.Newf(fault.KindValidation, "unknown events transport %q", cfg.Transport)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLog)
	if err != nil {
		_ = tr.close(context.Background())
		return nil, fault.Wrap(fault.KindInternal, "create event router", err)
	}

	router.AddPlugin(plugin.SignalsHandler)
	router.AddMiddleware(middleware.CorrelationID)
	router.AddMiddleware(middleware.Recoverer)

	poison, err := middleware.PoisonQueue(tr.pub, cfg.PoisonTopic)
	if err != nil {
		_ = tr.close(context.Background())
		return nil, fault.Wrap(fault.KindInternal, "create poison queue", err)
	}
	router.AddMiddleware(poison)

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      cfg.RetryCount,
		InitialInterval: cfg.RetryInterval,
		MaxInterval:     cfg.RetryInterval * 8,
		Multiplier:      2,
		Logger:          wmLog,
	}.Middleware)

	return &Bus{cfg: cfg, tr: tr, router: router, wmLog: wmLog}, nil
}

// newChannelTransport builds the in-process pub/sub shared by publisher
// and subscriber sides.
func newChannelTransport(wmLog watermill.LoggerAdapter) transport {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, wmLog)
	return transport{
		pub: ch,
		sub: ch,
		close: func(context.Context) error {
			return ch.Close()
		},
	}
}

// Publish serializes the event and hands it to the transport. Satisfies
// the coordinator's Publisher interface.
func (b *Bus) Publish(_ context.Context, topic string, event interface{}) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return fault.New(fault.KindNotReady, "event bus is closed")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fault.Wrap(fault.KindInternal, "encode event", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.tr.pub.Publish(topic, msg); err != nil {
		return fault.Wrap(fault.KindUpstreamUnavailable, "publish event", err)
	}
	return nil
}

// AddHandler registers a consumer for one topic. Must be called before Run.
func (b *Bus) AddHandler(name, topic string, h Handler) {
	b.router.AddNoPublisherHandler(name, topic, b.tr.sub, func(msg *message.Message) error {
		return h(msg.Context(), msg.Payload)
	})
}

// Run blocks, delivering events to handlers until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) error {
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()

	if err := b.router.Run(ctx); err != nil {
		return fault.Wrap(fault.KindInternal, "event router stopped", err)
	}
	return nil
}

// Running reports whether the router has started and is accepting
// deliveries.
func (b *Bus) Running() bool {
	select {
	case <-b.router.Running():
		return true
	default:
		return false
	}
}

// Close stops the router and tears the transport down.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if err := b.router.Close(); err != nil {
		return fault.Wrap(fault.KindInternal, "close event router", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.CloseTimeout)
	defer cancel()
	if err := b.tr.close(ctx); err != nil {
		return fault.Wrap(fault.KindInternal, "close event transport", err)
	}
	return nil
}
