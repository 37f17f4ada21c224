// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

//go:build nats

package events

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
)

// Embedded server limits. Investigation lifecycle traffic is tiny; the
// stream exists for durability, not throughput.
const (
	embeddedMaxMemory  = 64 * 1024 * 1024
	embeddedMaxStore   = 1 * 1024 * 1024 * 1024
	embeddedMaxPayload = 1 * 1024 * 1024

	serverReadyTimeout = 30 * time.Second
)

// newNATSTransport connects the bus to NATS JetStream, starting an
// embedded server first when configured.
func newNATSTransport(cfg config.EventsConfig, wmLog watermill.LoggerAdapter) (transport, error) {
	url := cfg.NATSURL

	var embedded *server.Server
	if cfg.EmbeddedServer {
		ns, err := startEmbeddedServer(cfg.StoreDir)
		if err != nil {
			return transport{}, err
		}
		embedded = ns
		url = ns.ClientURL()
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				wmLog.Error("nats disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			wmLog.Info("nats reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	marshaler := &wmNats.NATSMarshaler{}
	js := wmNats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: true,
		TrackMsgId:    true,
		PublishOptions: []natsgo.PubOpt{
			natsgo.RetryAttempts(3),
			natsgo.RetryWait(100 * time.Millisecond),
		},
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   marshaler,
		JetStream:   js,
	}, wmLog)
	if err != nil {
		shutdownEmbedded(embedded)
		return transport{}, fault.Wrap(fault.KindUpstreamUnavailable, "create nats publisher", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Unmarshaler: marshaler,
		JetStream:   js,
	}, wmLog)
	if err != nil {
		_ = pub.Close()
		shutdownEmbedded(embedded)
		return transport{}, fault.Wrap(fault.KindUpstreamUnavailable, "create nats subscriber", err)
	}

	return transport{
		pub: pub,
		sub: sub,
		close: func(ctx context.Context) error {
			perr := pub.Close()
			serr := sub.Close()
			shutdownEmbedded(embedded)
			if perr != nil {
				return perr
			}
			return serr
		},
	}, nil
}

// startEmbeddedServer boots a single-node JetStream server.
func startEmbeddedServer(storeDir string) (*server.Server, error) {
	opts := &server.Options{
		ServerName:         "vestigium-events",
		Host:               "127.0.0.1",
		Port:               -1, // random free port
		JetStream:          true,
		StoreDir:           storeDir,
		JetStreamMaxMemory: embeddedMaxMemory,
		JetStreamMaxStore:  embeddedMaxStore,
		MaxPayload:         embeddedMaxPayload,
		NoLog:              true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "create embedded nats server", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(serverReadyTimeout) {
		ns.Shutdown()
		return nil, fault.New(fault.KindNotReady, "embedded nats server not ready within timeout")
	}

	logger := logging.WithComponent("events")
	logger.Info().
		Str("url", ns.ClientURL()).
		Str("store_dir", storeDir).
		Msg("embedded nats server started")
	return ns, nil
}

func shutdownEmbedded(ns *server.Server) {
	if ns == nil {
		return
	}
	ns.Shutdown()
	ns.WaitForShutdown()
}
