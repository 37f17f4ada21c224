// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

//go:build !nats

package events

import (
	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
)

// newNATSTransport is unavailable without the nats build tag.
func newNATSTransport(_ config.EventsConfig, _ watermill.LoggerAdapter) (transport, error) {
	return transport{}, fault.New(fault.KindValidation,
		"nats transport requires a binary built with the nats tag")
}
