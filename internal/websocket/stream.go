// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package websocket streams investigation progress to browser clients.
//
// Each connection is one subscription to one investigation. The manager
// owns the bounded event queues; this package only moves events from a
// subscription channel onto the wire, with the usual ping/pong keepalive
// discipline. The stream ends when the client disconnects, the
// subscription closes, or the completion event has been delivered.
package websocket

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// clientIDCounter orders connections for logging; map iteration order
// never leaks into delivery order.
var clientIDCounter atomic.Uint64

// Subscriber attaches progress streams. Implemented by the investigation
// manager.
type Subscriber interface {
	Subscribe(investigationID string) (<-chan models.ProgressEvent, func(), error)
}

// Streamer upgrades HTTP requests and serves progress streams.
type Streamer struct {
	sub      Subscriber
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewStreamer builds a Streamer. checkOrigin decides which Origin headers
// may connect; a nil func falls back to same-origin.
func NewStreamer(sub Subscriber, checkOrigin func(r *http.Request) bool) *Streamer {
	return &Streamer{
		sub: sub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		log: logging.WithComponent("websocket"),
	}
}

// Serve upgrades the request and streams the investigation's progress
// until a terminal event or disconnect. The subscription's first event is
// a status snapshot, so late joiners render current state immediately.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, investigationID string) error {
	events, cancel, err := s.sub.Subscribe(investigationID)
	if err != nil {
		return err
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	id := clientIDCounter.Add(1)
	log := s.log.With().
		Uint64("client_id", id).
		Str("investigation_id", investigationID).
		Logger()
	log.Debug().Msg("progress stream opened")

	done := make(chan struct{})
	go s.readPump(conn, done)
	s.writePump(conn, events, done, log)

	cancel()
	_ = conn.Close()
	log.Debug().Msg("progress stream closed")
	return nil
}

// readPump discards client frames and keeps the pong deadline fresh. It
// signals done when the peer goes away.
func (s *Streamer) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Debug().Err(err).Msg("unexpected websocket close")
			}
			return
		}
	}
}

// writePump moves events onto the wire and pings on idle. It returns on
// disconnect, subscription close, or after the completion event.
func (s *Streamer) writePump(conn *websocket.Conn, events <-chan models.ProgressEvent, done <-chan struct{}, log zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-events:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"))
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				log.Debug().Err(err).Msg("progress write failed")
				return
			}
			if evt.Type == models.EventCompletion {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "investigation finished"))
				return
			}

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
