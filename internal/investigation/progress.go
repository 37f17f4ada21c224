// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package investigation

import (
	"sync"
	"time"

	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
)

// DefaultProgressBuffer is the per-subscriber queue capacity.
const DefaultProgressBuffer = 64

// subscription is one progress stream consumer. Events queue in a bounded
// buffer; when it overflows the oldest non-critical event is discarded and
// counted, so a slow consumer sees gaps in status updates but never loses
// a stage transition or the completion event.
type subscription struct {
	invID string

	mu      sync.Mutex
	queue   []models.ProgressEvent
	cap     int
	dropped int
	closed  bool

	notify chan struct{}
	done   chan struct{}
	out    chan models.ProgressEvent
}

func newSubscription(invID string, bufferSize int) *subscription {
	if bufferSize <= 0 {
		bufferSize = DefaultProgressBuffer
	}
	s := &subscription{
		invID:  invID,
		cap:    bufferSize,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan models.ProgressEvent),
	}
	go s.pump()
	return s
}

// Events is the delivery channel. It closes after the subscription is
// cancelled and the remaining queue has drained.
func (s *subscription) Events() <-chan models.ProgressEvent {
	return s.out
}

// push enqueues an event, evicting the oldest non-critical queued event
// on overflow. A non-critical event arriving at a queue full of critical
// events is itself dropped; critical events always find room because the
// state machine bounds how many of them one investigation can emit.
func (s *subscription) push(evt models.ProgressEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if len(s.queue) >= s.cap {
		if idx := firstNonCritical(s.queue); idx >= 0 {
			s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
			s.dropped++
			metrics.ProgressEventsDropped.Inc()
		} else if !evt.Type.Critical() {
			s.dropped++
			s.mu.Unlock()
			metrics.ProgressEventsDropped.Inc()
			return
		}
	}
	s.queue = append(s.queue, evt)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// pump delivers queued events in order, stamping each with the number of
// events dropped since the previous delivery.
func (s *subscription) pump() {
	defer close(s.out)

	for {
		select {
		case <-s.notify:
		case <-s.done:
			// Drain what is already queued, then stop.
			for {
				evt, ok := s.pop()
				if !ok {
					return
				}
				select {
				case s.out <- evt:
				default:
					return
				}
			}
		}

		for {
			evt, ok := s.pop()
			if !ok {
				break
			}
			select {
			case s.out <- evt:
			case <-s.done:
				return
			}
		}
	}
}

func (s *subscription) pop() (models.ProgressEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return models.ProgressEvent{}, false
	}
	evt := s.queue[0]
	s.queue = s.queue[1:]
	evt.Dropped = s.dropped
	s.dropped = 0
	return evt, true
}

func (s *subscription) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
}

func firstNonCritical(queue []models.ProgressEvent) int {
	for i, evt := range queue {
		if !evt.Type.Critical() {
			return i
		}
	}
	return -1
}

// Subscribe attaches a progress stream to an investigation. The first
// delivered event is a status snapshot, so late joiners see the current
// state immediately. cancel releases the subscription; the channel closes
// shortly after.
func (m *Manager) Subscribe(invID string) (<-chan models.ProgressEvent, func(), error) {
	inv, err := m.Get(m.baseCtx, invID)
	if err != nil {
		return nil, nil, err
	}

	sub := newSubscription(invID, m.cfg.ProgressBufferSize)
	sub.push(models.ProgressEvent{
		Type:            models.EventStatusUpdate,
		InvestigationID: invID,
		Timestamp:       time.Now().UTC(),
		Data:            inv.Progress,
	})

	m.mu.Lock()
	if m.subs[invID] == nil {
		m.subs[invID] = make(map[*subscription]struct{})
	}
	m.subs[invID][sub] = struct{}{}
	m.mu.Unlock()
	metrics.ProgressClients.Inc()

	cancel := func() {
		m.mu.Lock()
		if set, ok := m.subs[invID]; ok {
			if _, present := set[sub]; present {
				delete(set, sub)
				metrics.ProgressClients.Dec()
			}
			if len(set) == 0 {
				delete(m.subs, invID)
			}
		}
		m.mu.Unlock()
		sub.close()
	}
	return sub.Events(), cancel, nil
}

// publish fans an event out to every subscriber of its investigation.
func (m *Manager) publish(evt models.ProgressEvent) {
	m.mu.Lock()
	subs := make([]*subscription, 0, len(m.subs[evt.InvestigationID]))
	for sub := range m.subs[evt.InvestigationID] {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.push(evt)
	}
}
