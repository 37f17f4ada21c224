// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package investigation

import (
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/vestigium/internal/models"
)

func progressEvent(t models.ProgressEventType, seq int) models.ProgressEvent {
	return models.ProgressEvent{
		Type:            t,
		InvestigationID: "inv-1",
		Timestamp:       time.Now().UTC(),
		Data:            fmt.Sprintf("seq-%d", seq),
	}
}

// A slow consumer must lose only non-critical events, and the Dropped
// counter must account for every loss.
func TestSubscriptionBackpressureKeepsCriticalEvents(t *testing.T) {
	sub := newSubscription("inv-1", 4)
	defer sub.close()

	// Nobody is reading yet; beyond the one event the pump holds in
	// flight, the flood must overflow the queue.
	pushed := 0
	sub.push(progressEvent(models.EventStageTransition, pushed))
	pushed++
	for i := 0; i < 20; i++ {
		sub.push(progressEvent(models.EventStatusUpdate, pushed))
		pushed++
	}
	sub.push(progressEvent(models.EventStageTransition, pushed))
	pushed++
	sub.push(progressEvent(models.EventCompletion, pushed))
	pushed++

	var delivered []models.ProgressEvent
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range sub.Events() {
			delivered = append(delivered, evt)
			if evt.Type == models.EventCompletion {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer never saw the completion event")
	}

	var criticals, droppedSum int
	for _, evt := range delivered {
		if evt.Type.Critical() {
			criticals++
		}
		droppedSum += evt.Dropped
	}
	if criticals != 3 {
		t.Errorf("critical events delivered = %d, want all 3", criticals)
	}
	if len(delivered)+droppedSum != pushed {
		t.Errorf("delivered %d + dropped %d != pushed %d", len(delivered), droppedSum, pushed)
	}
	if droppedSum == 0 {
		t.Error("expected the flood to overflow the queue")
	}
	if delivered[len(delivered)-1].Type != models.EventCompletion {
		t.Error("completion must be the final delivered event")
	}
}

func TestSubscriptionPreservesOrder(t *testing.T) {
	sub := newSubscription("inv-1", 64)
	defer sub.close()

	const n = 10
	go func() {
		for i := 0; i < n; i++ {
			sub.push(progressEvent(models.EventStatusUpdate, i))
		}
	}()

	for i := 0; i < n; i++ {
		select {
		case evt := <-sub.Events():
			if want := fmt.Sprintf("seq-%d", i); evt.Data != want {
				t.Fatalf("event %d carries %v, want %s", i, evt.Data, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
}

func TestSubscriptionCloseEndsStream(t *testing.T) {
	sub := newSubscription("inv-1", 8)
	sub.close()

	select {
	case _, ok := <-sub.Events():
		if ok {
			return // a queued event drained first; channel closes after
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel never closed")
	}

	// Pushing after close must be a no-op.
	sub.push(progressEvent(models.EventStatusUpdate, 0))
}
