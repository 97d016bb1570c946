package service

import (
	"testing"
	"time"
)

func TestEventQueueSinceAndCapacity(t *testing.T) {
	queue := NewEventQueue(3)

	for i := 0; i < 5; i++ {
		queue.Publish(EventIntakeAdded, "added", nil)
	}

	if queue.LastSeq() != 5 {
		t.Fatalf("expected last seq 5, got %d", queue.LastSeq())
	}

	all := queue.Since(0)
	if len(all) != 3 {
		t.Fatalf("expected bounded queue to keep 3 events, got %d", len(all))
	}
	if all[0].Seq != 3 || all[2].Seq != 5 {
		t.Fatalf("expected oldest events to be dropped, got seqs %d..%d", all[0].Seq, all[2].Seq)
	}

	recent := queue.Since(4)
	if len(recent) != 1 || recent[0].Seq != 5 {
		t.Fatalf("expected only seq 5 after 4, got %#v", recent)
	}
}

func TestEventQueueSubscribe(t *testing.T) {
	queue := NewEventQueue(0)
	ch, cancel := queue.Subscribe()

	published := queue.Publish(EventWidgetRefreshed, "widget refreshed", map[string]any{"daily_goal": 2500.0})

	select {
	case event := <-ch:
		if event.Seq != published.Seq || event.Kind != EventWidgetRefreshed {
			t.Fatalf("unexpected event: %#v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("expected subscriber to receive the event")
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after cancel")
	}
}

func TestEventQueueSlowSubscriberDoesNotBlock(t *testing.T) {
	queue := NewEventQueue(0)
	_, cancel := queue.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize*4; i++ {
			queue.Publish(EventIntakeAdded, "added", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked on a slow subscriber")
	}
}
