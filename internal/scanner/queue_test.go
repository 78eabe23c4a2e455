// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package scanner

import (
	"sync"
	"testing"
	"time"
)

// drainRecorder captures drained batches for assertions.
type drainRecorder struct {
	mu      sync.Mutex
	batches [][]Entry
	fired   chan struct{}
}

func newDrainRecorder() *drainRecorder {
	return &drainRecorder{fired: make(chan struct{}, 16)}
}

func (r *drainRecorder) drain(batch []Entry) {
	r.mu.Lock()
	r.batches = append(r.batches, batch)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *drainRecorder) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *drainRecorder) waitFired(t *testing.T) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for queue drain")
	}
}

func TestQueueCoalescesIntoOneBatch(t *testing.T) {
	rec := newDrainRecorder()
	q := NewQueue(50*time.Millisecond, rec.drain)

	q.Enqueue("/a/file1.mkv", "movie")
	q.Enqueue("/a/file2.mkv", "movie")
	q.Enqueue("/b/file3.mkv", "tv")

	if got := q.Pending(); got != 3 {
		t.Fatalf("Pending() = %d, want 3", got)
	}

	rec.waitFired(t)

	if got := rec.batchCount(); got != 1 {
		t.Fatalf("drain fired %d times, want 1", got)
	}
	rec.mu.Lock()
	batch := rec.batches[0]
	rec.mu.Unlock()
	if len(batch) != 3 {
		t.Fatalf("batch has %d entries, want 3", len(batch))
	}
	if batch[0].Path != "/a/file1.mkv" || batch[2].MediaType != "tv" {
		t.Errorf("unexpected batch contents: %+v", batch)
	}
	if got := q.Pending(); got != 0 {
		t.Errorf("Pending() after drain = %d, want 0", got)
	}
}

func TestQueueSchedulesNewTimerAfterDrain(t *testing.T) {
	rec := newDrainRecorder()
	q := NewQueue(20*time.Millisecond, rec.drain)

	q.Enqueue("/a/one.mkv", "movie")
	rec.waitFired(t)

	q.Enqueue("/b/two.mkv", "tv")
	rec.waitFired(t)

	if got := rec.batchCount(); got != 2 {
		t.Fatalf("drain fired %d times, want 2", got)
	}
}

func TestQueueStopCancelsPendingDrain(t *testing.T) {
	rec := newDrainRecorder()
	q := NewQueue(30*time.Millisecond, rec.drain)

	q.Enqueue("/a/one.mkv", "movie")
	q.Stop()

	time.Sleep(80 * time.Millisecond)
	if got := rec.batchCount(); got != 0 {
		t.Fatalf("drain fired %d times after Stop, want 0", got)
	}
	if got := q.Pending(); got != 0 {
		t.Errorf("Pending() after Stop = %d, want 0", got)
	}
}
