// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package scanner

import (
	"sync"
	"time"

	"github.com/tomtom215/translocus/internal/metrics"
)

// Entry is one queued scan request.
type Entry struct {
	Path      string
	MediaType string
	Enqueued  time.Time
}

// Queue collects scan requests and drains them in one batch after a quiet
// delay. At most one drain timer is pending at a time: requests arriving
// while the timer runs join the same batch instead of scheduling another.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
	timer   *time.Timer
	delay   time.Duration
	drain   func([]Entry)
}

// NewQueue creates a queue that calls drain with the accumulated batch
// once delay has passed since the batch's first entry.
func NewQueue(delay time.Duration, drain func([]Entry)) *Queue {
	return &Queue{delay: delay, drain: drain}
}

// Enqueue adds a request to the current batch, starting the drain timer if
// none is pending.
func (q *Queue) Enqueue(path, mediaType string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = append(q.entries, Entry{
		Path:      path,
		MediaType: mediaType,
		Enqueued:  time.Now(),
	})
	metrics.ScanQueueDepth.Set(float64(len(q.entries)))

	if q.timer == nil {
		q.timer = time.AfterFunc(q.delay, q.fire)
	}
}

// Pending returns the number of entries in the current batch.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Stop cancels any pending drain timer and discards queued entries. Used
// on shutdown.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.entries = nil
	metrics.ScanQueueDepth.Set(0)
}

func (q *Queue) fire() {
	q.mu.Lock()
	batch := q.entries
	q.entries = nil
	q.timer = nil
	metrics.ScanQueueDepth.Set(0)
	q.mu.Unlock()

	if len(batch) > 0 {
		q.drain(batch)
	}
}
