package utils

import (
	"sync"
	"time"
)

// SlidingWindow counts events that happened within the last window.
type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	events []time.Time
}

func NewSlidingWindow(window time.Duration) *SlidingWindow {
	return &SlidingWindow{window: window}
}

// Add records an event at now and returns the count including it.
func (w *SlidingWindow) Add(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	w.events = append(w.events, now)
	return len(w.events)
}

func (w *SlidingWindow) Count(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now)
	return len(w.events)
}

// Events are appended in time order, so expired ones form a prefix.
func (w *SlidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.window)
	idx := 0
	for idx < len(w.events) && !w.events[idx].After(cutoff) {
		idx++
	}
	w.events = w.events[idx:]
}
