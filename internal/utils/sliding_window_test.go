package utils

import (
	"testing"
	"time"
)

func TestSlidingWindowAdd(t *testing.T) {
	window := NewSlidingWindow(2 * time.Second)
	now := time.Now()
	if count := window.Add(now); count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}
	window.Add(now.Add(500 * time.Millisecond))
	if count := window.Count(now.Add(1 * time.Second)); count != 2 {
		t.Fatalf("expected 2, got %d", count)
	}
	if count := window.Count(now.Add(3 * time.Second)); count != 0 {
		t.Fatalf("expected 0, got %d", count)
	}
}

func TestSlidingWindowBurst(t *testing.T) {
	window := NewSlidingWindow(5 * time.Second)
	now := time.Unix(1000, 0)
	for i := 0; i < 3; i++ {
		window.Add(now.Add(time.Duration(i) * time.Second))
	}
	if count := window.Add(now.Add(3 * time.Second)); count != 4 {
		t.Fatalf("expected 4, got %d", count)
	}
	// Events at 0s, 1s and 2s have left the window by 7s.
	if count := window.Add(now.Add(7 * time.Second)); count != 2 {
		t.Fatalf("expected 2, got %d", count)
	}
}
