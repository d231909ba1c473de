package caching

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRunnerExecutesSubmittedWork(t *testing.T) {
	r := NewRunner(8)
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		if !r.Submit(func() { ran.Add(1) }) {
			t.Fatalf("submit %d rejected with an empty queue", i)
		}
	}
	r.Close()
	if got := ran.Load(); got != 5 {
		t.Errorf("ran %d effects, want 5", got)
	}
}

func TestRunnerDropsWhenQueueFull(t *testing.T) {
	r := NewRunner(1)
	block := make(chan struct{})
	started := make(chan struct{})
	r.Submit(func() { close(started); <-block })
	<-started

	// worker is blocked; one slot in the queue, then drops
	if !r.Submit(func() {}) {
		t.Fatal("queue slot should have accepted the effect")
	}
	if r.Submit(func() {}) {
		t.Error("full queue must drop, not block")
	}

	close(block)
	r.Close()
}

func TestRunnerRejectsAfterClose(t *testing.T) {
	r := NewRunner(4)
	r.Close()
	if r.Submit(func() {}) {
		t.Error("closed runner must reject new effects")
	}
}

func TestRunnerCloseDrains(t *testing.T) {
	r := NewRunner(16)
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		r.Submit(func() {
			time.Sleep(time.Millisecond)
			ran.Add(1)
		})
	}
	r.Close()
	if got := ran.Load(); got != 10 {
		t.Errorf("close returned before draining: ran %d of 10", got)
	}
}
