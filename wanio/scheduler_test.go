package wanio

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsAfterDelay(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	done := make(chan struct{})
	s.ScheduleAfter(10*time.Millisecond, func() {
		atomic.StoreInt32(&fired, 1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not fire in time")
	}
	if atomic.LoadInt32(&fired) != 1 {
		t.Fatalf("expected task to have run")
	}
}

func TestSchedulerClearIsIdempotent(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	id, ok := s.ScheduleAfter(time.Hour, func() {})
	if !ok {
		t.Fatalf("expected to schedule a task")
	}
	if !s.Clear(id) {
		t.Fatalf("expected first Clear to succeed")
	}
	if s.Clear(id) {
		t.Fatalf("expected second Clear to report no-op")
	}
}

func TestSchedulerOrdersByTime(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var order []int
	done := make(chan struct{})
	s.ScheduleAfter(30*time.Millisecond, func() {
		order = append(order, 2)
		close(done)
	})
	s.ScheduleAfter(10*time.Millisecond, func() {
		order = append(order, 1)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not fire in time")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected order [1 2], got %v", order)
	}
}
