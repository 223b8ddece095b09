package coro

import (
	"testing"
	"time"
)

func TestCancellationScopeExplicitCancel(t *testing.T) {
	s := NewCancellationScope(time.Hour)
	if s.Cancelled() {
		t.Fatal("expected scope to not be cancelled yet")
	}
	s.Cancel()
	if !s.Cancelled() {
		t.Fatal("expected scope to be cancelled")
	}
}

func TestCancellationScopeDeadline(t *testing.T) {
	s := NewCancellationScope(-time.Second)
	if !s.Cancelled() {
		t.Fatal("expected scope with a past deadline to be cancelled")
	}
	if remaining := s.RemainingTime(); remaining != 0 {
		t.Fatalf("expected remaining time to be clamped to zero, got %s", remaining)
	}
}

func TestCancellationScopeRemainingTime(t *testing.T) {
	s := NewCancellationScope(time.Minute)
	remaining := s.RemainingTime()
	if remaining <= 0 || remaining > time.Minute {
		t.Fatalf("unexpected remaining time: %s", remaining)
	}
}

func TestCancellationScopeMonotone(t *testing.T) {
	s := NewCancellationScope(time.Hour)
	s.Cancel()
	s.Cancel()
	if !s.Cancelled() {
		t.Fatal("expected scope to stay cancelled")
	}
}
