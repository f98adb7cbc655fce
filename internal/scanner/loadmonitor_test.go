package scanner

import (
	"context"
	"testing"
	"time"
)

func TestLoadMonitorDisabledIsIdentity(t *testing.T) {
	m := NewLoadMonitor(0)
	if got := m.EffectiveConcurrency(context.Background(), 8); got != 8 {
		t.Fatalf("expected identity scaling, got %d", got)
	}
}

func TestLoadMonitorNilIsIdentity(t *testing.T) {
	var m *LoadMonitor
	if got := m.EffectiveConcurrency(context.Background(), 8); got != 8 {
		t.Fatalf("expected identity scaling on nil monitor, got %d", got)
	}
}

func TestLoadMonitorSamplesWithoutError(t *testing.T) {
	m := NewLoadMonitor(200 * time.Millisecond)
	got := m.EffectiveConcurrency(context.Background(), 4)
	if got < 1 || got > 4 {
		t.Fatalf("effective concurrency %d out of bounds [1,4]", got)
	}
}
