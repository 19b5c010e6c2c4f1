package lane

import (
	"testing"

	"github.com/jcortez/trafficguru/internal/quadrant"
	"github.com/jcortez/trafficguru/internal/simerr"
)

func TestWaitingToReadyOnEnqueue(t *testing.T) {
	l := New(quadrant.North, 20)
	if l.State() != Waiting {
		t.Fatalf("initial state = %v, want WAITING", l.State())
	}
	if err := l.Enqueue("v1"); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if l.State() != Ready {
		t.Fatalf("state after enqueue = %v, want READY", l.State())
	}
}

func TestFullQueueRejectsAndCountsOverflow(t *testing.T) {
	l := New(quadrant.North, 1)
	l.Enqueue("v1")
	err := l.Enqueue("v2")
	if !simerr.IsQueueFullError(err) {
		t.Fatalf("expected QueueFullError, got %v", err)
	}
	if l.Snapshot().OverflowCount != 1 {
		t.Errorf("overflow count = %d, want 1", l.Snapshot().OverflowCount)
	}
}

func TestRunningLifecycle(t *testing.T) {
	l := New(quadrant.North, 20)
	l.Enqueue("v1")
	l.MarkRunning(quadrant.Bit(quadrant.SE), quadrant.Bit(quadrant.SE))
	if l.State() != Running {
		t.Fatalf("state = %v, want RUNNING", l.State())
	}
	if _, _, ok := l.DequeueOne(); !ok {
		t.Fatal("expected a vehicle to dequeue")
	}
	l.EndTimeSlice()
	if l.State() != Waiting {
		t.Fatalf("state after end of slice with empty queue = %v, want WAITING", l.State())
	}
}

func TestEndTimeSliceStaysReadyIfQueueNonEmpty(t *testing.T) {
	l := New(quadrant.North, 20)
	l.Enqueue("v1")
	l.Enqueue("v2")
	l.MarkRunning(quadrant.Bit(quadrant.SE), quadrant.Bit(quadrant.SE))
	l.DequeueOne()
	l.EndTimeSlice()
	if l.State() != Ready {
		t.Fatalf("state = %v, want READY", l.State())
	}
}

func TestBlockedThenUnblock(t *testing.T) {
	l := New(quadrant.North, 20)
	l.Enqueue("v1")
	l.MarkBlocked(quadrant.Bit(quadrant.SE))
	if l.State() != Blocked {
		t.Fatalf("state = %v, want BLOCKED", l.State())
	}
	l.Unblock()
	if l.State() != Ready {
		t.Fatalf("state after unblock = %v, want READY", l.State())
	}
}

func TestDequeueEmptyReturnsFalse(t *testing.T) {
	l := New(quadrant.North, 20)
	if _, _, ok := l.DequeueOne(); ok {
		t.Fatal("expected dequeue on empty lane queue to fail")
	}
}

func TestPriorityOverride(t *testing.T) {
	l := New(quadrant.East, 20)
	if l.Priority() != DefaultPriority {
		t.Fatalf("initial priority = %d, want %d", l.Priority(), DefaultPriority)
	}
	l.SetPriority(EmergencyPriority)
	if l.Priority() != EmergencyPriority {
		t.Fatalf("priority = %d, want %d", l.Priority(), EmergencyPriority)
	}
}
