package emergency

import (
	"testing"
	"time"

	"github.com/jcortez/trafficguru/internal/intersection"
	"github.com/jcortez/trafficguru/internal/lane"
	"github.com/jcortez/trafficguru/internal/quadrant"
)

func newLaneSet() [quadrant.NumLanes]*lane.Lane {
	var lanes [quadrant.NumLanes]*lane.Lane
	for i := range lanes {
		lanes[i] = lane.New(quadrant.Lane(i), 20)
	}
	return lanes
}

func TestInjectEvictsAndElevatesPriority(t *testing.T) {
	isect := intersection.New()
	lanes := newLaneSet()
	north := lanes[quadrant.North]
	east := lanes[quadrant.East]
	north.MarkRunning(quadrant.Bit(quadrant.SE), quadrant.Bit(quadrant.SE))
	isect.Acquire(quadrant.North, quadrant.Bit(quadrant.SE))

	sub := New(isect, lanes)
	ok := sub.Inject(Ambulance, east, 6*time.Second, 4*time.Second, "v1")
	if !ok {
		t.Fatal("expected injection to be accepted")
	}
	if east.Priority() != lane.EmergencyPriority {
		t.Fatalf("east priority = %d, want %d", east.Priority(), lane.EmergencyPriority)
	}
	s := isect.Snapshot()
	if s.Holder != -1 {
		t.Fatalf("holder after eviction = %d, want -1", s.Holder)
	}
	if north.State() == lane.Running {
		t.Fatal("evicted lane should no longer report RUNNING")
	}
}

func TestSecondEmergencyDropped(t *testing.T) {
	isect := intersection.New()
	lanes := newLaneSet()
	a := lanes[quadrant.North]
	b := lanes[quadrant.South]
	sub := New(isect, lanes)

	if !sub.Inject(Ambulance, a, 6*time.Second, 4*time.Second, "v1") {
		t.Fatal("first injection should be accepted")
	}
	if sub.Inject(Fire, b, 6*time.Second, 4*time.Second, "v2") {
		t.Fatal("second simultaneous injection should be dropped")
	}
	if sub.DroppedCount() != 1 {
		t.Fatalf("dropped count = %d, want 1", sub.DroppedCount())
	}
}

func TestClearRestoresPriorityAndRecordsResponseTime(t *testing.T) {
	isect := intersection.New()
	lanes := newLaneSet()
	l := lanes[quadrant.West]
	sub := New(isect, lanes)
	sub.Inject(Police, l, 9*time.Second, 5*time.Second, "v1")

	if !sub.Clear(l) {
		t.Fatal("expected clear to succeed")
	}
	if l.Priority() != lane.DefaultPriority {
		t.Fatalf("priority after clear = %d, want %d", l.Priority(), lane.DefaultPriority)
	}
	if sub.HandledCount() != 1 {
		t.Fatalf("handled count = %d, want 1", sub.HandledCount())
	}
	if sub.AverageResponseTime() != 9*time.Second {
		t.Fatalf("average response time = %v, want 9s", sub.AverageResponseTime())
	}
}

func TestClearWithoutActiveEmergencyFails(t *testing.T) {
	isect := intersection.New()
	lanes := newLaneSet()
	l := lanes[quadrant.East]
	sub := New(isect, lanes)
	if sub.Clear(l) {
		t.Fatal("expected clear with no active emergency to fail")
	}
}

func TestRandomDurationsWithinRange(t *testing.T) {
	sub := New(intersection.New(), newLaneSet())
	for i := 0; i < 50; i++ {
		a := sub.RandomApproachTime()
		if a < DefaultApproachMin || a >= DefaultApproachMax {
			t.Fatalf("approach time %v out of range [%v,%v)", a, DefaultApproachMin, DefaultApproachMax)
		}
		c := sub.RandomCrossingDuration()
		if c < DefaultCrossingMin || c >= DefaultCrossingMax {
			t.Fatalf("crossing duration %v out of range [%v,%v)", c, DefaultCrossingMin, DefaultCrossingMax)
		}
	}
}
