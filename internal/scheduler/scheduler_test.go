package scheduler

import (
	"testing"
	"time"

	"github.com/jcortez/trafficguru/internal/lane"
	"github.com/jcortez/trafficguru/internal/quadrant"
)

func newLanes(capacity int) [quadrant.NumLanes]*lane.Lane {
	var lanes [quadrant.NumLanes]*lane.Lane
	for i := range lanes {
		lanes[i] = lane.New(quadrant.Lane(i), capacity)
	}
	return lanes
}

func TestSJFPicksShortestQueue(t *testing.T) {
	lanes := newLanes(20)
	lanes[0].Enqueue("a")
	lanes[0].Enqueue("b")
	lanes[0].Enqueue("c")
	lanes[2].Enqueue("x")

	sc := New(NewSJF(3*time.Second), 3*time.Second, 0)
	selected, switched := sc.ScheduleNextLane(lanes)
	if !switched {
		t.Fatal("expected a context switch on first schedule")
	}
	if selected != quadrant.East {
		t.Fatalf("selected = %v, want East (shortest queue)", selected)
	}
}

func TestSJFTieBreaksByArrivalTime(t *testing.T) {
	lanes := newLanes(20)
	lanes[1].Enqueue("a")
	time.Sleep(5 * time.Millisecond)
	lanes[3].Enqueue("b")

	sc := New(NewSJF(3*time.Second), 3*time.Second, 0)
	selected, _ := sc.ScheduleNextLane(lanes)
	if selected != quadrant.South {
		t.Fatalf("selected = %v, want South (earliest arrival)", selected)
	}
}

func TestNoCandidatesReturnsNone(t *testing.T) {
	lanes := newLanes(20)
	sc := New(NewSJF(3*time.Second), 3*time.Second, 0)
	selected, switched := sc.ScheduleNextLane(lanes)
	if selected != NoneLane || switched {
		t.Fatalf("expected NoneLane/no-switch, got %v, %v", selected, switched)
	}
}

func TestContextSwitchCounterIncrements(t *testing.T) {
	lanes := newLanes(20)
	lanes[0].Enqueue("a")
	sc := New(NewSJF(3*time.Second), 3*time.Second, 0)
	sc.ScheduleNextLane(lanes)
	if sc.ContextSwitches() != 1 {
		t.Fatalf("context switches = %d, want 1", sc.ContextSwitches())
	}
}

func TestExecutionHistoryRecordsRing(t *testing.T) {
	lanes := newLanes(20)
	lanes[0].Enqueue("a")
	sc := New(NewSJF(50*time.Millisecond), 50*time.Millisecond, 0)
	lanes[0].MarkRunning(0, 0)
	for !sc.StepLaneTimeSlice(lanes[0], 50*time.Millisecond, 50*time.Millisecond, nil) {
	}
	hist := sc.History()
	if len(hist) != 1 {
		t.Fatalf("history len = %d, want 1", len(hist))
	}
	if hist[0].VehiclesProcessed != 1 {
		t.Errorf("vehicles processed = %d, want 1", hist[0].VehiclesProcessed)
	}
}

// A slice that spans several StepLaneTimeSlice calls (one vehicle
// dequeued per step) still emits exactly one ExecutionRecord once the
// queue drains, with the full vehicle count attributed to it.
func TestStepLaneTimeSliceAccumulatesAcrossSteps(t *testing.T) {
	lanes := newLanes(20)
	lanes[0].Enqueue("a")
	lanes[0].Enqueue("b")
	lanes[0].Enqueue("c")
	sc := New(NewSJF(time.Second), time.Second, 0)
	lanes[0].MarkRunning(0, 0)

	steps := 0
	for !sc.StepLaneTimeSlice(lanes[0], time.Second, 5*time.Millisecond, nil) {
		steps++
		if steps > 10 {
			t.Fatal("slice never completed")
		}
	}
	hist := sc.History()
	if len(hist) != 1 {
		t.Fatalf("history len = %d, want 1", len(hist))
	}
	if hist[0].VehiclesProcessed != 3 {
		t.Errorf("vehicles processed = %d, want 3", hist[0].VehiclesProcessed)
	}
}

func TestMLFQAgingPromotesToHigh(t *testing.T) {
	lanes := newLanes(20)
	lanes[0].Enqueue("a")
	sc := New(NewMLFQ(), 2*time.Second, 0)
	sc.mlfqLevel[0] = LevelLow
	sc.mlfqLevelEntered[0] = time.Now().Add(-mlfqAgingFloor - time.Second)
	sel := sc.policy.SelectNext(sc, lanes)
	if sel != quadrant.North {
		t.Fatalf("selected = %v, want North", sel)
	}
	if sc.mlfqLevel[0] != LevelHigh {
		t.Fatalf("level after aging = %d, want %d", sc.mlfqLevel[0], LevelHigh)
	}
}

func TestPRREmergencyClassServedFirst(t *testing.T) {
	lanes := newLanes(20)
	lanes[0].Enqueue("a")
	lanes[0].Enqueue("b")
	lanes[0].Enqueue("c")
	lanes[0].Enqueue("d")
	lanes[1].Enqueue("e")
	lanes[1].SetPriority(lane.EmergencyPriority)

	sc := New(NewPRR(3*time.Second), 3*time.Second, 0)
	selected, _ := sc.ScheduleNextLane(lanes)
	if selected != quadrant.South {
		t.Fatalf("selected = %v, want South (emergency)", selected)
	}
}

func TestPRRRoundRobinsWithinClass(t *testing.T) {
	lanes := newLanes(20)
	for _, l := range lanes {
		for i := 0; i < 5; i++ {
			l.Enqueue("v")
		}
	}
	sc := New(NewPRR(1*time.Millisecond), 1*time.Millisecond, 0)
	seen := map[quadrant.Lane]bool{}
	for i := 0; i < int(quadrant.NumLanes); i++ {
		sel := sc.policy.SelectNext(sc, lanes)
		seen[sel] = true
	}
	if len(seen) != int(quadrant.NumLanes) {
		t.Fatalf("expected all %d lanes visited by round robin, saw %d", quadrant.NumLanes, len(seen))
	}
}
