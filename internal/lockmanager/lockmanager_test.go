package lockmanager

import (
	"testing"

	"github.com/jcortez/trafficguru/internal/banker"
	"github.com/jcortez/trafficguru/internal/intersection"
	"github.com/jcortez/trafficguru/internal/quadrant"
)

func TestFIFOStrategyIgnoresBanker(t *testing.T) {
	m := New(FIFO, banker.New(), intersection.New())
	if err := m.Acquire(quadrant.North, quadrant.Bit(quadrant.SE), false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := m.Release(quadrant.North); err != nil {
		t.Fatalf("release failed: %v", err)
	}
}

// North's left-turn claim (SW+SE) and East's left-turn claim (NE+SE)
// overlap at SE; once North holds it, East's acquire must be denied
// until North releases.
func TestBankerStrategyDeniesWhenQuadrantContested(t *testing.T) {
	bank := banker.New()
	m := New(Banker, bank, intersection.New())
	northClaim := quadrant.Bit(quadrant.SW).Union(quadrant.SE)
	eastClaim := quadrant.Bit(quadrant.NE).Union(quadrant.SE)

	if err := m.Acquire(quadrant.North, northClaim, false); err != nil {
		t.Fatalf("north acquire should succeed: %v", err)
	}
	if err := m.Acquire(quadrant.East, eastClaim, false); err == nil {
		t.Fatal("east acquire should be denied while north holds SE")
	}
	if err := m.Release(quadrant.North); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := m.Acquire(quadrant.East, eastClaim, false); err != nil {
		t.Fatalf("east acquire should succeed once SE is free: %v", err)
	}
}

// Hybrid falls through to a plain grant whenever the banker itself has
// no objection. Without the emergency flag, a claim-bound or
// availability rejection is returned as-is and never reaches the
// unsafe-state fallback.
func TestHybridPropagatesNonUnsafeRejection(t *testing.T) {
	bank := banker.New()
	isect := intersection.New()
	m := New(Hybrid, bank, isect)
	northClaim := quadrant.Bit(quadrant.SW).Union(quadrant.SE)
	eastClaim := quadrant.Bit(quadrant.NE).Union(quadrant.SE)

	if err := m.Acquire(quadrant.North, northClaim, false); err != nil {
		t.Fatalf("north acquire should succeed: %v", err)
	}
	if err := m.Acquire(quadrant.East, eastClaim, false); err == nil {
		t.Fatal("non-emergency acquire should not bypass a plain availability rejection")
	}
}

// An emergency lane bypasses the banker on any rejection, not only
// UNSAFE, so a preempting lane is never left blocked behind a
// claim-bound or availability failure. This only matters when the
// intersection itself is free for the emergency lane to take — as it
// always is by the time the scheduler re-acquires for a preempting
// lane, since the emergency subsystem evicts the holder first; the
// banker's own allocation can still be contested independently of that
// eviction.
func TestHybridEmergencyBypassesAvailabilityRejection(t *testing.T) {
	bank := banker.New()
	isect := intersection.New()
	m := New(Hybrid, bank, isect)
	northClaim := quadrant.Bit(quadrant.SW).Union(quadrant.SE)
	eastClaim := quadrant.Bit(quadrant.NE).Union(quadrant.SE)

	if err := bank.Request(quadrant.North, northClaim); err != nil {
		t.Fatalf("north banker request should succeed: %v", err)
	}
	if err := m.Acquire(quadrant.East, eastClaim, true); err != nil {
		t.Fatalf("emergency acquire should bypass the contested-SE availability rejection: %v", err)
	}
	if got := isect.Snapshot().Holder; got != int(quadrant.East) {
		t.Fatalf("holder = %d, want East", got)
	}
}

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{"fifo": FIFO, "banker": Banker, "hybrid": Hybrid, "bogus": Hybrid}
	for in, want := range cases {
		if got := ParseStrategy(in); got != want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", in, got, want)
		}
	}
}
