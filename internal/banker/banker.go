// Package banker implements the Dijkstra-Habermann safety engine that
// arbitrates claims on the four intersection quadrants among the four
// lanes. Its single most important rule, carried over from the bug the
// original source documented and only partially fixed, is that the
// safety test must never re-enter the banker's own lock: there is
// exactly one unlocked internal routine and exactly one locked public
// wrapper, and no code path here calls the locked wrapper while already
// holding mu.
package banker

import (
	"sync"

	"github.com/jcortez/trafficguru/internal/locktrace"
	"github.com/jcortez/trafficguru/internal/quadrant"
	"github.com/jcortez/trafficguru/internal/simerr"
)

const numLanes = int(quadrant.NumLanes)
const numQuadrants = int(quadrant.Count)

// Snapshot is a value copy of the banker's matrices, safe to read after
// the lock has been released.
type Snapshot struct {
	Available           [numQuadrants]int
	Max                 [numLanes][numQuadrants]int
	Alloc               [numLanes][numQuadrants]int
	Need                [numLanes][numQuadrants]int
	DeadlockPreventions uint64
}

// Banker owns the available/max/alloc/need matrices and the single lock
// guarding them.
type Banker struct {
	mu     sync.Mutex
	tracer *locktrace.Tracker

	available [numQuadrants]int
	max       [numLanes][numQuadrants]int
	alloc     [numLanes][numQuadrants]int
	need      [numLanes][numQuadrants]int

	deadlockPreventions uint64
}

// SetTracer injects a lock-order tracker so Request/Release/IsSafeState's
// real mu.Lock calls participate in the required acquisition order check.
// Tests inject a tracker shared with the other lock-owning packages; a nil
// tracer (the default) costs nothing.
func (b *Banker) SetTracer(t *locktrace.Tracker) { b.tracer = t }

func (b *Banker) lock() {
	if b.tracer != nil {
		b.tracer.Acquire(locktrace.BankerLock)
	}
	b.mu.Lock()
}

func (b *Banker) unlock() {
	b.mu.Unlock()
	if b.tracer != nil {
		b.tracer.Release(locktrace.BankerLock)
	}
}

// New constructs a Banker with available = all-ones and each lane's
// maximum claim set to its fixed left-turn pattern (the worst case short
// of a u-turn), per the quadrant claim table.
func New() *Banker {
	b := &Banker{}
	for q := 0; q < numQuadrants; q++ {
		b.available[q] = 1
	}
	for l := quadrant.North; l < quadrant.NumLanes; l++ {
		claim := quadrant.MaxClaim(l)
		for q := quadrant.Quadrant(0); q < quadrant.Count; q++ {
			if claim.Has(q) {
				b.max[l][q] = 1
				b.need[l][q] = 1
			}
		}
	}
	return b
}

func maskBit(m quadrant.Mask, q int) int {
	if m.Has(quadrant.Quadrant(q)) {
		return 1
	}
	return 0
}

// Request attempts to grant req (a quadrant mask) to lane. It applies the
// claim-bound check, the availability check, a tentative apply, and the
// unlocked safety test, rolling back and counting a deadlock prevention
// on failure.
func (b *Banker) Request(lane quadrant.Lane, req quadrant.Mask) error {
	b.lock()
	defer b.unlock()

	l := int(lane)
	var reqArr [numQuadrants]int
	for q := 0; q < numQuadrants; q++ {
		reqArr[q] = maskBit(req, q)
	}

	for q := 0; q < numQuadrants; q++ {
		if reqArr[q] > b.need[l][q] {
			return simerr.NewClaimExceededError(l, q)
		}
	}
	for q := 0; q < numQuadrants; q++ {
		if reqArr[q] > b.available[q] {
			return simerr.NewInsufficientError(l, q)
		}
	}

	for q := 0; q < numQuadrants; q++ {
		b.available[q] -= reqArr[q]
		b.alloc[l][q] += reqArr[q]
		b.need[l][q] -= reqArr[q]
	}

	if b.isSafeStateUnlocked() {
		return nil
	}

	for q := 0; q < numQuadrants; q++ {
		b.available[q] += reqArr[q]
		b.alloc[l][q] -= reqArr[q]
		b.need[l][q] += reqArr[q]
	}
	b.deadlockPreventions++
	return simerr.NewUnsafeError(l)
}

// Release returns every quadrant currently allocated to lane.
func (b *Banker) Release(lane quadrant.Lane) {
	b.lock()
	defer b.unlock()
	l := int(lane)
	for q := 0; q < numQuadrants; q++ {
		b.available[q] += b.alloc[l][q]
		b.need[l][q] += b.alloc[l][q]
		b.alloc[l][q] = 0
	}
}

// isSafeStateUnlocked is the internal, non-locking safety routine. It
// must only be called while b.mu is already held.
func (b *Banker) isSafeStateUnlocked() bool {
	var work [numQuadrants]int
	copy(work[:], b.available[:])
	var finish [numLanes]bool

	for iter := 0; iter < numLanes; iter++ {
		progressed := false
		for l := 0; l < numLanes; l++ {
			if finish[l] {
				continue
			}
			ok := true
			for q := 0; q < numQuadrants; q++ {
				if b.need[l][q] > work[q] {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			for q := 0; q < numQuadrants; q++ {
				work[q] += b.alloc[l][q]
			}
			finish[l] = true
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}

	for l := 0; l < numLanes; l++ {
		if !finish[l] {
			return false
		}
	}
	return true
}

// IsSafeState is the public, locking wrapper around the safety test. It
// is an inspection-only entry point; Request and Release never call it,
// since they already hold mu when they need the safety answer.
func (b *Banker) IsSafeState() bool {
	b.lock()
	defer b.unlock()
	return b.isSafeStateUnlocked()
}

// WouldDeadlock performs a dry run of req against lane without mutating
// any state: it reports true if granting req would leave the system
// unsafe. Used by the hybrid lock strategy to decide a fallback without
// committing a tentative allocation first.
func (b *Banker) WouldDeadlock(lane quadrant.Lane, req quadrant.Mask) bool {
	b.lock()
	defer b.unlock()

	l := int(lane)
	var reqArr [numQuadrants]int
	for q := 0; q < numQuadrants; q++ {
		reqArr[q] = maskBit(req, q)
	}
	for q := 0; q < numQuadrants; q++ {
		if reqArr[q] > b.need[l][q] || reqArr[q] > b.available[q] {
			return true
		}
	}

	for q := 0; q < numQuadrants; q++ {
		b.available[q] -= reqArr[q]
		b.alloc[l][q] += reqArr[q]
		b.need[l][q] -= reqArr[q]
	}
	safe := b.isSafeStateUnlocked()
	for q := 0; q < numQuadrants; q++ {
		b.available[q] += reqArr[q]
		b.alloc[l][q] -= reqArr[q]
		b.need[l][q] += reqArr[q]
	}
	return !safe
}

// Utilization returns the fraction of quadrants currently allocated to
// any lane, a read-only occupancy measure distinct from the Metrics
// Engine's throughput-based utilization.
func (b *Banker) Utilization() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	allocated := 0
	for q := 0; q < numQuadrants; q++ {
		if b.available[q] == 0 {
			allocated++
		}
	}
	return float64(allocated) / float64(numQuadrants)
}

// DeadlockPreventions returns the monotonic count of rejected-and-rolled-
// back requests.
func (b *Banker) DeadlockPreventions() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deadlockPreventions
}

// Snapshot copies all matrices under the lock and returns the copy,
// safe to read without holding b.mu.
func (b *Banker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	var s Snapshot
	copy(s.Available[:], b.available[:])
	for l := 0; l < numLanes; l++ {
		copy(s.Max[l][:], b.max[l][:])
		copy(s.Alloc[l][:], b.alloc[l][:])
		copy(s.Need[l][:], b.need[l][:])
	}
	s.DeadlockPreventions = b.deadlockPreventions
	return s
}

// TrySnapshot attempts to take a Snapshot without blocking; it reports
// false if the lock is currently held, for the UI's best-effort reads.
func (b *Banker) TrySnapshot() (Snapshot, bool) {
	if !b.mu.TryLock() {
		return Snapshot{}, false
	}
	defer b.mu.Unlock()
	var s Snapshot
	copy(s.Available[:], b.available[:])
	for l := 0; l < numLanes; l++ {
		copy(s.Max[l][:], b.max[l][:])
		copy(s.Alloc[l][:], b.alloc[l][:])
		copy(s.Need[l][:], b.need[l][:])
	}
	s.DeadlockPreventions = b.deadlockPreventions
	return s, true
}
