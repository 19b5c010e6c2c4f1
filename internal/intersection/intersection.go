// Package intersection implements the exclusive-occupancy lock over the
// shared intersection: one mutex guarding the holder and active-quadrant
// state, plus one condition variable per lane. Release and Evict
// broadcast all four, and each woken lane re-checks its own predicate.
package intersection

import (
	"sync"
	"time"

	"github.com/jcortez/trafficguru/internal/locktrace"
	"github.com/jcortez/trafficguru/internal/quadrant"
	"github.com/jcortez/trafficguru/internal/simerr"
)

const none = -1

// Snapshot is a value copy of the intersection's occupancy state.
type Snapshot struct {
	Holder          int
	ActiveQuadrants quadrant.Mask
	AcquisitionTime time.Time
}

// Intersection is the process-singleton exclusive lock over the shared
// four-quadrant intersection.
type Intersection struct {
	mu     sync.Mutex
	tracer *locktrace.Tracker
	conds  [quadrant.NumLanes]*sync.Cond

	holder          int
	activeQuadrants quadrant.Mask
	acquisitionTime time.Time
}

// SetTracer injects a lock-order tracker shared with the other
// lock-owning packages; a nil tracer (the default) costs nothing.
func (it *Intersection) SetTracer(t *locktrace.Tracker) { it.tracer = t }

func (it *Intersection) lock() {
	if it.tracer != nil {
		it.tracer.Acquire(locktrace.IntersectionLock)
	}
	it.mu.Lock()
}

func (it *Intersection) unlock() {
	it.mu.Unlock()
	if it.tracer != nil {
		it.tracer.Release(locktrace.IntersectionLock)
	}
}

// New constructs a vacant Intersection.
func New() *Intersection {
	it := &Intersection{holder: none}
	for i := range it.conds {
		it.conds[i] = sync.NewCond(&it.mu)
	}
	return it
}

// Acquire blocks until lane may occupy the intersection, then grants it
// the given claimed quadrants.
func (it *Intersection) Acquire(lane quadrant.Lane, claimed quadrant.Mask) {
	it.lock()
	defer it.unlock()
	for it.holder != none && it.holder != int(lane) {
		it.conds[lane].Wait()
	}
	it.grantLocked(lane, claimed)
}

// TryAcquire attempts a non-blocking acquisition; it returns a
// LockBusyError if the intersection mutex is contended or the
// intersection is currently held by another lane.
func (it *Intersection) TryAcquire(lane quadrant.Lane, claimed quadrant.Mask) error {
	if !it.mu.TryLock() {
		return simerr.NewLockBusyError("intersection")
	}
	defer it.mu.Unlock()
	if it.holder != none && it.holder != int(lane) {
		return simerr.NewLockBusyError("intersection")
	}
	it.grantLocked(lane, claimed)
	return nil
}

// AcquireWithTimeout retries a try-acquire on a ~100ms backoff until
// granted or the deadline elapses, per the specification's hybrid
// acquisition timeout.
func (it *Intersection) AcquireWithTimeout(lane quadrant.Lane, claimed quadrant.Mask, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := it.TryAcquire(lane, claimed); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return simerr.NewTimeoutError(int(lane), timeout.Seconds())
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (it *Intersection) grantLocked(lane quadrant.Lane, claimed quadrant.Mask) {
	it.holder = int(lane)
	it.acquisitionTime = time.Now()
	it.activeQuadrants = claimed
}

// Release hands the intersection back to nobody and wakes every waiting
// lane so they can re-check their own predicate.
func (it *Intersection) Release(lane quadrant.Lane) error {
	it.lock()
	defer it.unlock()
	if it.holder != int(lane) {
		return simerr.NewInvalidStateError("holder", float64(it.holder), "release by non-holder lane")
	}
	it.holder = none
	it.activeQuadrants = 0
	for _, c := range it.conds {
		c.Broadcast()
	}
	return nil
}

// Evict forcibly clears the current holder regardless of who holds it,
// used by the emergency subsystem to seize the intersection. It reports
// the lane that was evicted, if any, so the caller can revert that
// lane's own state atomically with the eviction and never leave
// holder == -1 while that lane still claims to be RUNNING.
func (it *Intersection) Evict() (quadrant.Lane, bool) {
	it.lock()
	defer it.unlock()
	prev := it.holder
	it.holder = none
	it.activeQuadrants = 0
	for _, c := range it.conds {
		c.Broadcast()
	}
	if prev == none {
		return 0, false
	}
	return quadrant.Lane(prev), true
}

// Snapshot copies the occupancy state under the lock.
func (it *Intersection) Snapshot() Snapshot {
	it.mu.Lock()
	defer it.mu.Unlock()
	return Snapshot{Holder: it.holder, ActiveQuadrants: it.activeQuadrants, AcquisitionTime: it.acquisitionTime}
}

// TrySnapshot attempts a non-blocking read of the occupancy state.
func (it *Intersection) TrySnapshot() (Snapshot, bool) {
	if !it.mu.TryLock() {
		return Snapshot{}, false
	}
	defer it.mu.Unlock()
	return Snapshot{Holder: it.holder, ActiveQuadrants: it.activeQuadrants, AcquisitionTime: it.acquisitionTime}, true
}
