// Package lane implements the per-lane state machine: WAITING, READY,
// RUNNING, BLOCKED, with the bounded vehicle queue, timing counters, and
// the banker quadrant masks a lane is currently requesting or holds.
// Its lifecycle mirrors the mutex-guarded state transitions used
// throughout the teacher library, narrowed from an arbitrary set of
// states to the six fixed transitions the specification names.
package lane

import (
	"sync"
	"time"

	"github.com/jcortez/trafficguru/internal/locktrace"
	"github.com/jcortez/trafficguru/internal/quadrant"
	"github.com/jcortez/trafficguru/internal/queue"
	"github.com/jcortez/trafficguru/internal/simerr"
)

// State is one of the four states a lane may occupy.
type State int

const (
	Waiting State = iota
	Ready
	Running
	Blocked
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	default:
		return "?"
	}
}

// EmergencyPriority is the priority value reserved for a lane currently
// hosting an emergency vehicle.
const EmergencyPriority = 1

// DefaultPriority is the priority assigned to a lane with no emergency.
const DefaultPriority = 5

// Snapshot is a value copy of a lane's observable state.
type Snapshot struct {
	ID                  quadrant.Lane
	State               State
	QueueLen            int
	Priority            int
	WaitingTime         time.Duration
	LastArrivalTime     time.Time
	LastServiceTime     time.Time
	TotalVehiclesServed uint64
	RequestedQuadrants  quadrant.Mask
	AllocatedQuadrants  quadrant.Mask
	OverflowCount       uint64
}

// Lane owns one Queue, a mutex guarding all mutable fields, and a
// condition variable for signalling state changes to blocked waiters.
type Lane struct {
	id quadrant.Lane

	mu     sync.Mutex
	tracer *locktrace.Tracker
	cond   *sync.Cond

	state   State
	queue   *queue.Queue
	pri     int
	waitStart time.Time

	lastArrivalTime time.Time
	lastServiceTime time.Time
	totalServed     uint64

	requested quadrant.Mask
	allocated quadrant.Mask
}

// New constructs a lane in the WAITING state with an empty queue of the
// given capacity.
func New(id quadrant.Lane, capacity int) *Lane {
	l := &Lane{
		id:    id,
		state: Waiting,
		queue: queue.New(capacity),
		pri:   DefaultPriority,
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// ID returns the lane's compass index.
func (l *Lane) ID() quadrant.Lane { return l.id }

// SetTracer injects a lock-order tracker shared with the other
// lock-owning packages; a nil tracer (the default) costs nothing. Lane is
// the innermost position in the required order, so a tracked call here
// while a scheduler/banker/intersection acquisition is still on the same
// goroutine's stack is exactly what the order check is meant to catch.
func (l *Lane) SetTracer(t *locktrace.Tracker) { l.tracer = t }

func (l *Lane) lock() {
	if l.tracer != nil {
		l.tracer.Acquire(locktrace.LaneLock)
	}
	l.mu.Lock()
}

func (l *Lane) unlock() {
	l.mu.Unlock()
	if l.tracer != nil {
		l.tracer.Release(locktrace.LaneLock)
	}
}

// Enqueue adds a vehicle to the lane's queue. If the lane was WAITING it
// transitions to READY. It returns a *simerr.QueueFullError if the queue
// is already at capacity.
func (l *Lane) Enqueue(vehicleID string) error {
	l.lock()
	defer l.unlock()
	if !l.queue.Enqueue(vehicleID) {
		return simerr.NewQueueFullError(int(l.id), l.queue.Capacity())
	}
	l.lastArrivalTime = time.Now()
	if l.state == Waiting {
		l.setStateLocked(Ready)
	}
	return nil
}

// setStateLocked transitions state and, when entering READY from
// WAITING or BLOCKED or when leaving RUNNING, resets the waiting-time
// clock; callers must hold l.mu.
func (l *Lane) setStateLocked(s State) {
	if (s == Ready && l.state != Running) || (l.state == Running && s != Running) {
		l.waitStart = time.Now()
	}
	l.state = s
	l.cond.Broadcast()
}

// State returns the lane's current state.
func (l *Lane) State() State {
	l.lock()
	defer l.unlock()
	return l.state
}

// QueueLen returns the number of vehicles currently queued.
func (l *Lane) QueueLen() int {
	l.lock()
	defer l.unlock()
	return l.queue.Len()
}

// WaitingTime returns the duration since the lane last left RUNNING or
// entered READY from WAITING or BLOCKED, i.e. time accrued while not
// running; it is 0 while RUNNING.
func (l *Lane) WaitingTime() time.Duration {
	l.lock()
	defer l.unlock()
	if l.state == Running {
		return 0
	}
	return time.Since(l.waitStart)
}

// Priority returns the lane's current scheduling priority.
func (l *Lane) Priority() int {
	l.lock()
	defer l.unlock()
	return l.pri
}

// SetPriority overrides the lane's priority, used by the emergency
// subsystem to mark a lane priority=1 and later restore it.
func (l *Lane) SetPriority(p int) {
	l.lock()
	defer l.unlock()
	l.pri = p
}

// MarkRunning transitions READY->RUNNING on a scheduler grant, recording
// the requested/allocated quadrant masks for this time slice.
func (l *Lane) MarkRunning(requested, allocated quadrant.Mask) {
	l.lock()
	defer l.unlock()
	l.requested = requested
	l.allocated = allocated
	l.lastServiceTime = time.Now()
	l.setStateLocked(Running)
}

// EndTimeSlice transitions RUNNING->READY if the queue still has
// vehicles, else RUNNING->WAITING, per the scheduler's end-of-slice rule.
func (l *Lane) EndTimeSlice() {
	l.lock()
	defer l.unlock()
	l.allocated = 0
	l.requested = 0
	if l.queue.Len() > 0 {
		l.setStateLocked(Ready)
	} else {
		l.setStateLocked(Waiting)
	}
}

// MarkBlocked transitions any state to BLOCKED after a failed banker
// safety check; the caller (scheduler) is responsible for deferring a
// retry for this lane.
func (l *Lane) MarkBlocked(requested quadrant.Mask) {
	l.lock()
	defer l.unlock()
	l.requested = requested
	l.setStateLocked(Blocked)
}

// Unblock transitions BLOCKED->READY on a deadlock-resolution signal.
func (l *Lane) Unblock() {
	l.lock()
	defer l.unlock()
	if l.state == Blocked {
		l.setStateLocked(Ready)
	}
}

// DequeueOne removes one vehicle from the queue and credits
// total-vehicles-served, returning the vehicle ID, its arrival time, and
// whether a vehicle was available.
func (l *Lane) DequeueOne() (id string, arrival time.Time, ok bool) {
	l.lock()
	defer l.unlock()
	vid, dequeued := l.queue.Dequeue()
	if !dequeued {
		return "", time.Time{}, false
	}
	l.totalServed++
	return vid, l.lastArrivalTime, true
}

// RequestedQuadrants returns the quadrant mask this lane requests from
// the banker. It claims the lane's full declared maximum (the left-turn
// pattern) rather than a single movement's subset: every other movement's
// claim, straight-through included, is not guaranteed to be a subset of
// another movement's claim (East's straight claim NW is disjoint from its
// left-turn/registered-max claim NE+SE), and a request outside need fails
// with CLAIM_EXCEEDED before the safety test ever runs. Requesting the
// registered max keeps every lane's claim trivially within need.
func (l *Lane) RequestedQuadrants() quadrant.Mask {
	return quadrant.MaxClaim(l.id)
}

// Snapshot copies all observable fields under the lock.
func (l *Lane) Snapshot() Snapshot {
	l.lock()
	defer l.unlock()
	wt := time.Duration(0)
	if l.state != Running {
		wt = time.Since(l.waitStart)
	}
	return Snapshot{
		ID:                  l.id,
		State:               l.state,
		QueueLen:            l.queue.Len(),
		Priority:            l.pri,
		WaitingTime:         wt,
		LastArrivalTime:     l.lastArrivalTime,
		LastServiceTime:     l.lastServiceTime,
		TotalVehiclesServed: l.totalServed,
		RequestedQuadrants:  l.requested,
		AllocatedQuadrants:  l.allocated,
		OverflowCount:       l.queue.OverflowCount(),
	}
}
