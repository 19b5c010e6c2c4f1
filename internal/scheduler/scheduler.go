// Package scheduler implements the scheduler core named in the
// specification: policy dispatch, context-switch accounting, and the
// fixed-capacity execution-history ring buffer. The three selection
// policies (SJF, MLFQ, Priority Round-Robin) live in sjf.go, mlfq.go,
// and prr.go as implementations of the Policy interface, all sharing
// the one scheduler lock named in the concurrency model — no policy may
// keep bookkeeping of its own outside that lock, including MLFQ's
// per-level state, addressing the source's partially-guarded demotion
// fields.
package scheduler

import (
	"sync"
	"time"

	"github.com/jcortez/trafficguru/internal/lane"
	"github.com/jcortez/trafficguru/internal/locktrace"
	"github.com/jcortez/trafficguru/internal/quadrant"
)

// NoneLane is returned by a policy when no lane is eligible to run.
const NoneLane quadrant.Lane = -1

// historyCapacity is the fixed-size execution-history ring buffer
// capacity named in the specification.
const historyCapacity = 1000

// VehicleCrossTime is the simulated duration for a single vehicle to
// clear the intersection once dequeued, used both by SJF's estimator and
// by StepLaneTimeSlice's per-vehicle pacing.
const VehicleCrossTime = 300 * time.Millisecond

// ExecutionRecord is emitted on every time-slice completion.
type ExecutionRecord struct {
	LaneID            quadrant.Lane
	Start             time.Time
	End               time.Time
	Duration          time.Duration
	VehiclesProcessed int
}

// Policy selects the next lane to run. Implementations may read and
// mutate policy-specific fields on Scheduler; ScheduleNextLane always
// calls SelectNext while sc.mu is held, so no separate lock is needed.
type Policy interface {
	Name() string
	SelectNext(sc *Scheduler, lanes [quadrant.NumLanes]*lane.Lane) quadrant.Lane
	Quantum(sc *Scheduler, selected quadrant.Lane) time.Duration
}

// Scheduler is the process-singleton scheduler core: policy dispatch,
// context-switch accounting, and the execution-history ring, plus the
// policy-specific bookkeeping for whichever policy is currently active.
type Scheduler struct {
	mu     sync.Mutex
	tracer *locktrace.Tracker

	policy          Policy
	currentLane     quadrant.Lane
	contextSwitches uint64

	history     [historyCapacity]ExecutionRecord
	historyLen  int
	historyNext int

	contextSwitchTime time.Duration
	defaultQuantum    time.Duration

	// Active time-slice bookkeeping. A slice is advanced one bounded
	// step per StepLaneTimeSlice call rather than run to completion in
	// one blocking call, so the caller's tick loop stays free to drain
	// controls and emergency clearance between vehicles instead of only
	// between whole quanta.
	sliceLane      quadrant.Lane
	sliceStart     time.Time
	sliceDeadline  time.Time
	sliceProcessed int

	// MLFQ state, kept here (not inside MLFQPolicy) so it lives under
	// the same lock as everything else the scheduler guards.
	mlfqLevel        [quadrant.NumLanes]int
	mlfqLevelEntered [quadrant.NumLanes]time.Time
	mlfqConsecutive  [quadrant.NumLanes]int

	// PRR state.
	prrCursor       [3]int // EMERGENCY, NORMAL, LOW cursors
	prrLastServiced [quadrant.NumLanes]time.Time
}

// New constructs a Scheduler with the given policy, default quantum, and
// simulated context-switch overhead.
func New(policy Policy, defaultQuantum, contextSwitchTime time.Duration) *Scheduler {
	s := &Scheduler{
		policy:            policy,
		currentLane:       NoneLane,
		sliceLane:         NoneLane,
		contextSwitchTime: contextSwitchTime,
		defaultQuantum:    defaultQuantum,
	}
	now := time.Now()
	for i := range s.mlfqLevelEntered {
		s.mlfqLevelEntered[i] = now
		s.mlfqLevel[i] = 1 // MED
	}
	for i := range s.prrLastServiced {
		s.prrLastServiced[i] = now
	}
	return s
}

// SetTracer injects a lock-order tracker shared with the other
// lock-owning packages; a nil tracer (the default) costs nothing.
// Scheduler sits second in the required order, below GlobalState and
// above banker/intersection/lane.
func (s *Scheduler) SetTracer(t *locktrace.Tracker) { s.tracer = t }

func (s *Scheduler) lock() {
	if s.tracer != nil {
		s.tracer.Acquire(locktrace.SchedulerLock)
	}
	s.mu.Lock()
}

func (s *Scheduler) unlock() {
	s.mu.Unlock()
	if s.tracer != nil {
		s.tracer.Release(locktrace.SchedulerLock)
	}
}

// SetPolicy swaps the active selection policy, used by the
// switch-algorithm(1..3) interactive control.
func (s *Scheduler) SetPolicy(p Policy) {
	s.lock()
	defer s.unlock()
	s.policy = p
}

// PolicyName returns the active policy's name.
func (s *Scheduler) PolicyName() string {
	s.lock()
	defer s.unlock()
	return s.policy.Name()
}

// CurrentLane returns the lane currently RUNNING under this scheduler's
// decision, or NoneLane.
func (s *Scheduler) CurrentLane() quadrant.Lane {
	s.lock()
	defer s.unlock()
	return s.currentLane
}

// ScheduleNextLane runs the active policy and, if its pick differs from
// the current lane, performs the context switch: the outgoing lane falls
// back to READY or WAITING depending on its queue, the incoming lane is
// marked RUNNING by the caller, and the context-switch counter and
// simulated overhead are applied. It returns the selected lane and
// whether a context switch occurred.
func (s *Scheduler) ScheduleNextLane(lanes [quadrant.NumLanes]*lane.Lane) (quadrant.Lane, bool) {
	s.lock()
	selected := s.policy.SelectNext(s, lanes)
	prev := s.currentLane
	switched := selected != NoneLane && selected != prev
	if switched {
		s.contextSwitches++
		s.currentLane = selected
	}
	waitTime := s.contextSwitchTime
	s.unlock()

	if switched {
		if prev != NoneLane {
			lanes[prev].EndTimeSlice()
		}
		time.Sleep(waitTime)
	}
	return selected, switched
}

// Quantum returns the time slice the active policy assigns to the
// selected lane.
func (s *Scheduler) Quantum(selected quadrant.Lane) time.Duration {
	s.lock()
	defer s.unlock()
	return s.policy.Quantum(s, selected)
}

// RecordExecution appends an execution record to the ring buffer,
// overwriting the oldest entry once capacity is reached.
func (s *Scheduler) RecordExecution(rec ExecutionRecord) {
	s.lock()
	defer s.unlock()
	s.history[s.historyNext] = rec
	s.historyNext = (s.historyNext + 1) % historyCapacity
	if s.historyLen < historyCapacity {
		s.historyLen++
	}
}

// History returns a copy of the execution records currently held,
// oldest first, copied under the scheduler lock before the caller
// iterates — the buffer itself is never handed out directly.
func (s *Scheduler) History() []ExecutionRecord {
	s.lock()
	defer s.unlock()
	out := make([]ExecutionRecord, s.historyLen)
	start := (s.historyNext - s.historyLen + historyCapacity) % historyCapacity
	for i := 0; i < s.historyLen; i++ {
		out[i] = s.history[(start+i)%historyCapacity]
	}
	return out
}

// ContextSwitches returns the monotonic context-switch counter.
func (s *Scheduler) ContextSwitches() uint64 {
	s.lock()
	defer s.unlock()
	return s.contextSwitches
}

// DefaultQuantum returns the configured default quantum.
func (s *Scheduler) DefaultQuantum() time.Duration {
	s.lock()
	defer s.unlock()
	return s.defaultQuantum
}

// MarkServiced records that lane was just serviced, used by PRR's
// fairness-override check.
func (s *Scheduler) MarkServiced(l quadrant.Lane) {
	s.lock()
	defer s.unlock()
	s.prrLastServiced[l] = time.Now()
}

// beginSliceLocked starts bookkeeping for a fresh time slice on
// selected, sized to quantum, unless selected already owns the slice in
// progress. Callers must hold s.mu.
func (s *Scheduler) beginSliceLocked(selected quadrant.Lane, quantum time.Duration) {
	if s.sliceLane == selected && !s.sliceStart.IsZero() {
		return
	}
	s.sliceLane = selected
	s.sliceStart = time.Now()
	s.sliceDeadline = s.sliceStart.Add(quantum)
	s.sliceProcessed = 0
}

// StepLaneTimeSlice advances l's active time slice by at most one
// vehicle, blocking for at most stepBudget so a single call can never
// hold up the caller's per-tick control and emergency polling the way
// running an entire quantum in one call would. It reports whether the
// slice is now complete (quantum expired or queue drained); a completed
// slice emits its ExecutionRecord and clears the slice bookkeeping so
// the next grant starts fresh.
func (s *Scheduler) StepLaneTimeSlice(l *lane.Lane, quantum, stepBudget time.Duration, onVehicle func(waited time.Duration)) bool {
	s.lock()
	s.beginSliceLocked(l.ID(), quantum)
	start := s.sliceStart
	deadline := s.sliceDeadline
	s.unlock()

	if time.Now().Before(deadline) && l.QueueLen() > 0 {
		if _, arrival, ok := l.DequeueOne(); ok {
			if onVehicle != nil {
				onVehicle(time.Since(arrival))
			}
			s.lock()
			s.sliceProcessed++
			s.unlock()

			step := VehicleCrossTime
			if remaining := time.Until(deadline); remaining < step {
				step = remaining
			}
			if stepBudget < step {
				step = stepBudget
			}
			if step > 0 {
				time.Sleep(step)
			}
		}
	}

	done := !time.Now().Before(deadline) || l.QueueLen() == 0
	if !done {
		return false
	}

	s.lock()
	processed := s.sliceProcessed
	s.sliceLane = NoneLane
	s.sliceStart = time.Time{}
	s.sliceDeadline = time.Time{}
	s.sliceProcessed = 0
	s.unlock()

	end := time.Now()
	s.RecordExecution(ExecutionRecord{LaneID: l.ID(), Start: start, End: end, Duration: end.Sub(start), VehiclesProcessed: processed})
	s.MarkServiced(l.ID())
	return true
}
