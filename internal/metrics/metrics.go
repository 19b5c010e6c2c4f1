package metrics

import (
	"sync"
	"time"

	"github.com/jcortez/trafficguru/internal/simerr"
)

// Report is a value snapshot of every derived metric, suitable for CSV
// export or terminal display.
type Report struct {
	Timestamp             time.Time
	VehiclesPerMinute     float64
	AvgWaitTime           time.Duration
	Utilization           float64
	FairnessIndex         float64
	TotalVehicles         uint64
	ContextSwitches       uint64
	EmergencyResponseTime time.Duration
	DeadlocksPrevented    uint64
	QueueOverflows        uint64
	SimulationTime        time.Duration
}

// Engine accumulates the monotonic counters named in the specification
// and computes throughput, average wait, utilization, and Jain fairness
// on demand from those counters plus elapsed time.
type Engine struct {
	mu sync.Mutex

	start time.Time

	totalVehicles      uint64
	contextSwitches    uint64
	deadlockPrevented  uint64
	queueOverflows     uint64

	laneWaitSum   [4]time.Duration
	laneWaitCount [4]uint64

	arrivalIntervalSeconds float64

	emergencyResponseTime time.Duration
}

// New constructs an Engine whose clock starts now. arrivalIntervalSeconds
// is the configured mean arrival interval, from which the expected
// arrival rate for the utilization formula is derived.
func New(arrivalIntervalSeconds float64) *Engine {
	return &Engine{start: time.Now(), arrivalIntervalSeconds: arrivalIntervalSeconds}
}

// RecordVehicleProcessed credits one vehicle's completion to laneID's
// wait-time accumulator and the global total.
func (e *Engine) RecordVehicleProcessed(laneID int, waited time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.totalVehicles++
	if laneID >= 0 && laneID < len(e.laneWaitSum) {
		e.laneWaitSum[laneID] += waited
		e.laneWaitCount[laneID]++
	}
}

// RecordContextSwitch increments the context-switch counter. The
// authoritative counter lives on the scheduler; this mirrors it into the
// metrics engine for CSV export symmetry with the specification's row
// format.
func (e *Engine) RecordContextSwitch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contextSwitches++
}

// RecordDeadlockPrevention mirrors the banker's deadlock-preventions
// counter.
func (e *Engine) RecordDeadlockPrevention() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deadlockPrevented++
}

// RecordQueueOverflow increments the overflow counter.
func (e *Engine) RecordQueueOverflow() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queueOverflows++
}

// RecordEmergencyResponseTime records the most recently completed
// emergency's response time for CSV export.
func (e *Engine) RecordEmergencyResponseTime(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emergencyResponseTime = d
}

// SetCounters overwrites the mirrored context-switch and deadlock-
// prevention counters from their authoritative sources (the scheduler
// and banker), keeping this engine's snapshot consistent without a
// second source of truth drifting from the first.
func (e *Engine) SetCounters(contextSwitches, deadlockPrevented uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contextSwitches = contextSwitches
	e.deadlockPrevented = deadlockPrevented
}

func (e *Engine) elapsed() time.Duration {
	return time.Since(e.start)
}

// throughputLocked returns total vehicles processed per minute of elapsed
// simulation time.
func (e *Engine) throughputLocked() float64 {
	minutes := e.elapsed().Minutes()
	if minutes <= 0 {
		return 0
	}
	return float64(e.totalVehicles) / minutes
}

// avgWaitTimeLocked returns the mean, over lanes that have processed at least
// one vehicle, of that lane's average wait.
func (e *Engine) avgWaitTimeLocked() time.Duration {
	var sum time.Duration
	active := 0
	for i := range e.laneWaitSum {
		if e.laneWaitCount[i] == 0 {
			continue
		}
		sum += e.laneWaitSum[i] / time.Duration(e.laneWaitCount[i])
		active++
	}
	if active == 0 {
		return 0
	}
	return sum / time.Duration(active)
}

// utilizationLocked returns min(1, total_vehicles / (elapsed_seconds *
// expected_arrivals_per_sec)).
func (e *Engine) utilizationLocked() float64 {
	seconds := e.elapsed().Seconds()
	if seconds <= 0 || e.arrivalIntervalSeconds <= 0 {
		return 0
	}
	expectedRate := 1.0 / e.arrivalIntervalSeconds
	denom := seconds * expectedRate
	if denom <= 0 {
		return 0
	}
	u := float64(e.totalVehicles) / denom
	if u > 1 {
		u = 1
	}
	return u
}

// fairnessIndexLocked returns Jain's fairness index over per-lane average
// waits, defaulting to 1.0 when there is nothing to compare.
func (e *Engine) fairnessIndexLocked() float64 {
	var sum, sumSq float64
	active := 0
	for i := range e.laneWaitSum {
		if e.laneWaitCount[i] == 0 {
			continue
		}
		w := (e.laneWaitSum[i] / time.Duration(e.laneWaitCount[i])).Seconds()
		sum += w
		sumSq += w * w
		active++
	}
	if active == 0 || sumSq == 0 {
		return 1.0
	}
	idx := (sum * sum) / (float64(active) * sumSq)
	if idx > 1 {
		idx = 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Snapshot computes and returns every derived metric as of now.
func (e *Engine) Snapshot() Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Report{
		Timestamp:             time.Now(),
		VehiclesPerMinute:     e.throughputLocked(),
		AvgWaitTime:           e.avgWaitTimeLocked(),
		Utilization:           e.utilizationLocked(),
		FairnessIndex:         e.fairnessIndexLocked(),
		TotalVehicles:         e.totalVehicles,
		ContextSwitches:       e.contextSwitches,
		EmergencyResponseTime: e.emergencyResponseTime,
		DeadlocksPrevented:    e.deadlockPrevented,
		QueueOverflows:        e.queueOverflows,
		SimulationTime:        e.elapsed(),
	}
}

// Validate checks a Report against the invariants in the specification
// (no negative counters, utilization/fairness in [0,1]); it returns one
// *simerr.InvalidStateError per violation found.
func Validate(r Report) []error {
	var errs []error
	if r.Utilization > 1 || r.Utilization < 0 {
		errs = append(errs, simerr.NewInvalidStateError("utilization", r.Utilization, "must be in [0,1]"))
	}
	if r.FairnessIndex > 1 || r.FairnessIndex < 0 {
		errs = append(errs, simerr.NewInvalidStateError("fairness_index", r.FairnessIndex, "must be in [0,1]"))
	}
	if r.VehiclesPerMinute < 0 {
		errs = append(errs, simerr.NewInvalidStateError("vehicles_per_minute", r.VehiclesPerMinute, "must be non-negative"))
	}
	return errs
}

// Sanitize clamps a Report's derived values into their legal ranges in
// place, matching the specification's "logged plus clamped, never
// terminated" policy for INVALID_STATE.
func Sanitize(r *Report) {
	if r.Utilization > 1 {
		r.Utilization = 1
	}
	if r.Utilization < 0 {
		r.Utilization = 0
	}
	if r.FairnessIndex > 1 {
		r.FairnessIndex = 1
	}
	if r.FairnessIndex < 0 {
		r.FairnessIndex = 0
	}
	if r.VehiclesPerMinute < 0 {
		r.VehiclesPerMinute = 0
	}
}
