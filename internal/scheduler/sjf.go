package scheduler

import (
	"time"

	"github.com/jcortez/trafficguru/internal/lane"
	"github.com/jcortez/trafficguru/internal/quadrant"
)

// SJFPolicy picks the ready, non-blocked lane minimizing estimated
// service time (queue length times the per-vehicle cross time), tied by
// oldest arrival.
type SJFPolicy struct {
	Quantum_ time.Duration
}

// NewSJF constructs an SJF policy with the given fixed quantum.
func NewSJF(quantum time.Duration) *SJFPolicy {
	return &SJFPolicy{Quantum_: quantum}
}

// Name returns the policy's CLI identifier.
func (p *SJFPolicy) Name() string { return "sjf" }

// SelectNext implements Policy.
func (p *SJFPolicy) SelectNext(sc *Scheduler, lanes [quadrant.NumLanes]*lane.Lane) quadrant.Lane {
	best := NoneLane
	var bestEstimate time.Duration
	var bestArrival time.Time

	for i, l := range lanes {
		st := l.State()
		if st != lane.Ready && st != lane.Running {
			continue
		}
		qlen := l.QueueLen()
		if st == lane.Ready && qlen == 0 {
			continue
		}
		estimate := time.Duration(qlen) * VehicleCrossTime
		arrival := l.Snapshot().LastArrivalTime

		if best == NoneLane || estimate < bestEstimate ||
			(estimate == bestEstimate && arrival.Before(bestArrival)) {
			best = quadrant.Lane(i)
			bestEstimate = estimate
			bestArrival = arrival
		}
	}
	return best
}

// Quantum implements Policy: SJF uses one fixed quantum for every lane.
func (p *SJFPolicy) Quantum(sc *Scheduler, selected quadrant.Lane) time.Duration {
	return p.Quantum_
}
