package scheduler

import (
	"time"

	"github.com/jcortez/trafficguru/internal/lane"
	"github.com/jcortez/trafficguru/internal/quadrant"
)

// Priority Round-Robin classes, consulted in this order.
const (
	classEmergency = 0
	classNormal    = 1
	classLow       = 2
)

const prrFairnessOverride = 30 * time.Second
const prrNormalQueueThreshold = 3

// PRRPolicy implements the three-class priority round robin of the
// specification: EMERGENCY, NORMAL, LOW, each with its own rotating
// cursor, consulted in priority order, with a fairness override that
// promotes a starved LOW lane to NORMAL for one decision.
type PRRPolicy struct {
	Quantum_ time.Duration
}

// NewPRR constructs a PRR policy with the given fixed quantum.
func NewPRR(quantum time.Duration) *PRRPolicy {
	return &PRRPolicy{Quantum_: quantum}
}

// Name returns the policy's CLI identifier.
func (p *PRRPolicy) Name() string { return "prr" }

func classOf(sc *Scheduler, i int, l *lane.Lane) int {
	if l.Priority() == lane.EmergencyPriority {
		return classEmergency
	}
	if time.Since(sc.prrLastServiced[i]) > prrFairnessOverride {
		return classNormal
	}
	if l.QueueLen() > prrNormalQueueThreshold {
		return classNormal
	}
	return classLow
}

// SelectNext implements Policy.
func (p *PRRPolicy) SelectNext(sc *Scheduler, lanes [quadrant.NumLanes]*lane.Lane) quadrant.Lane {
	for class := classEmergency; class <= classLow; class++ {
		members := make([]int, 0, quadrant.NumLanes)
		for i, l := range lanes {
			st := l.State()
			if st != lane.Ready && st != lane.Running {
				continue
			}
			if st == lane.Ready && l.QueueLen() == 0 {
				continue
			}
			if classOf(sc, i, l) == class {
				members = append(members, i)
			}
		}
		if len(members) == 0 {
			continue
		}
		cursor := sc.prrCursor[class] % len(members)
		idx := members[cursor]
		sc.prrCursor[class] = (cursor + 1) % len(members)
		return quadrant.Lane(idx)
	}
	return NoneLane
}

// Quantum implements Policy: PRR uses one fixed quantum for every lane.
func (p *PRRPolicy) Quantum(sc *Scheduler, selected quadrant.Lane) time.Duration {
	return p.Quantum_
}
