package scheduler

import (
	"time"

	"github.com/jcortez/trafficguru/internal/lane"
	"github.com/jcortez/trafficguru/internal/quadrant"
)

// MLFQ priority levels.
const (
	LevelHigh = 0
	LevelMed  = 1
	LevelLow  = 2
)

var mlfqQuanta = [3]time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}

const (
	mlfqPromoteAfter  = 10 * time.Second
	mlfqAgingFloor    = 15 * time.Second
	mlfqDemoteAfterN  = 5
)

// MLFQPolicy implements the three-level multilevel feedback queue of the
// specification. All of its bookkeeping (level, time-in-level,
// consecutive-quanta) lives on the owning *Scheduler, guarded by the same
// lock as everything else — see the scheduler package doc for why.
type MLFQPolicy struct{}

// NewMLFQ constructs an MLFQ policy.
func NewMLFQ() *MLFQPolicy { return &MLFQPolicy{} }

// Name returns the policy's CLI identifier.
func (p *MLFQPolicy) Name() string { return "mlfq" }

// SelectNext implements Policy: applies promotion/aging adjustments,
// then picks the lowest-numbered non-empty level's longest-waiting ready
// lane.
func (p *MLFQPolicy) SelectNext(sc *Scheduler, lanes [quadrant.NumLanes]*lane.Lane) quadrant.Lane {
	now := time.Now()

	for i, l := range lanes {
		st := l.State()
		if st == lane.Blocked {
			continue
		}
		wait := l.WaitingTime()
		if wait > mlfqPromoteAfter && sc.mlfqLevel[i] > LevelHigh {
			sc.mlfqLevel[i]--
			sc.mlfqLevelEntered[i] = now
			sc.mlfqConsecutive[i] = 0
		}
		if now.Sub(sc.mlfqLevelEntered[i]) > mlfqAgingFloor && sc.mlfqLevel[i] != LevelHigh {
			sc.mlfqLevel[i] = LevelHigh
			sc.mlfqLevelEntered[i] = now
			sc.mlfqConsecutive[i] = 0
		}
	}

	best := NoneLane
	bestLevel := len(mlfqQuanta)
	var bestWait time.Duration

	for i, l := range lanes {
		st := l.State()
		if st != lane.Ready && st != lane.Running {
			continue
		}
		if st == lane.Ready && l.QueueLen() == 0 {
			continue
		}
		level := sc.mlfqLevel[i]
		wait := l.WaitingTime()
		if level < bestLevel || (level == bestLevel && wait > bestWait) {
			best = quadrant.Lane(i)
			bestLevel = level
			bestWait = wait
		}
	}
	return best
}

// Quantum implements Policy: the selected lane's level determines the
// quantum, and completing it demotes the lane if it has now run more
// than mlfqDemoteAfterN consecutive quanta at its current level.
func (p *MLFQPolicy) Quantum(sc *Scheduler, selected quadrant.Lane) time.Duration {
	if selected == NoneLane {
		return mlfqQuanta[LevelMed]
	}
	i := int(selected)
	sc.mlfqConsecutive[i]++
	if sc.mlfqConsecutive[i] > mlfqDemoteAfterN && sc.mlfqLevel[i] < LevelLow {
		sc.mlfqLevel[i]++
		sc.mlfqLevelEntered[i] = time.Now()
		sc.mlfqConsecutive[i] = 0
	}
	return mlfqQuanta[sc.mlfqLevel[i]]
}
