package simulation

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jcortez/trafficguru/internal/banker"
	"github.com/jcortez/trafficguru/internal/config"
	"github.com/jcortez/trafficguru/internal/emergency"
	"github.com/jcortez/trafficguru/internal/intersection"
	"github.com/jcortez/trafficguru/internal/lane"
	"github.com/jcortez/trafficguru/internal/lockmanager"
	"github.com/jcortez/trafficguru/internal/metrics"
	"github.com/jcortez/trafficguru/internal/quadrant"
	"github.com/jcortez/trafficguru/internal/scheduler"
	"github.com/jcortez/trafficguru/internal/vehiclegen"
)

// tickInterval is the periodic SIMULATION_UPDATE_INTERVAL named in the
// concurrency model.
const tickInterval = 100 * time.Millisecond

// Simulation owns every subsystem by value (through the handles each
// constructor returns) and drives them through one tick-based loop,
// avoiding the ownership cycles the original source built with global
// pointer back-references.
type Simulation struct {
	cfg *config.Config

	lanes [quadrant.NumLanes]*lane.Lane
	bank  *banker.Banker
	isect *intersection.Intersection
	locks *lockmanager.Manager
	sched *scheduler.Scheduler
	emerg *emergency.Subsystem

	metricsEngine *metrics.Engine
	observers     *metrics.Manager

	snapshot *Context
	controls chan ControlEvent
	paused   atomic.Bool
	shutdown atomic.Bool

	lastNotifiedLane quadrant.Lane

	// activeLane is the lane whose time slice is currently in progress
	// across possibly several tick() calls. StepLaneTimeSlice processes
	// at most one vehicle per call, so the lock is held and the slice
	// stays open between ticks until it reports completion (or until an
	// emergency eviction clears it out from under us).
	activeLane quadrant.Lane

	rng *rand.Rand
}

// New constructs every subsystem from cfg and wires them together.
func New(cfg *config.Config) *Simulation {
	s := &Simulation{
		cfg:           cfg,
		bank:          banker.New(),
		isect:         intersection.New(),
		metricsEngine: metrics.New(cfg.ArrivalIntervalSeconds()),
		observers:     metrics.NewManager(),
		snapshot:         NewContext(),
		controls:         make(chan ControlEvent, 16),
		lastNotifiedLane: scheduler.NoneLane,
		activeLane:       scheduler.NoneLane,
		rng:              rand.New(rand.NewSource(42)),
	}
	for i := range s.lanes {
		s.lanes[i] = lane.New(quadrant.Lane(i), cfg.QueueCapacity)
	}
	s.emerg = emergency.New(s.isect, s.lanes)
	s.locks = lockmanager.New(lockmanager.ParseStrategy(cfg.Strategy), s.bank, s.isect)
	s.sched = scheduler.New(s.policyFor(cfg.Algorithm, cfg.Quantum), cfg.Quantum, 500*time.Millisecond)

	if cfg.Debug {
		s.observers.AddObserver(metrics.NewLoggingObserver(metrics.LogDebug, ""))
	}
	s.snapshot.Set("algorithm", cfg.Algorithm)
	return s
}

func (s *Simulation) policyFor(algorithm string, quantum time.Duration) scheduler.Policy {
	switch algorithm {
	case "mlfq":
		return scheduler.NewMLFQ()
	case "prr":
		return scheduler.NewPRR(quantum)
	default:
		return scheduler.NewSJF(quantum)
	}
}

// AddObserver registers an additional metrics observer.
func (s *Simulation) AddObserver(o metrics.ExtendedObserver) {
	s.observers.AddObserver(o)
}

// Submit enqueues a control event for processing on the next tick.
func (s *Simulation) Submit(ev ControlEvent) {
	select {
	case s.controls <- ev:
	default:
	}
}

// RequestShutdown sets the shutdown flag, polled by Run at every tick and
// by the arrival generator before and after each arrival wait.
func (s *Simulation) RequestShutdown() {
	s.shutdown.Store(true)
}

// Lanes returns a value snapshot of every lane's observable state.
func (s *Simulation) Lanes() [quadrant.NumLanes]lane.Snapshot {
	var out [quadrant.NumLanes]lane.Snapshot
	for i, l := range s.lanes {
		out[i] = l.Snapshot()
	}
	return out
}

// MetricsReport returns the current derived-metrics snapshot.
func (s *Simulation) MetricsReport() metrics.Report {
	s.metricsEngine.SetCounters(s.sched.ContextSwitches(), s.bank.DeadlockPreventions())
	r := s.metricsEngine.Snapshot()
	metrics.Sanitize(&r)
	return r
}

// Run drives the simulation loop until ctx is cancelled, the shutdown
// flag is set, or cfg.Duration elapses, whichever comes first.
func (s *Simulation) Run(ctx context.Context) {
	deadline := time.Now().Add(s.cfg.Duration)
	genDone := make(chan struct{})
	go s.runArrivalGenerator(ctx, genDone)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown.Store(true)
		default:
		}
		if s.shutdown.Load() || time.Now().After(deadline) {
			break
		}

		s.drainControls()
		s.checkEmergencyClearance()

		if !s.paused.Load() {
			s.tick()
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			s.shutdown.Store(true)
		}
	}
	s.shutdown.Store(true)
	<-genDone
}

func (s *Simulation) runArrivalGenerator(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		if s.shutdown.Load() {
			return
		}
		span := s.cfg.ArrivalMax - s.cfg.ArrivalMin
		wait := s.cfg.ArrivalMin
		if span > 0 {
			wait += time.Duration(s.rng.Int63n(int64(span)))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		if s.shutdown.Load() {
			return
		}
		target := quadrant.Lane(s.rng.Intn(int(quadrant.NumLanes)))
		id := vehiclegen.NextID()
		if err := s.lanes[target].Enqueue(id); err != nil {
			s.metricsEngine.RecordQueueOverflow()
			s.observers.NotifyQueueOverflow(int(target))
		}
	}
}

func (s *Simulation) drainControls() {
	for {
		select {
		case ev := <-s.controls:
			s.handleControl(ev)
		default:
			return
		}
	}
}

func (s *Simulation) handleControl(ev ControlEvent) EventResult {
	switch ev.Kind {
	case SwitchAlgorithm:
		name, _ := ev.Data.(string)
		s.sched.SetPolicy(s.policyFor(name, s.cfg.Quantum))
		s.snapshot.Set("algorithm", name)
		return EventResult{Processed: true}

	case Pause:
		s.paused.Store(true)
		return EventResult{Processed: true}

	case Resume:
		s.paused.Store(false)
		return EventResult{Processed: true}

	case TriggerEmergency:
		laneID, _ := ev.Data.(quadrant.Lane)
		target := s.lanes[laneID]
		approach := s.emerg.RandomApproachTime()
		crossing := s.emerg.RandomCrossingDuration()
		accepted := s.emerg.Inject(emergency.Ambulance, target, approach, crossing, vehiclegen.NextID())
		if accepted {
			s.observers.NotifyEmergencyStart(int(laneID), emergency.Ambulance.String())
		}
		return EventResult{Processed: accepted}

	case Reset:
		s.resetSubsystems()
		return EventResult{Processed: true}

	case Quit:
		s.RequestShutdown()
		return EventResult{Processed: true}

	default:
		return EventResult{Processed: false}
	}
}

// resetSubsystems rebuilds every stateful subsystem in place for the
// reset(4) interactive control, leaving the control channel, the
// shutdown/paused flags, and the observer manager untouched so the
// arrival generator goroutine and any attached sinks keep working
// against the same Simulation handle.
func (s *Simulation) resetSubsystems() {
	s.bank = banker.New()
	s.isect = intersection.New()
	for i := range s.lanes {
		s.lanes[i] = lane.New(quadrant.Lane(i), s.cfg.QueueCapacity)
	}
	s.emerg = emergency.New(s.isect, s.lanes)
	s.locks = lockmanager.New(lockmanager.ParseStrategy(s.cfg.Strategy), s.bank, s.isect)
	s.sched = scheduler.New(s.policyFor(s.cfg.Algorithm, s.cfg.Quantum), s.cfg.Quantum, 500*time.Millisecond)
	s.lastNotifiedLane = scheduler.NoneLane
	s.activeLane = scheduler.NoneLane
	s.metricsEngine = metrics.New(s.cfg.ArrivalIntervalSeconds())
}

func (s *Simulation) checkEmergencyClearance() {
	v, active := s.emerg.Active()
	if !active {
		return
	}
	if s.emerg.ElapsedSinceStart() >= v.CrossingDuration {
		target := s.lanes[v.LaneID]
		if s.emerg.Clear(target) {
			s.metricsEngine.RecordEmergencyResponseTime(v.ApproachTime)
			s.observers.NotifyEmergencyClear(int(v.LaneID), v.ApproachTime)
		}
	}
}

// tick advances the simulation by one SIMULATION_UPDATE_INTERVAL. At most
// one vehicle is dequeued per call: a lane's time slice is resumed across
// successive tick() calls via activeLane rather than run to completion in
// a single blocking call, so Run()'s outer loop regains control between
// vehicles (not just between whole quanta) to drain controls and clear an
// emergency per the per-tick data flow.
func (s *Simulation) tick() {
	if s.activeLane != scheduler.NoneLane {
		if snap := s.isect.Snapshot(); snap.Holder != int(s.activeLane) {
			// Evicted out from under us by an emergency injection; the
			// banker claim is released directly since the intersection
			// lock is already gone.
			s.bank.Release(s.activeLane)
			s.activeLane = scheduler.NoneLane
		}
	}

	if s.activeLane == scheduler.NoneLane {
		selected, switched := s.sched.ScheduleNextLane(s.lanes)
		if selected == scheduler.NoneLane {
			return
		}
		if switched {
			s.metricsEngine.RecordContextSwitch()
			s.observers.NotifyContextSwitch(int(s.lastNotifiedLane), int(selected))
			s.lastNotifiedLane = selected
		}

		l := s.lanes[selected]
		requested := l.RequestedQuadrants()
		isEmergency := l.Priority() == lane.EmergencyPriority

		if err := s.locks.Acquire(selected, requested, isEmergency); err != nil {
			l.MarkBlocked(requested)
			s.observers.NotifyBankerRejection(int(selected), err.Error())
			return
		}

		l.MarkRunning(requested, requested)
		s.activeLane = selected
	}

	l := s.lanes[s.activeLane]
	quantum := s.sched.Quantum(s.activeLane)
	done := s.sched.StepLaneTimeSlice(l, quantum, tickInterval, func(waited time.Duration) {
		s.metricsEngine.RecordVehicleProcessed(int(s.activeLane), waited)
		s.observers.NotifyVehicleProcessed(int(s.activeLane), waited)
	})
	if !done {
		return
	}

	s.locks.Release(s.activeLane)
	l.EndTimeSlice()
	s.activeLane = scheduler.NoneLane

	for _, other := range s.lanes {
		if other.State() == lane.Blocked {
			other.Unblock()
		}
	}
}
