// Package emergency implements the preemption subsystem: detection input
// (an external collaborator decides when to call Inject), eviction of
// the current intersection holder, priority elevation of the target
// lane, and response-time accounting on clearance.
package emergency

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jcortez/trafficguru/internal/intersection"
	"github.com/jcortez/trafficguru/internal/lane"
	"github.com/jcortez/trafficguru/internal/quadrant"
)

// VehicleType names the three emergency vehicle classes.
type VehicleType int

const (
	Ambulance VehicleType = iota
	Fire
	Police
)

func (v VehicleType) String() string {
	switch v {
	case Ambulance:
		return "AMBULANCE"
	case Fire:
		return "FIRE"
	case Police:
		return "POLICE"
	default:
		return "?"
	}
}

// Default approach/crossing-duration ranges, carried over from the
// original's DEFAULT_APPROACH_TIME_MIN/MAX and
// DEFAULT_CROSSING_DURATION_MIN/MAX constants.
const (
	DefaultApproachMin  = 5 * time.Second
	DefaultApproachMax  = 15 * time.Second
	DefaultCrossingMin  = 3 * time.Second
	DefaultCrossingMax  = 6 * time.Second
)

// Vehicle describes one active or completed emergency.
type Vehicle struct {
	Type            VehicleType
	LaneID          quadrant.Lane
	ApproachTime    time.Duration
	CrossingDuration time.Duration
	VehicleID       string
	Timestamp       time.Time
	Active          bool
}

// Subsystem is the process-singleton emergency preemption subsystem. At
// most one emergency is active at a time; a second Inject call while one
// is active is dropped and counted, per the open-question decision
// recorded for this behavior.
type Subsystem struct {
	mu sync.Mutex

	current       Vehicle
	emergencyMode bool
	startTime     time.Time

	handled           uint64
	totalResponseTime time.Duration
	dropped           uint64

	isect *intersection.Intersection
	lanes [quadrant.NumLanes]*lane.Lane
	rng   *rand.Rand
}

// New constructs a Subsystem wired to the shared intersection lock and the
// lane set, so an eviction can revert the evicted lane's own state
// atomically with clearing the intersection holder.
func New(isect *intersection.Intersection, lanes [quadrant.NumLanes]*lane.Lane) *Subsystem {
	return &Subsystem{isect: isect, lanes: lanes, rng: rand.New(rand.NewSource(1))}
}

// RandomApproachTime draws an approach time from the default range,
// matching the original's draw for the same ranges.
func (s *Subsystem) RandomApproachTime() time.Duration {
	return DefaultApproachMin + time.Duration(s.rng.Int63n(int64(DefaultApproachMax-DefaultApproachMin)))
}

// RandomCrossingDuration draws a crossing duration from the default
// range.
func (s *Subsystem) RandomCrossingDuration() time.Duration {
	return DefaultCrossingMin + time.Duration(s.rng.Int63n(int64(DefaultCrossingMax-DefaultCrossingMin)))
}

// Inject preempts the intersection for vehicle. If an emergency is
// already active, the new one is dropped and counted; it reports whether
// the injection was accepted.
func (s *Subsystem) Inject(vehicleType VehicleType, target *lane.Lane, approach, crossing time.Duration, vehicleID string) bool {
	s.mu.Lock()
	if s.emergencyMode {
		s.dropped++
		s.mu.Unlock()
		return false
	}
	s.current = Vehicle{
		Type:             vehicleType,
		LaneID:           target.ID(),
		ApproachTime:     approach,
		CrossingDuration: crossing,
		VehicleID:        vehicleID,
		Timestamp:        time.Now(),
		Active:           true,
	}
	s.emergencyMode = true
	s.startTime = s.current.Timestamp
	s.mu.Unlock()

	if evicted, ok := s.isect.Evict(); ok {
		// Revert the evicted lane's own state alongside the intersection
		// eviction so holder == -1 never transiently coexists with some
		// lane still reporting RUNNING.
		s.lanes[evicted].EndTimeSlice()
	}
	target.SetPriority(lane.EmergencyPriority)
	return true
}

// Active reports whether an emergency is currently in progress, and if
// so, which lane it targets.
func (s *Subsystem) Active() (Vehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.emergencyMode
}

// Clear ends the active emergency once crossing is complete, restoring
// the target lane's priority and accumulating the response-time metric.
// It reports false if no emergency was active.
func (s *Subsystem) Clear(target *lane.Lane) bool {
	s.mu.Lock()
	if !s.emergencyMode {
		s.mu.Unlock()
		return false
	}
	responseTime := s.current.ApproachTime
	s.current.Active = false
	s.emergencyMode = false
	s.handled++
	s.totalResponseTime += responseTime
	s.mu.Unlock()

	target.SetPriority(lane.DefaultPriority)
	return true
}

// ElapsedSinceStart reports how long the current emergency has been
// active; callers use this against CrossingDuration to decide when to
// call Clear.
func (s *Subsystem) ElapsedSinceStart() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.emergencyMode {
		return 0
	}
	return time.Since(s.startTime)
}

// AverageResponseTime returns the mean response time across every
// emergency handled so far, or 0 if none have been handled.
func (s *Subsystem) AverageResponseTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handled == 0 {
		return 0
	}
	return s.totalResponseTime / time.Duration(s.handled)
}

// HandledCount returns the cumulative number of completed emergencies.
func (s *Subsystem) HandledCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handled
}

// DroppedCount returns the cumulative number of emergencies dropped
// because another was already active.
func (s *Subsystem) DroppedCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
