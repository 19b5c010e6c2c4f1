// Package metrics implements the Metrics Engine: a pluggable observer
// bus (fed by lane, scheduler, banker, and emergency events) plus the
// derived throughput/wait/utilization/fairness calculations and their
// validation and sanitization.
package metrics

import "time"

// Observer receives the core notifications the Metrics Engine and any
// other interested party (a LoggingObserver, a future dashboard) may
// subscribe to.
type Observer interface {
	OnLaneTransition(laneID int, from, to string)
	OnVehicleProcessed(laneID int, waited time.Duration)
}

// ExtendedObserver adds the less commonly needed notifications; most
// observers only need Observer and can embed BaseObserver for the rest.
type ExtendedObserver interface {
	Observer
	OnContextSwitch(from, to int)
	OnBankerRejection(laneID int, reason string)
	OnQueueOverflow(laneID int)
	OnEmergencyStart(laneID int, vehicleType string)
	OnEmergencyClear(laneID int, responseTime time.Duration)
}

// BaseObserver is a no-op implementation of ExtendedObserver that
// concrete observers can embed and override selectively.
type BaseObserver struct{}

func (BaseObserver) OnLaneTransition(laneID int, from, to string)    {}
func (BaseObserver) OnVehicleProcessed(laneID int, waited time.Duration) {}
func (BaseObserver) OnContextSwitch(from, to int)                    {}
func (BaseObserver) OnBankerRejection(laneID int, reason string)     {}
func (BaseObserver) OnQueueOverflow(laneID int)                      {}
func (BaseObserver) OnEmergencyStart(laneID int, vehicleType string) {}
func (BaseObserver) OnEmergencyClear(laneID int, responseTime time.Duration) {}

// Manager holds a set of observers and fans out notifications to all of
// them, isolating each observer's panics so one misbehaving subscriber
// cannot take down the simulation.
type Manager struct {
	observers []ExtendedObserver
}

// NewManager constructs an empty Manager.
func NewManager() *Manager { return &Manager{} }

// AddObserver registers an observer.
func (m *Manager) AddObserver(o ExtendedObserver) {
	m.observers = append(m.observers, o)
}

// RemoveObserver unregisters an observer, if present.
func (m *Manager) RemoveObserver(o ExtendedObserver) {
	for i, existing := range m.observers {
		if existing == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

func (m *Manager) snapshot() []ExtendedObserver {
	out := make([]ExtendedObserver, len(m.observers))
	copy(out, m.observers)
	return out
}

func safeCall(fn func()) {
	defer func() { recover() }()
	fn()
}

// NotifyLaneTransition fans out a lane state transition.
func (m *Manager) NotifyLaneTransition(laneID int, from, to string) {
	for _, o := range m.snapshot() {
		safeCall(func() { o.OnLaneTransition(laneID, from, to) })
	}
}

// NotifyVehicleProcessed fans out a single vehicle's completion.
func (m *Manager) NotifyVehicleProcessed(laneID int, waited time.Duration) {
	for _, o := range m.snapshot() {
		safeCall(func() { o.OnVehicleProcessed(laneID, waited) })
	}
}

// NotifyContextSwitch fans out a scheduler context switch.
func (m *Manager) NotifyContextSwitch(from, to int) {
	for _, o := range m.snapshot() {
		safeCall(func() { o.OnContextSwitch(from, to) })
	}
}

// NotifyBankerRejection fans out a rejected banker request.
func (m *Manager) NotifyBankerRejection(laneID int, reason string) {
	for _, o := range m.snapshot() {
		safeCall(func() { o.OnBankerRejection(laneID, reason) })
	}
}

// NotifyQueueOverflow fans out a rejected enqueue.
func (m *Manager) NotifyQueueOverflow(laneID int) {
	for _, o := range m.snapshot() {
		safeCall(func() { o.OnQueueOverflow(laneID) })
	}
}

// NotifyEmergencyStart fans out an emergency preemption.
func (m *Manager) NotifyEmergencyStart(laneID int, vehicleType string) {
	for _, o := range m.snapshot() {
		safeCall(func() { o.OnEmergencyStart(laneID, vehicleType) })
	}
}

// NotifyEmergencyClear fans out an emergency clearance.
func (m *Manager) NotifyEmergencyClear(laneID int, responseTime time.Duration) {
	for _, o := range m.snapshot() {
		safeCall(func() { o.OnEmergencyClear(laneID, responseTime) })
	}
}
