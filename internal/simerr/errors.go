// Package simerr defines the typed error kinds raised by trafficguru's
// scheduling core: banker rejections, lock contention, queue overflow,
// timeouts, and the validator's invalid-state findings.
package simerr

import "fmt"

// ErrorCode identifies one of the error kinds a caller may wish to
// dispatch on without string-matching Error().
type ErrorCode int

const (
	ErrCodeNone ErrorCode = iota
	ErrCodeClaimExceeded
	ErrCodeInsufficient
	ErrCodeUnsafe
	ErrCodeLockBusy
	ErrCodeQueueFull
	ErrCodeTimeout
	ErrCodeInvalidState
	ErrCodeFatalInit
)

// ClaimExceededError is raised when a banker request asks for more of a
// quadrant than the lane's declared maximum need allows.
type ClaimExceededError struct {
	Lane     int
	Quadrant int
}

func (e *ClaimExceededError) Error() string {
	return fmt.Sprintf("banker: lane %d request exceeds need for quadrant %d", e.Lane, e.Quadrant)
}

// NewClaimExceededError constructs a ClaimExceededError.
func NewClaimExceededError(lane, quadrant int) *ClaimExceededError {
	return &ClaimExceededError{Lane: lane, Quadrant: quadrant}
}

// InsufficientError is raised when a banker request exceeds the quadrants
// currently available, regardless of need.
type InsufficientError struct {
	Lane     int
	Quadrant int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("banker: lane %d request exceeds availability for quadrant %d", e.Lane, e.Quadrant)
}

// NewInsufficientError constructs an InsufficientError.
func NewInsufficientError(lane, quadrant int) *InsufficientError {
	return &InsufficientError{Lane: lane, Quadrant: quadrant}
}

// UnsafeError is raised when a tentatively-applied request would leave the
// system in a state from which not every lane's remaining need is
// satisfiable; the tentative apply has already been rolled back by the
// time this is returned.
type UnsafeError struct {
	Lane int
}

func (e *UnsafeError) Error() string {
	return fmt.Sprintf("banker: lane %d request would leave an unsafe state", e.Lane)
}

// NewUnsafeError constructs an UnsafeError.
func NewUnsafeError(lane int) *UnsafeError {
	return &UnsafeError{Lane: lane}
}

// LockBusyError is raised by try-acquire paths that found the resource
// already held.
type LockBusyError struct {
	Resource string
}

func (e *LockBusyError) Error() string {
	return fmt.Sprintf("%s: lock busy", e.Resource)
}

// NewLockBusyError constructs a LockBusyError.
func NewLockBusyError(resource string) *LockBusyError {
	return &LockBusyError{Resource: resource}
}

// QueueFullError is raised when a lane's vehicle queue is at capacity.
type QueueFullError struct {
	Lane     int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("lane %d queue full at capacity %d", e.Lane, e.Capacity)
}

// NewQueueFullError constructs a QueueFullError.
func NewQueueFullError(lane, capacity int) *QueueFullError {
	return &QueueFullError{Lane: lane, Capacity: capacity}
}

// TimeoutError is raised when Intersection.AcquireWithTimeout's deadline
// elapses before the intersection can be granted to a lane.
type TimeoutError struct {
	Lane    int
	Seconds float64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lane %d: acquire timed out after %.2fs", e.Lane, e.Seconds)
}

// NewTimeoutError constructs a TimeoutError.
func NewTimeoutError(lane int, seconds float64) *TimeoutError {
	return &TimeoutError{Lane: lane, Seconds: seconds}
}

// InvalidStateError is raised by the metrics validator when a counter or
// derived value falls outside its legal range.
type InvalidStateError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// NewInvalidStateError constructs an InvalidStateError.
func NewInvalidStateError(field string, value float64, reason string) *InvalidStateError {
	return &InvalidStateError{Field: field, Value: value, Reason: reason}
}

// FatalInitError is raised only during startup when a subsystem cannot be
// constructed (allocation failure, misconfiguration); the only error kind
// the core ever propagates all the way to the exit path.
type FatalInitError struct {
	Component string
	Reason    string
}

func (e *FatalInitError) Error() string {
	return fmt.Sprintf("fatal init: %s: %s", e.Component, e.Reason)
}

// NewFatalInitError constructs a FatalInitError.
func NewFatalInitError(component, reason string) *FatalInitError {
	return &FatalInitError{Component: component, Reason: reason}
}

// IsClaimExceededError reports whether err is a *ClaimExceededError.
func IsClaimExceededError(err error) bool { _, ok := err.(*ClaimExceededError); return ok }

// IsInsufficientError reports whether err is an *InsufficientError.
func IsInsufficientError(err error) bool { _, ok := err.(*InsufficientError); return ok }

// IsUnsafeError reports whether err is an *UnsafeError.
func IsUnsafeError(err error) bool { _, ok := err.(*UnsafeError); return ok }

// IsLockBusyError reports whether err is a *LockBusyError.
func IsLockBusyError(err error) bool { _, ok := err.(*LockBusyError); return ok }

// IsQueueFullError reports whether err is a *QueueFullError.
func IsQueueFullError(err error) bool { _, ok := err.(*QueueFullError); return ok }

// IsTimeoutError reports whether err is a *TimeoutError.
func IsTimeoutError(err error) bool { _, ok := err.(*TimeoutError); return ok }

// IsInvalidStateError reports whether err is an *InvalidStateError.
func IsInvalidStateError(err error) bool { _, ok := err.(*InvalidStateError); return ok }

// IsFatalInitError reports whether err is a *FatalInitError.
func IsFatalInitError(err error) bool { _, ok := err.(*FatalInitError); return ok }

// GetErrorCode returns the ErrorCode for any error kind defined in this
// package, or ErrCodeNone for anything else.
func GetErrorCode(err error) ErrorCode {
	switch err.(type) {
	case *ClaimExceededError:
		return ErrCodeClaimExceeded
	case *InsufficientError:
		return ErrCodeInsufficient
	case *UnsafeError:
		return ErrCodeUnsafe
	case *LockBusyError:
		return ErrCodeLockBusy
	case *QueueFullError:
		return ErrCodeQueueFull
	case *TimeoutError:
		return ErrCodeTimeout
	case *InvalidStateError:
		return ErrCodeInvalidState
	case *FatalInitError:
		return ErrCodeFatalInit
	default:
		return ErrCodeNone
	}
}
