package simerr

import "testing"

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"claim", NewClaimExceededError(2, 1)},
		{"insufficient", NewInsufficientError(0, 3)},
		{"unsafe", NewUnsafeError(1)},
		{"busy", NewLockBusyError("intersection")},
		{"full", NewQueueFullError(3, 20)},
		{"timeout", NewTimeoutError(0, 2.5)},
		{"invalid", NewInvalidStateError("utilization", 1.5, "exceeds 1.0")},
		{"fatal", NewFatalInitError("banker", "allocation failed")},
	}
	for _, c := range cases {
		if c.err.Error() == "" {
			t.Errorf("%s: expected non-empty message", c.name)
		}
	}
}

func TestIsPredicatesAndCodes(t *testing.T) {
	if !IsClaimExceededError(NewClaimExceededError(0, 0)) {
		t.Error("expected IsClaimExceededError true")
	}
	if IsClaimExceededError(NewUnsafeError(0)) {
		t.Error("expected IsClaimExceededError false for UnsafeError")
	}
	if !IsInsufficientError(NewInsufficientError(0, 0)) {
		t.Error("expected IsInsufficientError true")
	}
	if !IsUnsafeError(NewUnsafeError(0)) {
		t.Error("expected IsUnsafeError true")
	}
	if !IsLockBusyError(NewLockBusyError("x")) {
		t.Error("expected IsLockBusyError true")
	}
	if !IsQueueFullError(NewQueueFullError(0, 1)) {
		t.Error("expected IsQueueFullError true")
	}
	if !IsTimeoutError(NewTimeoutError(0, 1)) {
		t.Error("expected IsTimeoutError true")
	}
	if !IsInvalidStateError(NewInvalidStateError("x", 0, "y")) {
		t.Error("expected IsInvalidStateError true")
	}
	if !IsFatalInitError(NewFatalInitError("x", "y")) {
		t.Error("expected IsFatalInitError true")
	}

	table := []struct {
		err  error
		code ErrorCode
	}{
		{NewClaimExceededError(0, 0), ErrCodeClaimExceeded},
		{NewInsufficientError(0, 0), ErrCodeInsufficient},
		{NewUnsafeError(0), ErrCodeUnsafe},
		{NewLockBusyError("x"), ErrCodeLockBusy},
		{NewQueueFullError(0, 1), ErrCodeQueueFull},
		{NewTimeoutError(0, 1), ErrCodeTimeout},
		{NewInvalidStateError("x", 0, "y"), ErrCodeInvalidState},
		{NewFatalInitError("x", "y"), ErrCodeFatalInit},
	}
	for _, tc := range table {
		if got := GetErrorCode(tc.err); got != tc.code {
			t.Errorf("GetErrorCode(%v) = %v, want %v", tc.err, got, tc.code)
		}
	}
	if got := GetErrorCode(nil); got != ErrCodeNone {
		t.Errorf("GetErrorCode(nil) = %v, want ErrCodeNone", got)
	}
}
