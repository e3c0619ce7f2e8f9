package auth

import (
	"sync"
	"time"
)

// FailureRecord is a single failed unlock attempt
type FailureRecord struct {
	TokenID   string
	RemoteIP  string
	Timestamp time.Time
}

// UnlockFailureTracker counts failed unlock attempts per token within a sliding window
type UnlockFailureTracker interface {
	// RecordFailure records a failed unlock and returns the token's failure count within the window
	RecordFailure(tokenID string, remoteIP string, timestamp time.Time) int
	// FailureCount returns the token's failure count within the window ending at now
	FailureCount(tokenID string, now time.Time) int
	// ShouldLockOut returns true if failureCount reaches the lockout threshold
	ShouldLockOut(failureCount int) bool
	// Reset forgets all failures of a token, e.g. after a successful unlock
	Reset(tokenID string)
}

// LockoutSettings holds configuration for unlock lockout
type LockoutSettings struct {
	Threshold  int           // Number of failures that lock a token out (0 to disable)
	TimeWindow time.Duration // Time window for counting failures
}

// nopFailureTracker never locks anything out
type nopFailureTracker struct{}

var NopFailureTracker UnlockFailureTracker = &nopFailureTracker{}

func (n *nopFailureTracker) RecordFailure(tokenID string, remoteIP string, timestamp time.Time) int {
	return 0
}

func (n *nopFailureTracker) FailureCount(tokenID string, now time.Time) int {
	return 0
}

func (n *nopFailureTracker) ShouldLockOut(failureCount int) bool {
	return false
}

func (n *nopFailureTracker) Reset(tokenID string) {}

// memoryFailureTracker keeps failure records in memory
type memoryFailureTracker struct {
	settings      LockoutSettings
	failures      []FailureRecord
	failuresMutex sync.Mutex
}

// NewMemoryFailureTracker creates a new in-memory failure tracker
func NewMemoryFailureTracker(settings LockoutSettings) UnlockFailureTracker {
	return &memoryFailureTracker{
		settings: settings,
		failures: make([]FailureRecord, 0),
	}
}

func (t *memoryFailureTracker) ShouldLockOut(failureCount int) bool {
	return t.settings.Threshold > 0 && failureCount >= t.settings.Threshold
}

func (t *memoryFailureTracker) RecordFailure(tokenID string, remoteIP string, timestamp time.Time) int {
	t.failuresMutex.Lock()
	defer t.failuresMutex.Unlock()

	t.failures = append(t.failures, FailureRecord{
		TokenID:   tokenID,
		RemoteIP:  remoteIP,
		Timestamp: timestamp,
	})

	t.pruneLocked(timestamp)
	return t.countLocked(tokenID, timestamp)
}

func (t *memoryFailureTracker) FailureCount(tokenID string, now time.Time) int {
	t.failuresMutex.Lock()
	defer t.failuresMutex.Unlock()

	t.pruneLocked(now)
	return t.countLocked(tokenID, now)
}

func (t *memoryFailureTracker) Reset(tokenID string) {
	t.failuresMutex.Lock()
	defer t.failuresMutex.Unlock()

	remaining := t.failures[:0]
	for _, failure := range t.failures {
		if failure.TokenID != tokenID {
			remaining = append(remaining, failure)
		}
	}
	t.failures = remaining
}

// pruneLocked drops records older than the window ending at now
func (t *memoryFailureTracker) pruneLocked(now time.Time) {
	cutoffTime := now.Add(-t.settings.TimeWindow)
	validFailures := make([]FailureRecord, 0, len(t.failures))
	for _, failure := range t.failures {
		if !failure.Timestamp.Before(cutoffTime) {
			validFailures = append(validFailures, failure)
		}
	}
	t.failures = validFailures
}

func (t *memoryFailureTracker) countLocked(tokenID string, now time.Time) int {
	cutoffTime := now.Add(-t.settings.TimeWindow)
	count := 0
	for _, failure := range t.failures {
		if failure.TokenID == tokenID && !failure.Timestamp.Before(cutoffTime) && !failure.Timestamp.After(now) {
			count++
		}
	}
	return count
}
