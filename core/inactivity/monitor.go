// Package inactivity implements the idle-session state machine: a warning
// shortly before the timeout and a single timeout notification, both pushed
// back by user activity.
package inactivity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yeti47/agentbench/core/ccc/clock"
	"github.com/yeti47/agentbench/core/ccc/logging"
)

const (
	DefaultTimeout = 30 * time.Minute
	DefaultWarning = 5 * time.Minute
)

var ErrMonitorDestroyed = errors.New("inactivity monitor has been destroyed")

type State int

const (
	Active State = iota
	Warned
	Expired
	Destroyed
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Warned:
		return "warned"
	case Expired:
		return "expired"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

type Options struct {
	Timeout time.Duration
	// Warning is how long before the timeout OnWarning fires.
	Warning time.Duration

	OnWarning func(minutesRemaining int)
	OnTimeout func()

	// Source is optional; without one, activity is reported through ResetTimer.
	Source ActivitySource
	Clock  clock.Clock
	Logger logging.Logger
}

// Monitor tracks user inactivity with one warning timer and one expiry timer.
// Callbacks run without the monitor's lock held and may call back into it.
type Monitor struct {
	mu sync.Mutex

	timeout   time.Duration
	warning   time.Duration
	onWarning func(int)
	onTimeout func()

	source       ActivitySource
	subscription Subscription
	clock        clock.Clock
	logger       logging.Logger

	state        State
	lastActivity time.Time

	// generation is bumped on every reschedule so that timers which fire
	// after being superseded are ignored.
	generation   uint64
	warningTimer clock.Timer
	expiryTimer  clock.Timer
}

// NewMonitor validates opts, starts in Active and schedules both timers.
func NewMonitor(opts Options) (*Monitor, error) {
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", opts.Timeout)
	}
	if opts.Warning <= 0 || opts.Warning >= opts.Timeout {
		return nil, fmt.Errorf("warning must be positive and shorter than the timeout, got %v for timeout %v", opts.Warning, opts.Timeout)
	}

	if opts.Clock == nil {
		opts.Clock = clock.Real
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger
	}

	m := &Monitor{
		timeout:   opts.Timeout,
		warning:   opts.Warning,
		onWarning: opts.OnWarning,
		onTimeout: opts.OnTimeout,
		source:    opts.Source,
		clock:     opts.Clock,
		logger:    opts.Logger,
		state:     Active,
	}

	m.mu.Lock()
	m.lastActivity = m.clock.Now()
	m.scheduleLocked()
	m.mu.Unlock()

	if m.source != nil {
		m.subscription = m.source.Subscribe(QualifyingKinds, m.handleActivity)
	}

	return m, nil
}

func (m *Monitor) handleActivity(kind ActivityKind) {
	if m.ResetTimer() {
		m.logger.Debug("Inactivity timer reset", "activity", string(kind))
	}
}

// ResetTimer records activity now and reschedules both timers. It is ignored
// once the monitor has expired or been destroyed and reports whether it applied.
func (m *Monitor) ResetTimer() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Expired || m.state == Destroyed {
		return false
	}

	m.lastActivity = m.clock.Now()
	m.state = Active
	m.scheduleLocked()
	return true
}

// Restart re-arms an expired (or running) monitor as if activity just occurred.
func (m *Monitor) Restart() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Destroyed {
		return ErrMonitorDestroyed
	}

	m.lastActivity = m.clock.Now()
	m.state = Active
	m.scheduleLocked()

	m.logger.Info("Inactivity monitor restarted", "timeout", m.timeout.String())
	return nil
}

// Destroy cancels both timers and detaches from the activity source. It is
// valid in any state; no callback starts after it returns.
func (m *Monitor) Destroy() {
	m.mu.Lock()
	if m.state == Destroyed {
		m.mu.Unlock()
		return
	}
	m.state = Destroyed
	m.stopTimersLocked()
	m.generation++
	source, sub := m.source, m.subscription
	m.mu.Unlock()

	if source != nil {
		source.Unsubscribe(sub)
	}
}

// MinutesUntilTimeout is the remaining idle time rounded up to whole minutes,
// never negative. It does not change any state.
func (m *Monitor) MinutesUntilTimeout() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining := m.timeout - m.clock.Now().Sub(m.lastActivity)
	return ceilMinutes(remaining)
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// scheduleLocked cancels any pending timers and schedules fresh ones from
// lastActivity. Callers must hold m.mu.
func (m *Monitor) scheduleLocked() {
	m.stopTimersLocked()
	m.generation++
	gen := m.generation

	m.warningTimer = m.clock.AfterFunc(m.timeout-m.warning, func() { m.fireWarning(gen) })
	m.expiryTimer = m.clock.AfterFunc(m.timeout, func() { m.fireExpiry(gen) })
}

func (m *Monitor) stopTimersLocked() {
	if m.warningTimer != nil {
		m.warningTimer.Stop()
		m.warningTimer = nil
	}
	if m.expiryTimer != nil {
		m.expiryTimer.Stop()
		m.expiryTimer = nil
	}
}

func (m *Monitor) fireWarning(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.state != Active {
		m.mu.Unlock()
		return
	}
	m.state = Warned
	m.warningTimer = nil
	minutes := ceilMinutes(m.warning)
	callback := m.onWarning
	m.mu.Unlock()

	m.logger.Info("Session inactivity warning", "minutes_remaining", minutes)

	if callback != nil {
		m.invoke("warning", func() { callback(minutes) })
	}
}

func (m *Monitor) fireExpiry(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || (m.state != Active && m.state != Warned) {
		m.mu.Unlock()
		return
	}
	m.state = Expired
	m.stopTimersLocked()
	callback := m.onTimeout
	m.mu.Unlock()

	m.logger.Warn("Session timed out due to inactivity", "timeout", m.timeout.String())

	if callback != nil {
		m.invoke("timeout", callback)
	}
}

// invoke runs a callback so that a panic in it cannot break later timers.
func (m *Monitor) invoke(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Inactivity callback panicked", "callback", name, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}
