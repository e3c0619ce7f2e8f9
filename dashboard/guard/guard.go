// Package guard ties the dashboard's unlocked tokens to an inactivity monitor
// and carries out the purge when the session times out.
package guard

import (
	"context"
	"sync"
	"time"

	"github.com/yeti47/agentbench/core/ccc/clock"
	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/inactivity"
	"github.com/yeti47/agentbench/core/tokens"
)

const (
	StateLocked  = "locked"
	StateActive  = "active"
	StateWarned  = "warned"
	StateExpired = "expired"
)

type Options struct {
	Timeout time.Duration
	Warning time.Duration
	// PurgeStored deletes every saved token from the store on timeout.
	PurgeStored bool
	Clock       clock.Clock
}

// Status is what the dashboard polls to render the timeout banner.
type Status struct {
	State               string   `json:"state"`
	MinutesUntilTimeout int      `json:"minutes_until_timeout"`
	Warning             bool     `json:"warning"`
	WarningMinutes      int      `json:"warning_minutes,omitempty"`
	UnlockedTokens      []string `json:"unlocked_tokens"`
	PurgedTokens        int      `json:"purged_tokens,omitempty"`
}

type SessionGuard struct {
	mu       sync.Mutex
	logger   logging.Logger
	vault    tokens.TokenVault
	unlocked *tokens.UnlockedTokens
	opts     Options

	source  *inactivity.Broadcaster
	monitor *inactivity.Monitor

	warningMinutes int
	expired        bool
	purged         int
}

func NewSessionGuard(logger logging.Logger, vault tokens.TokenVault, unlocked *tokens.UnlockedTokens, opts Options) *SessionGuard {
	if logger == nil {
		logger = logging.NopLogger
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real
	}
	if opts.Timeout <= 0 {
		opts.Timeout = inactivity.DefaultTimeout
	}
	if opts.Warning <= 0 || opts.Warning >= opts.Timeout {
		opts.Warning = min(inactivity.DefaultWarning, opts.Timeout/2)
	}

	return &SessionGuard{
		logger:   logger,
		vault:    vault,
		unlocked: unlocked,
		opts:     opts,
		source:   inactivity.NewBroadcaster(),
	}
}

// Start arms the inactivity monitor. It is called whenever a token is unlocked;
// a running monitor is reset and an expired one restarted.
func (g *SessionGuard) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expired = false
	g.warningMinutes = 0
	g.purged = 0

	if g.monitor != nil {
		return g.monitor.Restart()
	}

	monitor, err := inactivity.NewMonitor(inactivity.Options{
		Timeout:   g.opts.Timeout,
		Warning:   g.opts.Warning,
		OnWarning: g.handleWarning,
		OnTimeout: g.handleTimeout,
		Source:    g.source,
		Clock:     g.opts.Clock,
		Logger:    g.logger,
	})
	if err != nil {
		return err
	}
	g.monitor = monitor

	g.logger.Info("Session guard started", "timeout", g.opts.Timeout.String(), "warning", g.opts.Warning.String())
	return nil
}

// Activity forwards a user interaction to the monitor. It reports whether a
// running monitor received it.
func (g *SessionGuard) Activity(kind inactivity.ActivityKind) bool {
	g.mu.Lock()
	running := g.monitor != nil && !g.expired
	if running {
		g.warningMinutes = 0
	}
	g.mu.Unlock()

	if !running {
		return false
	}
	return g.source.Emit(kind) > 0
}

func (g *SessionGuard) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	status := Status{
		State:          StateLocked,
		UnlockedTokens: g.unlocked.IDs(),
		PurgedTokens:   g.purged,
	}

	switch {
	case g.expired:
		status.State = StateExpired
	case g.monitor != nil:
		status.MinutesUntilTimeout = g.monitor.MinutesUntilTimeout()
		switch g.monitor.State() {
		case inactivity.Warned:
			status.State = StateWarned
			status.Warning = true
			status.WarningMinutes = g.warningMinutes
		case inactivity.Expired:
			status.State = StateExpired
		default:
			status.State = StateActive
		}
	}
	return status
}

// Lock clears every unlocked token and stops the monitor without purging the store.
func (g *SessionGuard) Lock() int {
	g.mu.Lock()
	g.stopLocked()
	g.mu.Unlock()

	cleared := g.unlocked.Clear()
	g.logger.Info("Session locked", "cleared", cleared)
	return cleared
}

// Stop is Lock for shutdown.
func (g *SessionGuard) Stop() {
	g.Lock()
}

// IsExpired reports whether the last session ended by timeout.
func (g *SessionGuard) IsExpired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expired
}

func (g *SessionGuard) stopLocked() {
	if g.monitor != nil {
		g.monitor.Destroy()
		g.monitor = nil
	}
	g.warningMinutes = 0
	g.expired = false
}

func (g *SessionGuard) handleWarning(minutesRemaining int) {
	g.mu.Lock()
	g.warningMinutes = minutesRemaining
	g.mu.Unlock()

	g.logger.Warn("Session will time out soon", "minutes_remaining", minutesRemaining)
}

func (g *SessionGuard) handleTimeout() {
	cleared := g.unlocked.Clear()

	purged := 0
	if g.opts.PurgeStored && g.vault != nil {
		count, err := g.vault.PurgeAll(context.Background())
		if err != nil {
			g.logger.Error("Failed to purge stored tokens on timeout", "error", err)
		}
		purged = count
	}

	g.mu.Lock()
	g.expired = true
	g.warningMinutes = 0
	g.purged = purged
	g.mu.Unlock()

	g.logger.Warn("Session expired", "cleared", cleared, "purged", purged)
}
