package hygiene

import (
	"errors"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/yeti47/agentbench/core/ccc/clock"
	"github.com/yeti47/agentbench/core/ccc/logging"
)

// DefaultClipboardClearDelay is how long a copied secret stays on the clipboard.
const DefaultClipboardClearDelay = 60 * time.Second

// ClipboardWriter writes text to a clipboard. Read access is deliberately absent.
type ClipboardWriter interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

// SystemClipboard writes to the OS clipboard (xclip/xsel/wl-copy, pbcopy or the Windows API).
var SystemClipboard ClipboardWriter = systemClipboard{}

func (systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// ClipboardCopier copies secrets to the clipboard and clears them after a delay.
// Only one clear is pending at a time; a newer copy replaces the older clear.
type ClipboardCopier struct {
	logger     logging.Logger
	writer     ClipboardWriter
	clock      clock.Clock
	clearDelay time.Duration

	mu           sync.Mutex
	pendingClear clock.Timer
	generation   uint64
}

func NewClipboardCopier(logger logging.Logger, writer ClipboardWriter, clk clock.Clock, clearDelay time.Duration) *ClipboardCopier {
	if logger == nil {
		logger = logging.NopLogger
	}
	if writer == nil {
		writer = SystemClipboard
	}
	if clk == nil {
		clk = clock.Real
	}
	if clearDelay <= 0 {
		clearDelay = DefaultClipboardClearDelay
	}

	return &ClipboardCopier{
		logger:     logger,
		writer:     writer,
		clock:      clk,
		clearDelay: clearDelay,
	}
}

// Copy writes text to the clipboard. With autoClear the clipboard is overwritten
// with an empty string once the clear delay has passed.
func (c *ClipboardCopier) Copy(text string, autoClear bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A failed write leaves the previous value and its pending clear in place.
	if err := c.writer.WriteAll(text); err != nil {
		c.logger.Warn("Failed to write to clipboard", "error", err)
		return NewClipboardError("write", err)
	}

	c.cancelPendingLocked()

	if !autoClear {
		return nil
	}

	c.generation++
	gen := c.generation
	c.pendingClear = c.clock.AfterFunc(c.clearDelay, func() {
		c.clearIfCurrent(gen)
	})

	c.logger.Debug("Scheduled clipboard clear", "delay", c.clearDelay)
	return nil
}

// CopyBytes copies a byte secret. The string copy handed to the clipboard
// library cannot be wiped; buf itself is left to the caller.
func (c *ClipboardCopier) CopyBytes(buf []byte, autoClear bool) error {
	return c.Copy(string(buf), autoClear)
}

// ClearNow cancels any pending clear and clears the clipboard immediately.
func (c *ClipboardCopier) ClearNow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelPendingLocked()
	if err := c.writer.WriteAll(""); err != nil {
		return NewClipboardError("clear", err)
	}
	return nil
}

func (c *ClipboardCopier) ClearDelay() time.Duration {
	return c.clearDelay
}

// HasPendingClear reports whether an automatic clear is scheduled.
func (c *ClipboardCopier) HasPendingClear() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingClear != nil
}

func (c *ClipboardCopier) clearIfCurrent(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.pendingClear == nil {
		return
	}
	c.pendingClear = nil

	if err := c.writer.WriteAll(""); err != nil {
		c.logger.Warn("Failed to clear clipboard", "error", err)
		return
	}
	c.logger.Debug("Clipboard cleared")
}

func (c *ClipboardCopier) cancelPendingLocked() {
	if c.pendingClear != nil {
		c.pendingClear.Stop()
		c.pendingClear = nil
	}
	c.generation++
}
