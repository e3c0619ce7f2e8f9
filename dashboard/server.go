// Package dashboard serves the local JSON API the browser UI talks to.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yeti47/agentbench/core/agents"
	"github.com/yeti47/agentbench/core/ccc/auth"
	"github.com/yeti47/agentbench/core/ccc/db"
	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/config"
	"github.com/yeti47/agentbench/core/encryption"
	"github.com/yeti47/agentbench/core/hygiene"
	"github.com/yeti47/agentbench/core/kvstore"
	"github.com/yeti47/agentbench/core/tokens"
	"github.com/yeti47/agentbench/dashboard/guard"
	"github.com/yeti47/agentbench/dashboard/sessions"
)

const shutdownTimeout = 10 * time.Second

// Run starts the dashboard and blocks until ctx is cancelled or the server fails.
// Unlocked tokens are cleared on the way out.
func Run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NopLogger
	}

	dbConn, err := db.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer dbConn.Close()

	store, err := kvstore.NewSQLiteStore(dbConn)
	if err != nil {
		return fmt.Errorf("failed to create key-value store: %w", err)
	}

	sessionKey, err := sessions.GetOrCreateSessionKey(cfg.SessionKeyPath)
	if err != nil {
		return fmt.Errorf("failed to get or create session key: %w", err)
	}

	vault := tokens.NewTokenVault(logger, tokens.NewTokenRepository(store), encryption.NewEnvelopeCipher(nil))
	unlocked := tokens.NewUnlockedTokens()

	sessionGuard := guard.NewSessionGuard(logger, vault, unlocked, guard.Options{
		Timeout:     cfg.SessionTimeout(),
		Warning:     cfg.SessionWarning(),
		PurgeStored: cfg.PurgeStoredOnTimeout,
	})
	defer sessionGuard.Stop()

	tracker := auth.NewMemoryFailureTracker(auth.LockoutSettings{
		Threshold:  cfg.UnlockFailureThreshold,
		TimeWindow: cfg.UnlockFailureWindow(),
	})

	copier := hygiene.NewClipboardCopier(logger, hygiene.SystemClipboard, nil, cfg.ClipboardClearDelay())

	router := NewRouter(cfg, logger, Dependencies{
		Vault:        vault,
		Unlocked:     unlocked,
		Tracker:      tracker,
		Guard:        sessionGuard,
		Copier:       copier,
		AgentClient:  agents.NewAgentClient(logger, cfg.AgentTimeout()),
		SessionStore: sessions.NewCookieStore(sessionKey),
	})

	addr := fmt.Sprintf("%s:%d", cfg.WebAddr, cfg.WebPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Dashboard listening", "address", addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dashboard server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down dashboard")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down dashboard: %w", err)
	}
	return nil
}
