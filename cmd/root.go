// Package cmd is the agentbench command line: the dashboard server plus
// token management for people who prefer a terminal.
package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yeti47/agentbench/core/ccc/clock"
	"github.com/yeti47/agentbench/core/ccc/db"
	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/config"
	"github.com/yeti47/agentbench/core/encryption"
	"github.com/yeti47/agentbench/core/hygiene"
	"github.com/yeti47/agentbench/core/kvstore"
	"github.com/yeti47/agentbench/core/tokens"
)

// app carries what every command needs. Tests replace the streams, the
// clipboard and the clock.
type app struct {
	configPath string
	verbose    bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	reader *bufio.Reader

	clipboard hygiene.ClipboardWriter
	clock     clock.Clock
	cipher    *encryption.EnvelopeCipher

	cfg    *config.Config
	logger logging.Logger
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:        in,
		out:       out,
		errOut:    errOut,
		clipboard: hygiene.SystemClipboard,
		clock:     clock.Real,
		cipher:    encryption.NewEnvelopeCipher(nil),
		logger:    logging.NopLogger,
	}
}

// Execute runs the root command on the process streams. Interrupts cancel the
// command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newRootCommand(newApp(in, out, errOut))
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "agentbench",
		Short: "agentbench - test AI agent endpoints with locally encrypted bearer tokens",
		Long: `agentbench keeps bearer tokens for AI agent endpoints encrypted on disk
and serves a local dashboard for sending test requests with them.

Tokens are encrypted with a password of your choice and only decrypted while
you use them. Unlocked tokens are cleared after a period of inactivity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to the config file (default ~/agentbench/agentbench.json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newPasswordCommand(a))
	root.AddCommand(newTokenCommand(a))

	return root
}

func (a *app) loadConfig() error {
	path := a.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	level := logging.LogLevelWarn
	if a.verbose {
		level = logging.LogLevelDebug
	}
	a.logger = logging.CreateConsoleLogger(level, a.errOut)
	return nil
}

// openVault opens the token store the dashboard uses. The returned function
// closes the database.
func (a *app) openVault() (tokens.TokenVault, func(), error) {
	conn, err := db.OpenSQLite(a.cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := kvstore.NewSQLiteStore(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to create key-value store: %w", err)
	}

	vault := tokens.NewTokenVault(a.logger, tokens.NewTokenRepository(store), a.cipher)
	return vault, closer(conn), nil
}

func closer(conn *sql.DB) func() {
	return func() {
		conn.Close()
	}
}

// readSecret prompts for a value without echo when stdin is a terminal and
// reads one line otherwise. The caller wipes the result.
func (a *app) readSecret(prompt string) ([]byte, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.errOut, prompt)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return secret, nil
	}

	line, err := a.readLine(prompt)
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

func (a *app) readLine(prompt string) (string, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}

	fmt.Fprint(a.errOut, prompt)
	line, err := a.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
