package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/dashboard"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		addr string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local dashboard",
		Long: `Starts the dashboard's JSON API on the configured address.

The dashboard binds to 127.0.0.1 by default. Unlocked tokens live only in the
server process and are cleared when it stops or the session times out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.WebAddr = addr
			}
			if cmd.Flags().Changed("port") {
				a.cfg.WebPort = port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			logger, logCloser := logging.CreateLogger(logging.LogLevel(a.cfg.LogLevel), a.cfg.LogPath, "dashboard")
			defer logCloser.Close()

			cmd.Printf("Dashboard running on http://%s:%d (Ctrl+C to stop)\n", a.cfg.WebAddr, a.cfg.WebPort)
			return dashboard.Run(cmd.Context(), a.cfg, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (overrides the config file)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides the config file)")

	return cmd
}
