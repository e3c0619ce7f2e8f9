package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yeti47/agentbench/core/hygiene"
	"github.com/yeti47/agentbench/core/passwords"
)

func newPasswordCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password utilities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Rate a password the way the dashboard does",
		Long: `Reads a password from the terminal (or one line of stdin) and prints its
strength, score and suggestions. Nothing is stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readSecret("Password: ")
			if err != nil {
				return err
			}
			defer hygiene.SecureWipe(password)

			result := passwords.Evaluate(string(password))
			printStrength(a.out, result)

			if !result.Strength.AtLeast(a.cfg.MinimumStrength()) {
				fmt.Fprintf(a.out, "%s Tokens require at least a %s password\n",
					color.RedString("✗"), a.cfg.MinimumStrength())
			}
			return nil
		},
	})

	return cmd
}

func strengthString(s passwords.Strength) string {
	switch s {
	case passwords.Strong:
		return color.GreenString(string(s))
	case passwords.Medium:
		return color.YellowString(string(s))
	default:
		return color.RedString(string(s))
	}
}

func printStrength(w io.Writer, result passwords.Result) {
	fmt.Fprintf(w, "Strength: %s (score %d/6)\n", strengthString(result.Strength), result.Score)
	for _, feedback := range result.Feedback {
		fmt.Fprintf(w, "  %s %s\n", color.CyanString("→"), feedback)
	}
}
