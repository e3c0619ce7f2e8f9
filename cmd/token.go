package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yeti47/agentbench/core/encryption"
	"github.com/yeti47/agentbench/core/hygiene"
	"github.com/yeti47/agentbench/core/passwords"
	"github.com/yeti47/agentbench/core/tokens"
)

func newTokenCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage encrypted bearer tokens",
		Long: `Adds, lists, re-encrypts and removes the bearer tokens the dashboard uses.
Tokens can be referenced by id or by name.`,
	}

	cmd.AddCommand(newTokenAddCommand(a))
	cmd.AddCommand(newTokenListCommand(a))
	cmd.AddCommand(newTokenDeleteCommand(a))
	cmd.AddCommand(newTokenPasswdCommand(a))
	cmd.AddCommand(newTokenCopyCommand(a))

	return cmd
}

// resolveToken finds a token by id, then by case-insensitive name.
func resolveToken(ctx context.Context, vault tokens.TokenVault, ref string) (*tokens.Token, error) {
	token, err := vault.GetToken(ctx, ref)
	if err == nil {
		return token, nil
	}
	if !tokens.IsTokenNotFoundError(err) {
		return nil, err
	}

	all, err := vault.ListTokens(ctx)
	if err != nil {
		return nil, err
	}
	for _, candidate := range all {
		if strings.EqualFold(candidate.Name, ref) {
			return candidate, nil
		}
	}
	return nil, tokens.NewTokenNotFoundError(ref)
}

// readNewPassword prompts for a password and its confirmation and applies the
// configured minimum strength.
func (a *app) readNewPassword(prompt string) ([]byte, error) {
	password, err := a.readSecret(prompt)
	if err != nil {
		return nil, err
	}
	confirmation, err := a.readSecret("Confirm password: ")
	if err != nil {
		hygiene.SecureWipe(password)
		return nil, err
	}
	defer hygiene.SecureWipe(confirmation)

	result, err := passwords.ValidateNewPassword(string(password), string(confirmation), a.cfg.MinimumStrength())
	if err != nil {
		hygiene.SecureWipe(password)
		if passwords.IsWeakPasswordError(err) {
			printStrength(a.errOut, result)
		}
		return nil, err
	}
	return password, nil
}

func newTokenAddCommand(a *app) *cobra.Command {
	var name, endpoint string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Encrypt and store a new token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vault, closeVault, err := a.openVault()
			if err != nil {
				return err
			}
			defer closeVault()

			secret, err := a.readSecret("Token: ")
			if err != nil {
				return err
			}
			defer hygiene.SecureWipe(secret)

			password, err := a.readNewPassword("Password: ")
			if err != nil {
				return err
			}
			defer hygiene.SecureWipe(password)

			token, err := vault.SaveToken(cmd.Context(), tokens.SaveTokenRequest{
				Name:     name,
				Endpoint: endpoint,
				Secret:   secret,
			}, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s Saved token %s (%s)\n", color.GreenString("✓"), color.CyanString(token.Name), token.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "display name for the token")
	cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "agent endpoint URL the token is used with")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("endpoint")

	return cmd
}

func newTokenListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored tokens",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vault, closeVault, err := a.openVault()
			if err != nil {
				return err
			}
			defer closeVault()

			list, err := vault.ListTokens(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "No tokens stored. Add one with 'agentbench token add'.")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tENDPOINT\tUPDATED")
			for _, token := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", token.ID, token.Name, token.Endpoint, token.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newTokenDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored token",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vault, closeVault, err := a.openVault()
			if err != nil {
				return err
			}
			defer closeVault()

			token, err := resolveToken(cmd.Context(), vault, args[0])
			if err != nil {
				return err
			}
			if err := vault.DeleteToken(cmd.Context(), token.ID); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s Deleted token %s\n", color.GreenString("✓"), color.CyanString(token.Name))
			return nil
		},
	}
}

func newTokenPasswdCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <id|name>",
		Short: "Re-encrypt a token under a new password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vault, closeVault, err := a.openVault()
			if err != nil {
				return err
			}
			defer closeVault()

			token, err := resolveToken(cmd.Context(), vault, args[0])
			if err != nil {
				return err
			}

			oldPassword, err := a.readSecret("Current password: ")
			if err != nil {
				return err
			}
			defer hygiene.SecureWipe(oldPassword)

			newPassword, err := a.readNewPassword("New password: ")
			if err != nil {
				return err
			}
			defer hygiene.SecureWipe(newPassword)

			if err := vault.ChangePassword(cmd.Context(), token.ID, oldPassword, newPassword); err != nil {
				return unlockError(err)
			}

			fmt.Fprintf(a.out, "%s Password changed for %s\n", color.GreenString("✓"), color.CyanString(token.Name))
			return nil
		},
	}
}

func newTokenCopyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <id|name>",
		Short: "Decrypt a token onto the clipboard",
		Long: `Decrypts a token and copies it to the clipboard. The command waits until the
clipboard is cleared again; interrupting it clears the clipboard immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vault, closeVault, err := a.openVault()
			if err != nil {
				return err
			}
			defer closeVault()

			token, err := resolveToken(cmd.Context(), vault, args[0])
			if err != nil {
				return err
			}

			password, err := a.readSecret("Password: ")
			if err != nil {
				return err
			}
			defer hygiene.SecureWipe(password)

			value, err := vault.UnlockToken(cmd.Context(), token.ID, password)
			if err != nil {
				return unlockError(err)
			}

			copier := hygiene.NewClipboardCopier(a.logger, a.clipboard, a.clock, a.cfg.ClipboardClearDelay())
			err = copier.CopyBytes(value, true)
			hygiene.SecureWipe(value)
			if err != nil {
				return err
			}

			delay := copier.ClearDelay()
			fmt.Fprintf(a.out, "%s Copied %s, clipboard clears in %d seconds\n",
				color.GreenString("✓"), color.CyanString(token.Name), int(delay.Seconds()))

			cleared := make(chan struct{})
			timer := a.clock.AfterFunc(delay, func() { close(cleared) })
			defer timer.Stop()

			select {
			case <-cleared:
			case <-cmd.Context().Done():
			}

			return copier.ClearNow()
		},
	}
}

// unlockError replaces decryption failures with the message the dashboard shows.
func unlockError(err error) error {
	if encryption.IsDecryptionError(err) {
		return errors.New("incorrect password or corrupted data")
	}
	return err
}
