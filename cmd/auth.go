package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsort/internal/google"
	"github.com/teemow/inboxsort/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		account string
		code    string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize read access to Gmail",
		Long: `Auth runs the Google OAuth flow for one account and stores the token in
the user cache directory. GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be
set.

Without --code the authorization URL is printed and the code is read from
stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if account == "" {
				account = cfg.Gmail.Account
			}
			return runAuth(cmd, account, code, force)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account name (default: configured account)")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent page")
	cmd.Flags().BoolVar(&force, "force", false, "Re-authorize even if a token exists")

	return cmd
}

func runAuth(cmd *cobra.Command, account, code string, force bool) error {
	out := cmd.OutOrStdout()
	if google.HasTokenForAccount(account) && !force {
		fmt.Fprintf(out, "Account %q is already authorized (use --force to re-authorize)\n", account)
		return nil
	}

	if code == "" {
		authURL, err := google.GetAuthURL()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Open this URL in your browser to authorize account %q:\n\n%s\n\nEnter the authorization code: ", account, authURL)

		code, err = readCode(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	if err := google.SaveTokenForAccount(cmd.Context(), account, code); err != nil {
		return err
	}
	logger.Info("stored Gmail token", logging.Account(account))
	fmt.Fprintf(out, "Account %q authorized\n", account)
	return nil
}

func readCode(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", fmt.Errorf("no authorization code given")
	}
	return code, nil
}
