package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the Notion token stored by the backend",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store a Notion integration token (prompts with hidden input when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTokenSet,
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the stored Notion token",
	Args:  cobra.NoArgs,
	RunE:  runTokenClear,
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenClearCmd)
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	var token string
	if len(args) == 1 {
		token = strings.TrimSpace(args[0])
	} else {
		read, err := readToken("Notion integration token: ")
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		token = read
	}

	c, _, err := newBackendClient()
	if err != nil {
		return err
	}
	if err := c.SetToken(cmd.Context(), token); err != nil {
		return backendErr(err)
	}
	s := newStyles(cmd.OutOrStdout(), globalFlags.JSON)
	fmt.Fprintln(cmd.OutOrStdout(), s.notionState(true))
	return nil
}

func runTokenClear(cmd *cobra.Command, _ []string) error {
	c, _, err := newBackendClient()
	if err != nil {
		return err
	}
	if err := c.ClearToken(cmd.Context()); err != nil {
		return backendErr(err)
	}
	s := newStyles(cmd.OutOrStdout(), globalFlags.JSON)
	fmt.Fprintln(cmd.OutOrStdout(), s.notionState(false))
	return nil
}
