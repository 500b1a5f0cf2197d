package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one chat message to a running backend and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	c, _, err := newBackendClient()
	if err != nil {
		return err
	}
	answer, err := c.Chat(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return backendErr(err)
	}
	out := cmd.OutOrStdout()
	if globalFlags.JSON {
		return json.NewEncoder(out).Encode(map[string]string{"response": answer})
	}
	fmt.Fprintln(out, answer)
	return nil
}
