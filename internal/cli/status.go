package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the backend is running",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	c, _, err := newBackendClient()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	msg, err := c.Health(cmd.Context())
	if globalFlags.JSON {
		status := map[string]any{"url": c.BaseURL, "up": err == nil, "message": msg}
		if encErr := json.NewEncoder(out).Encode(status); encErr != nil {
			return encErr
		}
		if err != nil {
			return backendErr(err)
		}
		return nil
	}
	s := newStyles(out, false)
	if err != nil {
		fmt.Fprintln(out, s.errPrefix(), "backend not reachable at", c.BaseURL)
		return backendErr(err)
	}
	fmt.Fprintln(out, s.kv("Backend", s.URL.Render(c.BaseURL)))
	fmt.Fprintln(out, s.kv("Status", s.Success.Render(msg)))
	return nil
}
