package cli

import (
	"github.com/spf13/cobra"

	"solendir/internal/tui"
)

var chatPlain bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat against a running backend",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "print answers as plain text instead of rendered markdown")
}

func runChat(cmd *cobra.Command, _ []string) error {
	c, _, err := newBackendClient()
	if err != nil {
		return err
	}
	if _, err := c.Health(cmd.Context()); err != nil {
		return backendErr(err)
	}
	return tui.Run(cmd.Context(), c, tui.Options{
		BackendURL: c.BaseURL,
		Markdown:   !chatPlain,
	})
}
