package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"solendir/internal/client"
	"solendir/internal/notion"
)

var pagesCursor string

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List pages and databases visible to the stored Notion token",
	Args:  cobra.NoArgs,
	RunE:  runPages,
}

func init() {
	pagesCmd.Flags().StringVar(&pagesCursor, "cursor", "", "start cursor from a previous page's next_cursor")
}

func runPages(cmd *cobra.Command, _ []string) error {
	c, _, err := newBackendClient()
	if err != nil {
		return err
	}
	raw, err := c.Pages(cmd.Context(), pagesCursor)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return err
		}
		return backendErr(err)
	}

	out := cmd.OutOrStdout()
	if globalFlags.JSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("format response: %w", err)
		}
		fmt.Fprintln(out, buf.String())
		return nil
	}

	s := newStyles(out, false)
	items := notion.ExtractItems(raw)
	if len(items) == 0 {
		fmt.Fprintln(out, s.dim("No pages or databases are shared with this integration."))
		return nil
	}
	fmt.Fprintln(out, s.header(fmt.Sprintf("Workspace items (%d)", len(items))))
	for i, line := range notion.Summaries(items) {
		fmt.Fprintln(out, s.item(i+1, line))
	}
	if gjson.GetBytes(raw, "has_more").Bool() {
		fmt.Fprintln(out, s.dim("more: solendir pages --cursor "+gjson.GetBytes(raw, "next_cursor").String()))
	}
	return nil
}
