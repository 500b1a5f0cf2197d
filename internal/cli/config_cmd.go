package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"solendir/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + config.DefaultConfigPath,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print effective config as TOML (secrets redacted)",
	Args:  cobra.NoArgs,
	RunE:  runConfigPrint,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPrintCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := globalFlags.ConfigPath
	if path == "" {
		path = config.DefaultConfigPath
	}
	if err := config.WriteDefault(path, configForce); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
	return nil
}

func runConfigPrint(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	raw, err := config.Encode(cfg.Redacted())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = out.Write(raw)
	if cfg.Notion.Token != "" {
		s := newStyles(out, globalFlags.JSON)
		fmt.Fprintln(out, s.dim("# notion token: "+cfg.Redacted().Notion.Token))
	}
	return nil
}
