package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/projreg/internal/config"
	"github.com/rpggio/projreg/internal/mcp"
)

type rootOptions struct {
	configPath string
	as         string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "projreg",
		Short:         "A registry of funded projects",
		Long:          `projreg tracks funded projects from proposal to final report and serves the registry over JSON-RPC and MCP.`,
		Version:       mcp.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default: $PROJREG_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&opts.as, "as", "",
		"principal for local commands (default: auth.default_principal, else admin.principal)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json",
		"output format: json or yaml")

	cmd.AddCommand(
		newServeCmd(opts),
		newProjectCmd(opts),
		newStatsCmd(opts),
		newEventsCmd(opts),
		newKeysCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// principal returns the identity local commands act as.
func (o *rootOptions) principal(cfg config.Config) string {
	if o.as != "" {
		return o.as
	}
	return cfg.LocalPrincipal()
}
