package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lichtwerk/internal/config"
	"lichtwerk/internal/logging"
)

func newRootCommand() *cobra.Command {
	var configPath string
	var bind string

	cmd := &cobra.Command{
		Use:           "lichtwerkd",
		Short:         "Serve the Lichtwerk job store over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(strings.TrimSpace(configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if bind = strings.TrimSpace(bind); bind != "" {
				cfg.Paths.APIBind = bind
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			logger, err := logging.NewFromConfig(cfg, true)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return run(cmd.Context(), cfg, logger, nil)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	return cmd
}
