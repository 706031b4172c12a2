package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercari/internal/config"
	"mercari/internal/format"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var outputName string
	var logLevel string

	cmd := &cobra.Command{
		Use:           "mercari",
		Short:         "Mercari is a small item listing service with a local image store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), warning)
			}

			if jsonOutput {
				outputName = "json"
			}
			formatter, ok, err := format.ForName(outputName)
			if err != nil {
				return err
			}
			if ok {
				outputFormatter = formatter
			}
			jsonOutput = ok
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON (same as --output json)")
	cmd.PersistentFlags().StringVarP(&outputName, "output", "o", "text", "output format: text, json, or yaml")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newAddCmd(cfg, &jsonOutput),
		newListCmd(cfg, &jsonOutput),
		newShowCmd(cfg, &jsonOutput),
		newSearchCmd(cfg, &jsonOutput),
		newCategoriesCmd(cfg, &jsonOutput),
		newImageCmd(cfg),
		newInfoCmd(cfg, &jsonOutput),
		newMigrateCmd(cfg, &jsonOutput),
		newConfigCmd(cfg, &jsonOutput),
	)

	return cmd
}
