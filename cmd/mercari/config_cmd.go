package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercari/internal/config"
)

func newConfigCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or write mercari settings",
		Long:  "Keys: " + strings.Join(config.AllowedKeys(), ", "),
	}

	var global bool
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a key to ./.mercari.toml, or ~/.mercari.toml with --global",
		Args:  requireExactlyArgs(2, "usage: mercari config set <key> <value>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathFor := config.ProjectPath
			if global {
				pathFor = config.GlobalPath
			}
			path, err := pathFor()
			if err != nil {
				return err
			}
			if err := config.SetKey(path, args[0], args[1]); err != nil {
				return err
			}
			return writePlain("%s written to %s\n", args[0], path)
		},
	}
	set.Flags().BoolVar(&global, "global", false, "write to the global config file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the effective value of a key",
			Args:  requireExactlyArgs(1, "usage: mercari config get <key>"),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := cfg.Get(args[0])
				if err != nil {
					return fmt.Errorf("%w (known keys: %s)", err, strings.Join(config.AllowedKeys(), ", "))
				}
				return writePlain("%s\n", value)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print every effective key and value",
			Args:  requireExactlyArgs(0, "usage: mercari config list"),
			RunE: func(cmd *cobra.Command, args []string) error {
				return writeConfigValues(cfg, *jsonOutput)
			},
		},
		set,
	)
	return cmd
}

func writeConfigValues(cfg *config.Config, structured bool) error {
	keys := config.AllowedKeys()
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		values[key] = value
	}
	if structured {
		return writeJSON(values)
	}
	for _, key := range keys {
		if err := writePlain("%s = %s\n", key, values[key]); err != nil {
			return err
		}
	}
	return nil
}
