package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func requireExactlyArgs(count int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != count {
			return errors.New(message)
		}
		return nil
	}
}

func requireAtMostArgs(max int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) > max {
			return errors.New(message)
		}
		return nil
	}
}

func requireItemID(cmd *cobra.Command, args []string) error {
	return requireExactlyArgs(1, "item id is required")(cmd, args)
}
