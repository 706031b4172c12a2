package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercari/internal/config"
	"mercari/internal/store"
)

func newMigrateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var dryRun, inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database schema migrations",
		Long:  "Apply pending schema migrations to the catalog database. With --dry-run or --inspect the database is left untouched.",
		Args:  requireExactlyArgs(0, "usage: mercari migrate [--dry-run] [--inspect]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var status *store.MigrationStatus
			if dryRun || inspect {
				plan, err := store.Plan(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("inspect %s: %w", cfg.DBPath, err)
				}
				status = plan
			} else {
				st, err := store.Open(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("migrate %s: %w", cfg.DBPath, err)
				}
				defer st.Close()
				if !*jsonOutput {
					return writePlain("migrations applied to %s\n", st.Path())
				}
				if status, err = st.Migrations(); err != nil {
					return err
				}
			}

			if *jsonOutput {
				return writeJSON(status)
			}
			return writeMigrationPlan(status)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	cmd.Flags().BoolVar(&inspect, "inspect", false, "print the current schema version")
	return cmd
}

func writeMigrationPlan(status *store.MigrationStatus) error {
	if err := writePlain("current_version: %d\navailable_version: %d\n", status.CurrentVersion, status.AvailableVersion); err != nil {
		return err
	}
	if len(status.Pending) == 0 {
		return writePlain("no pending migrations\n")
	}
	for _, m := range status.Pending {
		if err := writePlain("pending %d: %s\n", m.Version, m.Description); err != nil {
			return err
		}
	}
	return nil
}
