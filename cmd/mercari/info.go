package main

import (
	"github.com/spf13/cobra"

	"mercari/internal/api"
	"mercari/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show database and catalog info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}
				resp.DBPath = cfg.DBPath

				if *jsonOutput {
					return writeJSON(resp)
				}

				_ = writePlain("db_path: %s\n", resp.DBPath)
				if resp.ImagesDir != "" {
					_ = writePlain("images_dir: %s\n", resp.ImagesDir)
				}
				_ = writePlain("schema_version: %d\n", resp.SchemaVersion)
				_ = writePlain("total_items: %d\n", resp.TotalItems)
				_ = writePlain("total_categories: %d\n", resp.TotalCategories)
				return nil
			})
		},
	}
	return cmd
}
