package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mercari/internal/api"
	"mercari/internal/config"
)

func newImageCmd(cfg *config.Config) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "image <name>",
		Short: "Download a stored image",
		Long:  "Download a stored image by file name. Unknown names return the default image. Use --file - to write to stdout.",
		Args:  requireExactlyArgs(1, "image name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			target := dest
			if target == "" {
				target = filepath.Base(name)
			}

			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				if target == "-" {
					_, err := client.GetImage(cmd.Context(), name, os.Stdout)
					return err
				}

				f, err := os.CreateTemp(filepath.Dir(target), ".mercari-image-*")
				if err != nil {
					return err
				}
				tmpPath := f.Name()
				defer os.Remove(tmpPath)

				contentType, err := client.GetImage(cmd.Context(), name, f)
				if closeErr := f.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					return err
				}
				if err := os.Rename(tmpPath, target); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", target, contentType)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dest, "file", "f", "", "destination path (default: ./<name>)")
	return cmd
}
