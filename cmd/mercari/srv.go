package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercari/internal/blobstore"
	"mercari/internal/config"
	"mercari/internal/server"
	"mercari/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the mercari API server",
		Long:  "Serve the HTTP API on the address in api_url until interrupted.",
		Args:  requireExactlyArgs(0, "usage: mercari srv"),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, closeStores, err := buildServer(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeStores()
			return srv.Run(cmd.Context())
		},
	}
}

// buildServer opens the catalog and image store named by cfg and wires them
// into a server. The returned func closes the catalog.
func buildServer(cmd *cobra.Command, cfg *config.Config) (*server.Server, func(), error) {
	switch {
	case cfg.DBPath == "":
		return nil, nil, errors.New("db path is required")
	case cfg.ImagesDir == "":
		return nil, nil, errors.New("images dir is required")
	}
	addr, err := server.ListenAddr(cfg.APIURL)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.Default().With("component", "server")
	catalog, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog %s: %w", cfg.DBPath, err)
	}
	images, err := blobstore.NewLocalImages(cfg.ImagesDir)
	if err == nil {
		err = images.EnsureDefault(cmd.Context())
	}
	if err != nil {
		catalog.Close()
		return nil, nil, fmt.Errorf("prepare image store %s: %w", cfg.ImagesDir, err)
	}
	logger.Info("stores ready", "db", catalog.Path(), "images", images.Root())

	srv := server.New(addr, catalog, images, logger)
	srv.ConfigureImageOptions(server.ImageOptions{
		MaxUploadBytes:     cfg.Images.MaxUploadBytes,
		MultipartMaxMemory: cfg.Images.MultipartMaxMemory,
		AllowedMediaTypes:  cfg.Images.AllowedMediaTypes,
	})
	srv.ConfigureCORS(cfg.FrontURL)
	srv.SetImagesDir(images.Root())
	return srv, func() { catalog.Close() }, nil
}
