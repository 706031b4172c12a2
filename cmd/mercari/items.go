package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercari/internal/api"
	"mercari/internal/config"
)

func newAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var category string
	var imagePath string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "List a new item",
		Args:  requireExactlyArgs(1, "item name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.AddItemRequest{Name: args[0], Category: category}
			if strings.TrimSpace(imagePath) != "" {
				f, err := os.Open(imagePath)
				if err != nil {
					return fmt.Errorf("open image: %w", err)
				}
				defer f.Close()
				req.Image = f
				req.ImageFilename = filepath.Base(imagePath)
			}

			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				resp, err := client.AddItem(cmd.Context(), req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%d: %s\n", resp.ID, resp.Message)
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "item category (created on first use)")
	cmd.Flags().StringVar(&imagePath, "image", "", "path to a JPEG image to upload")
	return cmd
}

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				items, err := client.ListItems(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.ItemListResponse{Items: items})
				}
				return writeItemList(items)
			})
		},
	}
}

func newShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single item",
		Args:  requireItemID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid item id %q", args[0])
			}

			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				item, err := client.GetItem(cmd.Context(), id)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(item)
				}
				return writeItemDetail(item)
			})
		},
	}
}

func newSearchCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search items by name",
		Long:  "Search items whose name contains keyword. An empty keyword matches every item.",
		Args:  requireAtMostArgs(1, "search takes a single keyword; quote it if it contains spaces"),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}

			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				items, err := client.Search(cmd.Context(), keyword)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.ItemListResponse{Items: items})
				}
				return writeItemList(items)
			})
		},
	}
}

func newCategoriesCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List known categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(client *api.Client) error {
				categories, err := client.ListCategories(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.CategoryListResponse{Categories: categories})
				}
				return writeCategoryList(categories)
			})
		},
	}
}
