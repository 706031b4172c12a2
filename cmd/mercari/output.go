package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"mercari/internal/api"
	"mercari/internal/format"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

var stdout io.Writer = os.Stdout

func writeJSON(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

func writeItemList(items []api.ItemResponse) error {
	if len(items) == 0 {
		return writePlain("no items\n")
	}
	for _, item := range items {
		if err := writePlain("%s\n", formatItemLine(item)); err != nil {
			return err
		}
	}
	return nil
}

func writeItemDetail(item api.ItemResponse) error {
	lines := []string{
		fmt.Sprintf("id: %d", item.ID),
		fmt.Sprintf("name: %s", item.Name),
		fmt.Sprintf("category: %s", item.Category),
		fmt.Sprintf("image_name: %s", item.ImageName),
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeCategoryList(categories []api.CategoryResponse) error {
	for _, category := range categories {
		if err := writePlain("%d\t%s\n", category.ID, category.Name); err != nil {
			return err
		}
	}
	return nil
}

func formatItemLine(item api.ItemResponse) string {
	return fmt.Sprintf("%d\t%s [%s] %s", item.ID, item.Name, item.Category, item.ImageName)
}
