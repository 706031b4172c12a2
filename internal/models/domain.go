package models

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultImageName is the sentinel image used when an item has no upload.
	DefaultImageName = "default.jpg"
	// ImageExt is the only extension served by the image endpoint.
	ImageExt = ".jpg"
)

// ParseItemName trims and validates an item name.
func ParseItemName(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("name is required")
	}
	return value, nil
}

// ParseCategoryName trims and validates a category name. Case is preserved.
func ParseCategoryName(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("category is required")
	}
	return value, nil
}

// ParseItemID parses a positive integer item id.
func ParseItemID(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("id is required")
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %s", value)
	}
	return id, nil
}

// HasImageExt reports whether name carries the served image extension.
func HasImageExt(name string) bool {
	return strings.HasSuffix(name, ImageExt)
}
