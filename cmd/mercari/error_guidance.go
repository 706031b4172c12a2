package main

import (
	"context"
	"errors"
	"net"
	"slices"

	"mercari/internal/api"
	"mercari/internal/server"
)

var hintsByErrorCode = map[int]string{
	server.ErrCodeMissingRequired:  "hint: items need both a name and a category, e.g. mercari add jacket --category fashion",
	server.ErrCodeInvalidID:        "hint: item ids are positive integers; see mercari list",
	server.ErrCodeItemNotFound:     "hint: see mercari list or mercari search for existing items",
	server.ErrCodeInvalidImageName: "hint: image names look like <sha256>.jpg; see the image_name of an item",
	server.ErrCodeInvalidMediaType: "hint: the server only accepts the image types listed in images.allowed_media_types.",
	server.ErrCodeRequestTooLarge:  "hint: the image exceeds images.max_upload_bytes on the server.",
}

var unreachableHints = []string{
	"hint: ensure a mercari server is running at MERCARI_API_URL.",
	"hint: start local server manually with: mercari srv",
	"hint: you can increase MERCARI_HTTP_TIMEOUT for slower environments.",
}

// formatCLIError renders err followed by any hints that apply to it.
func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}
	lines := []string{err.Error()}

	var apiErr *api.APIError
	var netErr net.Error
	switch {
	case errors.As(err, &apiErr):
		if !apiErr.FromServer() {
			lines = append(lines, "hint: verify MERCARI_API_URL points to a mercari server.")
		}
		if hint, ok := hintsByErrorCode[apiErr.ErrorCode]; ok {
			lines = append(lines, hint)
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
	case errors.Is(err, context.DeadlineExceeded):
		lines = append(lines, "hint: request timed out; check server health or increase MERCARI_HTTP_TIMEOUT.")
	case errors.As(err, &netErr):
		lines = append(lines, unreachableHints...)
	}
	return slices.Compact(lines)
}
