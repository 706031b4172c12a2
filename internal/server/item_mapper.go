package server

import (
	"mercari/internal/api"
	"mercari/internal/models"
)

func toItemResponse(item models.Item) api.ItemResponse {
	return api.ItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Category:  item.Category,
		ImageName: item.ImageName,
	}
}

func toItemResponses(items []models.Item) []api.ItemResponse {
	out := make([]api.ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	return out
}

func toCategoryResponses(categories []models.Category) []api.CategoryResponse {
	out := make([]api.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, api.CategoryResponse{ID: c.ID, Name: c.Name})
	}
	return out
}
