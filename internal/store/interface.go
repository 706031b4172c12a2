package store

import (
	"context"

	"mercari/internal/models"
)

// CatalogStore abstracts category and item persistence.
type CatalogStore interface {
	ResolveCategory(ctx context.Context, name string) (int64, error)
	AddItem(ctx context.Context, item models.Item) (int64, error)
	CreateItem(ctx context.Context, name, category, imageName string) (models.Item, error)
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	SearchItems(ctx context.Context, keyword string) ([]models.Item, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	StoreInfo(ctx context.Context) (*StoreInfo, error)
}

// StoreInfo summarizes the catalog database.
type StoreInfo struct {
	SchemaVersion   int   `json:"schema_version"`
	TotalItems      int64 `json:"total_items"`
	TotalCategories int64 `json:"total_categories"`
}

var _ CatalogStore = (*Store)(nil)
