package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"mercari/internal/blobstore"
	"mercari/internal/models"
	"mercari/internal/store"
)

// CreateItemInput carries a validated-at-the-edge create request. Image is
// nil when the client sent no image or an empty one.
type CreateItemInput struct {
	Name      string
	Category  string
	Image     io.Reader
	MediaType string
}

// ItemService owns item validation and the create workflow.
type ItemService struct {
	catalog           store.CatalogStore
	images            blobstore.ImageStore
	allowedMediaTypes map[string]struct{}
}

// NewItemService builds an item service over the given stores.
func NewItemService(catalog store.CatalogStore, images blobstore.ImageStore) *ItemService {
	return &ItemService{catalog: catalog, images: images}
}

// ConfigurePolicy restricts uploads to the given media types. An empty list
// accepts any type.
func (s *ItemService) ConfigurePolicy(allowedMediaTypes []string) {
	if len(allowedMediaTypes) == 0 {
		s.allowedMediaTypes = nil
		return
	}
	s.allowedMediaTypes = make(map[string]struct{}, len(allowedMediaTypes))
	for _, mediaType := range allowedMediaTypes {
		s.allowedMediaTypes[mediaType] = struct{}{}
	}
}

// CreateItem validates input, stores the image if present, then persists the
// item and its category in one transaction.
func (s *ItemService) CreateItem(ctx context.Context, in CreateItemInput) (models.Item, error) {
	name, err := models.ParseItemName(in.Name)
	if err != nil {
		return models.Item{}, missingRequired(err)
	}
	category, err := models.ParseCategoryName(in.Category)
	if err != nil {
		return models.Item{}, missingRequired(err)
	}

	imageName := models.DefaultImageName
	if in.Image != nil {
		if err := s.validateAllowedMediaType(in.MediaType); err != nil {
			return models.Item{}, err
		}
		if s.images == nil {
			return models.Item{}, internalError(fmt.Errorf("image store is not configured"))
		}
		res, err := s.images.Put(ctx, in.Image)
		if err != nil {
			return models.Item{}, imageFailure(fmt.Errorf("store image: %w", err))
		}
		imageName = res.Name
	}

	item, err := s.catalog.CreateItem(ctx, name, category, imageName)
	if err != nil {
		return models.Item{}, mapStoreError(err)
	}
	return item, nil
}

func (s *ItemService) GetItem(ctx context.Context, id int64) (models.Item, error) {
	item, err := s.catalog.GetItem(ctx, id)
	if err != nil {
		return models.Item{}, mapStoreError(err)
	}
	return *item, nil
}

func (s *ItemService) ListItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.catalog.ListItems(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return items, nil
}

// SearchItems matches keyword as a literal substring of item names.
func (s *ItemService) SearchItems(ctx context.Context, keyword string) ([]models.Item, error) {
	items, err := s.catalog.SearchItems(ctx, keyword)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return items, nil
}

// Info reports the schema version and catalog counts.
func (s *ItemService) Info(ctx context.Context) (*store.StoreInfo, error) {
	info, err := s.catalog.StoreInfo(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	return info, nil
}

func (s *ItemService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return categories, nil
}

// OpenImage returns the named image or the default one. The returned name is
// the image actually served.
func (s *ItemService) OpenImage(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if s.images == nil {
		return nil, "", internalError(fmt.Errorf("image store is not configured"))
	}
	rc, opened, err := s.images.Open(ctx, name)
	switch {
	case err == nil:
		return rc, opened, nil
	case errors.Is(err, blobstore.ErrInvalidName):
		return nil, "", badRequestCode(err, ErrCodeInvalidImageName)
	case errors.Is(err, blobstore.ErrNotFound):
		return nil, "", notFoundCode(err, ErrCodeImageNotFound)
	default:
		return nil, "", imageFailure(err)
	}
}

func (s *ItemService) validateAllowedMediaType(mediaType string) error {
	if len(s.allowedMediaTypes) == 0 {
		return nil
	}
	parsed, _, err := mime.ParseMediaType(strings.TrimSpace(mediaType))
	if err != nil {
		return badRequestCode(fmt.Errorf("image media type could not be determined"), ErrCodeInvalidMediaType)
	}
	if _, ok := s.allowedMediaTypes[strings.ToLower(parsed)]; ok {
		return nil
	}
	return badRequestCode(fmt.Errorf("image media type %s is not allowed", parsed), ErrCodeInvalidMediaType)
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFoundCode(fmt.Errorf("item not found"), ErrCodeItemNotFound)
	case errors.Is(err, store.ErrCategoryNotFound):
		return conflictCode(err, ErrCodeCategoryNotFound)
	default:
		return storeFailure(err)
	}
}
