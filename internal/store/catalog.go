package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mercari/internal/models"
)

var (
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCategoryNotFound is returned when an item references a missing category.
	ErrCategoryNotFound = errors.New("category does not exist")
)

const selectItemColumns = `
	SELECT items.id, items.name, items.category_id, categories.name, items.image_name
	FROM items
	JOIN categories ON items.category_id = categories.id
`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ResolveCategory returns the id of the named category, creating it first if absent.
func (s *Store) ResolveCategory(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("category name is required")
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = resolveCategory(ctx, tx, name)
		return err
	})
	return id, err
}

// AddItem inserts an item row referencing an existing category.
func (s *Store) AddItem(ctx context.Context, item models.Item) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertItem(ctx, tx, item)
		return err
	})
	return id, err
}

// CreateItem resolves the category and inserts the item in one transaction.
func (s *Store) CreateItem(ctx context.Context, name, category, imageName string) (models.Item, error) {
	item := models.Item{Name: name, Category: category, ImageName: imageName}
	if category == "" {
		return item, fmt.Errorf("category name is required")
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		categoryID, err := resolveCategory(ctx, tx, category)
		if err != nil {
			return err
		}
		item.CategoryID = categoryID

		id, err := insertItem(ctx, tx, item)
		if err != nil {
			return err
		}
		item.ID = id
		return nil
	})
	if err != nil {
		return models.Item{}, err
	}
	return item, nil
}

// GetItem returns an item by id joined with its category name.
func (s *Store) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx, selectItemColumns+" WHERE items.id = ?", id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return &item, nil
}

// ListItems returns every item ordered by id.
func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.queryItems(ctx, selectItemColumns+" ORDER BY items.id")
}

// SearchItems returns items whose name contains keyword. Pattern
// metacharacters in keyword match literally; an empty keyword matches all.
func (s *Store) SearchItems(ctx context.Context, keyword string) ([]models.Item, error) {
	pattern := "%" + likeEscaper.Replace(keyword) + "%"
	return s.queryItems(ctx, selectItemColumns+` WHERE items.name LIKE ? ESCAPE '\' ORDER BY items.id`, pattern)
}

// ListCategories returns every category ordered by id.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// StoreInfo reports schema version and row counts.
func (s *Store) StoreInfo(ctx context.Context) (*StoreInfo, error) {
	info := &StoreInfo{}

	version, err := recordedVersion(s.db)
	if err != nil {
		return nil, fmt.Errorf("schema version: %w", err)
	}
	info.SchemaVersion = version

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&info.TotalItems); err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&info.TotalCategories); err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	return info, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.Item, error) {
	var item models.Item
	var imageName sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &item.CategoryID, &item.Category, &imageName); err != nil {
		return models.Item{}, err
	}
	item.ImageName = imageName.String
	if item.ImageName == "" {
		item.ImageName = models.DefaultImageName
	}
	return item, nil
}

func resolveCategory(ctx context.Context, q queryer, name string) (int64, error) {
	if _, err := q.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?) ON CONFLICT(name) DO NOTHING", name); err != nil {
		return 0, fmt.Errorf("insert category %q: %w", name, err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, "SELECT id FROM categories WHERE name = ?", name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup category %q: %w", name, err)
	}
	return id, nil
}

func insertItem(ctx context.Context, q queryer, item models.Item) (int64, error) {
	if item.Name == "" {
		return 0, fmt.Errorf("item name is required")
	}
	imageName := item.ImageName
	if imageName == "" {
		imageName = models.DefaultImageName
	}

	var exists int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE id = ?", item.CategoryID).Scan(&exists)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("category %d: %w", item.CategoryID, ErrCategoryNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("check category %d: %w", item.CategoryID, err)
	}

	res, err := q.ExecContext(ctx,
		"INSERT INTO items (name, category_id, image_name) VALUES (?, ?, ?)",
		item.Name, item.CategoryID, imageName,
	)
	if err != nil {
		if isForeignKeyConstraint(err) {
			return 0, fmt.Errorf("category %d: %w", item.CategoryID, ErrCategoryNotFound)
		}
		return 0, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert item id: %w", err)
	}
	return id, nil
}

func isForeignKeyConstraint(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
