package models

// Category is a named grouping of items. Names are unique and case-sensitive.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is one listed item joined with its category name.
type Item struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"-"`
	Category   string `json:"category"`
	ImageName  string `json:"image_name"`
}
