package api

// MessageResponse is the greeting payload served at the root path.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// AddItemResponse confirms a stored item.
type AddItemResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// ItemResponse is the wire form of a listed item.
type ItemResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	ImageName string `json:"image_name"`
}

// ItemListResponse wraps item collections returned by list and search.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}

type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CategoryListResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

// InfoResponse describes the running server and its catalog.
type InfoResponse struct {
	SchemaVersion   int    `json:"schema_version"`
	TotalItems      int64  `json:"total_items"`
	TotalCategories int64  `json:"total_categories"`
	ImagesDir       string `json:"images_dir,omitempty"`
	DBPath          string `json:"db_path,omitempty"`
}

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}
