package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument  = 1000
	ErrCodeRequestTooLarge  = 1002
	ErrCodeInvalidID        = 1004
	ErrCodeMissingRequired  = 1009
	ErrCodeInvalidImageName = 1015
	ErrCodeInvalidMediaType = 1016

	// Domain state (2xxx)
	ErrCodeItemNotFound     = 2001
	ErrCodeCategoryNotFound = 2002
	ErrCodeImageNotFound    = 2003

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
	ErrCodeImageFailure = 4006
)
