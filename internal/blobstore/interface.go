package blobstore

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrInvalidName is returned for image names that are not plain .jpg file names.
	ErrInvalidName = errors.New("invalid image name")
	// ErrNotFound is returned when neither the image nor the default image exists.
	ErrNotFound = errors.New("image not found")
)

// PutResult describes one persisted image payload.
type PutResult struct {
	Name      string
	SHA256    string
	SizeBytes int64
}

// ImageStore is the content-addressed byte storage used for item images.
type ImageStore interface {
	Put(ctx context.Context, r io.Reader) (PutResult, error)
	// Open returns the named image, or the default image when name is
	// absent. The returned string is the name actually opened.
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	Has(ctx context.Context, name string) (bool, error)
}
