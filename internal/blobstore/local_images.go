package blobstore

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mercari/internal/models"
)

const tmpDirName = "tmp"

//go:embed assets/default.jpg
var defaultImage []byte

// LocalImages stores image bytes in a flat directory named by SHA-256 digest.
type LocalImages struct {
	root string
}

var _ ImageStore = (*LocalImages)(nil)

// NewLocalImages creates an image store rooted at root. The directory is
// created on first write.
func NewLocalImages(root string) (*LocalImages, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("images root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &LocalImages{root: abs}, nil
}

// Root returns the absolute image directory.
func (s *LocalImages) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// Put streams bytes, computes SHA-256, and stores content as <digest>.jpg.
// Identical content always lands on the same name.
func (s *LocalImages) Put(ctx context.Context, r io.Reader) (PutResult, error) {
	var zero PutResult
	if s == nil {
		return zero, fmt.Errorf("image store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	tmp, err := s.createTemp()
	if err != nil {
		return zero, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		cleanup()
		return zero, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return zero, err
	}

	digest := hex.EncodeToString(h.Sum(nil))
	result := PutResult{Name: digest + models.ImageExt, SHA256: digest, SizeBytes: n}
	if err := s.commit(tmpPath, result.Name); err != nil {
		cleanup()
		return zero, err
	}
	return result, nil
}

// Open returns a reader for the named image. Unknown names resolve to the
// default image.
func (s *LocalImages) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if s == nil {
		return nil, "", fmt.Errorf("image store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if err := ValidateName(name); err != nil {
		return nil, "", err
	}

	f, err := os.Open(filepath.Join(s.root, name))
	if err == nil {
		return f, name, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, "", err
	}

	f, err = os.Open(filepath.Join(s.root, models.DefaultImageName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return f, models.DefaultImageName, nil
}

// Has reports whether the named image is stored.
func (s *LocalImages) Has(ctx context.Context, name string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("image store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := ValidateName(name); err != nil {
		return false, err
	}
	info, err := os.Stat(filepath.Join(s.root, name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// EnsureDefault writes the bundled default image when the directory has none.
func (s *LocalImages) EnsureDefault(ctx context.Context) error {
	ok, err := s.Has(ctx, models.DefaultImageName)
	if err != nil || ok {
		return err
	}

	tmp, err := s.createTemp()
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(defaultImage); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := s.commit(tmpPath, models.DefaultImageName); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// ValidateName checks that name is a plain file name ending in .jpg.
func ValidateName(name string) error {
	if !models.HasImageExt(name) {
		return fmt.Errorf("%w: %q does not end with %s", ErrInvalidName, name, models.ImageExt)
	}
	if strings.ContainsAny(name, `/\`) || name == models.ImageExt || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q must be a plain file name", ErrInvalidName, name)
	}
	return nil
}

func (s *LocalImages) createTemp() (*os.File, error) {
	tmpDir := filepath.Join(s.root, tmpDirName)
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, err
	}
	return os.CreateTemp(tmpDir, "put-*")
}

// commit moves tmpPath to name unless name already exists.
func (s *LocalImages) commit(tmpPath, name string) error {
	dst := filepath.Join(s.root, name)
	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(tmpPath)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		if _, statErr := os.Stat(dst); statErr == nil {
			_ = os.Remove(tmpPath)
			return nil
		}
		return err
	}
	return nil
}
