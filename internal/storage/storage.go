// Package storage keeps uploaded product images on local disk and serves them back.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mycoll/marketplace/internal/apperr"
)

// PublicPrefix is the URL prefix under which stored files are served.
const PublicPrefix = "/img/"

const productDir = "produtos"

var ErrUnsupportedImage = apperr.Validation("unsupported_image", "image must be jpg, png, gif or webp")

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// Images stores files under <root>/img.
type Images struct {
	root string
}

func NewImages(root string) *Images {
	return &Images{root: root}
}

// SaveProductImage writes r to a fresh uuid-named file, keeping the extension
// of filename, and returns its public URL: /img/produtos/<uuid><ext>.
func (s *Images) SaveProductImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedImage.Withf("%q", filename)
	}
	dir := filepath.Join(s.root, "img", productDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(f, contextReader{ctx: ctx, r: r}); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}
	return path.Join(PublicPrefix, productDir, name), nil
}

var ErrForeignImage = apperr.Validation("foreign_image", "image is not a stored product image")

// RemoveProductImage deletes a file previously returned by SaveProductImage.
// A file that is already gone is not an error.
func (s *Images) RemoveProductImage(_ context.Context, url string) error {
	dir, name := path.Split(url)
	if dir != path.Join(PublicPrefix, productDir)+"/" || name == "" || name != filepath.Base(name) {
		return ErrForeignImage.Withf("%q", url)
	}
	err := os.Remove(filepath.Join(s.root, "img", productDir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

// Handler serves stored files; mount it at PublicPrefix.
func (s *Images) Handler() http.Handler {
	return http.StripPrefix(PublicPrefix, http.FileServer(noListing{http.Dir(filepath.Join(s.root, "img"))}))
}

// contextReader stops a copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// noListing hides directory indexes.
type noListing struct{ fs http.FileSystem }

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
