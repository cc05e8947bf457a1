// Package storage keeps uploaded images on local disk.
//
// Files land in the upload directory as <uuid><ext> and are referenced by
// records through their public path, /uploads/<uuid><ext>.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	PublicPrefix    = "/uploads"
	DefaultMaxBytes = 10 << 20

	sniffLen = 3072
)

// Raster formats only; SVG can carry script.
var imageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/bmp", "image/avif"}

var (
	ErrNotImage     = errors.New("only image files are allowed")
	ErrFileTooLarge = errors.New("file too large")
	ErrInvalidPath  = errors.New("invalid stored file path")
)

type DiskStore struct {
	root     string
	maxBytes int64
}

func NewDiskStore(root string, maxBytes int64) (*DiskStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("upload dir cannot be empty")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: root, maxBytes: maxBytes}, nil
}

func (s *DiskStore) Root() string {
	return s.root
}

// Save writes the image and returns its public path. Non-image content is
// rejected before anything touches the disk. The stored name ignores the
// client's extension.
func (s *DiskStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if !mimetype.EqualsAny(mtype.String(), imageTypes...) {
		return "", ErrNotImage
	}

	// the extension decides the served Content-Type, so it follows the content
	name := uuid.NewString() + mtype.Extension()
	fullPath := filepath.Join(s.root, name)

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// read one byte past the limit to detect oversize uploads
	src := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxBytes+1)
	written, err := io.Copy(f, src)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(fullPath)
		if errors.Is(err, ErrFileTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write file: %w", err)
	}

	log.Debugf("stored upload %q as %s (%d bytes, %s)", originalName, name, written, mtype.String())
	return path.Join(PublicPrefix, name), nil
}

// Remove deletes a file previously returned by Save. Missing files are ignored.
func (s *DiskStore) Remove(ctx context.Context, publicPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.nameFromPublicPath(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *DiskStore) nameFromPublicPath(publicPath string) (string, error) {
	if !strings.HasPrefix(publicPath, PublicPrefix+"/") {
		return "", ErrInvalidPath
	}
	name := strings.TrimPrefix(publicPath, PublicPrefix+"/")
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidPath
	}
	return name, nil
}
