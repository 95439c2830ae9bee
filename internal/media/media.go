// Package media stores recipe images submitted as base64 payloads.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"

	"foodbook/internal/apperr"
)

const maxWidth = 800

// Store writes decoded images under a media directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveBase64 decodes a base64 image (with or without a data URI
// prefix), downscales it to at most maxWidth, and writes it under a
// generated filename. It returns the stored path.
func (s *Store) SaveBase64(data string) (string, error) {
	// Strip a "data:image/png;base64," style prefix if present.
	if idx := strings.Index(data, ";base64,"); idx != -1 {
		data = data[idx+len(";base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", apperr.Validation("image", "image is not valid base64")
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", apperr.Validation("image", "image could not be decoded")
	}

	var extension string
	switch format {
	case "jpeg":
		extension = ".jpg"
	case "png":
		extension = ".png"
	default:
		return "", apperr.Validation("image", "only JPEG and PNG images are allowed")
	}

	img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	imagePath := filepath.Join(s.dir, uuid.New().String()+extension)
	out, err := os.Create(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	switch extension {
	case ".jpg":
		err = jpeg.Encode(out, img, nil)
	case ".png":
		err = png.Encode(out, img)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return imagePath, nil
}
