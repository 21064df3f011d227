package storage

import (
	"fmt"
)

const MaxImageSize = 5 << 20

var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ValidateFileSize rejects files larger than maxSize bytes.
func ValidateFileSize(size int64, maxSize int64) error {
	if size > maxSize {
		return fmt.Errorf("file size exceeds maximum allowed size of %d bytes", maxSize)
	}
	return nil
}

// ValidateImageType returns the extension stored for contentType.
func ValidateImageType(contentType string) (string, error) {
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("content type %s is not allowed", contentType)
	}
	return ext, nil
}
