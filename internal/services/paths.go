package services

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

const uploadRoot = "uploads"

// NewUploadDirectory returns a fresh directory such as "uploads/9f86d081884c4d63a7c5b2f3e1c7d4a2".
// Uniqueness rests on the 122 random bits of a v4 UUID; the store is not consulted.
func NewUploadDirectory() string {
	return uploadRoot + "/" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func DerivativeFilename(width, height int, ext string) string {
	return fmt.Sprintf("%dx%d.%s", width, height, ext)
}

func OriginalFilename(ext string) string {
	return "full." + ext
}

func originalPath(dir, ext string) string {
	return path.Join(dir, OriginalFilename(ext))
}
