package utils

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID returns a new random task identifier
func GenerateUUID() string {
	return uuid.NewString()
}

// FileExt returns the lowercased extension of a filename, including the dot
func FileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// CanonicalExt lowercases an extension and makes sure it starts with a dot
func CanonicalExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
