package storage

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// AllowedImageTypes are the upload formats the gallery accepts.
// Every one of them can be decoded by the thumbnail pipeline.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// baseType strips parameters and lowercases a MIME type.
func baseType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(strings.ToLower(t))
}

// IsAllowedImageType checks a declared content type against AllowedImageTypes.
func IsAllowedImageType(contentType string) bool {
	t := baseType(contentType)
	if t == "image/jpg" {
		t = "image/jpeg"
	}
	return AllowedImageTypes[t]
}

// SniffImageType detects the type from the first bytes of a file.
// The declared type of an upload is not trusted on its own.
func SniffImageType(head []byte) string {
	return baseType(http.DetectContentType(head))
}

// ContentTypeForKey guesses a content type from the key's extension.
func ContentTypeForKey(key string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(key))); t != "" {
		return t
	}
	return "application/octet-stream"
}
