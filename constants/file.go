package constants

import "strings"

// Source formats recorded on runs.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TXT   = "TXT"
)

// FileTypes holds the formats a document can be processed as.
var FileTypes = []string{PDF, IMAGE, TXT}

// MaxUploadBytes caps a single uploaded document.
const MaxUploadBytes = 10 << 20

// AllowedExtensions holds the extensions accepted for upload and inbox ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"txt":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without dot) is accepted.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat returns PDF, IMAGE, TXT or "" for unknown extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt", "text":
		return TXT
	case "png", "jpg", "jpeg", "tif", "tiff", "bmp", "heic", "heif":
		return IMAGE
	default:
		return ""
	}
}

func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}
