package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/deadline-extractor/constants"
)

// allowed reports whether path has an accepted document extension.
func allowed(path string) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	return ext != "" && constants.IsAllowedExt(ext)
}

// isHidden checks if a file or directory is hidden (starts with '.').
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
