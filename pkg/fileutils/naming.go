package fileutils

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameRE = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeFilename strips path separators and characters that are unsafe in
// filenames across platforms.
func SanitizeFilename(name string) string {
	name = path.Base(filepath.ToSlash(name))
	name = unsafeFilenameRE.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// MediaTypeForFilename infers the media type for inline display of a book
// content file from its extension. Unknown extensions fall back to PDF since
// that is the dominant upload format.
func MediaTypeForFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".doc", ".docx":
		return "application/msword"
	case ".txt":
		return "text/plain"
	case ".epub":
		return "application/epub+zip"
	default:
		return "application/pdf"
	}
}
