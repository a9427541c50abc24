// Package fsutil provides file system helpers shared by the downloader:
// filename sanitization, directory creation and URL extension detection.
package fsutil

import (
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"
)

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots = regexp.MustCompile(`\.+$`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// SanitizeFileName removes or replaces characters that are invalid in
// file/folder names, so titles scraped from the web produce paths that
// work across operating systems (Windows being the most restrictive).
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("Chapter 12: Part 1/2") // Returns "Chapter 12_ Part 1_2"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.TrimRight(name, " ")
	return name
}

// EnsureDir creates a directory and all parent directories if they don't
// exist. Directories are created with mode 0755.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// ImageExtension extracts the file extension from an image URL, query
// string and fragment excluded. URLs without a recognizable extension
// default to ".jpg", the overwhelmingly common case for comic CDNs.
//
// Example:
//
//	ImageExtension("https://cdn.example.com/p/001.webp?tok=a") // ".webp"
//	ImageExtension("https://cdn.example.com/p/001")            // ".jpg"
func ImageExtension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif", ".bmp":
		return ext
	default:
		return ".jpg"
	}
}
