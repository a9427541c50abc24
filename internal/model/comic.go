package model

import (
	"path/filepath"
	"strings"

	"github.com/0xsi23/kumo/internal/fsutil"
)

// Comic represents a comic series as produced by an external resource
// locator (site connector, manifest file, etc.).
type Comic struct {
	// Title is the series title as scraped from the site.
	Title string `json:"title"`

	// URL is the series page.
	URL string `json:"url"`

	// CoverURL points at the cover image, if any.
	CoverURL string `json:"cover_url,omitempty"`

	// Chapters lists the chapters to download.
	Chapters []*Chapter `json:"chapters"`
}

// HasCover returns true if a cover image is available for download.
func (c *Comic) HasCover() bool {
	return c.CoverURL != ""
}

// PathConfig holds path formatting settings for comics and chapters.
//
// DownloadsPath supports placeholders that are replaced with sanitized
// values:
//   - {comic} - Comic title
//   - {chapter} - Chapter title
//
// Example:
//
//	cfg := &PathConfig{DownloadsPath: "/comics/{comic}/{chapter}"}
type PathConfig struct {
	// DownloadsPath is the directory template chapters are saved under.
	DownloadsPath string
}

// ChapterDir computes the directory a chapter's pages are saved to,
// applying the path template with sanitized titles. The result is capped
// for Windows MAX_PATH compatibility.
func (c *Comic) ChapterDir(cfg *PathConfig, ch *Chapter) string {
	dir := cfg.DownloadsPath
	dir = strings.ReplaceAll(dir, "{comic}", fsutil.SanitizeFileName(c.Title))
	dir = strings.ReplaceAll(dir, "{chapter}", fsutil.SanitizeFileName(ch.Title))

	if len(dir) >= 248 {
		dir = dir[:247]
	}

	return dir
}

// CoverPath computes the local path for the comic's cover image, placed
// next to the chapter directories. Empty if the comic has no cover.
func (c *Comic) CoverPath(cfg *PathConfig) string {
	if !c.HasCover() {
		return ""
	}

	base := cfg.DownloadsPath
	if i := strings.Index(base, "{chapter}"); i >= 0 {
		base = filepath.Dir(base[:i] + base[i+len("{chapter}"):])
	}
	base = strings.ReplaceAll(base, "{comic}", fsutil.SanitizeFileName(c.Title))

	return filepath.Join(base, "cover"+fsutil.ImageExtension(c.CoverURL))
}
