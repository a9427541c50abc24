package model

import (
	"fmt"
	"path/filepath"

	"github.com/0xsi23/kumo/internal/download"
	"github.com/0xsi23/kumo/internal/fsutil"
)

// Page represents a single image in a chapter.
type Page struct {
	// Index is the page's 0-based position within the chapter.
	Index int `json:"index"`

	// URL is the image source.
	URL string `json:"url"`

	// Filename is the local file name. When empty, a zero-padded name
	// derived from Index and the URL extension is used ("003.jpg").
	Filename string `json:"filename,omitempty"`
}

// Job converts the page into a single download job saved under dir.
func (p *Page) Job(dir string, headers, cookies map[string]string, referer string) *download.Job {
	return &download.Job{
		URL:      p.URL,
		DestPath: filepath.Join(dir, p.EffectiveFilename()),
		Headers:  headers,
		Cookies:  cookies,
		Referer:  referer,
		Extras:   map[string]any{"index": p.Index},
	}
}

// EffectiveFilename returns Filename, or the default zero-padded name
// when none was set.
func (p *Page) EffectiveFilename() string {
	if p.Filename != "" {
		return p.Filename
	}
	return defaultPageName(p.Index, p.URL)
}

// defaultPageName builds the zero-padded default filename for a page,
// keeping pages lexically ordered on disk ("000.jpg", "001.webp", ...).
func defaultPageName(index int, url string) string {
	return fmt.Sprintf("%03d%s", index, fsutil.ImageExtension(url))
}
