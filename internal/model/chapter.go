package model

import "github.com/0xsi23/kumo/internal/download"

// Chapter represents one comic chapter together with the request
// decoration (headers, cookies) the resource locator captured while
// navigating the site. That decoration is what lets a plain HTTP fetch
// reach images behind referer checks and session cookies.
type Chapter struct {
	// ID is the site-specific chapter identifier.
	ID string `json:"id"`

	// Title is the chapter title.
	Title string `json:"title"`

	// URL is the chapter page. It doubles as the referer for page
	// downloads.
	URL string `json:"url"`

	// Pages are the images making up the chapter.
	Pages []*Page `json:"pages"`

	// Headers are sent with every page request of this chapter.
	Headers map[string]string `json:"headers,omitempty"`

	// Cookies are sent with every page request of this chapter.
	Cookies map[string]string `json:"cookies,omitempty"`
}

// Jobs converts all pages of the chapter into download jobs saved under
// dir. Every job carries copies of the chapter's headers and cookies and
// uses the chapter URL as referer, so jobs stay self-contained after the
// chapter is mutated or discarded.
func (ch *Chapter) Jobs(dir string) []*download.Job {
	jobs := make([]*download.Job, 0, len(ch.Pages))
	for _, page := range ch.Pages {
		jobs = append(jobs, page.Job(dir, cloneMap(ch.Headers), cloneMap(ch.Cookies), ch.URL))
	}
	return jobs
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
