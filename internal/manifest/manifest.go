// Package manifest loads download manifests: JSON documents describing a
// comic, its chapters and page URLs, together with the headers and
// cookies needed to fetch them. Manifests are produced by an external
// resource locator (site connector, browser automation, hand-written
// file) and are kumo's inbound job format.
//
// Example manifest:
//
//	{
//	  "title": "One Piece",
//	  "url": "https://example.com/comic/one-piece",
//	  "cover_url": "https://cdn.example.com/covers/op.webp",
//	  "chapters": [
//	    {
//	      "id": "1088",
//	      "title": "Chapter 1088",
//	      "url": "https://example.com/comic/one-piece/1088",
//	      "cookies": {"session": "abc"},
//	      "pages": [
//	        {"index": 0, "url": "https://cdn.example.com/1088/000.webp"}
//	      ]
//	    }
//	  ]
//	}
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/0xsi23/kumo/internal/httpx"
	"github.com/0xsi23/kumo/internal/model"
)

// Decode parses a manifest document.
func Decode(data []byte) (*model.Comic, error) {
	var comic model.Comic
	if err := json.Unmarshal(data, &comic); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if comic.Title == "" {
		return nil, fmt.Errorf("manifest has no comic title")
	}
	if len(comic.Chapters) == 0 {
		return nil, fmt.Errorf("manifest %q has no chapters", comic.Title)
	}
	return &comic, nil
}

// Load reads a manifest from a local file or, when src starts with
// http:// or https://, from a remote URL.
func Load(ctx context.Context, src string) (*model.Comic, error) {
	var data []byte
	var err error

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		data, err = httpx.Get(ctx, http.DefaultClient, src, "")
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", src, err)
	}

	return Decode(data)
}
