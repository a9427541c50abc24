package fsutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal-chapter", "normal-chapter"},
		{"chapter:with:colons", "chapter_with_colons"},
		{"chapter<with>brackets", "chapter_with_brackets"},
		{"chapter/with\\slashes", "chapter_with_slashes"},
		{"chapter|with|pipes", "chapter_with_pipes"},
		{"chapter?with*wildcards", "chapter_with_wildcards"},
		{"chapter\"with\"quotes", "chapter_with_quotes"},
		{"trailing dots...", "trailing dots"},
		{"multiple   spaces", "multiple spaces"},
		{"trailing spaces   ", "trailing spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeFileName(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/p/001.jpg", ".jpg"},
		{"https://cdn.example.com/p/001.JPEG", ".jpeg"},
		{"https://cdn.example.com/p/001.webp?token=abc", ".webp"},
		{"https://cdn.example.com/p/001.png#frag", ".png"},
		{"https://cdn.example.com/p/001", ".jpg"},
		{"https://cdn.example.com/p/archive.tar.gz", ".jpg"},
		{"not a url at all", ".jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := ImageExtension(tt.url); got != tt.want {
				t.Errorf("ImageExtension(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
