// Package model defines the core data structures of kumo.
//
// # Comic, Chapter, Page
//
// A Comic holds Chapters, a Chapter holds Pages plus the headers and
// cookies the resource locator captured for that chapter. Pages convert
// into self-contained download jobs:
//
//	dir := comic.ChapterDir(pathCfg, chapter)
//	jobs := chapter.Jobs(dir)
//
// Every job produced this way uses the chapter URL as referer, which is
// what most comic CDNs check before serving an image.
//
// # Path Configuration
//
// PathConfig controls where chapters land on disk using placeholders:
//
//	cfg := &model.PathConfig{DownloadsPath: "/comics/{comic}/{chapter}"}
//
// Titles are sanitized for cross-platform filenames before substitution.
package model
