// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package scanner

import (
	"path"
	"strings"
)

// Media container extensions that identify a file path. Anything else is
// treated as a directory and scanned as-is.
var mediaExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".avi":  {},
	".ts":   {},
	".m2ts": {},
}

// ScanDirectory returns the directory a path should be scanned at: the
// parent directory for media files, the path itself otherwise. The input
// is expected to be slash-normalized already.
func ScanDirectory(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if _, ok := mediaExtensions[ext]; ok {
		return path.Dir(p) + "/"
	}
	return p
}

// DetectMediaType infers the media type from directory-name keywords,
// including the Chinese library names commonly used on NAS setups.
// Returns "" when no keyword matches.
func DetectMediaType(p string) string {
	lower := strings.ToLower(p)

	for _, kw := range []string{"/电影/", "/movie", "/movies/"} {
		if strings.Contains(lower, kw) {
			return "movie"
		}
	}
	for _, kw := range []string{"/动漫/", "/anime/", "/动画/"} {
		if strings.Contains(lower, kw) {
			return "anime"
		}
	}
	for _, kw := range []string{"/网盘剧/", "/电视剧/", "/tv/", "/series/", "/show"} {
		if strings.Contains(lower, kw) {
			return "tv"
		}
	}
	return ""
}

// NormalizeMediaType maps the aliases seen in incoming events onto the
// canonical keys used by the media-type to library table.
func NormalizeMediaType(mediaType string) string {
	switch strings.ToLower(mediaType) {
	case "movie", "movies", "电影":
		return "movie"
	case "tv", "series", "show", "电视剧":
		return "tv"
	case "anime", "动漫", "动画":
		return "anime"
	default:
		return strings.ToLower(mediaType)
	}
}
