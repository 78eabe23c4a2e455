// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package scanner

import "testing"

func TestScanDirectory(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "media file uses parent directory",
			path: "/media/movies/Inception (2010)/Inception.mkv",
			want: "/media/movies/Inception (2010)/",
		},
		{
			name: "uppercase extension",
			path: "/media/movies/old/FILM.MP4",
			want: "/media/movies/old/",
		},
		{
			name: "m2ts extension",
			path: "/media/bluray/disc.m2ts",
			want: "/media/bluray/",
		},
		{
			name: "directory passed through",
			path: "/media/movies/Inception (2010)",
			want: "/media/movies/Inception (2010)",
		},
		{
			name: "non-media file treated as directory",
			path: "/media/movies/info.nfo",
			want: "/media/movies/info.nfo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScanDirectory(tt.path); got != tt.want {
				t.Errorf("ScanDirectory(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"movie keyword", "/media/movies/Inception/", "movie"},
		{"chinese movie", "/media/电影/某片/", "movie"},
		{"anime keyword", "/media/anime/Frieren/", "anime"},
		{"chinese anime", "/media/动漫/某番/", "anime"},
		{"tv keyword", "/media/tv/Severance/", "tv"},
		{"chinese drive show", "/media/网盘剧/某剧/", "tv"},
		{"show prefix matches", "/media/shows/Archive/", "tv"},
		{"movie beats tv", "/media/movies/tv movies/", "movie"},
		{"no keyword", "/data/backups/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMediaType(tt.path); got != tt.want {
				t.Errorf("DetectMediaType(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNormalizeMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Movie", "movie"},
		{"movies", "movie"},
		{"电影", "movie"},
		{"TV", "tv"},
		{"series", "tv"},
		{"show", "tv"},
		{"电视剧", "tv"},
		{"Anime", "anime"},
		{"动漫", "anime"},
		{"动画", "anime"},
		{"Documentary", "documentary"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeMediaType(tt.in); got != tt.want {
			t.Errorf("NormalizeMediaType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
