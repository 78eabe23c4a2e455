// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package pathmap

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/translocus/internal/logging"
)

// NetworkDriveMarker prefixes paths that live on the mounted network drive.
// The download client inserts it; it never appears in real filesystem paths.
const NetworkDriveMarker = "【u115】"

// Translator maps local paths onto media-server paths. It is immutable after
// construction and safe for concurrent use.
type Translator struct {
	triples    []TripleRule
	pair       *PairRule
	single     *SingleRule
	libraries  map[string]string
	defaultLib string
	logger     zerolog.Logger
}

// New builds a Translator from the three textual mapping settings. Any of
// them may be empty.
func New(pathLibraryMapping, pathMapping, libraryMapping string) *Translator {
	pair, single := ParsePairRule(pathMapping)
	return &Translator{
		triples:    ParseTripleRules(pathLibraryMapping),
		pair:       pair,
		single:     single,
		libraries:  ParseLibraryMapping(libraryMapping),
		defaultLib: firstLibraryID(libraryMapping),
		logger:     logging.With().Str("component", "pathmap").Logger(),
	}
}

// Translate converts localPath into the media-server path and, when a triple
// rule matched, the library section id bound to it. libraryID is empty when
// no rule carries one. Paths with no applicable mapping come back unchanged.
func (t *Translator) Translate(localPath string) (remotePath, libraryID string) {
	if strings.HasPrefix(localPath, NetworkDriveMarker) {
		return t.translateMarker(strings.TrimPrefix(localPath, NetworkDriveMarker))
	}

	for _, r := range t.triples {
		if mapped, ok := replacePrefix(localPath, r.Local, r.Remote); ok {
			return mapped, r.LibraryID
		}
	}

	if t.pair != nil {
		if mapped, ok := replacePrefix(localPath, t.pair.Local, t.pair.Remote); ok {
			return mapped, ""
		}
		t.logger.Warn().
			Str("path", localPath).
			Str("local_prefix", t.pair.Local).
			Msg("path does not match configured mapping, using unchanged")
		return localPath, ""
	}

	t.logger.Warn().Str("path", localPath).Msg("no path mapping configured, using unchanged")
	return localPath, ""
}

// translateMarker resolves a network-drive path (marker already stripped):
// triple rules first, then the pair rule, then the bare remote prefix, then
// unchanged as a last resort. A pair rule that does not match still anchors
// the path under its remote prefix, same as a bare remote prefix would.
func (t *Translator) translateMarker(rest string) (string, string) {
	for _, r := range t.triples {
		if mapped, ok := replacePrefix(rest, r.Local, r.Remote); ok {
			return mapped, r.LibraryID
		}
	}

	if t.pair != nil {
		if mapped, ok := replacePrefix(rest, t.pair.Local, t.pair.Remote); ok {
			return mapped, ""
		}
		t.logger.Warn().
			Str("path", rest).
			Str("local_prefix", t.pair.Local).
			Msg("network drive path does not match configured mapping, anchoring under remote prefix")
		prefix := ensureTrailingSlash(normalize(t.pair.Remote))
		return prefix + strings.TrimPrefix(normalize(rest), "/"), ""
	}

	if t.single != nil {
		prefix := ensureTrailingSlash(normalize(t.single.Remote))
		return prefix + strings.TrimPrefix(normalize(rest), "/"), ""
	}

	t.logger.Warn().Str("path", rest).Msg("network drive path has no mapping, using unchanged")
	return rest, ""
}

// LibraryFor looks up the library section id for a media type (case
// insensitive). ok is false when the type is not in the table.
func (t *Translator) LibraryFor(mediaType string) (id string, ok bool) {
	id, ok = t.libraries[strings.ToLower(mediaType)]
	return id, ok
}

// DefaultLibrary returns the first configured library section id, used as
// the fallback when a media type is missing from the table. Empty when no
// table is configured.
func (t *Translator) DefaultLibrary() string {
	return t.defaultLib
}

// HasLibraryTable reports whether any media-type library mappings exist.
func (t *Translator) HasLibraryTable() bool {
	return len(t.libraries) > 0
}

// HasRules reports whether any path mapping is configured at all.
func (t *Translator) HasRules() bool {
	return len(t.triples) > 0 || t.pair != nil || t.single != nil
}

// normalize converts backslash separators to forward slashes.
func normalize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// ensureTrailingSlash appends "/" unless p already ends with one.
func ensureTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

// replacePrefix substitutes localPrefix for remotePrefix at the front of
// path. A path exactly equal to the local prefix maps to the remote prefix
// as configured. Otherwise both prefixes get a trailing separator before
// matching, so a match can only happen at a path-segment boundary
// ("/mnt/media2/x" never matches prefix "/mnt/media").
func replacePrefix(path, localPrefix, remotePrefix string) (string, bool) {
	p := normalize(path)
	lp := normalize(localPrefix)
	if p == lp {
		return normalize(remotePrefix), true
	}
	lp = ensureTrailingSlash(lp)
	if !strings.HasPrefix(p, lp) {
		return "", false
	}
	rp := ensureTrailingSlash(normalize(remotePrefix))
	return rp + p[len(lp):], true
}
