// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

// Package pathmap translates local filesystem paths into the paths the media
// server sees, using an ordered set of typed mapping rules parsed from
// configuration text.
package pathmap

import (
	"strings"

	"github.com/tomtom215/translocus/internal/logging"
)

// TripleRule maps a local prefix to a remote prefix with an explicit library
// section id.
type TripleRule struct {
	Local     string
	Remote    string
	LibraryID string
}

// PairRule maps a local prefix to a remote prefix.
type PairRule struct {
	Local  string
	Remote string
}

// SingleRule prepends a remote prefix to marker-relative paths.
type SingleRule struct {
	Remote string
}

// ParseTripleRules parses "local:remote:library_id" rules, one per line.
// Blank lines and "#" comments are skipped; malformed lines are logged and
// dropped.
func ParseTripleRules(text string) []TripleRule {
	var rules []TripleRule
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) != 3 {
			logging.Warn().Str("rule", line).Msg("skipping malformed path library mapping rule")
			continue
		}
		rule := TripleRule{
			Local:     strings.TrimSpace(parts[0]),
			Remote:    strings.TrimSpace(parts[1]),
			LibraryID: strings.TrimSpace(parts[2]),
		}
		if rule.Local == "" || rule.Remote == "" || rule.LibraryID == "" {
			logging.Warn().Str("rule", line).Msg("skipping path library mapping rule with empty field")
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

// ParsePairRule parses the legacy single-mapping value. Accepted forms:
//
//	/local/prefix:/remote/prefix   (compose style)
//	/local/prefix|/remote/prefix   (legacy style)
//	/remote/prefix                 (bare remote prefix)
//
// The bare form yields a SingleRule; the other two a PairRule.
func ParsePairRule(text string) (*PairRule, *SingleRule) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var local, remote string
	switch {
	case strings.Contains(text, "|"):
		parts := strings.SplitN(text, "|", 2)
		local, remote = parts[0], parts[1]
	case strings.Contains(text, ":"):
		parts := strings.SplitN(text, ":", 2)
		local, remote = parts[0], parts[1]
	default:
		return nil, &SingleRule{Remote: text}
	}

	local = strings.TrimSpace(local)
	remote = strings.TrimSpace(remote)
	if local == "" || remote == "" {
		logging.Warn().Str("rule", text).Msg("skipping malformed path mapping rule")
		return nil, nil
	}
	return &PairRule{Local: local, Remote: remote}, nil
}

// ParseLibraryMapping parses a "type:id" table, comma-separated, e.g.
// "movie:1,tv:2,anime:3". Keys are lowercased; malformed pairs are dropped.
func ParseLibraryMapping(text string) map[string]string {
	table := make(map[string]string)
	for _, pair := range strings.Split(text, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			logging.Warn().Str("pair", pair).Msg("skipping malformed library mapping pair")
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		id := strings.TrimSpace(parts[1])
		if key == "" || id == "" {
			continue
		}
		table[key] = id
	}
	return table
}

// firstLibraryID returns the id of the first well-formed pair in the table
// text. The map above loses configuration order, and the fallback library
// must be deterministic.
func firstLibraryID(text string) string {
	for _, pair := range strings.Split(text, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		id := strings.TrimSpace(parts[1])
		if key != "" && id != "" {
			return id
		}
	}
	return ""
}
