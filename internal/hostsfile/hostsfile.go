// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

// Package hostsfile implements the pure hosts-file merge used by the router
// sync. Merge takes the local and remote files as ordered lines and produces
// the updated remote file: remote entries that also exist locally are
// rewritten in place, new local entries are appended, and everything else
// (comments, blanks, unrelated entries) passes through untouched.
package hostsfile

import (
	"net/netip"
	"strings"
)

// utf8BOM is tolerated at the start of local hosts lines (Windows editors
// commonly write one).
const utf8BOM = "\ufeff"

// IgnoreSet holds hostnames and addresses excluded from merging.
// "localhost" is always a member.
type IgnoreSet struct {
	tokens []string
}

// NewIgnoreSet parses a pipe-delimited ignore list, e.g. "router.lan|10.0.0.5".
// Empty segments are dropped; "localhost" is implicitly included.
func NewIgnoreSet(raw string) IgnoreSet {
	tokens := []string{"localhost"}
	for _, tok := range strings.Split(raw, "|") {
		tok = strings.TrimSpace(tok)
		if tok != "" && tok != "localhost" {
			tokens = append(tokens, tok)
		}
	}
	return IgnoreSet{tokens: tokens}
}

// MatchesExact reports whether token equals any ignore entry.
// Used for remote-side filtering, which compares parsed fields.
func (s IgnoreSet) MatchesExact(token string) bool {
	for _, t := range s.tokens {
		if token == t {
			return true
		}
	}
	return false
}

// MatchesSubstring reports whether line contains any ignore entry anywhere.
// Used for local-side filtering, which inspects the raw line before parsing.
// Deliberately broader than MatchesExact: "host" in the ignore list drops a
// local line mentioning "myhost.lan" but leaves the equivalent remote entry
// mergeable.
func (s IgnoreSet) MatchesSubstring(line string) bool {
	for _, t := range s.tokens {
		if strings.Contains(line, t) {
			return true
		}
	}
	return false
}

// excludedAddress reports whether addr can never be a merge candidate:
// IPv4 loopback (127.0.0.0/8), any IPv6 address, or an unparseable address.
// Unparseable tokens are deliberately excluded rather than merged: a line
// whose address field does not parse cannot be safely rewritten in place.
// Excluded remote lines still copy through verbatim; they are just never
// updated or treated as duplicates.
func excludedAddress(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return true
	}
	if ip.IsLoopback() {
		return true
	}
	return !ip.Is4() && !ip.Is4In6()
}

// parseEntry extracts the address and first hostname from a hosts line.
// Returns ok=false for comments, blanks, and lines with fewer than two
// whitespace-separated fields. Extra fields (aliases) are ignored for
// indexing but preserved in the line text.
func parseEntry(line string) (addr, hostname string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

// Merge merges localLines into remoteLines and returns the new remote file.
//
// The result always starts as a verbatim copy of remoteLines. A remote entry
// is replaced in place (with the raw local line text) when a local entry
// shares its hostname; local entries with no remote counterpart are appended
// at the end in local-file order. len(result) == len(remoteLines) + appended.
//
// When both sides repeat a hostname, the last occurrence wins on each side:
// the last matching remote line is the one updated, and the last local line
// provides the text.
func Merge(localLines, remoteLines []string, ignore IgnoreSet) []string {
	merged := make([]string, len(remoteLines))
	copy(merged, remoteLines)

	// Index mergeable remote entries by hostname. Later duplicates
	// overwrite earlier ones.
	remoteIndex := make(map[string]int)
	for i, line := range remoteLines {
		addr, hostname, ok := parseEntry(line)
		if !ok {
			continue
		}
		if excludedAddress(addr) {
			continue
		}
		if ignore.MatchesExact(addr) || ignore.MatchesExact(hostname) {
			continue
		}
		remoteIndex[hostname] = i
	}

	// Collect eligible local entries, keeping first-seen hostname order
	// with last-wins line text.
	localUpdates := make(map[string]string)
	var localOrder []string
	for _, rawLine := range localLines {
		line := strings.TrimSpace(strings.TrimPrefix(rawLine, utf8BOM))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if ignore.MatchesSubstring(line) {
			continue
		}
		addr, hostname, ok := parseEntry(line)
		if !ok {
			continue
		}
		if excludedAddress(addr) {
			continue
		}
		if ignore.MatchesExact(addr) || ignore.MatchesExact(hostname) {
			continue
		}
		if _, seen := localUpdates[hostname]; !seen {
			localOrder = append(localOrder, hostname)
		}
		localUpdates[hostname] = line
	}

	for _, hostname := range localOrder {
		line := localUpdates[hostname]
		if idx, ok := remoteIndex[hostname]; ok {
			merged[idx] = line
		} else {
			merged = append(merged, line)
		}
	}

	return merged
}
