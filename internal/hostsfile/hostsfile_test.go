// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package hostsfile

import (
	"reflect"
	"testing"
)

func TestNewIgnoreSet(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty always has localhost", raw: "", want: []string{"localhost"}},
		{name: "single token", raw: "router.lan", want: []string{"localhost", "router.lan"}},
		{name: "pipe delimited", raw: "router.lan|10.0.0.5", want: []string{"localhost", "router.lan", "10.0.0.5"}},
		{name: "blank segments dropped", raw: "a||b|", want: []string{"localhost", "a", "b"}},
		{name: "whitespace trimmed", raw: " a | b ", want: []string{"localhost", "a", "b"}},
		{name: "localhost not duplicated", raw: "localhost|nas", want: []string{"localhost", "nas"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewIgnoreSet(tt.raw)
			if !reflect.DeepEqual(got.tokens, tt.want) {
				t.Errorf("NewIgnoreSet(%q).tokens = %v, want %v", tt.raw, got.tokens, tt.want)
			}
		})
	}
}

func TestExcludedAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want bool
	}{
		{name: "private ipv4", addr: "192.168.1.10", want: false},
		{name: "public ipv4", addr: "8.8.8.8", want: false},
		{name: "loopback", addr: "127.0.0.1", want: true},
		{name: "loopback subnet", addr: "127.1.2.3", want: true},
		{name: "ipv6 loopback", addr: "::1", want: true},
		{name: "ipv6 global", addr: "2001:db8::1", want: true},
		{name: "ipv6 link local", addr: "fe80::1", want: true},
		{name: "ipv4-mapped ipv6", addr: "::ffff:192.168.1.10", want: false},
		{name: "garbage", addr: "not-an-ip", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := excludedAddress(tt.addr); got != tt.want {
				t.Errorf("excludedAddress(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantAddr     string
		wantHostname string
		wantOK       bool
	}{
		{name: "plain entry", line: "192.168.1.10 nas", wantAddr: "192.168.1.10", wantHostname: "nas", wantOK: true},
		{name: "tabs and aliases", line: "192.168.1.10\tnas nas.lan", wantAddr: "192.168.1.10", wantHostname: "nas", wantOK: true},
		{name: "leading whitespace", line: "   10.0.0.1 gw", wantAddr: "10.0.0.1", wantHostname: "gw", wantOK: true},
		{name: "comment", line: "# 192.168.1.10 nas", wantOK: false},
		{name: "blank", line: "   ", wantOK: false},
		{name: "single field", line: "192.168.1.10", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, hostname, ok := parseEntry(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("parseEntry(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if addr != tt.wantAddr || hostname != tt.wantHostname {
				t.Errorf("parseEntry(%q) = (%q, %q), want (%q, %q)",
					tt.line, addr, hostname, tt.wantAddr, tt.wantHostname)
			}
		})
	}
}

func TestMergeUpdateInPlaceAndAppend(t *testing.T) {
	remote := []string{
		"# router managed",
		"127.0.0.1 localhost",
		"192.168.1.1 router.lan",
		"",
		"192.168.1.10 nas",
	}
	local := []string{
		"192.168.1.99 nas extra-alias",
		"192.168.1.20 printer",
	}

	got := Merge(local, remote, NewIgnoreSet(""))

	want := []string{
		"# router managed",
		"127.0.0.1 localhost",
		"192.168.1.1 router.lan",
		"",
		"192.168.1.99 nas extra-alias",
		"192.168.1.20 printer",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

// The length law: output length is remote length plus the number of local
// entries with no remote counterpart.
func TestMergeLengthInvariant(t *testing.T) {
	remote := []string{
		"# comment",
		"192.168.1.1 router.lan",
		"192.168.1.10 nas",
	}
	local := []string{
		"192.168.1.10 nas",     // update (no growth)
		"192.168.1.20 printer", // append
		"192.168.1.30 camera",  // append
		"# local comment",      // never a candidate
	}

	got := Merge(local, remote, NewIgnoreSet(""))
	if len(got) != len(remote)+2 {
		t.Errorf("len = %d, want %d", len(got), len(remote)+2)
	}
}

// Merging the same local file twice yields the same result: updates land on
// the same lines and appends are replaced in place on the second pass.
func TestMergeIdempotent(t *testing.T) {
	remote := []string{
		"192.168.1.1 router.lan",
	}
	local := []string{
		"192.168.1.10 nas",
		"192.168.1.20 printer",
	}
	ignore := NewIgnoreSet("")

	once := Merge(local, remote, ignore)
	twice := Merge(local, once, ignore)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second merge changed output:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestMergeLoopbackAndIPv6CopiedButNeverMerged(t *testing.T) {
	remote := []string{
		"127.0.0.1 localhost",
		"::1 localhost ip6-localhost",
		"fe80::1 gateway6",
		"192.168.1.10 nas",
	}
	local := []string{
		"127.0.0.1 myhost",    // loopback: never merged
		"2001:db8::5 nas",     // IPv6: never merged, must not touch the nas line
		"192.168.1.50 camera", // eligible
	}

	got := Merge(local, remote, NewIgnoreSet(""))

	want := []string{
		"127.0.0.1 localhost",
		"::1 localhost ip6-localhost",
		"fe80::1 gateway6",
		"192.168.1.10 nas",
		"192.168.1.50 camera",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

// Local-side filtering is substring containment on the raw line; remote-side
// is exact field match. An ignore token that is a substring of a local
// hostname drops that local line but leaves the remote line mergeable.
func TestMergeIgnoreAsymmetry(t *testing.T) {
	ignore := NewIgnoreSet("host")

	remote := []string{
		"192.168.1.10 myhost.lan", // "host" != "myhost.lan": stays mergeable
	}
	local := []string{
		"192.168.1.99 myhost.lan", // raw line contains "host": dropped
		"192.168.1.20 printer",
	}

	got := Merge(local, remote, ignore)

	want := []string{
		"192.168.1.10 myhost.lan", // untouched: local update was filtered out
		"192.168.1.20 printer",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

func TestMergeIgnoreExactOnRemote(t *testing.T) {
	ignore := NewIgnoreSet("nas")

	remote := []string{
		"192.168.1.10 nas", // exact match: excluded from the index
	}
	local := []string{
		"192.168.1.20 printer",
	}

	got := Merge(local, remote, ignore)

	want := []string{
		"192.168.1.10 nas",
		"192.168.1.20 printer",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

func TestMergeImplicitLocalhostIgnore(t *testing.T) {
	remote := []string{
		"192.168.1.1 router.lan",
	}
	local := []string{
		"192.168.1.5 localhost", // contains "localhost": always dropped
		"192.168.1.20 printer",
	}

	got := Merge(local, remote, NewIgnoreSet(""))

	want := []string{
		"192.168.1.1 router.lan",
		"192.168.1.20 printer",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

func TestMergeEmptyRemote(t *testing.T) {
	local := []string{
		"192.168.1.10 nas",
		"# comment",
		"192.168.1.20 printer",
	}

	got := Merge(local, nil, NewIgnoreSet(""))

	want := []string{
		"192.168.1.10 nas",
		"192.168.1.20 printer",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

func TestMergeBOMStripped(t *testing.T) {
	local := []string{
		"\ufeff192.168.1.10 nas",
	}
	remote := []string{
		"192.168.1.1 router.lan",
	}

	got := Merge(local, remote, NewIgnoreSet(""))

	want := []string{
		"192.168.1.1 router.lan",
		"192.168.1.10 nas",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

func TestMergeDuplicateHostnamesLastWins(t *testing.T) {
	remote := []string{
		"192.168.1.10 nas",
		"192.168.1.11 nas", // last remote occurrence is the one updated
	}
	local := []string{
		"192.168.1.50 nas",
		"192.168.1.51 nas", // last local occurrence provides the text
	}

	got := Merge(local, remote, NewIgnoreSet(""))

	want := []string{
		"192.168.1.10 nas",
		"192.168.1.51 nas",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

func TestMergeMalformedLinesPreserved(t *testing.T) {
	remote := []string{
		"192.168.1.10", // single field: copied through, never indexed
		"this is not a hosts line at all",
	}
	local := []string{
		"192.168.1.20 printer",
	}

	got := Merge(local, remote, NewIgnoreSet(""))

	want := []string{
		"192.168.1.10",
		"this is not a hosts line at all",
		"192.168.1.20 printer",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}
