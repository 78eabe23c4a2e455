// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package hostsync

import (
	"fmt"
	"os"
	"runtime"
)

// LocalHostsPath returns the hosts file location for the current platform.
func LocalHostsPath() string {
	if runtime.GOOS == "windows" {
		return `c:\windows\system32\drivers\etc\hosts`
	}
	return "/etc/hosts"
}

// ReadLocalHosts reads the local hosts file and returns its lines in file
// order.
func ReadLocalHosts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read local hosts %s: %w", path, err)
	}
	return splitLines(string(data)), nil
}
