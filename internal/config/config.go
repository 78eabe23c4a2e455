// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment
// variables and an optional YAML config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access
// from multiple goroutines. Components receive it (or their section of it)
// explicitly at construction; nothing reads configuration through globals.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Notify   NotifyConfig   `koanf:"notify"`
	HostSync HostSyncConfig `koanf:"hostsync"`
	Scan     ScanConfig     `koanf:"scan"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_PORT: Listen port (default: 7744)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - SERVER_AUTH_TOKEN: Optional bearer token required on mutating endpoints
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	AuthToken       string        `koanf:"auth_token"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// NotifyConfig holds webhook notification settings. When disabled, sync
// and scan outcomes are logged only.
//
// Environment Variables:
//   - NOTIFY_ENABLED: Enable outbound notifications (default: false)
//   - NOTIFY_WEBHOOK_URL: Webhook endpoint receiving {title, text} JSON
//   - NOTIFY_TIMEOUT: Delivery timeout (default: 30s)
type NotifyConfig struct {
	Enabled    bool          `koanf:"enabled"`
	WebhookURL string        `koanf:"webhook_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

// RouterConfig holds SSH connection settings for the router whose
// /etc/hosts is kept in sync.
//
// Environment Variables:
//   - ROUTER_HOST, ROUTER_SSH_PORT (default: 22)
//   - ROUTER_USERNAME (default: root)
//   - ROUTER_PASSWORD, ROUTER_PRIVATE_KEY_PATH (key preferred when both set)
//   - ROUTER_CONNECT_TIMEOUT (default: 10s)
type RouterConfig struct {
	Host           string        `koanf:"host"`
	SSHPort        int           `koanf:"ssh_port"`
	Username       string        `koanf:"username"`
	Password       string        `koanf:"password"`
	PrivateKeyPath string        `koanf:"private_key_path"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// HostSyncConfig holds the hosts-sync schedule and merge settings.
//
// Environment Variables:
//   - HOSTSYNC_ENABLED: Enable the scheduled sync (default: false)
//   - HOSTSYNC_CRON: Standard 5-field cron expression (default: "0 6 * * *")
//   - HOSTSYNC_RUN_ON_START: Run one sync shortly after startup
//   - HOSTSYNC_IGNORE: Pipe-delimited hostnames/addresses excluded from the
//     merge ("localhost" is always excluded)
type HostSyncConfig struct {
	Enabled    bool         `koanf:"enabled"`
	Cron       string       `koanf:"cron"`
	RunOnStart bool         `koanf:"run_on_start"`
	Router     RouterConfig `koanf:"router"`
	Ignore     string       `koanf:"ignore"`
}

// PlexConfig holds Plex Media Server connection settings.
//
// Environment Variables:
//   - PLEX_URL: Base URL (e.g. http://localhost:32400)
//   - PLEX_TOKEN: X-Plex-Token value
type PlexConfig struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`
}

// RcloneConfig holds rclone remote-control settings for VFS cache refresh.
//
// Environment Variables:
//   - RCLONE_RC_URL: rclone rc base URL (e.g. http://localhost:5572)
//   - RCLONE_REFRESH_ENABLED: Refresh the VFS dir cache before each scan
type RcloneConfig struct {
	URL            string `koanf:"url"`
	RefreshEnabled bool   `koanf:"refresh_enabled"`
}

// ScanConfig holds the scan relay settings, including the textual path
// mapping rules evaluated per transfer event.
//
// PathLibraryMapping is one "local:remote:library_id" rule per line
// ("#" comments and blank lines skipped). PathMapping is a single
// "local:remote" or "local|remote" pair, or a bare remote prefix.
// LibraryMapping maps media types to section ids, e.g. "movie:1,tv:2".
//
// Environment Variables:
//   - SCAN_ENABLED, SCAN_DELAY (default: 10s), SCAN_TIMEOUT (default: 30s)
//   - PATH_LIBRARY_MAPPING, PATH_MAPPING, LIBRARY_MAPPING
type ScanConfig struct {
	Enabled            bool          `koanf:"enabled"`
	Delay              time.Duration `koanf:"delay"`
	Timeout            time.Duration `koanf:"timeout"`
	Plex               PlexConfig    `koanf:"plex"`
	Rclone             RcloneConfig  `koanf:"rclone"`
	PathLibraryMapping string        `koanf:"path_library_mapping"`
	PathMapping        string        `koanf:"path_mapping"`
	LibraryMapping     string        `koanf:"library_mapping"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: Include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads and validates the configuration from all sources.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
