// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/translocus/config.yaml",
	"/etc/translocus/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            7744,
			Timeout:         30 * time.Second,
			AuthToken:       "",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Notify: NotifyConfig{
			Enabled:    false,
			WebhookURL: "",
			Timeout:    30 * time.Second,
		},
		HostSync: HostSyncConfig{
			Enabled:    false,
			Cron:       "0 6 * * *",
			RunOnStart: false,
			Router: RouterConfig{
				Host:           "",
				SSHPort:        22,
				Username:       "root",
				Password:       "",
				PrivateKeyPath: "",
				ConnectTimeout: 10 * time.Second,
			},
			Ignore: "",
		},
		Scan: ScanConfig{
			Enabled: false,
			Delay:   10 * time.Second,
			Timeout: 30 * time.Second,
			Plex: PlexConfig{
				URL:   "",
				Token: "",
			},
			Rclone: RcloneConfig{
				URL:            "",
				RefreshEnabled: false,
			},
			PathLibraryMapping: "",
			PathMapping:        "",
			LibraryMapping:     "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known
// slice fields. Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - ROUTER_HOST -> hostsync.router.host
//   - PLEX_TOKEN -> scan.plex.token
//
// Unmapped environment variables are skipped so that unrelated variables
// never pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":         "server.host",
		"http_port":         "server.port",
		"http_timeout":      "server.timeout",
		"server_auth_token": "server.auth_token",
		"cors_origins":      "server.cors_origins",
		"rate_limit_reqs":   "server.rate_limit_reqs",
		"rate_limit_window": "server.rate_limit_window",

		// Notification mappings
		"notify_enabled":     "notify.enabled",
		"notify_webhook_url": "notify.webhook_url",
		"notify_timeout":     "notify.timeout",

		// Hosts sync mappings
		"hostsync_enabled":        "hostsync.enabled",
		"hostsync_cron":           "hostsync.cron",
		"hostsync_run_on_start":   "hostsync.run_on_start",
		"hostsync_ignore":         "hostsync.ignore",
		"router_host":             "hostsync.router.host",
		"router_ssh_port":         "hostsync.router.ssh_port",
		"router_username":         "hostsync.router.username",
		"router_password":         "hostsync.router.password",
		"router_private_key_path": "hostsync.router.private_key_path",
		"router_connect_timeout":  "hostsync.router.connect_timeout",

		// Scan relay mappings
		"scan_enabled":           "scan.enabled",
		"scan_delay":             "scan.delay",
		"scan_timeout":           "scan.timeout",
		"plex_url":               "scan.plex.url",
		"plex_token":             "scan.plex.token",
		"rclone_rc_url":          "scan.rclone.url",
		"rclone_refresh_enabled": "scan.rclone.refresh_enabled",
		"path_library_mapping":   "scan.path_library_mapping",
		"path_mapping":           "scan.path_mapping",
		"library_mapping":        "scan.library_mapping",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	return ""
}
