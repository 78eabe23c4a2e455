// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateNotify(); err != nil {
		return err
	}

	if err := c.validateHostSync(); err != nil {
		return err
	}

	if err := c.validateScan(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

// validateNotify validates notification configuration (only if enabled)
func (c *Config) validateNotify() error {
	if !c.Notify.Enabled {
		return nil
	}

	if c.Notify.WebhookURL == "" {
		return fmt.Errorf("NOTIFY_WEBHOOK_URL is required when NOTIFY_ENABLED=true")
	}
	if err := validateHTTPURL(c.Notify.WebhookURL, "NOTIFY_WEBHOOK_URL"); err != nil {
		return fmt.Errorf("NOTIFY_WEBHOOK_URL is invalid: %w", err)
	}
	return nil
}

// validateHostSync validates hosts sync configuration (only if enabled)
func (c *Config) validateHostSync() error {
	if !c.HostSync.Enabled {
		return nil
	}

	if err := c.validateHostSyncCron(); err != nil {
		return err
	}
	return c.validateRouter()
}

// validateHostSyncCron validates the sync schedule expression
func (c *Config) validateHostSyncCron() error {
	if c.HostSync.Cron == "" {
		return fmt.Errorf("HOSTSYNC_CRON is required when HOSTSYNC_ENABLED=true")
	}
	if _, err := cron.ParseStandard(c.HostSync.Cron); err != nil {
		return fmt.Errorf("HOSTSYNC_CRON is not a valid cron expression: %w", err)
	}
	return nil
}

// validateRouter validates router SSH connection settings
func (c *Config) validateRouter() error {
	r := c.HostSync.Router

	if r.Host == "" {
		return fmt.Errorf("ROUTER_HOST is required when HOSTSYNC_ENABLED=true")
	}
	if strings.ContainsAny(r.Host, " /") {
		return fmt.Errorf("ROUTER_HOST must be a hostname or IP address, got %q", r.Host)
	}
	if r.SSHPort < 1 || r.SSHPort > 65535 {
		return fmt.Errorf("ROUTER_SSH_PORT must be between 1 and 65535, got %d", r.SSHPort)
	}
	if r.Username == "" {
		return fmt.Errorf("ROUTER_USERNAME is required when HOSTSYNC_ENABLED=true")
	}
	if r.Password == "" && r.PrivateKeyPath == "" {
		return fmt.Errorf("ROUTER_PASSWORD or ROUTER_PRIVATE_KEY_PATH is required when HOSTSYNC_ENABLED=true")
	}
	if r.ConnectTimeout <= 0 {
		return fmt.Errorf("ROUTER_CONNECT_TIMEOUT must be positive, got %s", r.ConnectTimeout)
	}
	return nil
}

// validateScan validates scan relay configuration (only if enabled)
func (c *Config) validateScan() error {
	if !c.Scan.Enabled {
		return nil
	}

	if c.Scan.Delay <= 0 {
		return fmt.Errorf("SCAN_DELAY must be positive, got %s", c.Scan.Delay)
	}
	if c.Scan.Timeout <= 0 {
		return fmt.Errorf("SCAN_TIMEOUT must be positive, got %s", c.Scan.Timeout)
	}

	if err := c.validatePlex(); err != nil {
		return err
	}
	return c.validateRclone()
}

// validatePlex validates Plex connection settings
func (c *Config) validatePlex() error {
	if c.Scan.Plex.URL == "" {
		return fmt.Errorf("PLEX_URL is required when SCAN_ENABLED=true")
	}
	if err := validateHTTPURL(c.Scan.Plex.URL, "PLEX_URL"); err != nil {
		return fmt.Errorf("PLEX_URL is invalid: %w", err)
	}
	if c.Scan.Plex.Token == "" {
		return fmt.Errorf("PLEX_TOKEN is required when SCAN_ENABLED=true")
	}
	return nil
}

// validateRclone validates rclone rc settings (only when refresh is enabled)
func (c *Config) validateRclone() error {
	if !c.Scan.Rclone.RefreshEnabled {
		return nil
	}

	if c.Scan.Rclone.URL == "" {
		return fmt.Errorf("RCLONE_RC_URL is required when RCLONE_REFRESH_ENABLED=true")
	}
	if err := validateHTTPURL(c.Scan.Rclone.URL, "RCLONE_RC_URL"); err != nil {
		return fmt.Errorf("RCLONE_RC_URL is invalid: %w", err)
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
