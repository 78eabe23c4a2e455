// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

// Package rclone is a minimal client for the rclone remote-control API,
// covering the one call the scan relay needs: refreshing the VFS directory
// cache so a Plex scan sees files that just landed on the remote.
package rclone

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/translocus/internal/logging"
)

// Client talks to an rclone rc endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates an rclone rc client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// doPost executes an rc call with a JSON body. rclone replies 200 on
// success; anything else is a failure.
func (c *Client) doPost(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	return nil
}

// VFSRefresh refreshes the VFS directory cache for dir, recursively, so the
// mount reflects files written directly to the backing remote.
func (c *Client) VFSRefresh(ctx context.Context, dir string) error {
	payload := map[string]string{
		"dir":       dir,
		"recursive": "true",
	}
	if err := c.doPost(ctx, "/vfs/refresh", payload); err != nil {
		return fmt.Errorf("vfs refresh %s: %w", dir, err)
	}

	logging.Debug().Str("dir", dir).Msg("rclone vfs cache refreshed")
	return nil
}

// Ping verifies the rc endpoint is reachable via the no-op call.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.doPost(ctx, "/rc/noop", map[string]string{}); err != nil {
		return fmt.Errorf("rclone ping: %w", err)
	}
	return nil
}
