// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

/*
plex.go - Plex Media Server API Client

This file provides the core PlexClient struct for triggering partial library
scans against Plex Media Server's REST API.

PlexClient Features:
  - HTTP client with configurable timeout
  - X-Plex-Token authentication
  - Automatic rate limit handling with exponential backoff
  - Refresh-call pacing via a token bucket limiter

API Methods in this file:
  - NewPlexClient(): Create authenticated client
  - Libraries(): List library sections (connection test)
  - RefreshLibrary(): Trigger a partial scan of one directory
  - Ping(): Cheap server identity check
  - doRequestWithRateLimit(): HTTP 429 retry logic

Related Files:
  - plex_request.go: HTTP request helpers
  - circuit_breaker.go: Breaker-wrapped client used by the scanner
*/

//nolint:staticcheck // File documentation, not package doc
package mediaserver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/translocus/internal/logging"
)

// PlexClient handles communication with the Plex Media Server API.
type PlexClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// PlexLibrary is one library section from /library/sections.
type PlexLibrary struct {
	Key   string `json:"key"`   // Section id used in refresh URLs
	Title string `json:"title"` // Display name
	Type  string `json:"type"`  // "movie", "show", "artist", "photo"
}

// plexSectionsResponse is the top-level response from /library/sections.
type plexSectionsResponse struct {
	MediaContainer struct {
		Size      int           `json:"size"`
		Directory []PlexLibrary `json:"Directory"`
	} `json:"MediaContainer"`
}

// plexIdentityResponse is the response from /identity.
type plexIdentityResponse struct {
	MediaContainer struct {
		MachineIdentifier string `json:"machineIdentifier"`
		Version           string `json:"version"`
	} `json:"MediaContainer"`
}

// NewPlexClient creates a new Plex API client.
//
// Parameters:
//   - baseURL: Plex Media Server URL (e.g., "http://localhost:32400")
//   - token: X-Plex-Token for authentication
//   - timeout: per-request HTTP timeout
//
// Refresh calls are additionally paced at one per second (burst 2) so a
// drained queue of directories never hammers the server.
func NewPlexClient(baseURL, token string, timeout time.Duration) *PlexClient {
	return &PlexClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// Libraries lists all library sections. Used by the connection test and to
// resolve section names in logs.
func (c *PlexClient) Libraries(ctx context.Context) ([]PlexLibrary, error) {
	var resp plexSectionsResponse
	if err := c.doJSONRequest(ctx, "/library/sections", &resp); err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	return resp.MediaContainer.Directory, nil
}

// RefreshLibrary triggers a partial scan of path within the given library
// section. Success is HTTP 200; Plex performs the scan asynchronously.
func (c *PlexClient) RefreshLibrary(ctx context.Context, sectionID, path string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("refresh pacing: %w", err)
	}

	query := url.Values{}
	query.Set("path", path)

	err := c.doRequest(ctx, requestConfig{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/library/sections/%s/refresh", sectionID),
		query:    query,
		expectOK: true,
	}, nil)
	if err != nil {
		return fmt.Errorf("refresh section %s: %w", sectionID, err)
	}

	logging.Debug().Str("section", sectionID).Str("path", path).Msg("plex partial scan triggered")
	return nil
}

// Ping verifies connectivity and authentication against /identity.
func (c *PlexClient) Ping(ctx context.Context) error {
	var resp plexIdentityResponse
	if err := c.doJSONRequest(ctx, "/identity", &resp); err != nil {
		return fmt.Errorf("plex ping: %w", err)
	}
	return nil
}

// doRequestWithRateLimit executes an HTTP request with automatic retry on
// rate limiting (HTTP 429):
//   - Max 5 retry attempts
//   - Exponential backoff: 1s, 2s, 4s, 8s, 16s
//   - Respects Retry-After header (RFC 6585) if present
func (c *PlexClient) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	const maxRetries = 5
	baseDelay := 1 * time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		resp.Body.Close()

		if attempt == maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", maxRetries)
		}

		retryDelay := baseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				retryDelay = seconds
			}
		}

		logging.Warn().
			Dur("retry_delay", retryDelay).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Msg("Plex API rate limited (HTTP 429), retrying")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("unreachable code: retry loop should return or error")
}
