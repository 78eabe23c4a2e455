// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/translocus/internal/hostsync"
	"github.com/tomtom215/translocus/internal/logging"
	"github.com/tomtom215/translocus/internal/mediaserver"
	"github.com/tomtom215/translocus/internal/pathmap"
	"github.com/tomtom215/translocus/internal/scanner"
	"github.com/tomtom215/translocus/internal/validation"
)

// ScanTrigger runs one immediate scan, bypassing the batch queue.
type ScanTrigger interface {
	ScanPath(ctx context.Context, localPath, mediaType string) (remotePath, sectionID string, err error)
}

// HostsSyncer runs one hosts sync cycle on demand.
type HostsSyncer interface {
	Sync(ctx context.Context) (hostsync.Result, error)
}

// Pinger checks connectivity to an upstream collaborator.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LibraryLister is implemented by the Plex client; when available, the
// connection test reports the visible library count.
type LibraryLister interface {
	Libraries(ctx context.Context) ([]mediaserver.PlexLibrary, error)
}

// Handler holds the endpoint implementations. Collaborators for disabled
// features are nil.
type Handler struct {
	bus        *scanner.Bus
	scans      ScanTrigger
	hosts      HostsSyncer
	plex       Pinger
	rclone     Pinger
	router     Pinger
	translator *pathmap.Translator
	start      time.Time
}

// NewHandler creates the endpoint handler.
func NewHandler(bus *scanner.Bus, scans ScanTrigger, hosts HostsSyncer, plex, rclone, router Pinger, translator *pathmap.Translator) *Handler {
	return &Handler{
		bus:        bus,
		scans:      scans,
		hosts:      hosts,
		plex:       plex,
		rclone:     rclone,
		router:     router,
		translator: translator,
		start:      time.Now(),
	}
}

// transferRequest is the body of POST /api/v1/events/transfer and
// POST /api/v1/scan.
type transferRequest struct {
	Path      string `json:"path" validate:"required"`
	MediaType string `json:"media_type"`
}

// TransferEvent accepts a transfer-complete notification and queues it for
// the next batched scan.
func (h *Handler) TransferEvent(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil || h.scans == nil {
		respondError(w, http.StatusServiceUnavailable, "SCAN_DISABLED", "the scan relay is disabled", nil)
		return
	}

	var req transferRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	if err := h.bus.PublishTransfer(scanner.TransferEvent{Path: req.Path, MediaType: req.MediaType}); err != nil {
		respondError(w, http.StatusInternalServerError, "PUBLISH_ERROR", "failed to queue transfer event", err)
		return
	}

	logging.Info().Str("path", sanitizeLogValue(req.Path)).Msg("transfer event accepted")
	respondSuccess(w, http.StatusAccepted, map[string]string{
		"path": req.Path,
	})
}

// Scan translates and scans a single path immediately.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	if h.scans == nil {
		respondError(w, http.StatusServiceUnavailable, "SCAN_DISABLED", "the scan relay is disabled", nil)
		return
	}

	var req transferRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	remote, section, err := h.scans.ScanPath(r.Context(), req.Path, req.MediaType)
	if err != nil {
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "scan failed: "+err.Error(), err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]string{
		"remote_path": remote,
		"library_id":  section,
	})
}

// componentStatus is one entry in the connection test report.
type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Test checks connectivity to every configured collaborator.
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	plexStatus := checkPinger(ctx, h.plex)
	if plexStatus.Status == "ok" {
		if lister, ok := h.plex.(LibraryLister); ok {
			if libs, err := lister.Libraries(ctx); err == nil {
				plexStatus.Message = fmt.Sprintf("%d libraries visible", len(libs))
			}
		}
	}

	report := map[string]componentStatus{
		"plex":   plexStatus,
		"rclone": checkPinger(ctx, h.rclone),
		"router": checkPinger(ctx, h.router),
	}

	if h.translator != nil && h.translator.HasRules() {
		report["path_mapping"] = componentStatus{Status: "ok"}
	} else {
		report["path_mapping"] = componentStatus{Status: "error", Message: "no path mapping configured"}
	}

	status := http.StatusOK
	for _, c := range report {
		if c.Status == "error" {
			status = http.StatusBadGateway
			break
		}
	}
	respondSuccess(w, status, report)
}

func checkPinger(ctx context.Context, p Pinger) componentStatus {
	if p == nil {
		return componentStatus{Status: "disabled"}
	}
	if err := p.Ping(ctx); err != nil {
		return componentStatus{Status: "error", Message: err.Error()}
	}
	return componentStatus{Status: "ok"}
}

// HostsSync runs one hosts sync cycle immediately.
func (h *Handler) HostsSync(w http.ResponseWriter, r *http.Request) {
	if h.hosts == nil {
		respondError(w, http.StatusServiceUnavailable, "HOSTSYNC_DISABLED", "hosts sync is disabled", nil)
		return
	}

	res, err := h.hosts.Sync(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "SYNC_ERROR", "hosts sync failed: "+err.Error(), err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]int{
		"updated":  res.Updated,
		"appended": res.Appended,
		"total":    res.Total,
	})
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady reports readiness: the process is up and, when the scan
// relay is enabled, Plex answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.plex != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.plex.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "NOT_READY", "plex unreachable", err)
			return
		}
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":         "ready",
		"uptime_seconds": int(time.Since(h.start).Seconds()),
	})
}
