// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/translocus/internal/hostsync"
	"github.com/tomtom215/translocus/internal/mediaserver"
	"github.com/tomtom215/translocus/internal/pathmap"
	"github.com/tomtom215/translocus/internal/scanner"
)

type fakeScan struct {
	remote  string
	section string
	err     error
	gotPath string
}

func (f *fakeScan) ScanPath(_ context.Context, localPath, _ string) (string, string, error) {
	f.gotPath = localPath
	return f.remote, f.section, f.err
}

type fakeSync struct {
	res hostsync.Result
	err error
}

func (f *fakeSync) Sync(context.Context) (hostsync.Result, error) {
	return f.res, f.err
}

type fakePing struct{ err error }

func (f *fakePing) Ping(context.Context) error { return f.err }

// fakePlexFull also satisfies LibraryLister.
type fakePlexFull struct {
	fakePing
	libs []mediaserver.PlexLibrary
}

func (f *fakePlexFull) Libraries(context.Context) ([]mediaserver.PlexLibrary, error) {
	return f.libs, nil
}

type handlerDeps struct {
	bus        *scanner.Bus
	scans      ScanTrigger
	hosts      HostsSyncer
	plex       Pinger
	rclone     Pinger
	router     Pinger
	translator *pathmap.Translator
	authToken  string
}

func newTestServer(t *testing.T, deps handlerDeps) *httptest.Server {
	t.Helper()
	h := NewHandler(deps.bus, deps.scans, deps.hosts, deps.plex, deps.rclone, deps.router, deps.translator)
	cfg := DefaultChiMiddlewareConfig()
	cfg.AuthToken = deps.authToken
	srv := httptest.NewServer(NewRouter(h, NewChiMiddleware(cfg)).SetupChi())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var envelope map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

func TestTransferEventAccepted(t *testing.T) {
	bus := scanner.NewBus()
	defer bus.Close()
	srv := newTestServer(t, handlerDeps{bus: bus, scans: &fakeScan{}})

	resp := postJSON(t, srv.URL+"/api/v1/events/transfer", `{"path":"/local/movies/Film/f.mkv","media_type":"movie"}`, "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	envelope := decodeEnvelope(t, resp)
	if envelope["status"] != "success" {
		t.Errorf("envelope status = %v, want success", envelope["status"])
	}
}

func TestTransferEventValidation(t *testing.T) {
	bus := scanner.NewBus()
	defer bus.Close()
	srv := newTestServer(t, handlerDeps{bus: bus, scans: &fakeScan{}})

	tests := []struct {
		name string
		body string
	}{
		{"missing path", `{"media_type":"movie"}`},
		{"invalid json", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/v1/events/transfer", tt.body, "")
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestTransferEventDisabled(t *testing.T) {
	srv := newTestServer(t, handlerDeps{})

	resp := postJSON(t, srv.URL+"/api/v1/events/transfer", `{"path":"/a"}`, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when scan relay disabled", resp.StatusCode)
	}
}

func TestScanImmediate(t *testing.T) {
	scan := &fakeScan{remote: "/media/movies/Film/", section: "1"}
	srv := newTestServer(t, handlerDeps{scans: scan})

	resp := postJSON(t, srv.URL+"/api/v1/scan", `{"path":"/local/movies/Film/f.mkv"}`, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]interface{})
	if data["remote_path"] != "/media/movies/Film/" || data["library_id"] != "1" {
		t.Errorf("data = %v", data)
	}
	if scan.gotPath != "/local/movies/Film/f.mkv" {
		t.Errorf("ScanPath called with %q", scan.gotPath)
	}
}

func TestScanUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, handlerDeps{scans: &fakeScan{err: errors.New("plex down")}})

	resp := postJSON(t, srv.URL+"/api/v1/scan", `{"path":"/local/f.mkv"}`, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestConnectionTestReport(t *testing.T) {
	srv := newTestServer(t, handlerDeps{
		plex:       &fakePing{},
		rclone:     &fakePing{err: errors.New("refused")},
		translator: pathmap.New("", "/local:/media", ""),
	})

	resp, err := http.Get(srv.URL + "/api/v1/test")
	if err != nil {
		t.Fatalf("GET /test: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 when a component fails", resp.StatusCode)
	}
	envelope := decodeEnvelope(t, resp)
	report := envelope["data"].(map[string]interface{})

	plex := report["plex"].(map[string]interface{})
	if plex["status"] != "ok" {
		t.Errorf("plex status = %v, want ok", plex["status"])
	}
	rclone := report["rclone"].(map[string]interface{})
	if rclone["status"] != "error" {
		t.Errorf("rclone status = %v, want error", rclone["status"])
	}
	router := report["router"].(map[string]interface{})
	if router["status"] != "disabled" {
		t.Errorf("router status = %v, want disabled", router["status"])
	}
	mapping := report["path_mapping"].(map[string]interface{})
	if mapping["status"] != "ok" {
		t.Errorf("path_mapping status = %v, want ok", mapping["status"])
	}
}

func TestConnectionTestReportsLibraryCount(t *testing.T) {
	plex := &fakePlexFull{libs: []mediaserver.PlexLibrary{
		{Key: "1", Title: "Movies", Type: "movie"},
		{Key: "2", Title: "TV", Type: "show"},
	}}
	srv := newTestServer(t, handlerDeps{
		plex:       plex,
		translator: pathmap.New("", "/local:/media", ""),
	})

	resp, err := http.Get(srv.URL + "/api/v1/test")
	if err != nil {
		t.Fatalf("GET /test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	envelope := decodeEnvelope(t, resp)
	report := envelope["data"].(map[string]interface{})
	plexReport := report["plex"].(map[string]interface{})
	if plexReport["message"] != "2 libraries visible" {
		t.Errorf("plex message = %v, want library count", plexReport["message"])
	}
}

func TestHostsSyncEndpoint(t *testing.T) {
	srv := newTestServer(t, handlerDeps{
		hosts: &fakeSync{res: hostsync.Result{Updated: 2, Appended: 1, Total: 10}},
	})

	resp := postJSON(t, srv.URL+"/api/v1/hosts/sync", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]interface{})
	if data["updated"].(float64) != 2 || data["appended"].(float64) != 1 {
		t.Errorf("data = %v", data)
	}
}

func TestHostsSyncDisabled(t *testing.T) {
	srv := newTestServer(t, handlerDeps{})

	resp := postJSON(t, srv.URL+"/api/v1/hosts/sync", "", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, handlerDeps{plex: &fakePing{}})

	resp, err := http.Get(srv.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("GET live: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("live status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/v1/health/ready")
	if err != nil {
		t.Fatalf("GET ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d, want 200", resp.StatusCode)
	}
}

func TestHealthReadyPlexDown(t *testing.T) {
	srv := newTestServer(t, handlerDeps{plex: &fakePing{err: errors.New("timeout")}})

	resp, err := http.Get(srv.URL + "/api/v1/health/ready")
	if err != nil {
		t.Fatalf("GET ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503 when plex is down", resp.StatusCode)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServer(t, handlerDeps{scans: &fakeScan{remote: "/m/", section: "1"}, authToken: "secret"})

	resp := postJSON(t, srv.URL+"/api/v1/scan", `{"path":"/a.mkv"}`, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/v1/scan", `{"path":"/a.mkv"}`, "secret")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status with token = %d, want 200", resp.StatusCode)
	}

	// Health stays open.
	hr, err := http.Get(srv.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("GET live: %v", err)
	}
	hr.Body.Close()
	if hr.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200 without auth", hr.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, handlerDeps{})

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", resp.StatusCode)
	}
}
