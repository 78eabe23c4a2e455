// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/translocus/internal/config"
	"github.com/tomtom215/translocus/internal/logging"
	"github.com/tomtom215/translocus/internal/metrics"
	"github.com/tomtom215/translocus/internal/notify"
	"github.com/tomtom215/translocus/internal/pathmap"
)

// LibraryRefresher triggers a partial scan of one library section.
type LibraryRefresher interface {
	RefreshLibrary(ctx context.Context, sectionID, path string) error
}

// VFSRefresher invalidates the rclone VFS directory cache so newly
// uploaded files are visible before the scan runs.
type VFSRefresher interface {
	VFSRefresh(ctx context.Context, dir string) error
}

// Coordinator consumes transfer events and turns them into batched
// directory scans: translate, deduplicate by directory, refresh the VFS
// cache, then refresh the matching Plex section.
type Coordinator struct {
	translator *pathmap.Translator
	plex       LibraryRefresher
	rclone     VFSRefresher
	notifier   notify.Notifier
	bus        *Bus
	queue      *Queue
	timeout    time.Duration
	refreshVFS bool
	logger     zerolog.Logger
}

// NewCoordinator wires the scan pipeline. rclone may be nil when VFS
// refreshing is disabled.
func NewCoordinator(cfg config.ScanConfig, translator *pathmap.Translator, plex LibraryRefresher, rclone VFSRefresher, notifier notify.Notifier, bus *Bus) *Coordinator {
	c := &Coordinator{
		translator: translator,
		plex:       plex,
		rclone:     rclone,
		notifier:   notifier,
		bus:        bus,
		timeout:    cfg.Timeout,
		refreshVFS: cfg.Rclone.RefreshEnabled && rclone != nil,
		logger:     logging.With().Str("component", "scanner").Logger(),
	}
	c.queue = NewQueue(cfg.Delay, c.drain)
	return c
}

// String identifies the coordinator in supervisor logs.
func (c *Coordinator) String() string {
	return "scan-coordinator"
}

// Serve consumes transfer events until ctx is cancelled. It satisfies
// suture.Service.
func (c *Coordinator) Serve(ctx context.Context) error {
	msgs, err := c.bus.SubscribeTransfers(ctx)
	if err != nil {
		return fmt.Errorf("subscribe transfers: %w", err)
	}

	c.logger.Info().Msg("scan coordinator started")
	for {
		select {
		case <-ctx.Done():
			c.queue.Stop()
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("transfer subscription closed")
			}
			var ev TransferEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				c.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("dropping undecodable transfer event")
				msg.Ack()
				continue
			}
			c.HandleTransfer(ev)
			msg.Ack()
		}
	}
}

// HandleTransfer queues one transfer event for the next batch drain.
func (c *Coordinator) HandleTransfer(ev TransferEvent) {
	if ev.Path == "" {
		c.logger.Warn().Msg("ignoring transfer event without path")
		return
	}

	mediaType := NormalizeMediaType(ev.MediaType)
	metrics.ScanEventsReceived.WithLabelValues(labelOrUnknown(mediaType)).Inc()
	c.logger.Info().Str("path", ev.Path).Str("media_type", mediaType).Msg("transfer event queued")
	c.queue.Enqueue(ev.Path, mediaType)
}

// directive is one deduplicated directory scan produced from a batch.
type directive struct {
	dir       string
	mediaType string
	libraryID string
	files     int
}

func (c *Coordinator) drain(batch []Entry) {
	start := time.Now()
	defer func() {
		metrics.ScanDrainDuration.Observe(time.Since(start).Seconds())
	}()

	directives := c.collect(batch)
	c.logger.Info().
		Int("queued", len(batch)).
		Int("directories", len(directives)).
		Msg("draining scan queue")

	var failed []string
	for _, d := range directives {
		// Each directory gets its own deadline so a slow or rate-limited
		// batch cannot starve the entries behind it.
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		err := c.scanDirectory(ctx, d)
		cancel()
		if err != nil {
			c.logger.Error().Err(err).Str("dir", d.dir).Msg("directory scan failed")
			failed = append(failed, d.dir)
			continue
		}
		c.logger.Info().Str("dir", d.dir).Int("files", d.files).Msg("directory scan complete")
	}

	if len(failed) > 0 && c.notifier != nil {
		text := fmt.Sprintf("%d of %d directories failed to scan:\n", len(failed), len(directives))
		for _, dir := range failed {
			text += dir + "\n"
		}
		c.notifier.Send(context.Background(), "Scan failures", text)
	}
}

// collect translates each entry and groups the batch by scan directory,
// keeping the first entry's metadata per directory. A media type detected
// from the translated path overrides the one carried by the event.
func (c *Coordinator) collect(batch []Entry) []directive {
	index := make(map[string]int)
	var out []directive

	for _, e := range batch {
		remote, libraryID := c.translator.Translate(e.Path)
		dir := ScanDirectory(remote)

		mediaType := e.MediaType
		if detected := DetectMediaType(dir); detected != "" {
			mediaType = detected
		}

		if i, seen := index[dir]; seen {
			out[i].files++
			continue
		}
		index[dir] = len(out)
		out = append(out, directive{
			dir:       dir,
			mediaType: mediaType,
			libraryID: libraryID,
			files:     1,
		})
	}
	return out
}

// scanDirectory refreshes the VFS cache for one directory, then triggers
// the Plex section scan. A VFS failure is logged and counted but does not
// stop the scan.
func (c *Coordinator) scanDirectory(ctx context.Context, d directive) error {
	if c.refreshVFS {
		err := c.rclone.VFSRefresh(ctx, d.dir)
		metrics.RecordVFSRefresh(err)
		if err != nil {
			c.logger.Warn().Err(err).Str("dir", d.dir).Msg("rclone VFS refresh failed, scanning anyway")
		}
	}

	sectionID, err := c.resolveLibrary(d)
	if err != nil {
		metrics.RecordDirectoryScan(err)
		return err
	}

	err = c.plex.RefreshLibrary(ctx, sectionID, d.dir)
	metrics.RecordDirectoryScan(err)
	if err != nil {
		return fmt.Errorf("refresh section %s: %w", sectionID, err)
	}
	return nil
}

// resolveLibrary picks the section to scan: the id bound by a path-library
// rule wins, then the media-type table, then the table's first entry.
func (c *Coordinator) resolveLibrary(d directive) (string, error) {
	if d.libraryID != "" {
		return d.libraryID, nil
	}
	if id, ok := c.translator.LibraryFor(d.mediaType); ok {
		return id, nil
	}
	if id := c.translator.DefaultLibrary(); id != "" {
		c.logger.Warn().
			Str("media_type", d.mediaType).
			Str("library_id", id).
			Msg("no library mapping for media type, using first configured library")
		return id, nil
	}
	return "", fmt.Errorf("no library configured for media type %q", d.mediaType)
}

// ScanPath runs the translate-refresh-scan pipeline for one path
// immediately, bypassing the queue. Used by the manual scan endpoint.
func (c *Coordinator) ScanPath(ctx context.Context, localPath, mediaType string) (remotePath, sectionID string, err error) {
	remote, libraryID := c.translator.Translate(localPath)
	dir := ScanDirectory(remote)

	mt := NormalizeMediaType(mediaType)
	if detected := DetectMediaType(dir); detected != "" {
		mt = detected
	}

	d := directive{dir: dir, mediaType: mt, libraryID: libraryID, files: 1}
	sectionID, err = c.resolveLibrary(d)
	if err != nil {
		return remote, "", err
	}
	d.libraryID = sectionID

	if err := c.scanDirectory(ctx, d); err != nil {
		return remote, sectionID, err
	}
	return remote, sectionID, nil
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
