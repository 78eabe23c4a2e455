// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

// Package hostsync keeps the router's hosts file in step with the local
// machine's: on a cron schedule it merges local entries into the remote
// file over SSH, preserving the remote file's order and comments.
package hostsync

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/translocus/internal/config"
	"github.com/tomtom215/translocus/internal/hostsfile"
	"github.com/tomtom215/translocus/internal/logging"
	"github.com/tomtom215/translocus/internal/metrics"
	"github.com/tomtom215/translocus/internal/notify"
)

// Router is the remote side of a sync. Implemented by RouterClient.
type Router interface {
	FetchHosts(ctx context.Context) ([]string, error)
	WriteHosts(ctx context.Context, lines []string) error
	Ping(ctx context.Context) error
}

// Result summarizes one sync run.
type Result struct {
	Updated  int
	Appended int
	Total    int
}

// Service runs scheduled hosts syncs. It satisfies suture.Service.
type Service struct {
	cfg       config.HostSyncConfig
	router    Router
	notifier  notify.Notifier
	schedule  cron.Schedule
	ignore    hostsfile.IgnoreSet
	hostsPath string
	logger    zerolog.Logger
}

// New builds the sync service. The cron expression has already passed
// config validation, so a parse failure here is a bug.
func New(cfg config.HostSyncConfig, router Router, notifier notify.Notifier) (*Service, error) {
	schedule, err := cron.ParseStandard(cfg.Cron)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", cfg.Cron, err)
	}
	return &Service{
		cfg:       cfg,
		router:    router,
		notifier:  notifier,
		schedule:  schedule,
		ignore:    hostsfile.NewIgnoreSet(cfg.Ignore),
		hostsPath: LocalHostsPath(),
		logger:    logging.With().Str("component", "hostsync").Logger(),
	}, nil
}

// String identifies the service in supervisor logs.
func (s *Service) String() string {
	return "hostsync"
}

// Serve runs syncs on the configured schedule until ctx is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	if s.cfg.RunOnStart {
		s.runOnce(ctx)
	}

	for {
		next := s.schedule.Next(time.Now())
		s.logger.Info().Time("next_run", next).Msg("hosts sync scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	res, err := s.Sync(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("hosts sync failed")
		if s.notifier != nil {
			s.notifier.Send(ctx, "Hosts sync failed", err.Error())
		}
		return
	}
	if s.notifier != nil && (res.Updated > 0 || res.Appended > 0) {
		s.notifier.Send(ctx, "Hosts sync complete",
			fmt.Sprintf("%d entries updated, %d appended, %d lines total", res.Updated, res.Appended, res.Total))
	}
}

// Sync performs one merge-and-write cycle. The remote file is rewritten
// only when the merge changed something.
func (s *Service) Sync(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := s.sync(ctx)
	metrics.RecordHostsSync(time.Since(start), res.Updated, res.Appended, err)
	return res, err
}

func (s *Service) sync(ctx context.Context) (Result, error) {
	local, err := ReadLocalHosts(s.hostsPath)
	if err != nil {
		return Result{}, err
	}
	if len(local) == 0 {
		return Result{}, fmt.Errorf("local hosts file %s is empty", s.hostsPath)
	}

	remote, err := s.router.FetchHosts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch remote hosts: %w", err)
	}

	merged := hostsfile.Merge(local, remote, s.ignore)
	res := diff(remote, merged)

	s.logger.Info().
		Int("local_lines", len(local)).
		Int("remote_lines", len(remote)).
		Int("updated", res.Updated).
		Int("appended", res.Appended).
		Msg("hosts merged")

	if res.Updated == 0 && res.Appended == 0 {
		s.logger.Info().Msg("remote hosts already up to date, skipping write")
		return res, nil
	}

	if err := s.router.WriteHosts(ctx, merged); err != nil {
		return res, fmt.Errorf("write remote hosts: %w", err)
	}
	return res, nil
}

// diff counts in-place updates and appended lines between the remote file
// and the merge output. Merge never removes or reorders remote lines, so a
// positional comparison is exact.
func diff(remote, merged []string) Result {
	res := Result{Total: len(merged)}
	for i, line := range remote {
		if merged[i] != line {
			res.Updated++
		}
	}
	res.Appended = len(merged) - len(remote)
	return res
}
