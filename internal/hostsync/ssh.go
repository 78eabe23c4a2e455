// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package hostsync

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/tomtom215/translocus/internal/config"
	"github.com/tomtom215/translocus/internal/logging"
)

const (
	remoteHostsPath  = "/etc/hosts"
	remoteBackupPath = "/etc/hosts.backup"
)

// RouterClient talks to the router over SSH to read and replace its hosts
// file.
type RouterClient struct {
	cfg    config.RouterConfig
	logger zerolog.Logger
}

// NewRouterClient creates a client for the configured router.
func NewRouterClient(cfg config.RouterConfig) *RouterClient {
	return &RouterClient{
		cfg:    cfg,
		logger: logging.With().Str("component", "router-ssh").Str("host", cfg.Host).Logger(),
	}
}

// authMethods builds the SSH auth chain. A private key is preferred; the
// password is kept as a fallback when both are configured.
func (c *RouterClient) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if c.cfg.PrivateKeyPath != "" {
		key, err := os.ReadFile(c.cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key %s: %w", c.cfg.PrivateKeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse private key %s: %w", c.cfg.PrivateKeyPath, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if c.cfg.Password != "" {
		methods = append(methods, ssh.Password(c.cfg.Password))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("no SSH auth configured: set ROUTER_PASSWORD or ROUTER_PRIVATE_KEY_PATH")
	}
	return methods, nil
}

// dial opens an SSH connection honoring ctx for the TCP dial and closing
// the connection when ctx is cancelled mid-command.
func (c *RouterClient) dial(ctx context.Context) (*ssh.Client, error) {
	methods, err := c.authMethods()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.SSHPort))
	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	sshCfg := &ssh.ClientConfig{
		User: c.cfg.Username,
		Auth: methods,
		// Consumer routers regenerate host keys on firmware resets, so
		// pinning them would break the sync on every reset.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         c.cfg.ConnectTimeout,
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)
	go func() {
		<-ctx.Done()
		client.Close()
	}()
	return client, nil
}

// FetchHosts reads the router's hosts file and returns its lines in order.
func (c *RouterClient) FetchHosts(ctx context.Context) ([]string, error) {
	client, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	out, err := session.Output("cat " + remoteHostsPath)
	if err != nil {
		return nil, fmt.Errorf("read remote hosts: %w", err)
	}
	return splitLines(string(out)), nil
}

// WriteHosts backs up the router's hosts file, then replaces it with the
// given lines.
func (c *RouterClient) WriteHosts(ctx context.Context, lines []string) error {
	client, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	backup, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("open backup session: %w", err)
	}
	if err := backup.Run(fmt.Sprintf("cp %s %s", remoteHostsPath, remoteBackupPath)); err != nil {
		backup.Close()
		return fmt.Errorf("backup remote hosts: %w", err)
	}
	backup.Close()

	write, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("open write session: %w", err)
	}
	defer write.Close()

	write.Stdin = strings.NewReader(strings.Join(lines, "\n") + "\n")
	if err := write.Run("cat > " + remoteHostsPath); err != nil {
		return fmt.Errorf("write remote hosts: %w", err)
	}

	c.logger.Info().Int("lines", len(lines)).Msg("remote hosts file replaced")
	return nil
}

// Ping verifies SSH connectivity without touching any files.
func (c *RouterClient) Ping(ctx context.Context) error {
	client, err := c.dial(ctx)
	if err != nil {
		return err
	}
	return client.Close()
}

// splitLines splits file content into lines, tolerating CRLF endings and
// dropping a single trailing empty line from the final newline.
func splitLines(content string) []string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
