package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"mercari/internal/api"
	"mercari/internal/config"
)

const (
	serverStartTimeout = 3 * time.Second
	serverPollInterval = 100 * time.Millisecond
	serverPingTimeout = 500 * time.Millisecond
)

// withClient runs fn against the configured API, starting a local server for
// the duration of the call when nothing answers at cfg.APIURL.
func withClient(ctx context.Context, cfg *config.Config, fn func(*api.Client) error) error {
	cleanup, err := ensureServer(ctx, cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	return fn(api.NewClient(cfg.APIURL))
}

func ensureServer(ctx context.Context, cfg *config.Config) (func(), error) {
	client := api.NewClient(cfg.APIURL)
	pingCtx, cancel := context.WithTimeout(ctx, serverPingTimeout)
	defer cancel()

	err := client.Ping(pingCtx)
	if err == nil {
		return nil, nil
	}
	if !isConnRefused(err) {
		// Something other than a closed port is at the API address.
		return nil, err
	}

	cmd, stderr, err := startServerProcess(cfg)
	if err != nil {
		return nil, err
	}
	stop := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}

	if err := waitForServer(ctx, client, serverStartTimeout); err != nil {
		stop()
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return nil, err
	}

	return stop, nil
}

func startServerProcess(cfg *config.Config) (*exec.Cmd, *bytes.Buffer, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, nil, err
	}

	var stderr bytes.Buffer
	cmd := exec.Command(exe, "srv")
	cmd.Env = append(os.Environ(),
		"MERCARI_DB="+cfg.DBPath,
		"MERCARI_API_URL="+cfg.APIURL,
		"MERCARI_IMAGES_DIR="+cfg.ImagesDir,
	)
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return cmd, &stderr, nil
}

func waitForServer(ctx context.Context, client *api.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(serverPollInterval)
	defer ticker.Stop()

	for {
		pingCtx, pingCancel := context.WithTimeout(ctx, 200*time.Millisecond)
		err := client.Ping(pingCtx)
		pingCancel()
		if err == nil {
			return nil
		}
		if !isConnRefused(err) {
			// Something else owns the port.
			return err
		}

		select {
		case <-ctx.Done():
			return errors.New("server did not start in time")
		case <-ticker.C:
		}
	}
}

// isConnRefused reports whether nothing is listening at the dialed address.
func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
