package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning is returned by Acquire when a live owner answers on the socket.
var ErrAlreadyRunning = errors.New("rewrite already in progress")

// RuntimeSocketPath returns $XDG_RUNTIME_DIR/reright.sock.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, "reright.sock"), nil
}

// Acquire listens on path, becoming the single owner. A socket file left by a
// dead owner is removed and rescue runs so leftover UI state can be cleared.
func Acquire(
	ctx context.Context,
	path string,
	pingTimeout time.Duration,
	retries int,
	rescue func(context.Context) error,
) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; ; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}
		if err := reclaim(ctx, path, pingTimeout, rescue); err != nil {
			return nil, err
		}
		if attempt == retries {
			return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, retries)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquireBackoff(attempt)):
		}
	}
}

// reclaim removes a socket file nobody answers on. It returns
// ErrAlreadyRunning when the owner is alive.
func reclaim(ctx context.Context, path string, pingTimeout time.Duration, rescue func(context.Context) error) error {
	alive, err := Ping(ctx, path, pingTimeout)
	if alive {
		return ErrAlreadyRunning
	}
	if err != nil {
		return fmt.Errorf("ping existing socket %s: %w", path, err)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	if rescue != nil {
		_ = rescue(ctx)
	}
	return nil
}

func acquireBackoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * 25 * time.Millisecond
}
