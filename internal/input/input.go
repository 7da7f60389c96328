// Package input simulates the copy and paste keystrokes around a rewrite.
package input

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jmacedoit/reright/internal/config"
	"github.com/jmacedoit/reright/internal/hypr"
)

const (
	shortcutTimeout = 1200 * time.Millisecond
	commandTimeout  = 2 * time.Second

	windowAttempts = 5
	windowDelay    = 10 * time.Millisecond
)

// Simulator sends copy/paste to the focused window, either as a Hyprland
// sendshortcut or through a user-provided command.
type Simulator struct {
	CopyShortcut  string
	PasteShortcut string
	CopyArgv      []string
	PasteArgv     []string
}

// New builds a Simulator from the ergonomic config section.
func New(cfg config.ErgonomicConfig) *Simulator {
	return &Simulator{
		CopyShortcut:  cfg.CopyShortcut,
		PasteShortcut: cfg.PasteShortcut,
		CopyArgv:      cfg.CopyCmd.Argv,
		PasteArgv:     cfg.PasteCmd.Argv,
	}
}

// SimulateCopy copies the current selection of the focused window.
func (s *Simulator) SimulateCopy(ctx context.Context) error {
	if err := s.dispatch(ctx, s.CopyArgv, s.CopyShortcut); err != nil {
		return fmt.Errorf("simulate copy: %w", err)
	}
	return nil
}

// SimulatePaste pastes the clipboard into the focused window.
func (s *Simulator) SimulatePaste(ctx context.Context) error {
	if err := s.dispatch(ctx, s.PasteArgv, s.PasteShortcut); err != nil {
		return fmt.Errorf("simulate paste: %w", err)
	}
	return nil
}

func (s *Simulator) dispatch(ctx context.Context, argv []string, shortcut string) error {
	if len(argv) > 0 {
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		return runCommand(ctx, argv)
	}

	ctx, cancel := context.WithTimeout(ctx, shortcutTimeout)
	defer cancel()
	return sendToActiveWindow(ctx, shortcut)
}

func sendToActiveWindow(ctx context.Context, shortcut string) error {
	if !hypr.Available() {
		return errors.New("hyprctl not found in PATH; set a copy/paste command instead")
	}
	window, err := activeWindowWithRetry(ctx, windowAttempts, windowDelay)
	if err != nil {
		return err
	}
	payload, err := hypr.ShortcutForWindow(shortcut, window)
	if err != nil {
		return err
	}
	return hypr.SendShortcut(ctx, payload)
}

// activeWindowWithRetry absorbs the brief window where focus is still moving
// after the keybinding fires.
func activeWindowWithRetry(ctx context.Context, attempts int, delay time.Duration) (hypr.ActiveWindow, error) {
	attempts = max(attempts, 1)

	var lastErr error
	for i := range attempts {
		window, err := hypr.QueryActiveWindow(ctx)
		if err == nil {
			return window, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return hypr.ActiveWindow{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	return hypr.ActiveWindow{}, fmt.Errorf("resolve active window: %w", lastErr)
}

func runCommand(ctx context.Context, argv []string) error {
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			return fmt.Errorf("run %s: %w", argv[0], err)
		}
		return fmt.Errorf("run %s: %w (%s)", argv[0], err, detail)
	}
	return nil
}
