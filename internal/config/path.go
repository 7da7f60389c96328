package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath applies CLI/XDG/home fallback rules for config.jsonc location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "reright", "config.jsonc"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", "reright", "config.jsonc"), nil
}

// ResolveStatePath places name under XDG_STATE_HOME/reright or ~/.local/state/reright.
func ResolveStatePath(name string) (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "reright", name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "reright", name), nil
}

// HistoryPath returns the configured history database path, defaulting to
// history.db in the state directory. A leading "~/" expands to the home dir.
func HistoryPath(cfg HistoryConfig) (string, error) {
	raw := strings.TrimSpace(cfg.Path)
	if raw == "" {
		return ResolveStatePath("history.db")
	}
	if raw == "~" || strings.HasPrefix(raw, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/")), nil
	}
	return raw, nil
}
