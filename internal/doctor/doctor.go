// Package doctor runs readiness diagnostics for config, session tools, the
// model provider, and history storage.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jmacedoit/reright/internal/config"
	"github.com/jmacedoit/reright/internal/history"
	"github.com/jmacedoit/reright/internal/hypr"
	"github.com/jmacedoit/reright/internal/indicator"
	"github.com/jmacedoit/reright/internal/llm"
)

const pingTimeout = 3 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", status, check.Name, check.Message)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment, config and provider checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	if cfg.Clipboard.Backend == "command" {
		checks = append(checks,
			checkCommand(cfg.Clipboard.ReadCmd.Argv, "clipboard.read_cmd"),
			checkCommand(cfg.Clipboard.WriteCmd.Argv, "clipboard.write_cmd"),
		)
	}

	needsHypr := false
	if cfg.Ergonomic.Enable {
		for _, step := range []struct {
			name string
			cmd  config.CommandConfig
		}{
			{"ergonomic.copy_cmd", cfg.Ergonomic.CopyCmd},
			{"ergonomic.paste_cmd", cfg.Ergonomic.PasteCmd},
		} {
			if len(step.cmd.Argv) > 0 {
				checks = append(checks, checkCommand(step.cmd.Argv, step.name))
				continue
			}
			needsHypr = true
		}
	}
	if cfg.Indicator.Enable {
		switch cfg.Indicator.Backend {
		case "desktop":
			checks = append(checks, checkBinary("busctl", "desktop notifications"))
		default:
			needsHypr = true
		}
	}
	if cfg.Indicator.SoundEnable {
		checks = append(checks, checkAudioOutput(ctx))
	}
	if needsHypr {
		checks = append(checks, checkHyprSession())
		checks = append(checks, checkBinary("hyprctl", "shortcuts and notifications use hyprctl"))
	}

	checks = append(checks, checkAPIKey(cfg.Model))
	checks = append(checks, checkEndpoint(ctx, cfg.Model))

	if cfg.History.Enable {
		checks = append(checks, checkHistory(ctx, cfg.History))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", loaded.Path)}
	}
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if n := len(loaded.Warnings); n > 0 {
		message += fmt.Sprintf(" (%d warning(s))", n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

func checkHyprSession() Check {
	const name = "HYPRLAND_INSTANCE_SIGNATURE"
	if hypr.Session() {
		return Check{Name: name, Pass: true, Message: "Hyprland session detected"}
	}
	return Check{Name: name, Pass: false, Message: "HYPRLAND_INSTANCE_SIGNATURE is empty"}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioOutput connects to the Pulse server the cues will play through.
func checkAudioOutput(ctx context.Context) Check {
	output, err := indicator.DefaultAudioOutput(ctx)
	if err != nil {
		return Check{Name: "indicator.sound", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("cues play on %q", output.ID)
	if output.Muted {
		message += " (muted)"
	}
	return Check{Name: "indicator.sound", Pass: true, Message: message}
}

// checkAPIKey reports where the key comes from without printing it.
func checkAPIKey(model config.ModelConfig) Check {
	key, source := llm.ResolveAPIKey(model.Provider, model.APIKey, model.APIKeyEnv)
	if key == "" {
		env := strings.TrimSpace(model.APIKeyEnv)
		if env == "" {
			env = llm.DefaultAPIKeyEnv(model.Provider)
		}
		return Check{Name: "model.api_key", Pass: false, Message: fmt.Sprintf("no API key; set model.api_key or %s", env)}
	}
	return Check{Name: "model.api_key", Pass: true, Message: fmt.Sprintf("%s key from %s", model.Provider, source)}
}

// checkEndpoint confirms the provider endpoint answers HTTP. Any status
// below 500 counts, since API roots usually return 404 without a path.
func checkEndpoint(ctx context.Context, model config.ModelConfig) Check {
	base := llm.BaseURL(model.Provider, model.BaseURL)
	if base == "" {
		return Check{Name: "model.endpoint", Pass: false, Message: fmt.Sprintf("unknown provider %q", model.Provider)}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return Check{Name: "model.endpoint", Pass: false, Message: fmt.Sprintf("invalid base url: %v", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: "model.endpoint", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 256))

	if resp.StatusCode >= http.StatusInternalServerError {
		return Check{Name: "model.endpoint", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, base)}
	}
	return Check{Name: "model.endpoint", Pass: true, Message: fmt.Sprintf("reachable at %s (HTTP %d)", base, resp.StatusCode)}
}

func checkHistory(ctx context.Context, cfg config.HistoryConfig) Check {
	path, err := config.HistoryPath(cfg)
	if err != nil {
		return Check{Name: "history", Pass: false, Message: err.Error()}
	}
	store, err := history.Open(path)
	if err != nil {
		return Check{Name: "history", Pass: false, Message: err.Error()}
	}
	defer store.Close()

	entries, err := store.Recent(ctx, 1)
	if err != nil {
		return Check{Name: "history", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("writable at %s", path)
	if len(entries) > 0 {
		message += fmt.Sprintf(", last rewrite %s", entries[0].StartedAt.Format(time.RFC3339))
	}
	return Check{Name: "history", Pass: true, Message: message}
}
