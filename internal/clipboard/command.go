package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
)

// emptyMarkers are stderr fragments clipboard tools print when nothing is copied.
var emptyMarkers = []string{"nothing is copied", "no selection", "clipboard is empty"}

// Command talks to the clipboard through external tools such as wl-paste and wl-copy.
type Command struct {
	ReadArgv  []string
	WriteArgv []string
}

// ReadText runs ReadArgv and returns its stdout. A tool reporting an empty
// clipboard yields "" rather than an error.
func (c *Command) ReadText(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	out, stderr, err := runCommandOutput(ctx, c.ReadArgv)
	if err != nil {
		if reportsEmpty(stderr) {
			return "", nil
		}
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return out, nil
}

// WriteText pipes text into WriteArgv.
func (c *Command) WriteText(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := runCommandWithInput(ctx, c.WriteArgv, text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

func reportsEmpty(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, marker := range emptyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// runCommandOutput executes argv and returns stdout and stderr separately.
func runCommandOutput(ctx context.Context, argv []string) (string, string, error) {
	if len(argv) == 0 {
		return "", "", errors.New("command argv cannot be empty")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", stderr.String(), fmt.Errorf("run %s: %w (%s)", argv[0], err, detail)
		}
		return "", stderr.String(), fmt.Errorf("run %s: %w", argv[0], err)
	}
	return stdout.String(), stderr.String(), nil
}

// runCommandWithInput executes argv with input on stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return errors.New("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start %s: %w", argv[0], err)
	}

	if _, err := stdin.Write([]byte(input)); err != nil {
		_ = stdin.Close()
		_ = cmd.Wait()
		return fmt.Errorf("write stdin for %s: %w", argv[0], err)
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
