package app

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmacedoit/reright/internal/config"
	"github.com/jmacedoit/reright/internal/ipc"
	"github.com/jmacedoit/reright/internal/operation"
	"github.com/jmacedoit/reright/internal/picker"
	"github.com/stretchr/testify/require"
)

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, nil, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"version"}, nil, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "reright")
	require.Empty(t, stderr.String())
}

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"definitely-not-a-command"}, nil, &stdout, &stderr)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown command")
	require.Contains(t, stderr.String(), "Usage:")
}

func TestExecuteInvalidConfigFails(t *testing.T) {
	paths := setupRunnerEnv(t)
	require.NoError(t, os.WriteFile(paths.configPath, []byte(`{"separator": 3}`), 0o600))

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "commands"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "parse config")
}

func TestRunnerStatusIdleWhenSocketUnavailable(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
	require.Empty(t, stderr.String())
}

func TestRunnerCancelReportsNoRewriteInProgress(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "cancel"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "no rewrite in progress")
}

func TestRunnerForwardsStatusAndCancelToOwner(t *testing.T) {
	paths := setupRunnerEnv(t)
	commands := make(chan string, 4)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "reright.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		commands <- req.Command
		switch req.Command {
		case ipc.CommandStatus:
			return ipc.Response{OK: true, State: "transforming", Rewrite: "fix"}
		case ipc.CommandCancel:
			return ipc.Response{OK: true, Message: "cancel requested"}
		default:
			return ipc.Response{OK: false, Error: "unsupported"}
		}
	})
	defer shutdown()

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	require.Equal(t, 0, runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"}))
	require.Equal(t, 0, runner.Execute(context.Background(), []string{"--config", paths.configPath, "cancel"}))
	require.Equal(t, "transforming (fix)\ncancel requested\n", stdout.String())
	require.Equal(t, []string{"status", "cancel"}, []string{<-commands, <-commands})
}

func TestRunnerStatusFallsBackToIdleWhenServerStateEmpty(t *testing.T) {
	paths := setupRunnerEnv(t)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "reright.sock"), func(_ context.Context, _ ipc.Request) ipc.Response {
		return ipc.Response{OK: true}
	})
	defer shutdown()

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
}

func TestTryForwardSuccessAndFailureResponses(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "reright.sock")

	shutdown := startIPCServerForRunnerTest(t, socketPath, func(_ context.Context, req ipc.Request) ipc.Response {
		if req.Command == ipc.CommandStatus {
			return ipc.Response{OK: true, State: "capturing"}
		}
		return ipc.Response{OK: false, Error: "cannot cancel from state idle"}
	})
	defer shutdown()

	resp, handled, err := tryForward(context.Background(), socketPath, ipc.CommandStatus)
	require.True(t, handled)
	require.NoError(t, err)
	require.Equal(t, "capturing", resp.State)

	_, handled, err = tryForward(context.Background(), socketPath, ipc.CommandCancel)
	require.True(t, handled)
	require.ErrorContains(t, err, "cannot cancel")
}

func TestTryForwardLeavesStaleSocketFileAlone(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "reright.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	_, handled, err := tryForward(context.Background(), socketPath, ipc.CommandStatus)
	require.False(t, handled)
	require.NoError(t, err)

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
}

func TestTryForwardTreatsReadFailuresAsHandledErrors(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "reright.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, acceptErr := listener.Accept()
		if acceptErr == nil {
			_ = conn.Close()
		}
	}()

	_, handled, err := tryForward(context.Background(), socketPath, ipc.CommandStatus)
	require.True(t, handled)
	require.ErrorContains(t, err, `forward command "status":`)

	<-done
	require.NoError(t, listener.Close())
}

func TestRunnerDoctorCommandDispatchesAndPrintsReport(t *testing.T) {
	paths := setupRunnerEnv(t)
	t.Setenv("XDG_SESSION_TYPE", "x11")

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "doctor"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdout.String(), "config: loaded")
	require.Contains(t, stdout.String(), "[FAIL] XDG_SESSION_TYPE")
}

func TestRunnerCommandsListsCatalogWithDefaultMarked(t *testing.T) {
	paths := setupRunnerEnv(t)
	require.NoError(t, os.WriteFile(paths.configPath, []byte(`{
  "default_command": "arr",
  "rewrites": [
    {"name": "Polish", "command_word": "polish", "instructions": "Polish it."},
    {"name": "Pirate", "command_word": "arr", "instructions": "Talk like a pirate."},
  ],
}`), 0o600))

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "commands"})
	require.Equal(t, 0, exitCode)
	rows := tableRows(stdout.String())
	require.Contains(t, rows, []string{"COMMAND", "NAME"})
	require.Contains(t, rows, []string{"polish", "Polish"})
	require.Contains(t, rows, []string{"*", "arr", "Pirate"})
	require.Contains(t, stdout.String(), `"///"`)
}

func TestRunnerRewriteRunsBaseCommandAndRecordsHistory(t *testing.T) {
	paths := setupRunnerEnv(t)
	clip := &fakeClipboard{text: "teh cat sat"}
	transformer := &fakeTransformer{output: "The cat sat."}
	notifier := &fakeIndicator{}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr, Clipboard: clip, Transformer: transformer, Indicator: notifier}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "rewrite"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Equal(t, "rewrote 11 → 12 chars with fix\n", stdout.String())
	require.Equal(t, "The cat sat.", clip.written)
	require.Equal(t, "teh cat sat", transformer.text)
	require.True(t, notifier.waited)

	_, statErr := os.Stat(filepath.Join(paths.runtimeDir, "reright.sock"))
	require.ErrorIs(t, statErr, os.ErrNotExist)

	stdout.Reset()
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "history"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Contains(t, stdout.String(), "fix")
	require.Contains(t, stdout.String(), "openai/gpt-5.2")
	require.Contains(t, stdout.String(), "11→12 chars")
	require.Contains(t, tableRows(stdout.String())[0], "RESULT")
}

func TestRunnerRewriteWithCommandFlagUsesThatBase(t *testing.T) {
	paths := setupRunnerEnv(t)
	clip := &fakeClipboard{text: "select everything from users"}
	transformer := &fakeTransformer{output: "SELECT * FROM users;"}

	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Clipboard: clip, Transformer: transformer, Indicator: &fakeIndicator{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "rewrite", "--command", "sql"})
	require.Equal(t, 0, exitCode)

	sql, ok := config.Default().Catalog().Lookup("sql")
	require.True(t, ok)
	require.Equal(t, sql.Instructions, transformer.instructions)
}

func TestRunnerRewriteUnknownCommandSuggests(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr, Clipboard: &fakeClipboard{}, Transformer: &fakeTransformer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "rewrite", "--command", "shrt"})
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), `unknown command word "shrt" (did you mean short?)`)
}

func TestRunnerRewriteNoInstructionsFails(t *testing.T) {
	paths := setupRunnerEnv(t)
	require.NoError(t, os.WriteFile(paths.configPath, []byte(`{"default_command": "missing"}`), 0o600))
	notifier := &fakeIndicator{}

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr, Clipboard: &fakeClipboard{text: "hello"}, Transformer: &fakeTransformer{}, Indicator: notifier}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "rewrite"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), `error: no instructions found for command "missing"`)
	require.Equal(t, []string{operation.FailureNoInstructions}, notifier.failures)
}

func TestRunnerRewriteEmptyClipboardIsSkipped(t *testing.T) {
	paths := setupRunnerEnv(t)
	transformer := &fakeTransformer{}

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}, Clipboard: &fakeClipboard{text: "  \n"}, Transformer: transformer, Indicator: &fakeIndicator{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "rewrite"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "clipboard is empty; nothing to rewrite\n", stdout.String())
	require.Empty(t, transformer.text)
}

func TestRunnerRewriteMissingAPIKeyFails(t *testing.T) {
	paths := setupRunnerEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	notifier := &fakeIndicator{}

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr, Clipboard: &fakeClipboard{text: "x"}, Indicator: notifier}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "rewrite"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "missing API key")
	require.Equal(t, []string{operation.FailureModel}, notifier.failures)
}

func TestRunnerRewriteIgnoredWhileAnotherRuns(t *testing.T) {
	paths := setupRunnerEnv(t)
	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "reright.sock"), func(_ context.Context, _ ipc.Request) ipc.Response {
		return ipc.Response{OK: true, State: "transforming"}
	})
	defer shutdown()

	clip := &fakeClipboard{text: "hello"}
	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}, Clipboard: clip, Transformer: &fakeTransformer{}, Indicator: &fakeIndicator{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "rewrite"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "rewrite already in progress\n", stdout.String())
	require.Empty(t, clip.written)
}

func TestRunnerPickUsesChosenWordAsBase(t *testing.T) {
	paths := setupRunnerEnv(t)
	transformer := &fakeTransformer{output: "short."}
	var offered []picker.Item

	runner := Runner{
		Stdout:      &bytes.Buffer{},
		Stderr:      &bytes.Buffer{},
		Clipboard:   &fakeClipboard{text: "a very long sentence"},
		Transformer: transformer,
		Indicator:   &fakeIndicator{},
		Pick: func(_ context.Context, items []picker.Item) (string, error) {
			offered = items
			return "short", nil
		},
	}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "pick"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, picker.Item{Label: picker.DefaultLabel, Word: "fix"}, offered[0])

	short, _ := config.Default().Catalog().Lookup("short")
	require.Equal(t, short.Instructions, transformer.instructions)
}

func TestRunnerPickAbortedDoesNothing(t *testing.T) {
	paths := setupRunnerEnv(t)
	clip := &fakeClipboard{text: "hello"}

	var stdout bytes.Buffer
	runner := Runner{
		Stdout:      &stdout,
		Stderr:      &bytes.Buffer{},
		Clipboard:   clip,
		Transformer: &fakeTransformer{},
		Pick: func(context.Context, []picker.Item) (string, error) {
			return "", picker.ErrAborted
		},
	}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "pick"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "cancelled\n", stdout.String())
	require.Empty(t, clip.written)
}

func TestRunnerHistoryDisabled(t *testing.T) {
	paths := setupRunnerEnv(t)
	require.NoError(t, os.WriteFile(paths.configPath, []byte(`{"history": {"enable": false}}`), 0o600))

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "history"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "history is disabled")
}

func TestReportResultCancelledAndFailed(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	require.Equal(t, 0, runner.reportResult(operation.Result{Cancelled: true}, "fix"))
	require.Equal(t, "cancelled\n", stdout.String())

	require.Equal(t, 1, runner.reportResult(operation.Result{Err: errors.New("transform text: boom")}, "fix"))
	require.Equal(t, "error: transform text: boom\n", stderr.String())
}

type fakeClipboard struct {
	mu      sync.Mutex
	text    string
	written string
}

func (c *fakeClipboard) ReadText(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

func (c *fakeClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = text
	return nil
}

type fakeTransformer struct {
	output       string
	instructions string
	text         string
}

func (f *fakeTransformer) Transform(_ context.Context, instructions, text string) (string, error) {
	f.instructions = instructions
	f.text = text
	return f.output, nil
}

type fakeIndicator struct {
	failures []string
	waited   bool
}

func (f *fakeIndicator) ShowRewriting(context.Context, string) {}
func (f *fakeIndicator) ShowError(_ context.Context, failure string) {
	f.failures = append(f.failures, failure)
}
func (f *fakeIndicator) CueStart(context.Context)    {}
func (f *fakeIndicator) CueComplete(context.Context) {}
func (f *fakeIndicator) CueError(context.Context)    {}
func (f *fakeIndicator) Hide(context.Context)        {}
func (f *fakeIndicator) Wait(time.Duration)          { f.waited = true }

type runnerPaths struct {
	configPath string
	runtimeDir string
}

func setupRunnerEnv(t *testing.T) runnerPaths {
	t.Helper()

	runtimeDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	configPath := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(configPath, []byte("\n"), 0o600))

	return runnerPaths{configPath: configPath, runtimeDir: runtimeDir}
}

func startIPCServerForRunnerTest(t *testing.T, socketPath string, handler func(context.Context, ipc.Request) ipc.Response) func() {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ipc.Serve(ctx, listener, ipc.HandlerFunc(handler))
	}()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func tableRows(out string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			rows = append(rows, fields)
		}
	}
	return rows
}
