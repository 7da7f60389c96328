package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jmacedoit/reright/internal/cli"
	"github.com/jmacedoit/reright/internal/config"
	"github.com/jmacedoit/reright/internal/doctor"
	"github.com/jmacedoit/reright/internal/history"
	"github.com/jmacedoit/reright/internal/ipc"
	"github.com/jmacedoit/reright/internal/logging"
	"github.com/jmacedoit/reright/internal/operation"
	"github.com/jmacedoit/reright/internal/picker"
	"github.com/jmacedoit/reright/internal/version"
)

const (
	binaryName     = "reright"
	forwardTimeout = 220 * time.Millisecond
)

// Runner executes one reright invocation. The optional collaborator fields
// replace the config-built ones when set.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Clipboard   operation.Clipboard
	Transformer operation.Transformer
	Indicator   Indicator
	Pick        func(ctx context.Context, items []picker.Item) (string, error)
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandRewrite:
		return r.commandRewrite(ctx, cfgLoaded.Config, parsed.CommandWord, logger)
	case cli.CommandPick:
		return r.commandPick(ctx, cfgLoaded.Config, logger)
	case cli.CommandCommands:
		return r.commandCommands(cfgLoaded.Config)
	case cli.CommandHistory:
		return r.commandHistory(ctx, cfgLoaded.Config.History, parsed.Limit)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.CommandCancel)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandCommands(cfg config.Config) int {
	catalog := cfg.Catalog()
	if len(catalog) == 0 {
		fmt.Fprintln(r.Stdout, "no rewrites configured")
		return 0
	}

	t := plainTable("", "COMMAND", "NAME")
	for _, cmd := range catalog {
		mark := ""
		if cmd.Word == cfg.DefaultCommand {
			mark = "*"
		}
		t.Row(mark, cmd.Word, cmd.Name)
	}
	fmt.Fprintln(r.Stdout, t.String())
	fmt.Fprintf(r.Stdout, "\nend copied text with %q followed by a word, or by ad-hoc instructions\n", cfg.Separator)
	return 0
}

func (r Runner) commandHistory(ctx context.Context, cfg config.HistoryConfig, limit int) int {
	if !cfg.Enable {
		fmt.Fprintln(r.Stderr, "error: history is disabled (history.enable=false)")
		return 1
	}
	path, err := config.HistoryPath(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "no rewrites recorded")
		return 0
	}

	t := plainTable("STARTED", "REWRITE", "MODEL", "TOOK", "RESULT")
	for _, e := range entries {
		word := e.CommandWord
		if word == "" {
			word = "(" + string(e.Mode) + ")"
		}
		outcome := fmt.Sprintf("%d→%d chars", e.InputChars, e.OutputChars)
		if e.Failed() {
			outcome = "error: " + e.Error
		}
		t.Row(
			e.StartedAt.Local().Format(time.DateTime),
			word,
			e.Provider+"/"+e.Model,
			e.Duration.Round(time.Millisecond).String(),
			outcome,
		)
	}
	fmt.Fprintln(r.Stdout, t.String())
	return 0
}

var tableCell = lipgloss.NewStyle().PaddingRight(2)

// plainTable lays out aligned columns with no border glyphs.
func plainTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers(headers...).
		StyleFunc(func(_, _ int) lipgloss.Style { return tableCell })
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if !handled {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.State == "" {
		resp.State = "idle"
	}
	if resp.Rewrite != "" {
		fmt.Fprintf(r.Stdout, "%s (%s)\n", resp.State, resp.Rewrite)
		return 0
	}
	fmt.Fprintln(r.Stdout, resp.State)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no rewrite in progress")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// tryForward sends command to the socket owner. handled is false when no
// owner is listening.
func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}
	if ipc.NoOwner(err) || strings.Contains(err.Error(), "no such file or directory") {
		return ipc.Response{}, false, nil
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}
