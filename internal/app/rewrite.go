package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jmacedoit/reright/internal/clipboard"
	"github.com/jmacedoit/reright/internal/command"
	"github.com/jmacedoit/reright/internal/config"
	"github.com/jmacedoit/reright/internal/history"
	"github.com/jmacedoit/reright/internal/indicator"
	"github.com/jmacedoit/reright/internal/input"
	"github.com/jmacedoit/reright/internal/ipc"
	"github.com/jmacedoit/reright/internal/llm"
	"github.com/jmacedoit/reright/internal/operation"
	"github.com/jmacedoit/reright/internal/picker"
)

const (
	socketPingTimeout = 180 * time.Millisecond
	socketRetries     = 8
	cueFlushTimeout   = 2 * time.Second
	suggestionLimit   = 3
)

// Indicator is the operation indicator plus a flush for queued audio cues.
type Indicator interface {
	operation.Indicator
	Wait(timeout time.Duration)
}

func (r Runner) commandRewrite(ctx context.Context, cfg config.Config, word string, logger *slog.Logger) int {
	catalog := cfg.Catalog()
	base := cfg.DefaultCommand
	if word != "" {
		if _, ok := catalog.Lookup(word); !ok {
			msg := fmt.Sprintf("unknown command word %q", word)
			if suggestions := catalog.Suggest(word, suggestionLimit); len(suggestions) > 0 {
				msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(suggestions, ", "))
			}
			fmt.Fprintf(r.Stderr, "error: %s\n", msg)
			return 2
		}
		base = word
	}
	return r.runRewrite(ctx, cfg, catalog, base, logger)
}

// commandPick runs the chosen rewrite as the base command for this run.
func (r Runner) commandPick(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	items := picker.Items(cfg.Catalog(), cfg.DefaultCommand)
	pick := r.Pick
	if pick == nil {
		pick = func(ctx context.Context, items []picker.Item) (string, error) {
			return picker.Run(ctx, items, r.Stdin, r.Stdout)
		}
	}

	word, err := pick(ctx, items)
	if errors.Is(err, picker.ErrAborted) {
		fmt.Fprintln(r.Stdout, "cancelled")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("rewrite picked", "command", word)
	return r.runRewrite(ctx, cfg, cfg.Catalog(), word, logger)
}

func (r Runner) runRewrite(ctx context.Context, cfg config.Config, catalog command.Catalog, base string, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	notifier := r.Indicator
	if notifier == nil {
		notifier = indicator.New(cfg.Indicator, logger)
	}
	defer notifier.Wait(cueFlushTimeout)

	listener, err := ipc.Acquire(ctx, socketPath, socketPingTimeout, socketRetries, func(ctx context.Context) error {
		notifier.Hide(ctx)
		return nil
	})
	if errors.Is(err, ipc.ErrAlreadyRunning) {
		logger.Info("rewrite trigger ignored", "reason", err.Error())
		fmt.Fprintln(r.Stdout, err.Error())
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	deps, cleanup, err := r.buildDeps(ctx, cfg, notifier, logger)
	if err != nil {
		notifier.ShowError(ctx, operation.FailureModel)
		notifier.CueError(ctx)
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("rewrite setup failed", "error", err.Error())
		return 1
	}
	defer cleanup()

	controller := operation.NewController(logger, deps, operation.Options{
		Provider:    cfg.Model.Provider,
		Model:       cfg.Model.Model,
		SettleDelay: time.Duration(cfg.Ergonomic.SettleMS) * time.Millisecond,
	})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	result := controller.Run(ctx, operation.Request{
		Catalog:     catalog,
		BaseCommand: base,
		Separator:   cfg.Separator,
		Ergonomic:   cfg.Ergonomic.Enable,
	})
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	return r.reportResult(result, base)
}

func (r Runner) reportResult(result operation.Result, base string) int {
	switch {
	case result.Skipped:
		fmt.Fprintln(r.Stdout, "clipboard is empty; nothing to rewrite")
		return 0
	case result.Cancelled:
		fmt.Fprintln(r.Stdout, "cancelled")
		return 0
	case errors.Is(result.Err, operation.ErrNoInstructions):
		fmt.Fprintf(r.Stderr, "error: %v %q\n", result.Err, base)
		return 1
	case result.Err != nil:
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}

	label := result.Resolution.Word
	if result.Resolution.Mode == command.ModeAdhoc {
		label = "ad-hoc instructions"
	}
	fmt.Fprintf(r.Stdout, "rewrote %d → %d chars with %s\n", result.InputChars, result.OutputChars, label)
	return 0
}

// buildDeps assembles the controller collaborators from config. The cleanup
// func prunes and closes history.
func (r Runner) buildDeps(ctx context.Context, cfg config.Config, notifier Indicator, logger *slog.Logger) (operation.Deps, func(), error) {
	deps := operation.Deps{
		Clipboard:   r.Clipboard,
		Transformer: r.Transformer,
		Indicator:   notifier,
	}

	if deps.Clipboard == nil {
		clip, err := clipboard.New(cfg.Clipboard)
		if err != nil {
			return operation.Deps{}, func() {}, err
		}
		deps.Clipboard = clip
	}
	if deps.Transformer == nil {
		transformer, err := newTransformer(cfg.Model)
		if err != nil {
			return operation.Deps{}, func() {}, err
		}
		deps.Transformer = transformer
	}
	if cfg.Ergonomic.Enable {
		deps.Input = input.New(cfg.Ergonomic)
	}

	cleanup := func() {}
	if cfg.History.Enable {
		store, err := openHistory(cfg.History)
		if err != nil {
			logger.Warn("history unavailable", "error", err.Error())
		} else {
			deps.Recorder = store
			cleanup = func() {
				pruneCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				if removed, err := store.Prune(pruneCtx, cfg.History.Keep); err != nil {
					logger.Warn("history prune failed", "error", err.Error())
				} else if removed > 0 {
					logger.Debug("history pruned", "removed", removed)
				}
				_ = store.Close()
			}
		}
	}

	return deps, cleanup, nil
}

func openHistory(cfg config.HistoryConfig) (*history.Store, error) {
	path, err := config.HistoryPath(cfg)
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

func newTransformer(cfg config.ModelConfig) (operation.Transformer, error) {
	key, _ := llm.ResolveAPIKey(cfg.Provider, cfg.APIKey, cfg.APIKeyEnv)
	transformer, err := llm.New(llm.Options{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    key,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
		Timeout:   time.Duration(cfg.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return transformer, nil
}
