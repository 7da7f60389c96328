// Package operation runs one clipboard rewrite end to end: optional copy,
// clipboard read, command resolution, model call, clipboard write, optional
// paste.
package operation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmacedoit/reright/internal/command"
	"github.com/jmacedoit/reright/internal/fsm"
	"github.com/jmacedoit/reright/internal/history"
	"github.com/jmacedoit/reright/internal/ipc"
)

// DefaultSettleDelay is the pause between simulated copy and clipboard read.
const DefaultSettleDelay = 100 * time.Millisecond

var (
	// ErrNoInstructions means the clipboard had text but no instructions resolved.
	ErrNoInstructions = errors.New("no instructions found for command")
	// ErrNoClipboard means the controller was built without a clipboard.
	ErrNoClipboard = errors.New("clipboard is not configured")
	// ErrNoTransformer means the controller was built without a transformer.
	ErrNoTransformer = errors.New("model is not configured")
)

// Request is the per-run input. Catalog, BaseCommand, and Separator feed
// command.Resolve; Ergonomic wraps the run in simulated copy and paste.
type Request struct {
	Catalog     command.Catalog
	BaseCommand string
	Separator   string
	Ergonomic   bool
}

// Result describes how one Run ended.
type Result struct {
	ID          string
	State       fsm.State
	Resolution  command.Resolution
	InputChars  int
	OutputChars int
	Skipped     bool
	Cancelled   bool
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Deps are the collaborators a Controller drives. Input, Indicator, and
// Recorder may be nil.
type Deps struct {
	Clipboard   Clipboard
	Transformer Transformer
	Input       InputSimulator
	Indicator   Indicator
	Recorder    Recorder
}

// Options carries run settings that are not collaborators.
type Options struct {
	Provider    string
	Model       string
	SettleDelay time.Duration
}

// Controller drives the rewrite state machine and answers IPC queries about it.
type Controller struct {
	logger *slog.Logger
	deps   Deps
	opts   Options

	mu     sync.RWMutex
	state  fsm.State
	word   string
	cancel context.CancelFunc
}

// NewController wires deps with no-op fallbacks for the optional ones.
func NewController(logger *slog.Logger, deps Deps, opts Options) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if deps.Indicator == nil {
		deps.Indicator = noopIndicator{}
	}
	if deps.Recorder == nil {
		deps.Recorder = noopRecorder{}
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	return &Controller{
		logger: logger,
		deps:   deps,
		opts:   opts,
		state:  fsm.StateIdle,
	}
}

// State returns the current state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// begin moves idle to capturing and publishes cancel for IPC in one step.
func (c *Controller) begin(cancel context.CancelFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, fsm.EventStart)
	if err != nil {
		return err
	}
	c.state = next
	c.cancel = cancel
	return nil
}

// captured moves capturing to transforming and publishes the command word.
func (c *Controller) captured(word string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, fsm.EventCaptured)
	if err != nil {
		return err
	}
	c.state = next
	c.word = word
	return nil
}

func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

// Run performs one rewrite. It never panics and always returns to idle.
func (c *Controller) Run(ctx context.Context, req Request) Result {
	result := Result{ID: uuid.NewString(), StartedAt: time.Now()}
	logger := c.logger.With("rewrite_id", result.ID)

	if c.deps.Clipboard == nil {
		return c.finish(ctx, logger, result, ErrNoClipboard)
	}
	if c.deps.Transformer == nil {
		return c.finish(ctx, logger, result, ErrNoTransformer)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := c.begin(cancel); err != nil {
		cancel()
		result.State = c.State()
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.word = ""
		c.mu.Unlock()
		cancel()
	}()

	if req.Ergonomic {
		c.simulateCopy(runCtx, logger)
	}

	input, err := c.deps.Clipboard.ReadText(runCtx)
	if err != nil {
		if runCtx.Err() != nil && ctx.Err() == nil {
			return c.cancelled(ctx, logger, result)
		}
		c.deps.Indicator.ShowError(ctx, FailureClipboardRead)
		return c.fail(ctx, logger, result, fmt.Errorf("read clipboard: %w", err))
	}
	result.InputChars = len([]rune(input))

	resolution, ok := command.Resolve(input, req.Catalog, req.BaseCommand, req.Separator)
	if !ok {
		if strings.TrimSpace(input) == "" {
			_ = c.transition(fsm.EventSkip)
			result.Skipped = true
			logger.Info("clipboard empty; nothing to rewrite")
			return c.finish(ctx, logger, result, nil)
		}
		logger.Warn("no instructions found for command", "base_command", req.BaseCommand)
		c.deps.Indicator.ShowError(ctx, FailureNoInstructions)
		return c.fail(ctx, logger, result, ErrNoInstructions)
	}
	result.Resolution = resolution

	if err := c.captured(resolution.Word); err != nil {
		return c.fail(ctx, logger, result, err)
	}

	c.deps.Indicator.ShowRewriting(ctx, resolution.Word)
	c.deps.Indicator.CueStart(ctx)
	defer c.hide(ctx)

	output, err := c.deps.Transformer.Transform(runCtx, resolution.Instructions, resolution.Text)
	if err != nil {
		if runCtx.Err() != nil && ctx.Err() == nil {
			return c.cancelled(ctx, logger, result)
		}
		c.deps.Indicator.ShowError(ctx, FailureModel)
		return c.fail(ctx, logger, result, fmt.Errorf("transform text: %w", err))
	}
	result.OutputChars = len([]rune(output))

	if err := c.transition(fsm.EventTransformed); err != nil {
		return c.fail(ctx, logger, result, err)
	}

	if err := c.deps.Clipboard.WriteText(ctx, output); err != nil {
		c.deps.Indicator.ShowError(ctx, FailureClipboardWrite)
		return c.fail(ctx, logger, result, fmt.Errorf("write clipboard: %w", err))
	}

	if req.Ergonomic {
		c.simulatePaste(ctx, logger)
	}

	_ = c.transition(fsm.EventCommitted)
	c.deps.Indicator.CueComplete(ctx)
	return c.finish(ctx, logger, result, nil)
}

// simulateCopy copies the selection and waits for the clipboard to settle.
// Failures fall back to whatever the clipboard already holds.
func (c *Controller) simulateCopy(ctx context.Context, logger *slog.Logger) {
	if c.deps.Input == nil {
		logger.Warn("ergonomic mode requested without an input simulator")
		return
	}
	if err := c.deps.Input.SimulateCopy(ctx); err != nil {
		logger.Warn("copy simulation failed; falling back to clipboard content", "error", err.Error())
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.opts.SettleDelay):
	}
}

func (c *Controller) simulatePaste(ctx context.Context, logger *slog.Logger) {
	if c.deps.Input == nil {
		return
	}
	if err := c.deps.Input.SimulatePaste(ctx); err != nil {
		logger.Warn("paste simulation failed; result is still in clipboard", "error", err.Error())
	}
}

func (c *Controller) hide(ctx context.Context) {
	hideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 800*time.Millisecond)
	defer cancel()
	c.deps.Indicator.Hide(hideCtx)
}

func (c *Controller) fail(ctx context.Context, logger *slog.Logger, result Result, err error) Result {
	c.deps.Indicator.CueError(ctx)
	c.toErrorAndReset()
	return c.finish(ctx, logger, result, err)
}

func (c *Controller) cancelled(ctx context.Context, logger *slog.Logger, result Result) Result {
	_ = c.transition(fsm.EventCancel)
	result.Cancelled = true
	return c.finish(ctx, logger, result, context.Canceled)
}

// finish stamps the result, logs a summary line, and records history.
func (c *Controller) finish(ctx context.Context, logger *slog.Logger, result Result, err error) Result {
	result.State = c.State()
	result.Err = err
	result.FinishedAt = time.Now()

	attrs := []any{
		"state", string(result.State),
		"mode", string(result.Resolution.Mode),
		"command", result.Resolution.Word,
		"provider", c.opts.Provider,
		"model", c.opts.Model,
		"input_chars", result.InputChars,
		"output_chars", result.OutputChars,
		"skipped", result.Skipped,
		"cancelled", result.Cancelled,
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		logger.Error("rewrite finished", attrs...)
	} else {
		logger.Info("rewrite finished", attrs...)
	}

	if result.Skipped {
		return result
	}

	entry := history.Entry{
		ID:          result.ID,
		StartedAt:   result.StartedAt,
		Duration:    result.FinishedAt.Sub(result.StartedAt),
		CommandWord: result.Resolution.Word,
		Mode:        result.Resolution.Mode,
		Provider:    c.opts.Provider,
		Model:       c.opts.Model,
		InputChars:  result.InputChars,
		OutputChars: result.OutputChars,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if recErr := c.deps.Recorder.Record(recordCtx, entry); recErr != nil {
		logger.Warn("history record failed", "error", recErr.Error())
	}
	return result
}

// Handle answers IPC requests from other reright invocations.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		c.mu.RLock()
		defer c.mu.RUnlock()
		return ipc.Response{OK: true, State: string(c.state), Rewrite: c.word, Message: "status"}
	case ipc.CommandCancel:
		return c.requestCancel()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// requestCancel aborts the in-flight run while it is still capturing or
// waiting on the model. Once the clipboard write starts the run completes.
func (c *Controller) requestCancel() ipc.Response {
	c.mu.RLock()
	state, cancel := c.state, c.cancel
	c.mu.RUnlock()

	if state != fsm.StateCapturing && state != fsm.StateTransforming {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot cancel from state %s", state)}
	}
	cancel()
	return ipc.Response{OK: true, State: string(state), Message: "cancel requested"}
}
