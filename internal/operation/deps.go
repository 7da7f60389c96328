package operation

import (
	"context"

	"github.com/jmacedoit/reright/internal/history"
)

// Clipboard reads and replaces clipboard text.
type Clipboard interface {
	ReadText(context.Context) (string, error)
	WriteText(context.Context, string) error
}

// Transformer applies instructions to text, usually through a language model.
type Transformer interface {
	Transform(ctx context.Context, instructions, text string) (string, error)
}

// TransformFunc adapts a function to Transformer.
type TransformFunc func(ctx context.Context, instructions, text string) (string, error)

func (f TransformFunc) Transform(ctx context.Context, instructions, text string) (string, error) {
	return f(ctx, instructions, text)
}

// InputSimulator sends copy and paste keystrokes to the focused window.
type InputSimulator interface {
	SimulateCopy(context.Context) error
	SimulatePaste(context.Context) error
}

// Indicator is the operation-facing subset of indicator behavior. ShowError
// receives one of the Failure* keys.
type Indicator interface {
	ShowRewriting(ctx context.Context, word string)
	ShowError(ctx context.Context, failure string)
	CueStart(context.Context)
	CueComplete(context.Context)
	CueError(context.Context)
	Hide(context.Context)
}

// Recorder stores a summary of each finished rewrite.
type Recorder interface {
	Record(context.Context, history.Entry) error
}

// Failure keys passed to Indicator.ShowError.
const (
	FailureClipboardRead  = "clipboard_read"
	FailureNoInstructions = "no_instructions"
	FailureModel          = "model"
	FailureClipboardWrite = "clipboard_write"
)

type noopIndicator struct{}

func (noopIndicator) ShowRewriting(context.Context, string) {}
func (noopIndicator) ShowError(context.Context, string)     {}
func (noopIndicator) CueStart(context.Context)              {}
func (noopIndicator) CueComplete(context.Context)           {}
func (noopIndicator) CueError(context.Context)              {}
func (noopIndicator) Hide(context.Context)                  {}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, history.Entry) error { return nil }
