package clipboard

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// System uses the platform clipboard helpers discovered by atotto/clipboard
// (wl-clipboard, xclip, xsel, pbcopy, or the Windows API).
type System struct{}

// ReadText returns the current clipboard text.
func (System) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if clipboard.Unsupported {
		return "", fmt.Errorf("read clipboard: no system clipboard utility found")
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// WriteText replaces the clipboard text.
func (System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return fmt.Errorf("write clipboard: no system clipboard utility found")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
