// Package clipboard reads and writes clipboard text through configurable backends.
package clipboard

import (
	"context"
	"fmt"

	"github.com/jmacedoit/reright/internal/config"
)

// Clipboard reads and replaces the current clipboard text.
type Clipboard interface {
	ReadText(ctx context.Context) (string, error)
	WriteText(ctx context.Context, text string) error
}

// New selects the backend named by cfg.Backend.
func New(cfg config.ClipboardConfig) (Clipboard, error) {
	switch cfg.Backend {
	case "", "command":
		return &Command{ReadArgv: cfg.ReadCmd.Argv, WriteArgv: cfg.WriteCmd.Argv}, nil
	case "system":
		return System{}, nil
	default:
		return nil, fmt.Errorf("unsupported clipboard backend %q", cfg.Backend)
	}
}
