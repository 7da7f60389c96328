package config

import "github.com/jmacedoit/reright/internal/command"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	readCmd := "wl-paste --no-newline"
	writeCmd := "wl-copy"

	rewrites := make([]RewriteConfig, 0, 8)
	for _, cmd := range command.DefaultCatalog() {
		rewrites = append(rewrites, RewriteConfig{
			Name:         cmd.Name,
			CommandWord:  cmd.Word,
			Instructions: cmd.Instructions,
		})
	}

	return Config{
		DefaultCommand: command.DefaultBaseCommand,
		Separator:      command.DefaultSeparator,
		Rewrites:       rewrites,
		Model: ModelConfig{
			Provider:  "openai",
			Model:     "gpt-5.2",
			MaxTokens: 4096,
			TimeoutMS: 60000,
		},
		Clipboard: ClipboardConfig{
			Backend:  "command",
			ReadCmd:  CommandConfig{Raw: readCmd, Argv: mustParseArgv(readCmd)},
			WriteCmd: CommandConfig{Raw: writeCmd, Argv: mustParseArgv(writeCmd)},
		},
		Ergonomic: ErgonomicConfig{
			Enable:        false,
			SettleMS:      100,
			CopyShortcut:  "CTRL,C",
			PasteShortcut: "CTRL,V",
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "reright",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		History: HistoryConfig{
			Enable: true,
			Keep:   500,
		},
	}
}
