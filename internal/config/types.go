// Package config resolves, parses, validates, and defaults reright configuration.
package config

import "github.com/jmacedoit/reright/internal/command"

// Config is the fully materialized runtime configuration used by reright.
type Config struct {
	DefaultCommand string          `json:"default_command" validate:"required"`
	Separator      string          `json:"separator" validate:"required"`
	Rewrites       []RewriteConfig `json:"rewrites" validate:"dive"`
	Model          ModelConfig     `json:"model"`
	Clipboard      ClipboardConfig `json:"clipboard"`
	Ergonomic      ErgonomicConfig `json:"ergonomic"`
	Indicator      IndicatorConfig `json:"indicator"`
	History        HistoryConfig   `json:"history"`
}

// RewriteConfig is one user-defined rewrite as stored in the config file.
type RewriteConfig struct {
	Name         string `json:"name" validate:"required"`
	CommandWord  string `json:"command_word" validate:"required"`
	Instructions string `json:"instructions" validate:"required"`
}

// ModelConfig selects the language-model provider and its request parameters.
type ModelConfig struct {
	Provider  string `json:"provider" validate:"required,oneof=openai anthropic google-genai"`
	Model     string `json:"model" validate:"required"`
	APIKey    string `json:"api_key"`
	APIKeyEnv string `json:"api_key_env"`
	BaseURL   string `json:"base_url" validate:"omitempty,url"`
	MaxTokens int    `json:"max_tokens" validate:"gt=0"`
	TimeoutMS int    `json:"timeout_ms" validate:"gt=0"`
}

// ClipboardConfig controls how clipboard text is read and written.
type ClipboardConfig struct {
	Backend  string        `json:"backend" validate:"oneof=command system"`
	ReadCmd  CommandConfig `json:"read_cmd"`
	WriteCmd CommandConfig `json:"write_cmd"`
}

// ErgonomicConfig controls simulated copy before and paste after a rewrite.
type ErgonomicConfig struct {
	Enable        bool          `json:"enable"`
	SettleMS      int           `json:"settle_ms" validate:"gte=0"`
	CopyShortcut  string        `json:"copy_shortcut"`
	PasteShortcut string        `json:"paste_shortcut"`
	CopyCmd       CommandConfig `json:"copy_cmd"`
	PasteCmd      CommandConfig `json:"paste_cmd"`
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool   `json:"enable"`
	Backend           string `json:"backend" validate:"oneof=hypr desktop"`
	DesktopAppName    string `json:"desktop_app_name"`
	SoundEnable       bool   `json:"sound_enable"`
	SoundStartFile    string `json:"sound_start_file"`
	SoundCompleteFile string `json:"sound_complete_file"`
	SoundErrorFile    string `json:"sound_error_file"`
	ErrorTimeoutMS    int    `json:"error_timeout_ms" validate:"gte=0"`
}

// HistoryConfig controls the local rewrite history database.
type HistoryConfig struct {
	Enable bool   `json:"enable"`
	Path   string `json:"path"`
	Keep   int    `json:"keep" validate:"gt=0"`
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// Catalog converts configured rewrites into the resolver's command catalog.
func (c Config) Catalog() command.Catalog {
	catalog := make(command.Catalog, 0, len(c.Rewrites))
	for _, rw := range c.Rewrites {
		catalog = append(catalog, command.Command{
			Name:         rw.Name,
			Word:         rw.CommandWord,
			Instructions: rw.Instructions,
		})
	}
	return catalog
}
