package config

import (
	"fmt"
	"strings"
)

// filePayload mirrors the on-disk JSONC shape. Pointer fields distinguish
// "absent" from zero values so defaults survive partial files.
type filePayload struct {
	DefaultCommand *string        `json:"default_command"`
	Separator      *string        `json:"separator"`
	Rewrites       *[]fileRewrite `json:"rewrites"`
	Model          *fileModel     `json:"model"`
	Clipboard      *fileClipboard `json:"clipboard"`
	Ergonomic      *fileErgonomic `json:"ergonomic"`
	Indicator      *fileIndicator `json:"indicator"`
	History        *fileHistory   `json:"history"`
}

type fileRewrite struct {
	Name         string `json:"name"`
	CommandWord  string `json:"command_word"`
	Instructions string `json:"instructions"`
}

type fileModel struct {
	Provider  *string `json:"provider"`
	Model     *string `json:"model"`
	APIKey    *string `json:"api_key"`
	APIKeyEnv *string `json:"api_key_env"`
	BaseURL   *string `json:"base_url"`
	MaxTokens *int    `json:"max_tokens"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type fileClipboard struct {
	Backend  *string `json:"backend"`
	ReadCmd  *string `json:"read_cmd"`
	WriteCmd *string `json:"write_cmd"`
}

type fileErgonomic struct {
	Enable        *bool   `json:"enable"`
	SettleMS      *int    `json:"settle_ms"`
	CopyShortcut  *string `json:"copy_shortcut"`
	PasteShortcut *string `json:"paste_shortcut"`
	CopyCmd       *string `json:"copy_cmd"`
	PasteCmd      *string `json:"paste_cmd"`
}

type fileIndicator struct {
	Enable            *bool   `json:"enable"`
	Backend           *string `json:"backend"`
	DesktopAppName    *string `json:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundErrorFile    *string `json:"sound_error_file"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
}

type fileHistory struct {
	Enable *bool   `json:"enable"`
	Path   *string `json:"path"`
	Keep   *int    `json:"keep"`
}

func (p filePayload) applyTo(cfg *Config) error {
	if p.DefaultCommand != nil {
		cfg.DefaultCommand = strings.TrimSpace(*p.DefaultCommand)
	}
	if p.Separator != nil {
		cfg.Separator = *p.Separator
	}

	// A rewrites list replaces the built-in catalog wholesale; command words
	// are kept as written so the resolver compares them verbatim.
	if p.Rewrites != nil {
		cfg.Rewrites = make([]RewriteConfig, 0, len(*p.Rewrites))
		for _, rw := range *p.Rewrites {
			cfg.Rewrites = append(cfg.Rewrites, RewriteConfig{
				Name:         strings.TrimSpace(rw.Name),
				CommandWord:  rw.CommandWord,
				Instructions: rw.Instructions,
			})
		}
	}

	if m := p.Model; m != nil {
		setString(&cfg.Model.Provider, m.Provider)
		setString(&cfg.Model.Model, m.Model)
		setString(&cfg.Model.APIKey, m.APIKey)
		setString(&cfg.Model.APIKeyEnv, m.APIKeyEnv)
		setString(&cfg.Model.BaseURL, m.BaseURL)
		setInt(&cfg.Model.MaxTokens, m.MaxTokens)
		setInt(&cfg.Model.TimeoutMS, m.TimeoutMS)
	}

	if c := p.Clipboard; c != nil {
		setString(&cfg.Clipboard.Backend, c.Backend)
		if err := setCommand(&cfg.Clipboard.ReadCmd, c.ReadCmd, "clipboard.read_cmd"); err != nil {
			return err
		}
		if err := setCommand(&cfg.Clipboard.WriteCmd, c.WriteCmd, "clipboard.write_cmd"); err != nil {
			return err
		}
	}

	if e := p.Ergonomic; e != nil {
		setBool(&cfg.Ergonomic.Enable, e.Enable)
		setInt(&cfg.Ergonomic.SettleMS, e.SettleMS)
		setString(&cfg.Ergonomic.CopyShortcut, e.CopyShortcut)
		setString(&cfg.Ergonomic.PasteShortcut, e.PasteShortcut)
		if err := setCommand(&cfg.Ergonomic.CopyCmd, e.CopyCmd, "ergonomic.copy_cmd"); err != nil {
			return err
		}
		if err := setCommand(&cfg.Ergonomic.PasteCmd, e.PasteCmd, "ergonomic.paste_cmd"); err != nil {
			return err
		}
	}

	if ind := p.Indicator; ind != nil {
		setBool(&cfg.Indicator.Enable, ind.Enable)
		setString(&cfg.Indicator.Backend, ind.Backend)
		setString(&cfg.Indicator.DesktopAppName, ind.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, ind.SoundEnable)
		setString(&cfg.Indicator.SoundStartFile, ind.SoundStartFile)
		setString(&cfg.Indicator.SoundCompleteFile, ind.SoundCompleteFile)
		setString(&cfg.Indicator.SoundErrorFile, ind.SoundErrorFile)
		setInt(&cfg.Indicator.ErrorTimeoutMS, ind.ErrorTimeoutMS)
	}

	if h := p.History; h != nil {
		setBool(&cfg.History.Enable, h.Enable)
		setString(&cfg.History.Path, h.Path)
		setInt(&cfg.History.Keep, h.Keep)
	}

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setCommand(dst *CommandConfig, raw *string, key string) error {
	if raw == nil {
		return nil
	}
	argv, err := parseArgv(*raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = CommandConfig{Raw: *raw, Argv: argv}
	return nil
}
