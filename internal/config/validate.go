package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/jmacedoit/reright/internal/llm"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

// structValidator returns the shared validator with English messages and json field names.
func structValidator() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		validate = v
		translator = trans
	})
	return validate, translator
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := validateStruct(cfg); err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(cfg.Rewrites))
	for i, rw := range cfg.Rewrites {
		if strings.IndexFunc(rw.CommandWord, unicode.IsSpace) >= 0 {
			return nil, fmt.Errorf("rewrites[%d].command_word %q must not contain whitespace", i, rw.CommandWord)
		}
		if prev, dup := seen[rw.CommandWord]; dup {
			return nil, fmt.Errorf("rewrites[%d].command_word %q duplicates rewrites[%d]", i, rw.CommandWord, prev)
		}
		seen[rw.CommandWord] = i
	}

	if cfg.Separator == "" {
		return nil, fmt.Errorf("separator must not be empty")
	}
	if strings.IndexFunc(cfg.DefaultCommand, unicode.IsSpace) >= 0 {
		return nil, fmt.Errorf("default_command %q must not contain whitespace", cfg.DefaultCommand)
	}
	if _, ok := seen[cfg.DefaultCommand]; !ok {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("default_command %q does not match any rewrite; only ad-hoc instructions will work", cfg.DefaultCommand)})
	}
	if len(cfg.Rewrites) == 0 {
		warnings = append(warnings, Warning{Message: "no rewrites configured"})
	}

	if cfg.Clipboard.Backend == "command" {
		if len(cfg.Clipboard.ReadCmd.Argv) == 0 {
			return nil, fmt.Errorf("clipboard.read_cmd must not be empty when clipboard.backend=command")
		}
		if len(cfg.Clipboard.WriteCmd.Argv) == 0 {
			return nil, fmt.Errorf("clipboard.write_cmd must not be empty when clipboard.backend=command")
		}
	}

	if cfg.Ergonomic.Enable {
		if len(cfg.Ergonomic.CopyCmd.Argv) == 0 && strings.TrimSpace(cfg.Ergonomic.CopyShortcut) == "" {
			return nil, fmt.Errorf("ergonomic.copy_shortcut must not be empty when ergonomic.enable=true and ergonomic.copy_cmd is unset")
		}
		if len(cfg.Ergonomic.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Ergonomic.PasteShortcut) == "" {
			return nil, fmt.Errorf("ergonomic.paste_shortcut must not be empty when ergonomic.enable=true and ergonomic.paste_cmd is unset")
		}
	}

	if cfg.Indicator.Backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}

	if !llm.KnownModel(cfg.Model.Provider, cfg.Model.Model) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("model %q is not a known %s model; requests may fail", cfg.Model.Model, cfg.Model.Provider)})
	}

	return warnings, nil
}

// validateStruct runs tag-based validation and reports the first failing field.
func validateStruct(cfg Config) error {
	v, trans := structValidator()
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%s: %s", fieldPath(fe.Namespace()), fe.Translate(trans))
	}
	return err
}

// fieldPath turns a validator namespace like "Config.model.provider" into "model.provider".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
