package indicator

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

var supportedLocales = []language.Tag{language.English, language.Portuguese}

var localeMatcher = language.NewMatcher(supportedLocales)

type messages struct {
	rewriting     string
	rewritingWith string
	errorText     string
	failures      map[string]string
}

func messagesFromEnv() messages {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			return messagesFor(resolveLocale(raw))
		}
	}
	return messagesFor(language.English)
}

// resolveLocale maps a POSIX locale such as "pt_BR.UTF-8" onto a supported tag.
func resolveLocale(raw string) language.Tag {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, ".@"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.ReplaceAll(raw, "_", "-")
	if raw == "" || raw == "C" || raw == "POSIX" {
		return language.English
	}

	tag, err := language.Parse(raw)
	if err != nil {
		return language.English
	}
	_, index, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return language.English
	}
	return supportedLocales[index]
}

func messagesFor(tag language.Tag) messages {
	base, _ := tag.Base()
	switch base.String() {
	case "pt":
		return messages{
			rewriting:     "A reescrever…",
			rewritingWith: "A reescrever (%s)…",
			errorText:     "Erro ao reescrever",
			failures: map[string]string{
				"clipboard_read":  "Não foi possível ler a área de transferência",
				"no_instructions": "Nenhuma instrução encontrada para o comando",
				"model":           "O modelo falhou ao reescrever o texto",
				"clipboard_write": "Não foi possível escrever na área de transferência",
			},
		}
	default:
		return messages{
			rewriting:     "Rewriting…",
			rewritingWith: "Rewriting (%s)…",
			errorText:     "Rewrite failed",
			failures: map[string]string{
				"clipboard_read":  "Could not read the clipboard",
				"no_instructions": "No instructions found for command",
				"model":           "The model could not rewrite the text",
				"clipboard_write": "Could not write the clipboard",
			},
		}
	}
}

func (m messages) rewritingText(word string) string {
	if word == "" {
		return m.rewriting
	}
	return fmt.Sprintf(m.rewritingWith, word)
}

func (m messages) failureText(failure string) string {
	if text, ok := m.failures[failure]; ok {
		return text
	}
	return m.errorText
}
