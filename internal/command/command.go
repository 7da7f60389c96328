// Package command resolves clipboard text against the configured rewrite catalog.
package command

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// DefaultSeparator marks the boundary between text and a trailing command word.
const DefaultSeparator = "///"

// Command is one configured rewrite.
type Command struct {
	Name         string
	Word         string
	Instructions string
}

// Catalog is the ordered list of configured rewrites.
type Catalog []Command

// Lookup returns the first command whose word equals word exactly.
func (c Catalog) Lookup(word string) (Command, bool) {
	for _, cmd := range c {
		if cmd.Word == word {
			return cmd, true
		}
	}
	return Command{}, false
}

// Words returns the command words in catalog order.
func (c Catalog) Words() []string {
	words := make([]string, 0, len(c))
	for _, cmd := range c {
		words = append(words, cmd.Word)
	}
	return words
}

// Suggest returns up to limit command words that fuzzy-match word, best first.
func (c Catalog) Suggest(word string, limit int) []string {
	word = strings.TrimSpace(word)
	if word == "" || limit <= 0 {
		return nil
	}

	matches := fuzzy.Find(word, c.Words())
	out := make([]string, 0, limit)
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// Mode records how a resolution picked its instructions.
type Mode string

const (
	ModeBase    Mode = "base"
	ModeCommand Mode = "command"
	ModeAdhoc   Mode = "adhoc"
)

// Resolution is the text span to transform and the instructions to apply.
type Resolution struct {
	Text         string
	Instructions string
	Mode         Mode
	Word         string
}

// Resolve splits input on the first separator and decides which instructions apply.
//
// Text after the separator selects a catalog command by exact word, or is used
// verbatim as ad-hoc instructions when no word matches. Without a trailing
// token the baseCommand entry applies. The boolean is false when there is
// nothing to transform or no instructions could be found.
func Resolve(input string, catalog Catalog, baseCommand string, separator string) (Resolution, bool) {
	if strings.TrimSpace(input) == "" {
		return Resolution{}, false
	}

	text, rest := input, ""
	if separator != "" {
		if before, after, found := strings.Cut(input, separator); found {
			text, rest = before, after
		}
	}
	candidate := strings.TrimSpace(rest)

	res := Resolution{Text: text}
	if candidate != "" {
		if cmd, ok := catalog.Lookup(candidate); ok {
			res.Instructions = cmd.Instructions
			res.Mode = ModeCommand
			res.Word = cmd.Word
		} else {
			res.Instructions = candidate
			res.Mode = ModeAdhoc
		}
	} else if cmd, ok := catalog.Lookup(baseCommand); ok {
		res.Instructions = cmd.Instructions
		res.Mode = ModeBase
		res.Word = cmd.Word
	}

	if res.Instructions == "" {
		return Resolution{}, false
	}
	return res, true
}
