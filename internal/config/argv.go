package config

import (
	"fmt"
	"strings"
	"unicode"
)

// argvSplitter tokenizes a shell-like command line without invoking a shell.
// Single and double quotes group words; a backslash escapes the next rune.
type argvSplitter struct {
	argv    []string
	word    strings.Builder
	inWord  bool
	quote   rune
	escaped bool
}

func (s *argvSplitter) feed(r rune) {
	switch {
	case s.escaped:
		s.word.WriteRune(r)
		s.escaped = false
	case r == '\\':
		s.escaped = true
		s.inWord = true
	case s.quote != 0 && r == s.quote:
		s.quote = 0
	case s.quote != 0:
		s.word.WriteRune(r)
	case r == '\'' || r == '"':
		s.quote = r
		s.inWord = true
	case unicode.IsSpace(r):
		s.endWord()
	default:
		s.word.WriteRune(r)
		s.inWord = true
	}
}

func (s *argvSplitter) endWord() {
	if !s.inWord {
		return
	}
	if s.word.Len() > 0 {
		s.argv = append(s.argv, s.word.String())
	}
	s.word.Reset()
	s.inWord = false
}

// parseArgv splits a configured command string into argv. Blank strings and
// strings starting with '#' yield no command.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var s argvSplitter
	for _, r := range input {
		s.feed(r)
	}
	if s.escaped {
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	}
	if s.quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	s.endWord()
	return s.argv, nil
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
