// Package cli parses the reright command line.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandRewrite  Command = "rewrite"
	CommandPick     Command = "pick"
	CommandCommands Command = "commands"
	CommandStatus   Command = "status"
	CommandCancel   Command = "cancel"
	CommandHistory  Command = "history"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

// DefaultHistoryLimit is how many entries `history` prints without --limit.
const DefaultHistoryLimit = 20

var validCommands = map[Command]struct{}{
	CommandRewrite:  {},
	CommandPick:     {},
	CommandCommands: {},
	CommandStatus:   {},
	CommandCancel:   {},
	CommandHistory:  {},
	CommandDoctor:   {},
	CommandVersion:  {},
	CommandHelp:     {},
}

// Parsed is the result of a successful Parse.
type Parsed struct {
	Command     Command
	ConfigPath  string
	CommandWord string
	Limit       int
	ShowHelp    bool
}

// Parse reads global flags, one command, then flags owned by that command.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true, Limit: DefaultHistoryLimit}
	haveCommand := false

	for i := 0; i < len(args); i++ {
		name, value, hasValue := strings.Cut(args[i], "=")
		takeValue := func() (string, error) {
			if hasValue {
				return value, nil
			}
			i++
			if i >= len(args) {
				return "", fmt.Errorf("%s requires a value", name)
			}
			return args[i], nil
		}

		switch {
		case name == "-h" || name == "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
			return parsed, nil
		case name == "--version" && !haveCommand:
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case name == "--config" && !haveCommand:
			path, err := takeValue()
			if err != nil {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = path
		case name == "--command" && parsed.Command == CommandRewrite && haveCommand:
			word, err := takeValue()
			if err != nil {
				return Parsed{}, err
			}
			if strings.TrimSpace(word) == "" {
				return Parsed{}, errors.New("--command requires a non-empty word")
			}
			parsed.CommandWord = word
		case name == "--limit" && parsed.Command == CommandHistory && haveCommand:
			raw, err := takeValue()
			if err != nil {
				return Parsed{}, err
			}
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				return Parsed{}, fmt.Errorf("--limit must be a positive integer, got %q", raw)
			}
			parsed.Limit = limit
		case strings.HasPrefix(name, "-"):
			if haveCommand {
				return Parsed{}, fmt.Errorf("unknown flag for %s: %s", parsed.Command, name)
			}
			return Parsed{}, fmt.Errorf("unknown flag: %s", name)
		case haveCommand:
			return Parsed{}, fmt.Errorf("unexpected argument %q after command %q", args[i], parsed.Command)
		default:
			cmd := Command(args[i])
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", args[i])
			}
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			haveCommand = true
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [flags]

Commands:
  rewrite   Rewrite clipboard text (default command, or --command WORD)
  pick      Choose a rewrite interactively, then run it
  commands  List configured rewrites
  status    Print current state of a running rewrite
  cancel    Cancel a running rewrite
  history   Show recent rewrites (--limit N, default %[2]d)
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Text ending in "<separator><word>" (default "///fix") runs that rewrite;
any other trailing "<separator>..." is used as ad-hoc instructions.

Flags:
  --config PATH    Config file path (default: $XDG_CONFIG_HOME/reright/config.jsonc)
  --command WORD   Base command for this rewrite
  -h, --help       Show help
  --version        Show version
`, binaryName, DefaultHistoryLimit)
}
