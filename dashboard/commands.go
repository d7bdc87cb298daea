package dashboard

import (
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/replaydash/errors"
)

// CommandKind names one user action.
type CommandKind int

const (
	CmdStep CommandKind = iota
	CmdFirst
	CmdLast
	CmdNextMismatch
	CmdPrevMismatch
	CmdGoLive
	CmdGoto
	CmdClearMismatches
	CmdRefresh
	CmdToggleMonitoring
	CmdSetFiles
	CmdExport
	CmdQuit
)

// Command is a parsed user action. Delta is used by CmdStep, Index by
// CmdGoto, Args by commands that take paths.
type Command struct {
	Kind    CommandKind
	Delta   int
	Index   int
	Args    []string
	Monitor bool
}

// keyCommands is the single-key map shared by the key reader and the
// line reader.
var keyCommands = map[string]Command{
	"left":  {Kind: CmdStep, Delta: -1},
	"right": {Kind: CmdStep, Delta: 1},
	"pgup":  {Kind: CmdStep, Delta: -10},
	"pgdn":  {Kind: CmdStep, Delta: 10},
	"home":  {Kind: CmdFirst},
	"end":   {Kind: CmdLast},
	"m":     {Kind: CmdNextMismatch},
	"n":     {Kind: CmdPrevMismatch},
	"l":     {Kind: CmdGoLive},
	"c":     {Kind: CmdClearMismatches},
	"r":     {Kind: CmdRefresh},
	"q":     {Kind: CmdQuit},
}

// KeyCommand maps a single key name to its command.
func KeyCommand(key string) (Command, bool) {
	cmd, ok := keyCommands[strings.ToLower(key)]
	return cmd, ok
}

// ParseCommand parses one command line. Arguments are shell-quoted, so
// paths with spaces work: f "my replay.jsonl" validation.jsonl --monitor
func ParseCommand(line string) (Command, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return Command{}, errors.NewInvalidRequestError("cannot parse %q: %s", line, err)
	}
	if len(words) == 0 {
		return Command{}, errors.NewInvalidRequestError("empty command")
	}

	name, args := strings.ToLower(words[0]), words[1:]
	if cmd, ok := keyCommands[name]; ok && len(args) == 0 {
		return cmd, nil
	}

	switch name {
	case "g", "goto":
		if len(args) != 1 {
			return Command{}, errors.NewInvalidRequestError("usage: g <frame index>")
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, errors.NewInvalidRequestError("frame index must be a number, got %q", args[0])
		}
		return Command{Kind: CmdGoto, Index: idx}, nil

	case "s", "monitor":
		if len(args) > 1 {
			return Command{}, errors.NewInvalidRequestError("usage: s [directory]")
		}
		return Command{Kind: CmdToggleMonitoring, Args: args}, nil

	case "f", "files":
		cmd := Command{Kind: CmdSetFiles}
		for _, a := range args {
			if a == "--monitor" {
				cmd.Monitor = true
				continue
			}
			cmd.Args = append(cmd.Args, a)
		}
		if len(cmd.Args) == 0 || len(cmd.Args) > 2 {
			return Command{}, errors.NewInvalidRequestError("usage: f <replay> [validation] [--monitor]")
		}
		return cmd, nil

	case "x", "e", "export":
		if len(args) < 1 || len(args) > 2 {
			return Command{}, errors.NewInvalidRequestError("usage: x <mismatches|csv|analysis|full|sqlite> [path]")
		}
		return Command{Kind: CmdExport, Args: args}, nil
	}

	return Command{}, errors.NewInvalidRequestError("unknown command %q", words[0])
}
