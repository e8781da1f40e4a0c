package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
)

// ShellCompleter completes command names, options and their values.
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"new":  {Options: []string{"-first", "-tier"}},
	"tier": {Args: tierNames()},
	"help": {Args: []string{"tiers", "observe"}},
}

var commandNames = []string{
	"new", "play", "observe", "tier", "scores", "show", "save", "load", "help", "exit",
}

func tierNames() []string {
	return lo.Map(strategy.Tiers, func(t strategy.Tier, _ int) string { return string(t) })
}

// Do implements readline.AutoCompleter.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string
	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastComplete string
		if endsWithSpace {
			lastComplete = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastComplete = fields[len(fields)-2]
		}
		switch lastComplete {
		case "-tier":
			completions = tierNames()
		case "-first":
			completions = []string{"engine", "opponent"}
		}
		if completions == nil {
			if metadata, ok := commandMetadata[cmdName]; ok {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
