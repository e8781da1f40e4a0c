// Package shell is a terminal front end: a person plays against the engine
// by typing columns or pasting observed boards.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/CPSCourse-TUM-HN/connecTUM/engine"
	"github.com/CPSCourse-TUM-HN/connecTUM/game"
	"github.com/CPSCourse-TUM-HN/connecTUM/strategy"
)

var (
	errNoData            = errors.New("no data in line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoGame            = errors.New("please start a game first with the `new` command")
	errQuit              = errors.New("quit")
)

type ShellController struct {
	l   *readline.Instance
	out io.Writer

	engine *engine.Engine
	game   *game.Game
	tier   strategy.Tier
	rng    *rand.Rand
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// NewShellController wires a readline instance to e. A nil readline
// configuration is allowed for scripted use through Execute.
func NewShellController(e *engine.Engine, tier strategy.Tier, rng *rand.Rand, rlConfig *readline.Config) (*ShellController, error) {
	sc := &ShellController{engine: e, tier: tier, rng: rng, out: os.Stdout}
	if rlConfig == nil {
		return sc, nil
	}
	rlConfig.AutoComplete = NewShellCompleter(sc)
	rlConfig.FuncFilterInputRune = filterInput
	l, err := readline.NewEx(rlConfig)
	if err != nil {
		return nil, err
	}
	sc.l = l
	sc.out = l.Stdout()
	return sc, nil
}

// DefaultReadlineConfig is the interactive prompt setup.
func DefaultReadlineConfig() *readline.Config {
	return &readline.Config{
		Prompt:            "\033[31mconnectum>\033[0m ",
		HistoryFile:       "/tmp/connectum_readline.tmp",
		EOFPrompt:         "exit",
		InterruptPrompt:   "^C",
		HistorySearchFold: true,
	}
}

func (sc *ShellController) SetOutput(w io.Writer) {
	sc.out = w
}

func (sc *ShellController) showMessage(msg string) {
	io.WriteString(sc.out, msg)
	if !strings.HasSuffix(msg, "\n") {
		io.WriteString(sc.out, "\n")
	}
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

// extractFields splits line into a command, its positional arguments and
// its -key value options.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := &shellcmd{cmd: fields[0], options: map[string]string{}}
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if strings.HasPrefix(f, "-") && len(f) > 1 {
			if _, err := strconv.Atoi(f); err != nil {
				if i+1 >= len(fields) {
					return nil, errWrongOptionSyntax
				}
				cmd.options[f[1:]] = fields[i+1]
				i++
				continue
			}
		}
		cmd.args = append(cmd.args, f)
	}
	return cmd, nil
}

// Execute runs one command line and prints its output.
func (sc *ShellController) Execute(ctx context.Context, line string) error {
	cmd, err := extractFields(strings.TrimSpace(line))
	if errors.Is(err, errNoData) {
		return nil
	}
	if err != nil {
		sc.showError(err)
		return nil
	}
	resp, err := sc.dispatch(ctx, cmd)
	if errors.Is(err, errQuit) {
		return err
	}
	if err != nil {
		sc.showError(err)
		return nil
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
	return nil
}

// Loop reads commands until exit, EOF or an interrupt on an empty line.
func (sc *ShellController) Loop(ctx context.Context) {
	defer sc.l.Close()
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		if err := sc.Execute(ctx, line); err != nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	sc.finishGame(context.WithoutCancel(ctx))
	log.Debug().Msg("exiting readline loop")
}

// finishGame flushes the engine cache when a game is abandoned midway.
func (sc *ShellController) finishGame(ctx context.Context) {
	if sc.game == nil || sc.game.Playing() == game.GameOver {
		return
	}
	if err := sc.engine.Flush(ctx); err != nil {
		log.Err(err).Msg("flush-on-exit")
	}
}

func fmtCols(cols []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = strconv.Itoa(c)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}
