package solver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

// CommandBackend runs an external solver once per position. The request is
// one line on stdin:
//
//	<rows> <cols> <canonical-key> <mover>
//
// and the reply is one whitespace-separated integer per column on stdout.
type CommandBackend struct {
	Path     string
	Args     []string
	Attempts uint
	Delay    time.Duration
}

func NewCommandBackend(path string, args ...string) *CommandBackend {
	return &CommandBackend{Path: path, Args: args, Attempts: 3, Delay: 100 * time.Millisecond}
}

func (c *CommandBackend) Analyze(ctx context.Context, b *board.Board, mover board.Piece) (ScoreVector, error) {
	req := fmt.Sprintf("%d %d %s %d\n", b.Rows(), b.Cols(), b.CanonicalKey(), mover)
	var scores ScoreVector
	err := retry.Do(
		func() error {
			cmd := exec.CommandContext(ctx, c.Path, c.Args...)
			cmd.Stdin = strings.NewReader(req)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			if err := cmd.Run(); err != nil {
				return fmt.Errorf("solver command: %w: %s", err, strings.TrimSpace(stderr.String()))
			}
			parsed, err := parseScores(stdout.String(), b.Cols())
			if err != nil {
				return retry.Unrecoverable(err)
			}
			scores = parsed
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(max(c.Attempts, 1)),
		retry.Delay(c.Delay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Warn().Err(err).Uint("n", n).Msg("solver-command-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func parseScores(out string, cols int) (ScoreVector, error) {
	fields := strings.Fields(out)
	if len(fields) != cols {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrMalformedScores, len(fields), cols)
	}
	scores := make(ScoreVector, cols)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedScores, err)
		}
		scores[i] = v
	}
	return scores, nil
}

// ServeCommand answers CommandBackend requests read from r, one per line,
// until r is exhausted. It is the other end of the protocol, so a solver
// binary built from this package can be used as an external backend.
func ServeCommand(ctx context.Context, r io.Reader, w io.Writer, backend Backend, windowLength int) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		b, mover, err := parseRequest(line, windowLength)
		if err != nil {
			return err
		}
		scores, err := backend.Analyze(ctx, b, mover)
		if err != nil {
			return err
		}
		parts := make([]string, len(scores))
		for i, s := range scores {
			parts[i] = strconv.Itoa(s)
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseRequest(line string, windowLength int) (*board.Board, board.Piece, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return nil, board.Empty, fmt.Errorf("%w: want <rows> <cols> <key> <mover>, got %q", ErrBadRequest, line)
	}
	rows, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, board.Empty, fmt.Errorf("%w: rows: %v", ErrBadRequest, err)
	}
	cols, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, board.Empty, fmt.Errorf("%w: cols: %v", ErrBadRequest, err)
	}
	mover, err := strconv.Atoi(fields[3])
	if err != nil || !board.Piece(mover).Valid() {
		return nil, board.Empty, fmt.Errorf("%w: mover %q", ErrBadRequest, fields[3])
	}
	b, err := board.FromKey(board.Key(fields[2]), rows, cols, windowLength)
	if err != nil {
		return nil, board.Empty, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return b, board.Piece(mover), nil
}
