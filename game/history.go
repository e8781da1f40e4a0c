package game

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CPSCourse-TUM-HN/connecTUM/board"
)

// Turn is one applied move.
type Turn struct {
	Number   int         `yaml:"number"`
	Piece    board.Piece `yaml:"piece"`
	Col      int         `yaml:"col"`
	Row      int         `yaml:"row"`
	Observed bool        `yaml:"observed,omitempty"`
}

// History is the transcript of a game; it is enough to replay it.
type History struct {
	ID           string      `yaml:"id"`
	Rows         int         `yaml:"rows"`
	Cols         int         `yaml:"cols"`
	WindowLength int         `yaml:"window_length"`
	EnginePiece  board.Piece `yaml:"engine_piece"`
	First        board.Piece `yaml:"first"`
	Tier         string      `yaml:"tier"`
	Started      time.Time   `yaml:"started"`
	Turns        []Turn      `yaml:"turns"`
	Winner       board.Piece `yaml:"winner"`
	FinalScore   int         `yaml:"final_score"`
}

// Columns returns the played columns in order.
func (h *History) Columns() []int {
	cols := make([]int, len(h.Turns))
	for i, t := range h.Turns {
		cols[i] = t.Col
	}
	return cols
}

// WriteTranscript writes h as YAML.
func (h *History) WriteTranscript(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(h); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return enc.Close()
}

// ReadTranscript reads a history written by WriteTranscript.
func ReadTranscript(r io.Reader) (*History, error) {
	h := &History{}
	if err := yaml.NewDecoder(r).Decode(h); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return h, nil
}
