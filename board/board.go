package board

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	DefaultRows         = 6
	DefaultCols         = 7
	DefaultWindowLength = 4
)

var (
	ErrColumnFull       = errors.New("column is full")
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrColumnEmpty      = errors.New("column is empty")
	ErrInvalidPiece     = errors.New("invalid piece")
	ErrBadDimensions    = errors.New("bad board dimensions")
)

// A Board is a rows x cols grid of pieces. Pieces enter a column at its
// lowest empty row. Windows are precomputed at construction and shared
// (read-only) between copies.
type Board struct {
	rows, cols   int
	windowLength int
	cells        []Piece

	lastRow, lastCol int
	winningCells     []Cell

	windows [][]int
}

// New creates an empty board. It panics on dimensions that cannot hold a
// single window.
func New(rows, cols, windowLength int) *Board {
	if err := CheckDimensions(rows, cols, windowLength); err != nil {
		panic(err)
	}
	return &Board{
		rows:         rows,
		cols:         cols,
		windowLength: windowLength,
		cells:        make([]Piece, rows*cols),
		lastRow:      -1,
		lastCol:      -1,
		windows:      buildWindows(rows, cols, windowLength),
	}
}

// NewStandard creates an empty 6x7 board with a window length of 4.
func NewStandard() *Board {
	return New(DefaultRows, DefaultCols, DefaultWindowLength)
}

// CheckDimensions reports whether New accepts the given dimensions.
func CheckDimensions(rows, cols, windowLength int) error {
	if rows < 1 || cols < 1 || windowLength < 2 {
		return fmt.Errorf("%w: %dx%d window %d", ErrBadDimensions, rows, cols, windowLength)
	}
	if windowLength > rows && windowLength > cols {
		return fmt.Errorf("%w: window %d does not fit %dx%d", ErrBadDimensions, windowLength, rows, cols)
	}
	return nil
}

// buildWindows lists every window as cell indices in the fixed scan order
// used by DetectWin: horizontal, vertical, rising diagonal, falling diagonal.
// Within each axis the start column is the outer loop.
func buildWindows(rows, cols, wl int) [][]int {
	var ws [][]int
	add := func(r, c, dr, dc int) {
		w := make([]int, wl)
		for i := 0; i < wl; i++ {
			w[i] = (r+dr*i)*cols + c + dc*i
		}
		ws = append(ws, w)
	}
	for c := 0; c+wl <= cols; c++ {
		for r := 0; r < rows; r++ {
			add(r, c, 0, 1)
		}
	}
	for c := 0; c < cols; c++ {
		for r := 0; r+wl <= rows; r++ {
			add(r, c, 1, 0)
		}
	}
	for c := 0; c+wl <= cols; c++ {
		for r := 0; r+wl <= rows; r++ {
			add(r, c, 1, 1)
		}
	}
	for c := 0; c+wl <= cols; c++ {
		for r := wl - 1; r < rows; r++ {
			add(r, c, -1, 1)
		}
	}
	return ws
}

func (b *Board) Rows() int         { return b.rows }
func (b *Board) Cols() int         { return b.cols }
func (b *Board) WindowLength() int { return b.windowLength }

// At returns the piece at row, col. Row 0 is the bottom.
func (b *Board) At(row, col int) Piece {
	return b.cells[row*b.cols+col]
}

func (b *Board) inRange(col int) bool {
	return col >= 0 && col < b.cols
}

// IsLegalColumn reports whether a piece may be dropped in col, that is,
// the top cell of the column is empty.
func (b *Board) IsLegalColumn(col int) bool {
	if !b.inRange(col) {
		return false
	}
	return b.At(b.rows-1, col) == Empty
}

// LegalColumns returns every legal column in ascending order.
func (b *Board) LegalColumns() []int {
	cols := make([]int, 0, b.cols)
	for c := 0; c < b.cols; c++ {
		if b.IsLegalColumn(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// ColumnHeight returns the number of pieces in col.
func (b *Board) ColumnHeight(col int) int {
	h := 0
	for h < b.rows && b.At(h, col) != Empty {
		h++
	}
	return h
}

// Drop places piece in the lowest empty row of col and returns that row.
// On error the board is unchanged.
func (b *Board) Drop(col int, piece Piece) (int, error) {
	if !piece.Valid() {
		return -1, fmt.Errorf("%w: %d", ErrInvalidPiece, piece)
	}
	if !b.inRange(col) {
		return -1, fmt.Errorf("%w: %d", ErrColumnOutOfRange, col)
	}
	if !b.IsLegalColumn(col) {
		return -1, fmt.Errorf("%w: %d", ErrColumnFull, col)
	}
	row := b.ColumnHeight(col)
	b.cells[row*b.cols+col] = piece
	b.lastRow, b.lastCol = row, col
	b.winningCells = nil
	return row, nil
}

// Undo removes the topmost piece of col. It is the inverse of the last Drop
// into that column. The last-move marker is cleared.
func (b *Board) Undo(col int) error {
	if !b.inRange(col) {
		return fmt.Errorf("%w: %d", ErrColumnOutOfRange, col)
	}
	h := b.ColumnHeight(col)
	if h == 0 {
		return fmt.Errorf("%w: %d", ErrColumnEmpty, col)
	}
	b.cells[(h-1)*b.cols+col] = Empty
	b.lastRow, b.lastCol = -1, -1
	b.winningCells = nil
	return nil
}

// LastMove returns the cell of the most recent drop.
func (b *Board) LastMove() (Cell, bool) {
	if b.lastRow < 0 {
		return Cell{}, false
	}
	return Cell{Row: b.lastRow, Col: b.lastCol}, true
}

// DetectWin scans all windows in a fixed order and returns the first one
// made up entirely of piece.
func (b *Board) DetectWin(piece Piece) (bool, []Cell) {
	if !piece.Valid() {
		return false, nil
	}
	for _, w := range b.windows {
		if b.windowAll(w, piece) {
			cells := make([]Cell, len(w))
			for i, idx := range w {
				cells[i] = Cell{Row: idx / b.cols, Col: idx % b.cols}
			}
			return true, cells
		}
	}
	return false, nil
}

func (b *Board) windowAll(w []int, piece Piece) bool {
	for _, idx := range w {
		if b.cells[idx] != piece {
			return false
		}
	}
	return true
}

// RecordWin runs DetectWin and stores the winning cells on the board.
func (b *Board) RecordWin(piece Piece) bool {
	won, cells := b.DetectWin(piece)
	if won {
		b.winningCells = cells
	}
	return won
}

// WinningCells returns the cells stored by RecordWin, if any.
func (b *Board) WinningCells() []Cell {
	return b.winningCells
}

var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}}

// ConnectsAt reports whether the piece at row, col is part of a run of at
// least WindowLength identical pieces. It only looks through that one cell.
func (b *Board) ConnectsAt(row, col int) bool {
	p := b.At(row, col)
	if p == Empty {
		return false
	}
	for _, d := range directions {
		n := 1
		for _, sign := range [2]int{1, -1} {
			r, c := row+sign*d[0], col+sign*d[1]
			for r >= 0 && r < b.rows && c >= 0 && c < b.cols && b.At(r, c) == p {
				n++
				r += sign * d[0]
				c += sign * d[1]
			}
		}
		if n >= b.windowLength {
			return true
		}
	}
	return false
}

func (b *Board) IsFull() bool {
	for c := 0; c < b.cols; c++ {
		if b.IsLegalColumn(c) {
			return false
		}
	}
	return true
}

// IsTerminal reports whether either side has won or the board is full.
func (b *Board) IsTerminal() bool {
	if won, _ := b.DetectWin(PieceA); won {
		return true
	}
	if won, _ := b.DetectWin(PieceB); won {
		return true
	}
	return b.IsFull()
}

// IsGravityConsistent reports whether, in every column, no piece sits above
// an empty cell.
func (b *Board) IsGravityConsistent() bool {
	for c := 0; c < b.cols; c++ {
		seenEmpty := false
		for r := 0; r < b.rows; r++ {
			if b.At(r, c) == Empty {
				seenEmpty = true
			} else if seenEmpty {
				return false
			}
		}
	}
	return true
}

// PieceCount returns the number of non-empty cells.
func (b *Board) PieceCount() int {
	n := 0
	for _, p := range b.cells {
		if p != Empty {
			n++
		}
	}
	return n
}

// SideToMove returns whose turn it is, given which piece moved first.
func (b *Board) SideToMove(first Piece) Piece {
	if b.PieceCount()%2 == 0 {
		return first
	}
	return first.Opponent()
}

// CanonicalKey encodes the board as one digit per cell, row-major from
// row 0.
func (b *Board) CanonicalKey() Key {
	var sb strings.Builder
	sb.Grow(len(b.cells))
	for _, p := range b.cells {
		sb.WriteByte('0' + byte(p))
	}
	return Key(sb.String())
}

// MirroredKey is the canonical key of the board reflected left to right.
func (b *Board) MirroredKey() Key {
	var sb strings.Builder
	sb.Grow(len(b.cells))
	for r := 0; r < b.rows; r++ {
		for c := b.cols - 1; c >= 0; c-- {
			sb.WriteByte('0' + byte(b.At(r, c)))
		}
	}
	return Key(sb.String())
}

// Mirror returns a new board reflected left to right.
func (b *Board) Mirror() *Board {
	m := b.Copy()
	for r := 0; r < b.rows; r++ {
		slices.Reverse(m.cells[r*b.cols : (r+1)*b.cols])
	}
	if b.lastRow >= 0 {
		m.lastCol = b.cols - 1 - b.lastCol
	}
	m.winningCells = nil
	return m
}

func (b *Board) Copy() *Board {
	n := &Board{}
	n.CopyFrom(b)
	return n
}

// CopyFrom makes b an exact copy of o, reusing b's storage when possible.
func (b *Board) CopyFrom(o *Board) {
	b.rows, b.cols, b.windowLength = o.rows, o.cols, o.windowLength
	if cap(b.cells) >= len(o.cells) {
		b.cells = b.cells[:len(o.cells)]
	} else {
		b.cells = make([]Piece, len(o.cells))
	}
	copy(b.cells, o.cells)
	b.lastRow, b.lastCol = o.lastRow, o.lastCol
	b.winningCells = slices.Clone(o.winningCells)
	b.windows = o.windows
}

// Equal compares dimensions and cell contents.
func (b *Board) Equal(o *Board) bool {
	return b.rows == o.rows && b.cols == o.cols &&
		b.windowLength == o.windowLength && slices.Equal(b.cells, o.cells)
}

// Grid returns a copy of the cells as a row-major grid.
func (b *Board) Grid() Grid {
	g := make(Grid, b.rows)
	for r := range g {
		g[r] = slices.Clone(b.cells[r*b.cols : (r+1)*b.cols])
	}
	return g
}

// FromGrid builds a board from an observed grid. It checks the grid is
// rectangular and every cell holds a known piece value, but not gravity;
// see IsGravityConsistent.
func FromGrid(g Grid, windowLength int) (*Board, error) {
	rows := len(g)
	if rows == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrBadDimensions)
	}
	cols := len(g[0])
	if err := CheckDimensions(rows, cols, windowLength); err != nil {
		return nil, err
	}
	b := New(rows, cols, windowLength)
	for r, row := range g {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadDimensions, r, len(row), cols)
		}
		for c, p := range row {
			if p != Empty && !p.Valid() {
				return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrInvalidPiece, p, r, c)
			}
			b.cells[r*cols+c] = p
		}
	}
	return b, nil
}

// FromKey decodes a canonical key.
func FromKey(k Key, rows, cols, windowLength int) (*Board, error) {
	if len(k) != rows*cols {
		return nil, fmt.Errorf("%w: key length %d for %dx%d", ErrBadDimensions, len(k), rows, cols)
	}
	if err := CheckDimensions(rows, cols, windowLength); err != nil {
		return nil, err
	}
	b := New(rows, cols, windowLength)
	for i := 0; i < len(k); i++ {
		p := Piece(k[i] - '0')
		if k[i] < '0' || (p != Empty && !p.Valid()) {
			return nil, fmt.Errorf("%w: %q at %d", ErrInvalidPiece, k[i], i)
		}
		b.cells[i] = p
	}
	return b, nil
}
