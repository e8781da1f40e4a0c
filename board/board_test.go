package board

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/matryer/is"
)

func TestDropLandsOnLowestEmptyRow(t *testing.T) {
	is := is.New(t)
	b := NewStandard()
	for i := 0; i < DefaultRows; i++ {
		row, err := b.Drop(3, PieceA)
		is.NoErr(err)
		is.Equal(row, i)
		last, ok := b.LastMove()
		is.True(ok)
		is.Equal(last, Cell{Row: i, Col: 3})
	}
	is.True(!b.IsLegalColumn(3))
	is.True(b.IsGravityConsistent())
}

func TestDropFullColumnLeavesBoardUnchanged(t *testing.T) {
	is := is.New(t)
	b := NewStandard()
	for i := 0; i < DefaultRows; i++ {
		_, err := b.Drop(0, Piece(i%2+1))
		is.NoErr(err)
	}
	before := b.CanonicalKey()
	_, err := b.Drop(0, PieceA)
	is.True(errors.Is(err, ErrColumnFull))
	is.Equal(b.CanonicalKey(), before)

	_, err = b.Drop(7, PieceA)
	is.True(errors.Is(err, ErrColumnOutOfRange))
	_, err = b.Drop(-1, PieceA)
	is.True(errors.Is(err, ErrColumnOutOfRange))
	_, err = b.Drop(1, Empty)
	is.True(errors.Is(err, ErrInvalidPiece))
	is.Equal(b.CanonicalKey(), before)
}

func TestUndoInvertsDrop(t *testing.T) {
	is := is.New(t)
	b := MustFromDiagram(
		".......",
		".......",
		".......",
		"...O...",
		"..XX...",
		".OXOX..",
	)
	before := b.CanonicalKey()
	_, err := b.Drop(2, PieceB)
	is.NoErr(err)
	is.NoErr(b.Undo(2))
	is.Equal(b.CanonicalKey(), before)
	is.True(errors.Is(b.Undo(6), ErrColumnEmpty))
}

func TestLegalColumns(t *testing.T) {
	is := is.New(t)
	b := MustFromDiagram(
		"X.O....",
		"O.X....",
		"X.O....",
		"O.X....",
		"X.O....",
		"O.X....",
	)
	is.Equal(b.LegalColumns(), []int{1, 3, 4, 5, 6})
	is.True(!b.IsFull())
}

func TestDetectWinAxes(t *testing.T) {
	is := is.New(t)
	cases := []struct {
		name  string
		lines []string
		piece Piece
		cells []Cell
	}{
		{"horizontal", []string{
			".......",
			".......",
			".......",
			".......",
			"...OOO.",
			".XXXX..",
		}, PieceA, []Cell{{0, 1}, {0, 2}, {0, 3}, {0, 4}}},
		{"vertical", []string{
			".......",
			".......",
			"....O..",
			"....O..",
			"...XO..",
			"..XXO..",
		}, PieceB, []Cell{{0, 4}, {1, 4}, {2, 4}, {3, 4}}},
		{"rising", []string{
			".......",
			".......",
			"...X...",
			"..XO...",
			".XOO...",
			"XOOX...",
		}, PieceA, []Cell{{0, 0}, {1, 1}, {2, 2}, {3, 3}}},
		{"falling", []string{
			".......",
			".......",
			"O......",
			"XO.....",
			"XXO....",
			"XXXO...",
		}, PieceB, []Cell{{3, 0}, {2, 1}, {1, 2}, {0, 3}}},
	}
	for _, tc := range cases {
		b := MustFromDiagram(tc.lines...)
		won, cells := b.DetectWin(tc.piece)
		is.True(won)
		is.Equal(cells, tc.cells)
		won, _ = b.DetectWin(tc.piece.Opponent())
		is.True(!won)
		is.True(b.IsTerminal())
	}
}

func TestDetectWinFirstInScanOrder(t *testing.T) {
	is := is.New(t)
	// five in a row: the window starting at the lower column is found first.
	b := MustFromDiagram(
		".......",
		".......",
		".......",
		".......",
		"OOOO...",
		"XXXXX..",
	)
	won, cells := b.DetectWin(PieceA)
	is.True(won)
	is.Equal(cells[0], Cell{0, 0})
	is.True(b.RecordWin(PieceA))
	is.Equal(b.WinningCells(), cells)
}

// DetectWin must agree with a cell-by-cell run check on arbitrary
// gravity-consistent boards.
func TestDetectWinMatchesRunCheck(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewPCG(7, 11))
	for game := 0; game < 300; game++ {
		b := NewStandard()
		moves := rng.IntN(DefaultRows*DefaultCols + 1)
		for i := 0; i < moves; i++ {
			legal := b.LegalColumns()
			if len(legal) == 0 {
				break
			}
			_, err := b.Drop(legal[rng.IntN(len(legal))], Piece(rng.IntN(2)+1))
			is.NoErr(err)
		}
		for _, p := range []Piece{PieceA, PieceB} {
			want := false
			for r := 0; r < b.Rows(); r++ {
				for c := 0; c < b.Cols(); c++ {
					if b.At(r, c) == p && b.ConnectsAt(r, c) {
						want = true
					}
				}
			}
			got, cells := b.DetectWin(p)
			is.Equal(got, want)
			for _, c := range cells {
				is.Equal(b.At(c.Row, c.Col), p)
			}
		}
	}
}

func TestGravityConsistency(t *testing.T) {
	is := is.New(t)
	g := NewStandard().Grid()
	g[2][3] = PieceA
	b, err := FromGrid(g, DefaultWindowLength)
	is.NoErr(err)
	is.True(!b.IsGravityConsistent())
	g[0][3], g[1][3] = PieceB, PieceA
	b, err = FromGrid(g, DefaultWindowLength)
	is.NoErr(err)
	is.True(b.IsGravityConsistent())
}

func TestFromGridRejectsBadInput(t *testing.T) {
	is := is.New(t)
	g := NewStandard().Grid()
	g[0][0] = 3
	_, err := FromGrid(g, DefaultWindowLength)
	is.True(errors.Is(err, ErrInvalidPiece))
	g = NewStandard().Grid()
	g[4] = g[4][:5]
	_, err = FromGrid(g, DefaultWindowLength)
	is.True(errors.Is(err, ErrBadDimensions))
}

func TestKeys(t *testing.T) {
	is := is.New(t)
	b := NewStandard()
	_, _ = b.Drop(0, PieceA)
	_, _ = b.Drop(1, PieceB)
	_, _ = b.Drop(0, PieceA)
	k := b.CanonicalKey()
	is.Equal(len(k), 42)
	is.Equal(string(k[:7]), "1200000")
	is.Equal(string(k[7:14]), "1000000")
	is.Equal(string(b.MirroredKey()[:7]), "0000021")

	m := b.Mirror()
	is.Equal(m.CanonicalKey(), b.MirroredKey())
	is.Equal(m.MirroredKey(), k)
	is.True(m.Mirror().Equal(b))

	back, err := FromKey(k, 6, 7, 4)
	is.NoErr(err)
	is.True(back.Equal(b))
	_, err = FromKey(k[:41], 6, 7, 4)
	is.True(errors.Is(err, ErrBadDimensions))
}

func TestSymmetricBoardKeysAgree(t *testing.T) {
	is := is.New(t)
	b := MustFromDiagram(
		".......",
		".......",
		".......",
		".......",
		"...O...",
		"..XXX..",
	)
	is.Equal(b.CanonicalKey(), b.MirroredKey())
}

func TestHeuristicScore(t *testing.T) {
	is := is.New(t)
	is.Equal(NewStandard().HeuristicScore(PieceA), 0)

	b := NewStandard()
	_, _ = b.Drop(3, PieceA)
	is.Equal(b.HeuristicScore(PieceA), 3)
	is.Equal(b.HeuristicScore(PieceB), 0)

	b = MustFromDiagram(
		".......",
		".......",
		".......",
		".......",
		".......",
		"XXX....",
	)
	is.Equal(b.HeuristicScore(PieceA), 7)
	// an opponent three in a row costs nothing by itself.
	is.Equal(b.HeuristicScore(PieceB), 0)

	b = MustFromDiagram(
		".......",
		".......",
		".......",
		"...O...",
		"...O...",
		"OOOX...",
	)
	// the blocked "OOOX" scores nothing for either side. O gets +6 in the
	// centre and +2 for each of three open twos.
	is.Equal(b.HeuristicScore(PieceA), 3)
	is.Equal(b.HeuristicScore(PieceB), 12)
}

func TestCopyIsIndependent(t *testing.T) {
	is := is.New(t)
	b := NewStandard()
	_, _ = b.Drop(2, PieceA)
	c := b.Copy()
	_, _ = c.Drop(2, PieceB)
	is.Equal(b.PieceCount(), 1)
	is.Equal(c.PieceCount(), 2)
	b.CopyFrom(c)
	is.True(b.Equal(c))
	is.Equal(b.SideToMove(PieceA), PieceA)
}

func TestToDisplayText(t *testing.T) {
	is := is.New(t)
	b := New(2, 3, 2)
	_, _ = b.Drop(1, PieceA)
	_, _ = b.Drop(1, PieceB)
	is.Equal(b.ToDisplayText(), "| . O . |\n| . X . |\n+-------+\n  0 1 2\n")
}
