package board

import (
	"fmt"
	"strings"
)

// ToDisplayText renders the board top row first, with column numbers
// underneath. Winning cells, if recorded, are shown in lower case.
func (b *Board) ToDisplayText() string {
	win := make(map[Cell]bool, len(b.winningCells))
	for _, c := range b.winningCells {
		win[c] = true
	}
	var sb strings.Builder
	for r := b.rows - 1; r >= 0; r-- {
		sb.WriteString("|")
		for c := 0; c < b.cols; c++ {
			s := b.At(r, c).String()
			if win[Cell{Row: r, Col: c}] {
				s = strings.ToLower(s)
			}
			sb.WriteString(" " + s)
		}
		sb.WriteString(" |\n")
	}
	sb.WriteString("+" + strings.Repeat("--", b.cols) + "-+\n ")
	for c := 0; c < b.cols; c++ {
		fmt.Fprintf(&sb, " %d", c%10)
	}
	sb.WriteString("\n")
	return sb.String()
}

func (b *Board) String() string {
	return b.ToDisplayText()
}
