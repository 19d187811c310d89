// Package peer talks to a move-generating peer over the line-oriented
// match protocol (OPEN, START, MOVE, ACK, UNDO, END, BYE).
package peer

import (
	"fmt"
	"strings"

	"othello-arbiter/board"
)

// Notation:
// - Columns: A-H, left to right
// - Rows: 1-8, top to bottom
// - Example: D3, F5, h8
//
// Board coordinates are 1-based (Col, Row), so D3 is (4, 3).

// Decode converts a two-character square name to a coordinate.
// Letters are case-insensitive. Anything malformed yields board.NoCoordinate.
func Decode(text string) board.Coordinate {
	if len(text) != 2 {
		return board.NoCoordinate
	}
	col := text[0] | 0x20 // lower-case ASCII letters
	row := text[1]
	if col < 'a' || col >= 'a'+board.Size {
		return board.NoCoordinate
	}
	if row < '1' || row >= '1'+board.Size {
		return board.NoCoordinate
	}
	return board.Coordinate{Col: int(col-'a') + 1, Row: int(row-'1') + 1}
}

// Encode converts a coordinate to upper-case notation, e.g. (4, 3) -> "D3".
// Out-of-bounds coordinates encode to "".
func Encode(c board.Coordinate) string {
	if !c.InBounds() {
		return ""
	}
	return fmt.Sprintf("%c%d", 'A'+rune(c.Col-1), c.Row)
}

// EncodePos converts a 0-indexed (x, y) board position, as used in
// snapshots, to notation. Negative positions encode to "PASS".
func EncodePos(x, y int) string {
	if x < 0 || y < 0 {
		return passToken
	}
	return Encode(board.Coordinate{Col: x + 1, Row: y + 1})
}

// colorToWire converts a disc color to its protocol name.
func colorToWire(c board.Cell) string {
	if c == board.White {
		return "WHITE"
	}
	return "BLACK"
}

// wireToColor converts a protocol color name to a disc color.
func wireToColor(s string) (board.Cell, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BLACK":
		return board.Black, true
	case "WHITE":
		return board.White, true
	}
	return board.Empty, false
}
