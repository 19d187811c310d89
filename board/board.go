// Package board implements the Othello board state machine: legal-move
// computation, disc flipping, undo and game-over detection.
package board

import "errors"

// Size is the number of playable rows and columns.
const Size = 8

// MaxTurns is the number of plies needed to fill the board from the opening position.
const MaxTurns = Size*Size - 4

// gridSize includes the one-cell wall frame around the playable area.
const gridSize = Size + 2

// Cell is the content of a single grid square.
type Cell uint8

const (
	Empty Cell = iota
	Black
	White
	Wall
)

// Opponent returns the other disc color. Empty and Wall are returned unchanged.
func (c Cell) Opponent() Cell {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	return c
}

func (c Cell) String() string {
	switch c {
	case Empty:
		return "Empty"
	case Black:
		return "Black"
	case White:
		return "White"
	case Wall:
		return "Wall"
	}
	return "Unknown"
}

// Coordinate addresses a square by column and row, both 1-based.
// Row 1 is the top row.
type Coordinate struct {
	Col int
	Row int
}

// NoCoordinate is the sentinel for "no valid square".
var NoCoordinate = Coordinate{}

// InBounds reports whether c lies on the playable 8x8 area.
func (c Coordinate) InBounds() bool {
	return c.Col >= 1 && c.Col <= Size && c.Row >= 1 && c.Row <= Size
}

// Disc is a placed or flipped piece.
type Disc struct {
	At    Coordinate
	Color Cell
}

// Direction is a set of compass directions, one bit each.
type Direction uint8

// None means no direction flanks.
const None Direction = 0

const (
	North Direction = 1 << iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var steps = [8]struct {
	dir  Direction
	dCol int
	dRow int
}{
	{North, 0, -1},
	{NorthEast, 1, -1},
	{East, 1, 0},
	{SouthEast, 1, 1},
	{South, 0, 1},
	{SouthWest, -1, 1},
	{West, -1, 0},
	{NorthWest, -1, -1},
}

// Counts holds the number of squares per content. The three fields always sum to 64.
type Counts struct {
	White int `json:"white"`
	Empty int `json:"empty"`
	Black int `json:"black"`
}

// Total returns White+Empty+Black.
func (c Counts) Total() int {
	return c.White + c.Empty + c.Black
}

func (c *Counts) add(color Cell, delta int) {
	switch color {
	case Black:
		c.Black += delta
	case White:
		c.White += delta
	case Empty:
		c.Empty += delta
	}
}

// Errors returned by board operations. None of them mutate state.
var (
	ErrOutOfBounds   = errors.New("coordinate out of bounds")
	ErrIllegalMove   = errors.New("illegal move")
	ErrCannotPass    = errors.New("cannot pass while legal moves exist")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrBadPosition   = errors.New("bad position")
)
