// Package types contains shared data structures for othello-arbiter.
package types

import (
	"encoding/json"
	"fmt"
)

// Snapshot is an immutable view of a match handed to presentation code.
// Board is indexed as Board[y][x] where 0=empty, 1=black, 2=white.
type Snapshot struct {
	Turn     int         `json:"turn"`
	ToMove   int         `json:"to_move"` // 1=black, 2=white
	Board    [][]int     `json:"board"`
	Legal    []BoardPos  `json:"legal"`
	Counts   DiscCounts  `json:"counts"`
	Terminal bool        `json:"terminal"`
	Outcome  string      `json:"outcome"`
	LastMove BoardPos    `json:"last_move"`
	Moves    []MoveEntry `json:"moves"`
	Players  Players     `json:"players"`
	// LocalColor is the color controlled by the local participant, 0 when unknown.
	LocalColor int `json:"local_color"`
}

// DiscCounts mirrors board.Counts for presentation.
type DiscCounts struct {
	Black int `json:"black"`
	White int `json:"white"`
	Empty int `json:"empty"`
}

// Players holds the names shown for each color.
type Players struct {
	Black string `json:"black"`
	White string `json:"white"`
}

// MoveEntry is one ply of the match. Pos is (-1,-1) for a pass.
type MoveEntry struct {
	Color int      `json:"color"`
	Pos   BoardPos `json:"pos"`
}

// IsPass reports whether the entry is a pass.
func (m MoveEntry) IsPass() bool {
	return m.Pos.X < 0
}

// Finished returns true if the game is over.
func (s *Snapshot) Finished() bool {
	return s.Terminal
}

// Height returns the board height.
func (s *Snapshot) Height() int {
	return len(s.Board)
}

// Width returns the board width.
func (s *Snapshot) Width() int {
	if s.Height() == 0 {
		return 0
	}
	return len(s.Board[0])
}

// IsLegal reports whether (x, y) is in the legal move list.
func (s *Snapshot) IsLegal(x, y int) bool {
	for _, p := range s.Legal {
		if p.X == x && p.Y == y {
			return true
		}
	}
	return false
}

// BoardPos represents a 0-indexed position on the board.
type BoardPos struct {
	X int
	Y int
}

// NoPos marks an absent position.
var NoPos = BoardPos{X: -1, Y: -1}

// MarshalJSON encodes BoardPos as a JSON array [x, y].
func (p BoardPos) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON allows BoardPos to be unmarshaled from a JSON array [x, y].
func (p *BoardPos) UnmarshalJSON(data []byte) error {
	var v []float64
	err := json.Unmarshal(data, &v)
	if err != nil {
		return err
	}
	if len(v) != 2 {
		return fmt.Errorf("board position: want 2 elements, got %d", len(v))
	}
	p.X = int(v[0])
	p.Y = int(v[1])
	return nil
}

// NewSnapshot creates an empty snapshot for a board of the given size.
func NewSnapshot(size int) Snapshot {
	board := make([][]int, size)
	for i := range board {
		board[i] = make([]int, size)
	}
	return Snapshot{
		ToMove:   1, // Black plays first
		Board:    board,
		LastMove: NoPos,
	}
}
