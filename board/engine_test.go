package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(col, row int) Coordinate { return Coordinate{Col: col, Row: row} }

// emptyRows returns eight empty rows with the given rows overriding the top.
func emptyRows(top ...string) []string {
	rows := make([]string, Size)
	for i := range rows {
		if i < len(top) {
			rows[i] = top[i]
			continue
		}
		rows[i] = strings.Repeat(".", Size)
	}
	return rows
}

func TestNewEngine(t *testing.T) {
	e := New()

	assert.Equal(t, 0, e.Turn())
	assert.Equal(t, Black, e.Current())
	assert.Equal(t, Counts{White: 2, Empty: 60, Black: 2}, e.Counts())
	assert.Equal(t, White, e.At(at(4, 4)))
	assert.Equal(t, White, e.At(at(5, 5)))
	assert.Equal(t, Black, e.At(at(4, 5)))
	assert.Equal(t, Black, e.At(at(5, 4)))
	assert.ElementsMatch(t, []Coordinate{at(4, 3), at(3, 4), at(6, 5), at(5, 6)}, e.LegalMoves())
	assert.False(t, e.IsTerminal())
	assert.Empty(t, e.History())
}

func TestWallFrame(t *testing.T) {
	e := New()
	for i := 0; i < gridSize; i++ {
		assert.Equal(t, Wall, e.At(at(i, 0)))
		assert.Equal(t, Wall, e.At(at(0, i)))
		assert.Equal(t, Wall, e.At(at(i, gridSize-1)))
		assert.Equal(t, Wall, e.At(at(gridSize-1, i)))
	}
	assert.Equal(t, Wall, e.At(at(-3, 40)))
}

func TestCheckMobility(t *testing.T) {
	e := New()
	tests := []struct {
		name  string
		c     Coordinate
		color Cell
		want  Direction
	}{
		{"black D3 flanks south", at(4, 3), Black, South},
		{"black C4 flanks east", at(3, 4), Black, East},
		{"black F5 flanks west", at(6, 5), Black, West},
		{"black E6 flanks north", at(5, 6), Black, North},
		{"white E3 flanks south", at(5, 3), White, South},
		{"no neighbours", at(2, 2), Black, None},
		{"occupied", at(4, 4), Black, None},
		{"corner", at(1, 1), White, None},
		{"off board", at(0, 4), Black, None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.CheckMobility(tt.c, tt.color))
		})
	}
}

func TestCheckMobilityMultipleDirections(t *testing.T) {
	e, err := FromRows(emptyRows(
		"B.B.....",
		"WWW.....",
		"........",
	), Black)
	require.NoError(t, err)

	assert.Equal(t, North|NorthEast, e.CheckMobility(at(1, 3), Black))
	assert.Equal(t, North|NorthWest, e.CheckMobility(at(3, 3), Black))
	// B3 only sees runs that end at the wall or an empty square.
	assert.Equal(t, None, e.CheckMobility(at(2, 3), Black))
}

func TestApplyMoveFlips(t *testing.T) {
	e := New()
	require.NoError(t, e.ApplyMove(at(4, 3)))

	assert.Equal(t, 1, e.Turn())
	assert.Equal(t, White, e.Current())
	assert.Equal(t, Counts{White: 1, Empty: 59, Black: 4}, e.Counts())
	assert.Equal(t, Black, e.At(at(4, 3)))
	assert.Equal(t, Black, e.At(at(4, 4)))
	assert.ElementsMatch(t, []Coordinate{at(3, 3), at(5, 3), at(3, 5)}, e.LegalMoves())

	hist := e.History()
	require.Len(t, hist, 1)
	flip, ok := hist[0].(Flip)
	require.True(t, ok)
	assert.Equal(t, Disc{At: at(4, 3), Color: Black}, flip.Placed)
	assert.Equal(t, []Disc{{At: at(4, 4), Color: Black}}, flip.Flipped)
	assert.Len(t, flip.Discs(), 2)

	last, ok := e.LastMove()
	require.True(t, ok)
	assert.Equal(t, at(4, 3), last.At)
}

func TestApplyMoveRejects(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinate
		want error
	}{
		{"sentinel", NoCoordinate, ErrOutOfBounds},
		{"column zero", at(0, 3), ErrOutOfBounds},
		{"column nine", at(9, 1), ErrOutOfBounds},
		{"row zero", at(3, 0), ErrOutOfBounds},
		{"row nine", at(3, 9), ErrOutOfBounds},
		{"corner", at(1, 1), ErrIllegalMove},
		{"occupied", at(4, 4), ErrIllegalMove},
		{"white's move", at(5, 3), ErrIllegalMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			before := e.Snapshot()
			assert.ErrorIs(t, e.ApplyMove(tt.c), tt.want)
			assert.Equal(t, before, e.Snapshot())
		})
	}
}

func TestOpeningMovesUndo(t *testing.T) {
	fresh := New().Snapshot()
	for _, c := range []Coordinate{at(4, 3), at(3, 4), at(6, 5), at(5, 6)} {
		e := New()
		require.NoError(t, e.ApplyMove(c))
		assert.Equal(t, 64, e.Counts().Total())
		assert.Equal(t, 4, e.Counts().Black)

		rec, err := e.Undo()
		require.NoError(t, err)
		assert.IsType(t, Flip{}, rec)
		assert.Equal(t, fresh, e.Snapshot())
	}
}

func TestApplyPass(t *testing.T) {
	e := New()
	assert.ErrorIs(t, e.ApplyPass(), ErrCannotPass)
	assert.Empty(t, e.History())

	// Black's only neighbour is walled in, White can take C1.
	e, err := FromRows(emptyRows("WB......"), Black)
	require.NoError(t, err)
	assert.False(t, e.HasLegalMove())
	assert.False(t, e.IsTerminal())

	require.NoError(t, e.ApplyPass())
	assert.Equal(t, White, e.Current())
	assert.Equal(t, 0, e.Turn())
	assert.Equal(t, []Coordinate{at(3, 1)}, e.LegalMoves())
	_, ok := e.LastMove()
	assert.False(t, ok)

	require.NoError(t, e.ApplyMove(at(3, 1)))
	assert.Equal(t, Counts{White: 3, Empty: 61, Black: 0}, e.Counts())
	assert.True(t, e.IsTerminal())
	assert.Equal(t, White, e.Winner())
	assert.Equal(t, "White wins by 3 discs (0-3)", e.Outcome())
}

func TestUndoPass(t *testing.T) {
	e, err := FromRows(emptyRows("WB......"), Black)
	require.NoError(t, err)
	require.NoError(t, e.ApplyPass())

	rec, err := e.Undo()
	require.NoError(t, err)
	assert.Equal(t, Pass{Color: Black}, rec)
	assert.Equal(t, Black, e.Current())
	assert.Equal(t, 0, e.Turn())
	assert.Empty(t, e.LegalMoves())
	assert.Empty(t, e.History())

	// The cleared cache still lets Black pass again.
	require.NoError(t, e.ApplyPass())
	assert.Equal(t, White, e.Current())
}

func TestUndoEmpty(t *testing.T) {
	e := New()
	rec, err := e.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Nil(t, rec)
}

func TestUndoPair(t *testing.T) {
	fresh := New().Snapshot()
	e := New()
	assert.ErrorIs(t, e.UndoPair(), ErrNothingToUndo)

	require.NoError(t, e.ApplyMove(at(4, 3)))
	before := e.Snapshot()
	assert.ErrorIs(t, e.UndoPair(), ErrNothingToUndo)
	assert.Equal(t, before, e.Snapshot())

	require.NoError(t, e.ApplyMove(at(3, 3)))
	require.NoError(t, e.UndoPair())
	assert.Equal(t, fresh, e.Snapshot())
	assert.Equal(t, Black, e.Current())
}

func TestTerminalWhenNeitherCanMove(t *testing.T) {
	e, err := FromRows(emptyRows("BB......"), Black)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Turn())
	assert.True(t, e.IsTerminal())

	// Both sides are forced to pass and the game stays over.
	require.NoError(t, e.ApplyPass())
	assert.True(t, e.IsTerminal())
	require.NoError(t, e.ApplyPass())
	assert.True(t, e.IsTerminal())
	assert.Equal(t, Black, e.Winner())
}

func TestTerminalOnFullBoard(t *testing.T) {
	rows := make([]string, Size)
	for i := range rows {
		if i%2 == 0 {
			rows[i] = "BBBBBBBB"
		} else {
			rows[i] = "WWWWWWWW"
		}
	}
	e, err := FromRows(rows, White)
	require.NoError(t, err)
	assert.Equal(t, MaxTurns, e.Turn())
	assert.True(t, e.IsTerminal())
	assert.Equal(t, Empty, e.Winner())
	assert.Equal(t, "Draw (32-32)", e.Outcome())
	assert.ErrorIs(t, e.ApplyMove(at(1, 1)), ErrIllegalMove)
}

// Plays the first legal move (or passes) until the game ends, checking the
// count invariant at every ply, then rewinds the whole game.
func TestPlayoutAndRewind(t *testing.T) {
	fresh := New().Snapshot()
	e := New()

	for plies := 0; !e.IsTerminal(); plies++ {
		require.Less(t, plies, 200, "game did not terminate")
		before := e.Snapshot()
		if e.HasLegalMove() {
			require.NoError(t, e.ApplyMove(e.LegalMoves()[0]))
		} else {
			require.NoError(t, e.ApplyPass())
		}
		assert.Equal(t, Size*Size, e.Counts().Total())
		assert.LessOrEqual(t, e.Turn(), MaxTurns)

		// A single undo restores the previous position exactly.
		_, err := e.Undo()
		require.NoError(t, err)
		require.Equal(t, before, e.Snapshot())
		if e.HasLegalMove() {
			require.NoError(t, e.ApplyMove(e.LegalMoves()[0]))
		} else {
			require.NoError(t, e.ApplyPass())
		}
	}

	assert.Equal(t, e.Counts().Black+e.Counts().White, e.Turn()+4)
	for len(e.History()) > 0 {
		_, err := e.Undo()
		require.NoError(t, err)
	}
	assert.Equal(t, fresh, e.Snapshot())
}

func TestSnapshot(t *testing.T) {
	e := New()
	require.NoError(t, e.ApplyMove(at(4, 3)))
	snap := e.Snapshot()

	assert.Equal(t, 1, snap.Turn)
	assert.Equal(t, int(White), snap.ToMove)
	assert.Equal(t, 1, snap.Board[2][3])
	assert.Equal(t, 2, snap.Board[4][4])
	assert.Equal(t, 0, snap.Board[0][0])
	assert.Equal(t, 3, snap.LastMove.X)
	assert.Equal(t, 2, snap.LastMove.Y)
	assert.Equal(t, 4, snap.Counts.Black)
	assert.Len(t, snap.Moves, 1)
	assert.True(t, snap.IsLegal(2, 2))

	// Snapshots do not alias engine state.
	snap.Board[0][0] = 2
	assert.Equal(t, Empty, e.At(at(1, 1)))
}

func TestFromRowsErrors(t *testing.T) {
	tests := []struct {
		name   string
		rows   []string
		toMove Cell
	}{
		{"too few rows", []string{"........"}, Black},
		{"short row", emptyRows("...."), Black},
		{"bad char", emptyRows("...?...."), Black},
		{"bad side", emptyRows(), Empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRows(tt.rows, tt.toMove)
			assert.ErrorIs(t, err, ErrBadPosition)
		})
	}
}

func TestCellOpponent(t *testing.T) {
	assert.Equal(t, White, Black.Opponent())
	assert.Equal(t, Black, White.Opponent())
	assert.Equal(t, Empty, Empty.Opponent())
	assert.Equal(t, "Black", Black.String())
}
