package board

import (
	"fmt"

	"othello-arbiter/types"
)

// Engine is the authoritative board state of one match.
// It is not safe for concurrent use; a session owns exactly one.
type Engine struct {
	grid    [gridSize][gridSize]Cell // grid[col][row]
	turn    int
	current Cell
	counts  Counts
	log     []Record

	// Mobility cache, one slot per turn index. Only the slot for the
	// current turn is meaningful.
	mobility [MaxTurns + 1][gridSize][gridSize]Direction
	legal    [MaxTurns + 1][]Coordinate
}

// New returns an engine in the standard opening position with Black to move.
func New() *Engine {
	e := &Engine{current: Black}
	e.frame()
	e.grid[4][4] = White
	e.grid[5][5] = White
	e.grid[4][5] = Black
	e.grid[5][4] = Black
	e.counts = Counts{White: 2, Empty: Size*Size - 4, Black: 2}
	e.recomputeLegalMoves()
	return e
}

// FromRows builds an engine from eight rows of eight characters, top row first.
// 'B' or 'X' is black, 'W' or 'O' is white, '.' or '-' is empty. The turn
// index is derived from the number of discs and the undo log starts empty.
func FromRows(rows []string, toMove Cell) (*Engine, error) {
	if len(rows) != Size {
		return nil, fmt.Errorf("%w: want %d rows, got %d", ErrBadPosition, Size, len(rows))
	}
	if toMove != Black && toMove != White {
		return nil, fmt.Errorf("%w: side to move is %s", ErrBadPosition, toMove)
	}
	e := &Engine{current: toMove}
	e.frame()
	for r, line := range rows {
		if len(line) != Size {
			return nil, fmt.Errorf("%w: row %d has %d squares", ErrBadPosition, r+1, len(line))
		}
		for c := 0; c < Size; c++ {
			var cell Cell
			switch line[c] {
			case 'B', 'b', 'X', 'x':
				cell = Black
			case 'W', 'w', 'O', 'o':
				cell = White
			case '.', '-':
				cell = Empty
			default:
				return nil, fmt.Errorf("%w: unexpected %q at row %d", ErrBadPosition, line[c], r+1)
			}
			e.grid[c+1][r+1] = cell
			e.counts.add(cell, 1)
		}
	}
	discs := e.counts.Black + e.counts.White
	e.turn = discs - 4
	if e.turn < 0 {
		e.turn = 0
	}
	e.recomputeLegalMoves()
	return e, nil
}

func (e *Engine) frame() {
	for i := 0; i < gridSize; i++ {
		e.grid[i][0] = Wall
		e.grid[i][gridSize-1] = Wall
		e.grid[0][i] = Wall
		e.grid[gridSize-1][i] = Wall
	}
}

// CheckMobility returns the directions in which placing color at c would
// flank at least one opposing disc. Non-empty or off-board targets yield None.
func (e *Engine) CheckMobility(c Coordinate, color Cell) Direction {
	if !c.InBounds() || e.grid[c.Col][c.Row] != Empty {
		return None
	}
	opp := color.Opponent()
	dirs := None
	for _, s := range steps {
		col, row := c.Col+s.dCol, c.Row+s.dRow
		if e.grid[col][row] != opp {
			continue
		}
		for e.grid[col][row] == opp {
			col += s.dCol
			row += s.dRow
		}
		if e.grid[col][row] == color {
			dirs |= s.dir
		}
	}
	return dirs
}

func (e *Engine) recomputeLegalMoves() {
	var legal []Coordinate
	cache := &e.mobility[e.turn]
	for col := 1; col <= Size; col++ {
		for row := 1; row <= Size; row++ {
			c := Coordinate{Col: col, Row: row}
			dirs := e.CheckMobility(c, e.current)
			cache[col][row] = dirs
			if dirs != None {
				legal = append(legal, c)
			}
		}
	}
	e.legal[e.turn] = legal
}

// ApplyMove places a disc of the current color at c and flips every flanked
// line. The board is unchanged when an error is returned.
func (e *Engine) ApplyMove(c Coordinate) error {
	if !c.InBounds() {
		return ErrOutOfBounds
	}
	dirs := e.mobility[e.turn][c.Col][c.Row]
	if dirs == None || e.turn >= MaxTurns {
		return ErrIllegalMove
	}

	me, opp := e.current, e.current.Opponent()
	e.grid[c.Col][c.Row] = me
	var flipped []Disc
	for _, s := range steps {
		if dirs&s.dir == 0 {
			continue
		}
		col, row := c.Col+s.dCol, c.Row+s.dRow
		for e.grid[col][row] != me {
			e.grid[col][row] = me
			flipped = append(flipped, Disc{At: Coordinate{Col: col, Row: row}, Color: me})
			col += s.dCol
			row += s.dRow
		}
	}

	n := len(flipped)
	e.counts.add(me, n+1)
	e.counts.add(opp, -n)
	e.counts.add(Empty, -1)

	e.log = append(e.log, Flip{Placed: Disc{At: c, Color: me}, Flipped: flipped})
	e.turn++
	e.current = opp
	e.recomputeLegalMoves()
	return nil
}

// ApplyPass hands the turn to the opponent. It fails when the current color
// has a legal move.
func (e *Engine) ApplyPass() error {
	if len(e.legal[e.turn]) != 0 {
		return ErrCannotPass
	}
	e.log = append(e.log, Pass{Color: e.current})
	e.current = e.current.Opponent()
	e.recomputeLegalMoves()
	return nil
}

// Undo reverts the most recent record and returns it.
// The mobility cache of the restored turn is reused as is.
func (e *Engine) Undo() (Record, error) {
	if len(e.log) == 0 {
		return nil, ErrNothingToUndo
	}
	rec := e.log[len(e.log)-1]
	e.log = e.log[:len(e.log)-1]
	e.current = e.current.Opponent()

	switch r := rec.(type) {
	case Pass:
		// The passing color had no moves at this turn index.
		e.mobility[e.turn] = [gridSize][gridSize]Direction{}
		e.legal[e.turn] = nil
	case Flip:
		e.turn--
		prev := e.current.Opponent()
		e.grid[r.Placed.At.Col][r.Placed.At.Row] = Empty
		for _, d := range r.Flipped {
			e.grid[d.At.Col][d.At.Row] = prev
		}
		n := len(r.Flipped)
		e.counts.add(e.current, -(n + 1))
		e.counts.add(prev, n)
		e.counts.add(Empty, 1)
	default:
		panic(fmt.Sprintf("board: unknown record %T", rec))
	}
	return rec, nil
}

// UndoPair reverts the last two records as one unit, returning the turn to
// the color that moved two plies ago. Nothing changes when fewer than two
// records exist.
func (e *Engine) UndoPair() error {
	if len(e.log) < 2 {
		return ErrNothingToUndo
	}
	for i := 0; i < 2; i++ {
		if _, err := e.Undo(); err != nil {
			return err
		}
	}
	return nil
}

// IsTerminal reports whether the game is over: the board is full, or neither
// color can move.
func (e *Engine) IsTerminal() bool {
	if e.turn >= MaxTurns {
		return true
	}
	if len(e.legal[e.turn]) > 0 {
		return false
	}
	opp := e.current.Opponent()
	for col := 1; col <= Size; col++ {
		for row := 1; row <= Size; row++ {
			if e.CheckMobility(Coordinate{Col: col, Row: row}, opp) != None {
				return false
			}
		}
	}
	return true
}

// Turn returns the number of discs placed since the opening position.
func (e *Engine) Turn() int { return e.turn }

// Current returns the color to move.
func (e *Engine) Current() Cell { return e.current }

// Counts returns the disc counts.
func (e *Engine) Counts() Counts { return e.counts }

// LegalMoves returns a copy of the legal moves for the color to move.
func (e *Engine) LegalMoves() []Coordinate {
	return append([]Coordinate(nil), e.legal[e.turn]...)
}

// HasLegalMove reports whether the color to move can place a disc.
func (e *Engine) HasLegalMove() bool {
	return len(e.legal[e.turn]) > 0
}

// Mobility returns the cached flank directions of c for the color to move.
func (e *Engine) Mobility(c Coordinate) Direction {
	if !c.InBounds() {
		return None
	}
	return e.mobility[e.turn][c.Col][c.Row]
}

// At returns the content of c. Anything outside the grid reads as Wall.
func (e *Engine) At(c Coordinate) Cell {
	if c.Col < 0 || c.Col >= gridSize || c.Row < 0 || c.Row >= gridSize {
		return Wall
	}
	return e.grid[c.Col][c.Row]
}

// History returns a copy of the undo log, oldest first.
func (e *Engine) History() []Record {
	return append([]Record(nil), e.log...)
}

// LastMove returns the most recent placed disc. ok is false when the log is
// empty or the last record is a pass.
func (e *Engine) LastMove() (d Disc, ok bool) {
	if len(e.log) == 0 {
		return Disc{}, false
	}
	if f, isFlip := e.log[len(e.log)-1].(Flip); isFlip {
		return f.Placed, true
	}
	return Disc{}, false
}

// Winner returns the color with more discs, or Empty on a draw.
func (e *Engine) Winner() Cell {
	switch {
	case e.counts.Black > e.counts.White:
		return Black
	case e.counts.White > e.counts.Black:
		return White
	}
	return Empty
}

// Outcome describes the result by disc count, e.g. "Black wins by 8 discs (36-28)".
func (e *Engine) Outcome() string {
	b, w := e.counts.Black, e.counts.White
	switch e.Winner() {
	case Black:
		return fmt.Sprintf("Black wins by %d discs (%d-%d)", b-w, b, w)
	case White:
		return fmt.Sprintf("White wins by %d discs (%d-%d)", w-b, b, w)
	}
	return fmt.Sprintf("Draw (%d-%d)", b, w)
}

// Snapshot returns a self-contained copy of the board for presentation.
func (e *Engine) Snapshot() types.Snapshot {
	snap := types.NewSnapshot(Size)
	for row := 1; row <= Size; row++ {
		for col := 1; col <= Size; col++ {
			switch e.grid[col][row] {
			case Black:
				snap.Board[row-1][col-1] = 1
			case White:
				snap.Board[row-1][col-1] = 2
			}
		}
	}
	snap.Turn = e.turn
	snap.ToMove = int(e.current)
	snap.Terminal = e.IsTerminal()
	snap.Counts = types.DiscCounts{Black: e.counts.Black, White: e.counts.White, Empty: e.counts.Empty}
	for _, c := range e.legal[e.turn] {
		snap.Legal = append(snap.Legal, types.BoardPos{X: c.Col - 1, Y: c.Row - 1})
	}
	if d, ok := e.LastMove(); ok {
		snap.LastMove = types.BoardPos{X: d.At.Col - 1, Y: d.At.Row - 1}
	}
	for _, rec := range e.log {
		switch r := rec.(type) {
		case Pass:
			snap.Moves = append(snap.Moves, types.MoveEntry{Color: int(r.Color), Pos: types.NoPos})
		case Flip:
			at := r.Placed.At
			snap.Moves = append(snap.Moves, types.MoveEntry{
				Color: int(r.Placed.Color),
				Pos:   types.BoardPos{X: at.Col - 1, Y: at.Row - 1},
			})
		}
	}
	return snap
}
