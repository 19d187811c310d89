// Package sgf implements SGF FF[4] writing and reading for Othello game
// records (GM[2], SZ[8]).
package sgf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"othello-arbiter/board"
)

// GameRecord tracks a game in progress and writes it as SGF.
// It satisfies engine.Recorder.
type GameRecord struct {
	FilePath    string
	GameName    string
	PlayerBlack string
	PlayerWhite string
	Date        string
	Result      string
	moves       []string // ";B[dc]", ";W[cc]", ...
	file        *os.File
}

// NewGameRecord creates a new SGF file in dir and writes the initial header.
// gameID is stored as the game name and shortened into the file name.
func NewGameRecord(dir, gameID string) (*GameRecord, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}

	now := time.Now()
	short := gameID
	if len(short) > 8 {
		short = short[:8]
	}
	filename := fmt.Sprintf("%s_%s.sgf", now.Format("2006-01-02_150405"), short)
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create sgf file: %w", err)
	}

	rec := &GameRecord{
		FilePath:    path,
		GameName:    gameID,
		PlayerBlack: "Black",
		PlayerWhite: "White",
		Date:        now.Format("2006-01-02"),
		Result:      "?",
		file:        f,
	}

	if err := rec.flush(); err != nil {
		f.Close()
		return nil, err
	}

	return rec, nil
}

// sgfCoord converts a 1-based board coordinate to an SGF letter pair.
// (1,1) -> "aa", (4,3) -> "dc", (8,8) -> "hh".
func sgfCoord(c board.Coordinate) string {
	return string(rune('a'+c.Col-1)) + string(rune('a'+c.Row-1))
}

// SetPlayers names both sides.
func (r *GameRecord) SetPlayers(black, white string) error {
	if black != "" {
		r.PlayerBlack = black
	}
	if white != "" {
		r.PlayerWhite = white
	}
	return r.flush()
}

// AddMove appends a ply to the record. A pass is board.NoCoordinate.
func (r *GameRecord) AddMove(c board.Coordinate, color board.Cell) error {
	colorChar := "B"
	if color == board.White {
		colorChar = "W"
	}

	var node string
	if c.InBounds() {
		node = fmt.Sprintf(";%s[%s]", colorChar, sgfCoord(c))
	} else {
		node = fmt.Sprintf(";%s[]", colorChar)
	}

	r.moves = append(r.moves, node)
	return r.flush()
}

// UndoMoves removes the last n moves from the record.
func (r *GameRecord) UndoMoves(n int) error {
	if n > len(r.moves) {
		n = len(r.moves)
	}
	r.moves = r.moves[:len(r.moves)-n]
	return r.flush()
}

// MoveCount returns the number of recorded plies.
func (r *GameRecord) MoveCount() int {
	return len(r.moves)
}

// SetResult parses a game outcome string and sets the SGF RE property.
// Accepts outcome text like "Black wins by 8 discs (36-28)" or "Draw (32-32)"
// as well as already-formatted SGF like "W+2", "0".
func (r *GameRecord) SetResult(outcome string) error {
	r.Result = parseResult(outcome)
	return r.flush()
}

// Close performs a final flush and closes the file handle.
func (r *GameRecord) Close() {
	if r.file == nil {
		return
	}
	r.flush()
	r.file.Close()
	r.file = nil
}

// flush rewrites the complete SGF file from scratch.
func (r *GameRecord) flush() error {
	if r.file == nil {
		return fmt.Errorf("file already closed")
	}

	var b strings.Builder

	// Root node
	b.WriteString("(;GM[2]FF[4]CA[UTF-8]")
	b.WriteString("AP[othello-arbiter:1.0]")
	b.WriteString(fmt.Sprintf("SZ[%d]", board.Size))
	b.WriteString(fmt.Sprintf("GN[%s]", escapeText(r.GameName)))
	b.WriteString(fmt.Sprintf("PB[%s]", escapeText(r.PlayerBlack)))
	b.WriteString(fmt.Sprintf("PW[%s]", escapeText(r.PlayerWhite)))
	b.WriteString(fmt.Sprintf("DT[%s]", r.Date))
	b.WriteString(fmt.Sprintf("RE[%s]", r.Result))
	b.WriteString("\n")

	// Move nodes
	for _, m := range r.moves {
		b.WriteString(m)
	}

	b.WriteString(")\n")

	// Rewrite file from start
	if _, err := r.file.Seek(0, 0); err != nil {
		return err
	}
	if err := r.file.Truncate(0); err != nil {
		return err
	}
	if _, err := r.file.WriteString(b.String()); err != nil {
		return err
	}
	return r.file.Sync()
}

// escapeText escapes the characters SGF reserves inside property values.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "]", `\]`)
}

// parseResult converts outcome text to an SGF RE[] value.
func parseResult(outcome string) string {
	o := strings.TrimSpace(outcome)

	// Already in SGF format
	if isValidSGFResult(o) {
		return o
	}

	low := strings.ToLower(o)
	if strings.HasPrefix(low, "draw") {
		return "0"
	}

	// "White wins by 2 discs (31-33)" / "Black wins by 8 discs (36-28)"
	var winner string
	switch {
	case strings.HasPrefix(low, "white wins"):
		winner = "W"
	case strings.HasPrefix(low, "black wins"):
		winner = "B"
	default:
		return "?"
	}

	byIdx := strings.Index(low, " by ")
	if byIdx == -1 {
		return winner + "+?"
	}
	rest := strings.TrimSpace(low[byIdx+4:])

	parts := strings.Fields(rest)
	if len(parts) > 0 && isDigits(parts[0]) {
		return winner + "+" + parts[0]
	}

	return winner + "+?"
}

// isValidSGFResult checks if a string is already a valid SGF result.
func isValidSGFResult(s string) bool {
	if s == "?" || s == "Void" || s == "0" {
		return true
	}
	if len(s) < 3 {
		return false
	}
	if (s[0] != 'B' && s[0] != 'W') || s[1] != '+' {
		return false
	}
	rest := s[2:]
	if rest == "R" || rest == "T" || rest == "F" || rest == "?" {
		return true
	}
	return isDigits(rest)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
