package sgf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"othello-arbiter/board"
)

// ErrNotOthello is returned when a record is not an 8x8 Othello game.
var ErrNotOthello = errors.New("not an 8x8 othello record")

// GameInfo holds metadata parsed from an SGF file header.
type GameInfo struct {
	FilePath    string
	FileName    string
	GameName    string
	PlayerBlack string
	PlayerWhite string
	Date        string
	Result      string
	MoveCount   int
}

// Ply is one recorded move. At is board.NoCoordinate for a pass.
type Ply struct {
	Color board.Cell
	At    board.Coordinate
}

// ParseHeader reads an SGF file and extracts metadata from the root node.
func ParseHeader(filePath string) (*GameInfo, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	content := string(data)
	props := parseProperties(content)

	info := &GameInfo{
		FilePath:    filePath,
		FileName:    filepath.Base(filePath),
		GameName:    props["GN"],
		PlayerBlack: props["PB"],
		PlayerWhite: props["PW"],
		Date:        props["DT"],
		Result:      props["RE"],
		MoveCount:   countMoves(content),
	}

	return info, nil
}

// ParsePlies returns the recorded plies in order.
func ParsePlies(filePath string) ([]Ply, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	content := string(data)
	props := parseProperties(content)
	if gm, ok := props["GM"]; ok && gm != "2" {
		return nil, fmt.Errorf("%w: GM[%s]", ErrNotOthello, gm)
	}
	if sz, ok := props["SZ"]; ok && sz != "8" {
		return nil, fmt.Errorf("%w: SZ[%s]", ErrNotOthello, sz)
	}

	var plies []Ply
	for _, node := range parseNodes(content) {
		ply, ok := parseMoveNode(node)
		if !ok {
			continue
		}
		plies = append(plies, ply)
	}
	return plies, nil
}

// Replay applies plies to a fresh board, stopping after limit plies when
// limit is not negative.
func Replay(plies []Ply, limit int) (*board.Engine, error) {
	e := board.New()
	for i, p := range plies {
		if limit >= 0 && i >= limit {
			break
		}
		if p.Color != e.Current() {
			return e, fmt.Errorf("move %d: %s to play, record has %s", i+1, e.Current(), p.Color)
		}
		var err error
		if p.At == board.NoCoordinate {
			err = e.ApplyPass()
		} else {
			err = e.ApplyMove(p.At)
		}
		if err != nil {
			return e, fmt.Errorf("move %d: %w", i+1, err)
		}
	}
	return e, nil
}

// ReplayToEnd parses an SGF file and replays all moves through the board
// engine. It returns the final position and the number of plies.
func ReplayToEnd(filePath string) (*board.Engine, int, error) {
	plies, err := ParsePlies(filePath)
	if err != nil {
		return nil, 0, err
	}
	e, err := Replay(plies, -1)
	if err != nil {
		return nil, 0, err
	}
	return e, len(plies), nil
}

// parseProperties extracts KEY[value] pairs from the root node of an SGF string.
func parseProperties(content string) map[string]string {
	props := make(map[string]string)

	// Find the root node: starts after "(;"
	start := strings.Index(content, "(;")
	if start == -1 {
		return props
	}
	start += 2 // skip "(;"

	// Root node ends at the next ";" or ")" outside a value
	end := len(content)
	for i := start; i < len(content); i++ {
		if content[i] == '[' {
			i = skipValue(content, i)
			continue
		}
		if content[i] == ';' || content[i] == ')' {
			end = i
			break
		}
	}

	extractProps(content[start:end], props)
	return props
}

// skipValue returns the index of the ']' closing the value opened at i.
func skipValue(content string, i int) int {
	i++
	for i < len(content) && content[i] != ']' {
		if content[i] == '\\' && i+1 < len(content) {
			i++
		}
		i++
	}
	return i
}

// extractProps parses KEY[value] pairs from a node string into the map.
func extractProps(node string, props map[string]string) {
	i := 0
	for i < len(node) {
		// Skip whitespace
		for i < len(node) && (node[i] == ' ' || node[i] == '\n' || node[i] == '\r' || node[i] == '\t') {
			i++
		}
		if i >= len(node) {
			break
		}

		// Read property identifier (uppercase letters)
		keyStart := i
		for i < len(node) && node[i] >= 'A' && node[i] <= 'Z' {
			i++
		}
		if i == keyStart {
			i++
			continue
		}
		key := node[keyStart:i]

		for i < len(node) && node[i] == '[' {
			i++ // skip '['
			var val strings.Builder
			for i < len(node) && node[i] != ']' {
				if node[i] == '\\' && i+1 < len(node) {
					i++ // keep the escaped char
				}
				val.WriteByte(node[i])
				i++
			}
			if i < len(node) {
				i++ // skip ']'
			}
			props[key] = val.String() // last value wins
		}
	}
}

// countMoves counts the number of move nodes (;B[...] or ;W[...]) in the SGF.
func countMoves(content string) int {
	count := 0
	for i := 0; i+2 < len(content); i++ {
		if content[i] == ';' && (content[i+1] == 'B' || content[i+1] == 'W') && content[i+2] == '[' {
			count++
		}
	}
	return count
}

// parseNodes returns all node strings after the root node.
func parseNodes(content string) []string {
	var nodes []string

	start := strings.Index(content, "(;")
	if start == -1 {
		return nodes
	}

	// Skip root node to find subsequent ";"
	i := start + 2
	for i < len(content) && content[i] != ';' {
		if content[i] == '[' {
			i = skipValue(content, i)
		}
		i++
	}

	for i < len(content) {
		if content[i] != ';' {
			i++
			continue
		}
		nodeStart := i
		i++
		for i < len(content) && content[i] != ';' && content[i] != ')' {
			if content[i] == '[' {
				i = skipValue(content, i)
			}
			i++
		}
		nodes = append(nodes, content[nodeStart:i])
	}

	return nodes
}

// parseMoveNode extracts color and coordinate from a move node like ";B[dc]".
// Passes ("[]" or "[tt]") yield board.NoCoordinate.
func parseMoveNode(node string) (Ply, bool) {
	node = strings.TrimSpace(node)
	if len(node) < 2 || node[0] != ';' {
		return Ply{}, false
	}

	var color board.Cell
	switch node[1] {
	case 'B':
		color = board.Black
	case 'W':
		color = board.White
	default:
		return Ply{}, false
	}

	bracketStart := strings.Index(node, "[")
	bracketEnd := strings.Index(node, "]")
	if bracketStart != 2 || bracketEnd == -1 || bracketEnd <= bracketStart {
		return Ply{}, false
	}

	coord := node[bracketStart+1 : bracketEnd]
	if coord == "" || coord == "tt" {
		return Ply{Color: color, At: board.NoCoordinate}, true
	}
	if len(coord) != 2 {
		return Ply{}, false
	}

	c := board.Coordinate{Col: int(coord[0]-'a') + 1, Row: int(coord[1]-'a') + 1}
	if !c.InBounds() {
		return Ply{}, false
	}
	return Ply{Color: color, At: c}, true
}

// ListGames scans a directory for .sgf files and returns their parsed headers,
// sorted newest-first (by filename, which contains timestamps).
func ListGames(dir string) ([]GameInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read record dir: %w", err)
	}

	var games []GameInfo
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sgf") {
			continue
		}
		info, err := ParseHeader(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		games = append(games, *info)
	}

	return games, nil
}
