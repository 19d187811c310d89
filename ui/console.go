package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"othello-arbiter/engine"
	"othello-arbiter/engine/peer"
	"othello-arbiter/types"
)

// Console is a line-based local participant for terminals without the full
// UI. Commands are a square such as d3, p to pass, u to undo and x to quit.
type Console struct {
	out   io.Writer
	lines chan string
}

// NewConsole reads commands from in and writes the board and messages to out.
// Reading happens on its own goroutine until in is exhausted.
func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{
		out:   out,
		lines: make(chan string),
	}
	go c.readLines(in)
	return c
}

func (c *Console) readLines(in io.Reader) {
	defer close(c.lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
}

// NextCommand prints the board and reads commands until one parses.
// End of input counts as quitting.
func (c *Console) NextCommand(ctx context.Context, snap types.Snapshot) (engine.Command, error) {
	fmt.Fprint(c.out, RenderBoard(snap, true))
	for {
		fmt.Fprintf(c.out, "%s to move [square, p pass, u undo, x exit]> ", colorName(snap.ToMove))
		select {
		case <-ctx.Done():
			return engine.Command{}, ctx.Err()
		case line, ok := <-c.lines:
			if !ok {
				fmt.Fprintln(c.out)
				return engine.Quit(), nil
			}
			if cmd, ok := ParseCommand(line); ok {
				return cmd, nil
			}
		}
	}
}

// Notify prints n on its own line.
func (c *Console) Notify(n engine.Notice) {
	fmt.Fprintln(c.out, n.String())
}

// OnSnapshot reports the last ply, and the final board once the game is over.
func (c *Console) OnSnapshot(snap types.Snapshot) {
	if n := len(snap.Moves); n > 0 && snap.Moves[n-1].Color != snap.LocalColor {
		m := snap.Moves[n-1]
		fmt.Fprintf(c.out, "%s played %s\n", colorName(m.Color), peer.EncodePos(m.Pos.X, m.Pos.Y))
	}
	if snap.Finished() {
		fmt.Fprint(c.out, RenderBoard(snap, false))
		if snap.Outcome != "" {
			fmt.Fprintln(c.out, snap.Outcome)
		}
	}
}

// ParseCommand turns one input line into a command. Blank lines do not parse.
func ParseCommand(line string) (engine.Command, bool) {
	word := strings.ToLower(strings.TrimSpace(line))
	switch word {
	case "":
		return engine.Command{}, false
	case "p", "pass":
		return engine.Pass(), true
	case "u", "undo":
		return engine.Undo(), true
	case "x", "exit", "quit":
		return engine.Quit(), true
	}
	// Validity is the session's call.
	return engine.Move(word), true
}

// RenderBoard draws snap as text. X is black, O is white and, with
// markLegal, * marks the squares the side to move may play.
func RenderBoard(snap types.Snapshot, markLegal bool) string {
	var b strings.Builder
	b.WriteString(" ")
	for x := 0; x < snap.Width(); x++ {
		fmt.Fprintf(&b, " %c", 'A'+x)
	}
	b.WriteString("\n")
	for y := 0; y < snap.Height(); y++ {
		fmt.Fprintf(&b, "%d", y+1)
		for x := 0; x < snap.Width(); x++ {
			ch := '.'
			switch snap.Board[y][x] {
			case 1:
				ch = 'X'
			case 2:
				ch = 'O'
			default:
				if markLegal && snap.IsLegal(x, y) {
					ch = '*'
				}
			}
			fmt.Fprintf(&b, " %c", ch)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "X %d  O %d  turn %d\n", snap.Counts.Black, snap.Counts.White, snap.Turn)
	return b.String()
}
