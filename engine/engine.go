// Package engine defines the contracts between a match session and the
// parties around it: the local participant, observers and the game record.
package engine

import (
	"context"
	"fmt"
	"strings"

	"othello-arbiter/board"
	"othello-arbiter/types"
)

// Participant is the local side of a match.
type Participant interface {
	// NextCommand blocks until the participant decides what to do with the
	// position in snap. It must return ctx.Err() once ctx is cancelled.
	NextCommand(ctx context.Context, snap types.Snapshot) (Command, error)

	// Notify reports a user-visible event. It must not block.
	Notify(n Notice)
}

// Observer receives a snapshot after every state change.
// Snapshots are immutable and may be retained.
type Observer interface {
	OnSnapshot(snap types.Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(snap types.Snapshot)

// OnSnapshot calls f(snap).
func (f ObserverFunc) OnSnapshot(snap types.Snapshot) { f(snap) }

// Recorder keeps a record of the match as it is played.
type Recorder interface {
	// SetPlayers names both sides once the handshake is done.
	SetPlayers(black, white string) error

	// AddMove records a ply. c is board.NoCoordinate for a pass.
	AddMove(c board.Coordinate, color board.Cell) error

	// UndoMoves removes the last n plies.
	UndoMoves(n int) error

	// SetResult stores the final outcome text.
	SetResult(outcome string) error
}

// CommandKind is what the local participant asks for.
type CommandKind int

const (
	CommandMove CommandKind = iota + 1
	CommandPass
	CommandUndo
	CommandQuit
)

// Command is one request from the local participant.
type Command struct {
	Kind     CommandKind
	Notation string // for CommandMove, e.g. "D3"
}

// Move returns a command placing a disc at the named square.
func Move(notation string) Command { return Command{Kind: CommandMove, Notation: notation} }

// Pass returns a pass command.
func Pass() Command { return Command{Kind: CommandPass} }

// Undo returns a command taking back the last own move and the reply to it.
func Undo() Command { return Command{Kind: CommandUndo} }

// Quit returns a command that abandons the match.
func Quit() Command { return Command{Kind: CommandQuit} }

// NoticeKind classifies a Notice.
type NoticeKind int

const (
	NoticeCannotPlace NoticeKind = iota + 1
	NoticeCannotPass
	NoticeCannotUndo
	NoticeAutoPass
	NoticePeerPassed
	NoticeInvalidPeerMove
	NoticeGameOver
)

// Notice is a user-visible event raised by the session.
type Notice struct {
	Kind   NoticeKind
	Detail string
}

func (n Notice) String() string {
	var msg string
	switch n.Kind {
	case NoticeCannotPlace:
		msg = "Cannot put there"
	case NoticeCannotPass:
		msg = "Cannot pass, you have a legal move"
	case NoticeCannotUndo:
		msg = "Nothing to undo"
	case NoticeAutoPass:
		msg = "No legal move, passing"
	case NoticePeerPassed:
		msg = "Opponent passed"
	case NoticeInvalidPeerMove:
		msg = "INVALID MOVE from opponent"
	case NoticeGameOver:
		msg = "Game over"
	default:
		msg = fmt.Sprintf("Notice(%d)", int(n.Kind))
	}
	if n.Detail != "" {
		msg += ": " + n.Detail
	}
	return msg
}

// Declaration selects which color the START message announces.
type Declaration int

const (
	// DeclarePeer announces the color the peer plays.
	DeclarePeer Declaration = iota
	// DeclareLocal announces the color the local participant plays.
	DeclareLocal
)

func (d Declaration) String() string {
	if d == DeclareLocal {
		return "local"
	}
	return "peer"
}

// ParseDeclaration accepts "peer" or "local".
func ParseDeclaration(s string) (Declaration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "peer":
		return DeclarePeer, nil
	case "local":
		return DeclareLocal, nil
	}
	return DeclarePeer, fmt.Errorf("unknown declaration %q (want peer or local)", s)
}

// ParseColor accepts "black"/"b" or "white"/"w".
func ParseColor(s string) (board.Cell, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "black", "b":
		return board.Black, nil
	case "white", "w":
		return board.White, nil
	}
	return board.Empty, fmt.Errorf("unknown color %q (want black or white)", s)
}

// MatchConfig holds what a session needs to know before the handshake.
type MatchConfig struct {
	LocalColor  board.Cell  // color the local participant plays
	Declaration Declaration // polarity of the color in START
	Name        string      // name announced in START
	TimeBudget  int64       // milliseconds announced in START and ACK
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() MatchConfig {
	return MatchConfig{
		LocalColor:  board.Black, // Local side plays black
		Declaration: DeclarePeer,
		Name:        "user",
		TimeBudget:  6000000,
	}
}

// PeerColor returns the color the peer plays.
func (c MatchConfig) PeerColor() board.Cell {
	return c.LocalColor.Opponent()
}

// DeclaredColor returns the color written into START.
func (c MatchConfig) DeclaredColor() board.Cell {
	if c.Declaration == DeclareLocal {
		return c.LocalColor
	}
	return c.PeerColor()
}
