// Package session runs one match between the local participant and the peer.
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"othello-arbiter/board"
	"othello-arbiter/engine"
	"othello-arbiter/engine/peer"
	"othello-arbiter/types"
)

// Conn is the line transport to the peer. *peer.Conn satisfies it.
type Conn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
}

// Errors returned by Run.
var (
	ErrHandshake  = errors.New("handshake failed")
	ErrPeerClosed = errors.New("peer connection lost")
)

// Reason tells how a session ended.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonFinished
	ReasonLocalQuit
	ReasonPeerEnded
)

func (r Reason) String() string {
	switch r {
	case ReasonFinished:
		return "finished"
	case ReasonLocalQuit:
		return "local quit"
	case ReasonPeerEnded:
		return "peer ended"
	}
	return "aborted"
}

// Result summarises a session.
type Result struct {
	Reason   Reason
	Winner   board.Cell // Empty on a draw or when unfinished
	Counts   board.Counts
	Turn     int
	Outcome  string
	PeerName string
}

// Session drives a board.Engine from the peer connection and the local
// participant. It is used once; Run must not be called concurrently.
type Session struct {
	cfg       engine.MatchConfig
	conn      Conn
	local     engine.Participant
	observers []engine.Observer
	recorder  engine.Recorder
	log       *zap.SugaredLogger

	board    *board.Engine
	peerName string
	outcome  string
	reason   Reason
	over     bool
}

// Option configures a Session.
type Option func(*Session)

// WithObserver adds an observer that receives every snapshot.
func WithObserver(o engine.Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// WithRecorder attaches a game record.
func WithRecorder(r engine.Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Session) { s.log = l }
}

// WithBoard starts the match from an existing position instead of the
// opening position.
func WithBoard(b *board.Engine) Option {
	return func(s *Session) { s.board = b }
}

// New creates a session over an accepted peer connection.
func New(cfg engine.MatchConfig, conn Conn, local engine.Participant, opts ...Option) *Session {
	s := &Session{
		cfg:   cfg,
		conn:  conn,
		local: local,
		log:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.board == nil {
		s.board = board.New()
	}
	return s
}

// Run performs the handshake and plays until the game ends, either side
// quits, or ctx is cancelled. The connection is closed when Run returns.
func (s *Session) Run(ctx context.Context) (Result, error) {
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	if err := s.handshake(); err != nil {
		s.conn.Close()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return s.result(), err
	}
	s.log.Infow("match started",
		"peer", s.peerName,
		"local_color", s.cfg.LocalColor.String(),
		"declared", s.cfg.DeclaredColor().String())
	s.publish()

	for !s.over {
		var err error
		if s.board.Current() == s.cfg.LocalColor {
			err = s.localTurn(ctx)
		} else {
			err = s.peerTurn()
		}
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			s.log.Errorw("session aborted", "turn", s.board.Turn(), "error", err)
			s.abort()
			return s.result(), err
		}
	}
	s.log.Infow("match over", "reason", s.reason.String(), "outcome", s.outcome)
	return s.result(), nil
}

func (s *Session) handshake() error {
	line, err := s.conn.ReadLine()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	msg, err := peer.Parse(line)
	if err != nil || msg.Kind != peer.KindOpen {
		return fmt.Errorf("%w: expected OPEN, got %q", ErrHandshake, line)
	}
	s.peerName = msg.Name

	if s.recorder != nil {
		black, white := s.cfg.Name, s.peerName
		if s.cfg.LocalColor == board.White {
			black, white = white, black
		}
		if err := s.recorder.SetPlayers(black, white); err != nil {
			s.log.Warnw("record players", "error", err)
		}
	}
	if err := s.send(peer.Start(s.cfg.DeclaredColor(), s.cfg.Name, s.cfg.TimeBudget)); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	return nil
}

// peerTurn reads one line from the peer and applies it.
func (s *Session) peerTurn() error {
	line, err := s.conn.ReadLine()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPeerClosed, err)
	}

	msg, err := peer.Parse(line)
	if err == nil {
		switch msg.Kind {
		case peer.KindEnd, peer.KindBye:
			s.log.Infow("peer ended the match", "line", line)
			s.outcome = "Ended by opponent"
			s.end(ReasonPeerEnded)
			s.conn.Close()
			return nil
		case peer.KindMove:
			err = s.applyPeerMove(msg)
		default:
			err = fmt.Errorf("%w: unexpected %s", peer.ErrMalformed, msg.Kind)
		}
	}
	if err != nil {
		// Nothing changed and the peer keeps the turn.
		s.log.Warnw("invalid peer move", "line", line, "error", err)
		s.local.Notify(engine.Notice{Kind: engine.NoticeInvalidPeerMove, Detail: line})
		return s.send(peer.Ack(s.cfg.TimeBudget))
	}

	if s.board.IsTerminal() {
		return s.finish()
	}
	return s.send(peer.Ack(s.cfg.TimeBudget))
}

func (s *Session) applyPeerMove(msg peer.Message) error {
	color := s.board.Current()
	if msg.Pass {
		if err := s.board.ApplyPass(); err != nil {
			return err
		}
		s.record(board.NoCoordinate, color)
		s.local.Notify(engine.Notice{Kind: engine.NoticePeerPassed})
		s.publish()
		return nil
	}
	c := peer.Decode(msg.Square)
	if err := s.board.ApplyMove(c); err != nil {
		return fmt.Errorf("move %q: %w", msg.Square, err)
	}
	s.record(c, color)
	s.publish()
	return nil
}

// localTurn prompts the local participant until it moves, passes or quits.
func (s *Session) localTurn(ctx context.Context) error {
	color := s.board.Current()
	if !s.board.HasLegalMove() {
		if err := s.board.ApplyPass(); err != nil {
			return err
		}
		s.local.Notify(engine.Notice{Kind: engine.NoticeAutoPass})
		s.record(board.NoCoordinate, color)
		s.publish()
		return s.afterLocal(peer.PassMove())
	}

	for {
		cmd, err := s.local.NextCommand(ctx, s.snapshot())
		if err != nil {
			return fmt.Errorf("local participant: %w", err)
		}

		switch cmd.Kind {
		case engine.CommandMove:
			c := peer.Decode(cmd.Notation)
			if err := s.board.ApplyMove(c); err != nil {
				s.log.Debugw("local move rejected", "notation", cmd.Notation, "error", err)
				s.local.Notify(engine.Notice{Kind: engine.NoticeCannotPlace, Detail: cmd.Notation})
				continue
			}
			s.record(c, color)
			s.publish()
			return s.afterLocal(peer.Move(peer.Encode(c)))

		case engine.CommandPass:
			if err := s.board.ApplyPass(); err != nil {
				s.local.Notify(engine.Notice{Kind: engine.NoticeCannotPass})
				continue
			}
			s.record(board.NoCoordinate, color)
			s.publish()
			return s.afterLocal(peer.PassMove())

		case engine.CommandUndo:
			if err := s.board.UndoPair(); err != nil {
				s.local.Notify(engine.Notice{Kind: engine.NoticeCannotUndo})
				continue
			}
			if s.recorder != nil {
				if err := s.recorder.UndoMoves(2); err != nil {
					s.log.Warnw("record undo", "error", err)
				}
			}
			s.publish()
			// Back to the loop so an auto pass is still applied if needed.
			return s.send(peer.Undo())

		case engine.CommandQuit:
			s.log.Infow("local participant quit", "turn", s.board.Turn())
			s.outcome = "Abandoned"
			if s.recorder != nil {
				if err := s.recorder.SetResult("Void"); err != nil {
					s.log.Warnw("record result", "error", err)
				}
			}
			s.end(ReasonLocalQuit)
			s.abort()
			return nil

		default:
			s.log.Warnw("unknown local command", "kind", cmd.Kind)
		}
	}
}

// afterLocal either ends the game or forwards the local ply to the peer.
func (s *Session) afterLocal(msg peer.Message) error {
	if s.board.IsTerminal() {
		return s.finish()
	}
	return s.send(msg)
}

// finish closes a game that reached a terminal position.
func (s *Session) finish() error {
	s.outcome = s.board.Outcome()
	s.end(ReasonFinished)
	if s.recorder != nil {
		if err := s.recorder.SetResult(s.outcome); err != nil {
			s.log.Warnw("record result", "error", err)
		}
	}
	s.local.Notify(engine.Notice{Kind: engine.NoticeGameOver, Detail: s.outcome})
	s.publish()

	if err := s.send(peer.End()); err != nil {
		s.conn.Close()
		return err
	}
	if err := s.send(peer.Bye()); err != nil {
		s.conn.Close()
		return err
	}
	if err := s.conn.Close(); err != nil {
		s.log.Debugw("close peer connection", "error", err)
	}
	return nil
}

func (s *Session) end(r Reason) {
	s.reason = r
	s.over = true
}

// abort sends END and BYE without waiting on errors and closes the connection.
func (s *Session) abort() {
	_ = s.conn.WriteLine(peer.End().String())
	_ = s.conn.WriteLine(peer.Bye().String())
	s.conn.Close()
}

func (s *Session) send(m peer.Message) error {
	if err := s.conn.WriteLine(m.String()); err != nil {
		return fmt.Errorf("send %s: %w", m.Kind, err)
	}
	return nil
}

func (s *Session) record(c board.Coordinate, color board.Cell) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.AddMove(c, color); err != nil {
		s.log.Warnw("record move", "error", err)
	}
}

func (s *Session) snapshot() types.Snapshot {
	snap := s.board.Snapshot()
	snap.Outcome = s.outcome
	snap.LocalColor = int(s.cfg.LocalColor)
	if s.cfg.LocalColor == board.White {
		snap.Players = types.Players{Black: s.peerName, White: s.cfg.Name}
	} else {
		snap.Players = types.Players{Black: s.cfg.Name, White: s.peerName}
	}
	return snap
}

func (s *Session) publish() {
	if len(s.observers) == 0 {
		return
	}
	snap := s.snapshot()
	for _, o := range s.observers {
		o.OnSnapshot(snap)
	}
}

func (s *Session) result() Result {
	r := Result{
		Reason:   s.reason,
		Counts:   s.board.Counts(),
		Turn:     s.board.Turn(),
		Outcome:  s.outcome,
		PeerName: s.peerName,
	}
	if s.reason == ReasonFinished {
		r.Winner = s.board.Winner()
	}
	return r
}
