package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"othello-arbiter/board"
	"othello-arbiter/engine"
	"othello-arbiter/types"
)

// scriptConn replays peer lines and captures everything sent.
type scriptConn struct {
	mu       sync.Mutex
	in       []string
	out      []string
	closed   bool
	failSend bool
}

func (c *scriptConn) ReadLine() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || len(c.in) == 0 {
		return "", io.EOF
	}
	line := c.in[0]
	c.in = c.in[1:]
	return line, nil
}

func (c *scriptConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend || c.closed {
		return errors.New("broken pipe")
	}
	c.out = append(c.out, line)
	return nil
}

func (c *scriptConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// scriptParticipant plays a fixed list of commands.
type scriptParticipant struct {
	commands []engine.Command
	notices  []engine.Notice
	prompts  []types.Snapshot
}

var errOutOfCommands = errors.New("out of commands")

func (p *scriptParticipant) NextCommand(ctx context.Context, snap types.Snapshot) (engine.Command, error) {
	p.prompts = append(p.prompts, snap)
	if len(p.commands) == 0 {
		return engine.Command{}, errOutOfCommands
	}
	cmd := p.commands[0]
	p.commands = p.commands[1:]
	return cmd, nil
}

func (p *scriptParticipant) Notify(n engine.Notice) {
	p.notices = append(p.notices, n)
}

func (p *scriptParticipant) noticeKinds() []engine.NoticeKind {
	var kinds []engine.NoticeKind
	for _, n := range p.notices {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

type fakeRecorder struct {
	black, white string
	moves        []board.Coordinate
	result       string
}

func (r *fakeRecorder) SetPlayers(black, white string) error {
	r.black, r.white = black, white
	return nil
}

func (r *fakeRecorder) AddMove(c board.Coordinate, color board.Cell) error {
	r.moves = append(r.moves, c)
	return nil
}

func (r *fakeRecorder) UndoMoves(n int) error {
	r.moves = r.moves[:len(r.moves)-n]
	return nil
}

func (r *fakeRecorder) SetResult(outcome string) error {
	r.result = outcome
	return nil
}

func emptyRows(top ...string) []string {
	rows := make([]string, board.Size)
	for i := range rows {
		if i < len(top) {
			rows[i] = top[i]
			continue
		}
		rows[i] = strings.Repeat(".", board.Size)
	}
	return rows
}

func localWhite() engine.MatchConfig {
	cfg := engine.DefaultConfig()
	cfg.LocalColor = board.White
	return cfg
}

func TestHandshakeDeclaresPeerColor(t *testing.T) {
	conn := &scriptConn{in: []string{"OPEN reversi"}}
	local := &scriptParticipant{commands: []engine.Command{engine.Quit()}}

	res, err := New(engine.DefaultConfig(), conn, local).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"START WHITE user 6000000", "END", "BYE"}, conn.out)
	assert.True(t, conn.closed)
	assert.Equal(t, ReasonLocalQuit, res.Reason)
	assert.Equal(t, "reversi", res.PeerName)
	assert.Equal(t, board.Empty, res.Winner)
}

func TestHandshakeDeclareLocal(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Declaration = engine.DeclareLocal
	cfg.Name = "ada"
	cfg.TimeBudget = 1000
	conn := &scriptConn{in: []string{"OPEN"}}
	local := &scriptParticipant{commands: []engine.Command{engine.Quit()}}

	_, err := New(cfg, conn, local).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "START BLACK ada 1000", conn.out[0])
}

func TestHandshakeFailure(t *testing.T) {
	for _, in := range [][]string{{"HELLO"}, {"MOVE D3"}, nil} {
		conn := &scriptConn{in: in}
		_, err := New(engine.DefaultConfig(), conn, &scriptParticipant{}).Run(context.Background())
		assert.ErrorIs(t, err, ErrHandshake)
		assert.Empty(t, conn.out)
		assert.True(t, conn.closed)
	}
}

func TestLocalMoveAndPeerReply(t *testing.T) {
	conn := &scriptConn{in: []string{"OPEN bot", "MOVE c3"}}
	local := &scriptParticipant{commands: []engine.Command{engine.Move("d3"), engine.Quit()}}
	rec := &fakeRecorder{}
	var snaps []types.Snapshot

	res, err := New(engine.DefaultConfig(), conn, local,
		WithRecorder(rec),
		WithObserver(engine.ObserverFunc(func(s types.Snapshot) { snaps = append(snaps, s) })),
	).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"START WHITE user 6000000",
		"MOVE D3",
		"ACK 6000000",
		"END",
		"BYE",
	}, conn.out)
	assert.Equal(t, 2, res.Turn)
	assert.Equal(t, board.Counts{White: 3, Empty: 58, Black: 3}, res.Counts)

	// Initial, after D3, after C3.
	require.Len(t, snaps, 3)
	assert.Equal(t, 0, snaps[0].Turn)
	assert.Equal(t, "user", snaps[0].Players.Black)
	assert.Equal(t, "bot", snaps[0].Players.White)
	assert.Equal(t, 2, snaps[2].Turn)

	assert.Equal(t, "user", rec.black)
	assert.Equal(t, "bot", rec.white)
	assert.Equal(t, []board.Coordinate{{Col: 4, Row: 3}, {Col: 3, Row: 3}}, rec.moves)
	assert.Equal(t, "Void", rec.result)
}

func TestInvalidPeerMoves(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	conn := &scriptConn{in: []string{"OPEN bot", "MOVE Z9", "HELLO", "UNDO", "MOVE A1"}}
	local := &scriptParticipant{}

	res, err := New(localWhite(), conn, local, WithLogger(zap.New(core).Sugar())).Run(context.Background())
	assert.ErrorIs(t, err, ErrPeerClosed)

	assert.Equal(t, []string{
		"START BLACK user 6000000",
		"ACK 6000000",
		"ACK 6000000",
		"ACK 6000000",
		"ACK 6000000",
		"END",
		"BYE",
	}, conn.out)
	assert.Equal(t, 0, res.Turn)
	assert.Equal(t, board.Counts{White: 2, Empty: 60, Black: 2}, res.Counts)
	assert.Equal(t, []engine.NoticeKind{
		engine.NoticeInvalidPeerMove,
		engine.NoticeInvalidPeerMove,
		engine.NoticeInvalidPeerMove,
		engine.NoticeInvalidPeerMove,
	}, local.noticeKinds())
	assert.Equal(t, 4, logs.FilterMessage("invalid peer move").Len())
	assert.Equal(t, 1, logs.FilterMessage("session aborted").Len())
}

func TestLocalInvalidCommands(t *testing.T) {
	conn := &scriptConn{in: []string{"OPEN bot"}}
	local := &scriptParticipant{commands: []engine.Command{
		engine.Move("A1"),
		engine.Move("xx"),
		engine.Pass(),
		engine.Undo(),
		engine.Quit(),
	}}

	res, err := New(engine.DefaultConfig(), conn, local).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []engine.NoticeKind{
		engine.NoticeCannotPlace,
		engine.NoticeCannotPlace,
		engine.NoticeCannotPass,
		engine.NoticeCannotUndo,
	}, local.noticeKinds())
	assert.Equal(t, "A1", local.notices[0].Detail)
	assert.Equal(t, 0, res.Turn)
	assert.Equal(t, []string{"START WHITE user 6000000", "END", "BYE"}, conn.out)
}

func TestLocalUndo(t *testing.T) {
	conn := &scriptConn{in: []string{"OPEN bot", "MOVE C3"}}
	local := &scriptParticipant{commands: []engine.Command{
		engine.Move("D3"),
		engine.Undo(),
		engine.Quit(),
	}}
	rec := &fakeRecorder{}

	res, err := New(engine.DefaultConfig(), conn, local, WithRecorder(rec)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"START WHITE user 6000000",
		"MOVE D3",
		"ACK 6000000",
		"UNDO",
		"END",
		"BYE",
	}, conn.out)
	assert.Equal(t, 0, res.Turn)
	assert.Empty(t, rec.moves)

	// Re-prompted on the restored opening position.
	require.Len(t, local.prompts, 3)
	assert.Equal(t, 0, local.prompts[2].Turn)
	assert.Len(t, local.prompts[2].Legal, 4)
}

func TestPeerMovesFirst(t *testing.T) {
	conn := &scriptConn{in: []string{"OPEN bot", "MOVE F5"}}
	local := &scriptParticipant{commands: []engine.Command{engine.Quit()}}

	res, err := New(localWhite(), conn, local).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"START BLACK user 6000000", "ACK 6000000", "END", "BYE"}, conn.out)
	assert.Equal(t, 1, res.Turn)
	require.Len(t, local.prompts, 1)
	assert.Equal(t, 5, local.prompts[0].LastMove.X)
	assert.Equal(t, 4, local.prompts[0].LastMove.Y)
}

func TestLocalMoveEndsGame(t *testing.T) {
	b, err := board.FromRows(emptyRows("BW......"), board.Black)
	require.NoError(t, err)
	conn := &scriptConn{in: []string{"OPEN bot"}}
	local := &scriptParticipant{commands: []engine.Command{engine.Move("C1")}}
	rec := &fakeRecorder{}
	var last types.Snapshot

	res, err := New(engine.DefaultConfig(), conn, local,
		WithBoard(b),
		WithRecorder(rec),
		WithObserver(engine.ObserverFunc(func(s types.Snapshot) { last = s })),
	).Run(context.Background())
	require.NoError(t, err)

	// The final move is not forwarded.
	assert.Equal(t, []string{"START WHITE user 6000000", "END", "BYE"}, conn.out)
	assert.True(t, conn.closed)
	assert.Equal(t, ReasonFinished, res.Reason)
	assert.Equal(t, board.Black, res.Winner)
	assert.Equal(t, "Black wins by 3 discs (3-0)", res.Outcome)
	assert.Equal(t, res.Outcome, rec.result)
	assert.True(t, last.Terminal)
	assert.Equal(t, res.Outcome, last.Outcome)
	assert.Contains(t, local.noticeKinds(), engine.NoticeGameOver)
}

func TestPeerMoveEndsGame(t *testing.T) {
	b, err := board.FromRows(emptyRows("BW......"), board.Black)
	require.NoError(t, err)
	conn := &scriptConn{in: []string{"OPEN bot", "MOVE C1"}}
	local := &scriptParticipant{}

	res, err := New(localWhite(), conn, local, WithBoard(b)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"START BLACK user 6000000", "END", "BYE"}, conn.out)
	assert.Equal(t, ReasonFinished, res.Reason)
	assert.Equal(t, board.Black, res.Winner)
	assert.Empty(t, local.prompts)
}

func TestAutoPass(t *testing.T) {
	// Black cannot move, White answers with the game-ending C1.
	b, err := board.FromRows(emptyRows("WB......"), board.Black)
	require.NoError(t, err)
	conn := &scriptConn{in: []string{"OPEN bot", "MOVE C1"}}
	local := &scriptParticipant{}
	rec := &fakeRecorder{}

	res, err := New(engine.DefaultConfig(), conn, local, WithBoard(b), WithRecorder(rec)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"START WHITE user 6000000", "MOVE PASS", "END", "BYE"}, conn.out)
	assert.Equal(t, engine.NoticeAutoPass, local.notices[0].Kind)
	assert.Empty(t, local.prompts)
	assert.Equal(t, board.White, res.Winner)
	assert.Equal(t, []board.Coordinate{board.NoCoordinate, {Col: 3, Row: 1}}, rec.moves)
}

func TestPeerPass(t *testing.T) {
	// White (peer) has no move and passes, Black then plays C1 to finish.
	b, err := board.FromRows(emptyRows("BW......"), board.White)
	require.NoError(t, err)
	conn := &scriptConn{in: []string{"OPEN bot", "MOVE PASS"}}
	local := &scriptParticipant{commands: []engine.Command{engine.Move("c1")}}

	res, err := New(engine.DefaultConfig(), conn, local, WithBoard(b)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"START WHITE user 6000000", "ACK 6000000", "END", "BYE"}, conn.out)
	assert.Equal(t, engine.NoticePeerPassed, local.notices[0].Kind)
	assert.Equal(t, ReasonFinished, res.Reason)
}

func TestPeerIllegalPass(t *testing.T) {
	conn := &scriptConn{in: []string{"OPEN bot", "MOVE PASS", "END"}}
	local := &scriptParticipant{}

	res, err := New(localWhite(), conn, local).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"START BLACK user 6000000", "ACK 6000000"}, conn.out)
	assert.Equal(t, ReasonPeerEnded, res.Reason)
	assert.Equal(t, 0, res.Turn)
	assert.True(t, conn.closed)
}

func TestSendFailureIsFatal(t *testing.T) {
	conn := &scriptConn{in: []string{"OPEN bot"}, failSend: true}
	local := &scriptParticipant{}

	_, err := New(engine.DefaultConfig(), conn, local).Run(context.Background())
	assert.ErrorIs(t, err, ErrHandshake)
	assert.Error(t, err)
	assert.True(t, conn.closed)
}

// blockingParticipant waits for cancellation.
type blockingParticipant struct{}

func (blockingParticipant) NextCommand(ctx context.Context, _ types.Snapshot) (engine.Command, error) {
	<-ctx.Done()
	return engine.Command{}, ctx.Err()
}

func (blockingParticipant) Notify(engine.Notice) {}

func TestRunCancelled(t *testing.T) {
	conn := &scriptConn{in: []string{"OPEN bot"}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(engine.DefaultConfig(), conn, blockingParticipant{}).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, conn.isClosed())
}
