// Package ui specifies custom controls for tview to play Othello against a
// peer engine in the terminal.
package ui

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"othello-arbiter/config"
	"othello-arbiter/engine"
	"othello-arbiter/engine/peer"
	"othello-arbiter/types"
)

// BoardUI draws the board and turns key presses into commands for the
// session. It is both the local engine.Participant and an engine.Observer.
type BoardUI struct {
	Box       *tview.Box
	hint      *tview.TextView
	app       *tview.Application
	cfg       *config.Config
	styles    []tcell.Color
	infoPanel *GameInfoPanel
	focusMode bool
	selX      int
	selY      int

	commands chan engine.Command

	// Written by the session goroutine, read by the UI goroutine.
	mu      sync.Mutex
	snap    types.Snapshot
	notice  string
	waiting bool
}

// NewBoard creates the board widget.
func NewBoard(app *tview.Application, c *config.Config, hint *tview.TextView) *BoardUI {
	b := &BoardUI{
		Box:      tview.NewBox(),
		hint:     hint,
		app:      app,
		snap:     types.NewSnapshot(8),
		selX:     -1,
		selY:     -1,
		commands: make(chan engine.Command, 1),
	}
	b.SetConfig(c)
	b.Box.SetDrawFunc(b.draw)
	return b
}

// NextCommand waits for the user to pick a command for the position in snap.
func (b *BoardUI) NextCommand(ctx context.Context, snap types.Snapshot) (engine.Command, error) {
	// Drop anything left over from an earlier prompt.
	select {
	case <-b.commands:
	default:
	}

	b.mu.Lock()
	b.snap = snap
	b.waiting = true
	b.mu.Unlock()
	b.redraw()

	select {
	case cmd := <-b.commands:
		return cmd, nil
	case <-ctx.Done():
		b.mu.Lock()
		b.waiting = false
		b.mu.Unlock()
		return engine.Command{}, ctx.Err()
	}
}

// Notify shows n in the status bar.
func (b *BoardUI) Notify(n engine.Notice) {
	b.mu.Lock()
	b.notice = n.String()
	b.mu.Unlock()
	b.redraw()
}

// OnSnapshot replaces the displayed position.
func (b *BoardUI) OnSnapshot(snap types.Snapshot) {
	b.mu.Lock()
	b.snap = snap
	b.mu.Unlock()
	b.redraw()
}

// Reset clears the board for a new match.
func (b *BoardUI) Reset() {
	b.mu.Lock()
	b.snap = types.NewSnapshot(8)
	b.notice = ""
	b.waiting = false
	b.mu.Unlock()
	b.ResetSelection()
	b.refreshHint()
}

// redraw queues a redraw without blocking the caller on the UI goroutine.
func (b *BoardUI) redraw() {
	go b.app.QueueUpdateDraw(b.refreshHint)
}

func (b *BoardUI) state() (types.Snapshot, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap, b.notice, b.waiting
}

// submit hands cmd to a pending NextCommand. It reports false when the
// session is not waiting for the local side.
func (b *BoardUI) submit(cmd engine.Command) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.waiting {
		return false
	}
	select {
	case b.commands <- cmd:
		b.waiting = false
		b.notice = ""
		return true
	default:
		return false
	}
}

// Waiting reports whether the session is waiting for a local command.
func (b *BoardUI) Waiting() bool {
	_, _, waiting := b.state()
	return waiting
}

// IsFinished returns true if the game is over.
func (b *BoardUI) IsFinished() bool {
	snap, _, _ := b.state()
	return snap.Finished()
}

// PlayMove asks to place a disc at the 0-indexed square (x, y).
func (b *BoardUI) PlayMove(x, y int) {
	b.submit(engine.Move(peer.EncodePos(x, y)))
}

// Pass asks to pass the turn.
func (b *BoardUI) Pass() {
	b.submit(engine.Pass())
}

// Undo asks to take back the last own move and the reply to it.
func (b *BoardUI) Undo() {
	b.submit(engine.Undo())
}

// Quit asks the session to abandon the match. It reports false when the
// session is busy with the peer.
func (b *BoardUI) Quit() bool {
	return b.submit(engine.Quit())
}

// ToggleFocusMode toggles focus mode and returns the new state.
func (b *BoardUI) ToggleFocusMode() bool {
	b.focusMode = !b.focusMode
	b.refreshHint()
	return b.focusMode
}

// SetFocusMode sets focus mode to the given state.
func (b *BoardUI) SetFocusMode(enabled bool) {
	b.focusMode = enabled
	b.refreshHint()
}

func (b *BoardUI) SelectedTile() *types.BoardPos {
	if b.selX == -1 && b.selY == -1 {
		return nil
	}
	return &types.BoardPos{X: b.selX, Y: b.selY}
}

func (b *BoardUI) MoveSelection(h, v int) {
	snap, _, _ := b.state()
	if snap.Finished() {
		b.ResetSelection()
		return
	}
	if b.SelectedTile() == nil {
		b.selX, b.selY = snap.LastMove.X, snap.LastMove.Y
		if b.SelectedTile() == nil || b.selX < 0 {
			// No move yet, start on the first legal square or the centre.
			b.selX, b.selY = snap.Width()/2-1, snap.Height()/2-1
			if len(snap.Legal) > 0 {
				b.selX, b.selY = snap.Legal[0].X, snap.Legal[0].Y
			}
		}
		return
	}
	if b.selX+h < 0 || b.selX+h >= snap.Width() {
		return
	}
	if b.selY+v < 0 || b.selY+v >= snap.Height() {
		return
	}
	b.selX += h
	b.selY += v
}

func (b *BoardUI) ResetSelection() {
	b.selX = -1
	b.selY = -1
}

func (b *BoardUI) SetConfig(c *config.Config) {
	b.styles = []tcell.Color{
		tcell.PaletteColor(c.Theme.Colors.BoardColor),        // 0
		tcell.PaletteColor(c.Theme.Colors.BlackColor),        // 1
		tcell.PaletteColor(c.Theme.Colors.WhiteColor),        // 2
		tcell.PaletteColor(c.Theme.Colors.BoardColorAlt),     // 3
		tcell.PaletteColor(c.Theme.Colors.LegalColor),        // 4
		tcell.PaletteColor(c.Theme.Colors.LineColor),         // 5
		tcell.PaletteColor(c.Theme.Colors.CursorColorFG),     // 6
		tcell.PaletteColor(c.Theme.Colors.LastPlayedColorBG), // 7
		tcell.PaletteColor(c.Theme.Colors.CursorColorBG),     // 8
	}
	b.cfg = c
}

// draw renders the grid, two characters per square, with column letters on
// top and row numbers on the left.
func (b *BoardUI) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	snap, _, waiting := b.state()
	if snap.Width() == 0 {
		return x, y, 1, 1
	}
	theme := b.cfg.Theme
	left, top := x+3, y+1
	showLegal := theme.ShowLegalMoves && waiting

	for by := 0; by < snap.Height(); by++ {
		for bx := 0; bx < snap.Width(); bx++ {
			disc := snap.Board[by][bx]
			bg := b.styles[0]
			if (bx+by)%2 == 1 {
				bg = b.styles[3]
			}
			fg := b.styles[5]
			r := theme.Symbols.BoardSquare

			switch disc {
			case 1:
				r, fg = theme.Symbols.BlackDisc, b.styles[1]
			case 2:
				r, fg = theme.Symbols.WhiteDisc, b.styles[2]
			default:
				if showLegal && snap.IsLegal(bx, by) {
					r, fg = theme.Symbols.Legal, b.styles[4]
				}
			}

			if bx == b.selX && by == b.selY {
				if theme.DrawCursorBackground {
					bg = b.styles[8]
				} else if disc == 0 {
					r, fg = theme.Symbols.Cursor, b.styles[6]
				}
			} else if bx == snap.LastMove.X && by == snap.LastMove.Y && theme.DrawLastPlayedBackground {
				bg = b.styles[7]
			}

			style := tcell.StyleDefault.Background(bg).Foreground(fg)
			screen.SetContent(left+bx*2, top+by, r, nil, style)
			screen.SetContent(left+bx*2+1, top+by, ' ', nil, style)
		}
	}
	b.drawCoordinates(screen, x, y, snap)
	return x, y, snap.Width()*2 + 3, snap.Height() + 1
}

func (b *BoardUI) drawCoordinates(s tcell.Screen, x, y int, snap types.Snapshot) {
	hCoord := 'A'
	if b.cfg.Theme.FullWidthLetters {
		hCoord = 'Ａ'
	}
	highlight := tcell.StyleDefault.Background(b.styles[8])
	lpHighlight := tcell.StyleDefault.Background(b.styles[7])

	for ix := 0; ix < snap.Width(); ix++ {
		style := tcell.StyleDefault
		if ix == b.selX {
			style = highlight
		} else if ix == snap.LastMove.X {
			style = lpHighlight
		}
		s.SetContent(x+3+ix*2, y, hCoord+rune(ix), nil, style)
		s.SetContent(x+3+ix*2+1, y, ' ', nil, style)
	}
	for iy := 0; iy < snap.Height(); iy++ {
		style := tcell.StyleDefault
		if iy == b.selY {
			style = highlight
		} else if iy == snap.LastMove.Y {
			style = lpHighlight
		}
		s.SetContent(x+1, y+1+iy, rune('1'+iy), nil, style)
	}
}

func (b *BoardUI) refreshHint() {
	snap, notice, waiting := b.state()
	if b.infoPanel != nil {
		b.infoPanel.SetSnapshot(snap)
	}

	if b.focusMode {
		b.hint.SetText("  f to toggle")
		return
	}

	var statusLine, turnLine, controlsLine string
	if notice != "" {
		statusLine = "  ! " + notice + "\n"
	}

	if snap.Finished() {
		statusLine = "───────── Game Complete ─────────\n"
		turnLine = fmt.Sprintf("  Result: %s\n", snap.Outcome)
		controlsLine = "  q · return to menu"
	} else {
		if waiting {
			turnLine = fmt.Sprintf("  %s Your move (%s)\n", b.discFor(snap.LocalColor), colorName(snap.LocalColor))
		} else {
			turnLine = "  ◌ Waiting for opponent...\n"
		}
		controlsLine = "  hjkl/↑↓←→ move   ⏎ place   p pass   u undo   f focus   q quit"
	}

	b.hint.SetText(statusLine + turnLine + controlsLine)
}

func (b *BoardUI) discFor(color int) string {
	if color == 2 {
		return "○"
	}
	return "●"
}

func colorName(color int) string {
	switch color {
	case 1:
		return "Black"
	case 2:
		return "White"
	}
	return "?"
}
