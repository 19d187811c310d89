package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"othello-arbiter/config"
	"othello-arbiter/engine"
	"othello-arbiter/engine/session"
	"othello-arbiter/spectate"
	"othello-arbiter/ui"
)

func observers(local engine.Observer, hub *spectate.Hub) []engine.Observer {
	obs := []engine.Observer{local}
	if hub != nil {
		obs = append(obs, hub)
	}
	return obs
}

// tui holds the full-screen application and the match it is running.
type tui struct {
	ctx  context.Context
	cfg  *config.Config
	log  *zap.SugaredLogger
	hub  *spectate.Hub
	opts matchOptions

	app       *tview.Application
	rootPage  *tview.Pages
	board     *ui.BoardUI
	gameFrame *tview.Flex
	hint      *tview.TextView
	records   *ui.RecordBrowserUI

	mu     sync.Mutex
	cancel context.CancelFunc // non-nil while a match runs
}

func runUI(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, hub *spectate.Hub, quickStart, focus bool) error {
	opts, err := matchOptionsFrom(cfg)
	if err != nil {
		return err
	}
	t := &tui{ctx: ctx, cfg: cfg, log: log, hub: hub, opts: opts}

	t.app = tview.NewApplication()
	t.rootPage = tview.NewPages()
	t.rootPage.SetBorder(true).SetTitle(" ● othello-arbiter ")

	t.hint = tview.NewTextView()
	t.hint.SetBorderPadding(0, 0, 1, 1)
	t.board = ui.NewBoard(t.app, cfg, t.hint)
	t.gameFrame = ui.CreateGameLayout(t.board, t.hint)
	t.board.Box.SetInputCapture(t.boardKeys)

	setup := ui.NewGameSetup(
		ui.MatchSetup{Match: opts.Match, PeerPath: opts.PeerPath, Launch: opts.Launch},
		t.startMatch,
		t.app.Stop,
		func() {
			t.records.Refresh()
			t.rootPage.SwitchToPage("records")
		},
		func() { t.rootPage.SwitchToPage("colors") },
	)

	t.records = ui.NewRecordBrowser(cfg.RecordDir(), func() {
		t.rootPage.SwitchToPage("setup")
	})

	colorConfig := ui.NewColorConfig(cfg, func() {
		t.board.SetConfig(cfg)
		t.rootPage.SwitchToPage("setup")
	})
	colorConfig.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			t.rootPage.SwitchToPage("setup")
			return nil
		}
		if event.Key() == tcell.KeyTab {
			colorConfig.ToggleMode()
			return nil
		}
		return event
	})

	t.rootPage.AddPage("setup", ui.CreateCenteredForm(setup.Form(), 64), true, !quickStart)
	t.rootPage.AddPage("gameview", t.gameFrame, true, quickStart)
	t.rootPage.AddPage("records", t.records.Flex(), true, false)
	t.rootPage.AddPage("colors", colorConfig.Flex(), true, false)

	if quickStart {
		t.startMatch(setup.Setup())
		if focus {
			t.board.SetFocusMode(true)
			ui.BuildFocusLayout(t.gameFrame, t.board)
		}
	}

	stop := context.AfterFunc(ctx, t.app.Stop)
	defer stop()
	defer t.stopMatch()
	return t.app.SetRoot(t.rootPage, true).Run()
}

// boardKeys handles input on the game view.
func (t *tui) boardKeys(event *tcell.EventKey) *tcell.EventKey {
	b := t.board
	switch event.Key() {
	case tcell.KeyUp:
		b.MoveSelection(0, -1)
	case tcell.KeyDown:
		b.MoveSelection(0, 1)
	case tcell.KeyLeft:
		b.MoveSelection(-1, 0)
	case tcell.KeyRight:
		b.MoveSelection(1, 0)
	case tcell.KeyEnter:
		if sel := b.SelectedTile(); sel != nil {
			b.PlayMove(sel.X, sel.Y)
		}
	case tcell.KeyRune:
		switch event.Rune() {
		case 'h':
			b.MoveSelection(-1, 0)
		case 'j':
			b.MoveSelection(0, 1)
		case 'k':
			b.MoveSelection(0, -1)
		case 'l':
			b.MoveSelection(1, 0)
		case 'p':
			b.Pass()
		case 'u':
			b.Undo()
		case 'f':
			if b.ToggleFocusMode() {
				ui.BuildFocusLayout(t.gameFrame, b)
			} else {
				ui.RebuildNormalLayout(t.gameFrame, b, t.hint)
			}
		case 'q':
			if b.SelectedTile() != nil {
				b.ResetSelection()
				return nil
			}
			// Quit through the session when it is our turn so the record
			// is closed as abandoned, otherwise stop waiting on the peer.
			if !t.running() || b.IsFinished() {
				t.rootPage.SwitchToPage("setup")
			} else if !b.Quit() {
				t.stopMatch()
			}
			return nil
		}
	}
	return event
}

func (t *tui) running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *tui) stopMatch() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// startMatch runs a session in the background with the board as the local side.
func (t *tui) startMatch(setup ui.MatchSetup) {
	if t.running() {
		return
	}
	opts := t.opts
	opts.Match = setup.Match
	opts.PeerPath = setup.PeerPath
	opts.Launch = setup.Launch
	opts.OnListen = func(port int) {
		t.app.QueueUpdateDraw(func() {
			t.hint.SetText(fmt.Sprintf("  Waiting for peer on %s:%d ...", opts.Host, port))
		})
	}

	ctx, cancel := context.WithCancel(t.ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	t.board.Reset()
	t.rootPage.SwitchToPage("gameview")

	go func() {
		res, err := runMatch(ctx, opts, t.board, t.log, observers(t.board, t.hub)...)
		cancel()
		t.mu.Lock()
		t.cancel = nil
		t.mu.Unlock()
		t.app.QueueUpdateDraw(func() { t.matchDone(res, err) })
	}()
}

// matchDone runs on the UI goroutine after a session returns.
func (t *tui) matchDone(res session.Result, err error) {
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		t.showError(fmt.Sprintf("Match failed:\n%s", err))
		t.rootPage.SwitchToPage("setup")
	case err != nil, res.Reason == session.ReasonLocalQuit:
		t.rootPage.SwitchToPage("setup")
	case res.Reason == session.ReasonPeerEnded:
		t.showError(fmt.Sprintf("%s ended the match", res.PeerName))
	}
	// A finished game stays on screen until q.
}

func (t *tui) showError(text string) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			t.rootPage.RemovePage("error")
		})
	t.rootPage.AddPage("error", modal, true, true)
}
