package ui

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"othello-arbiter/sgf"
	"othello-arbiter/types"
)

// RecordBrowserUI lists saved game records with a preview of the final position.
type RecordBrowserUI struct {
	dir      string
	flex     *tview.Flex
	gameList *tview.List
	preview  *tview.Box
	hint     *tview.TextView
	games    []sgf.GameInfo
	finals   map[int]*types.Snapshot // cached final positions, nil when unreadable
	selected int
	onDone   func()
}

// NewRecordBrowser creates a browser over the records in dir.
func NewRecordBrowser(dir string, onDone func()) *RecordBrowserUI {
	rb := &RecordBrowserUI{
		dir:    dir,
		onDone: onDone,
		finals: make(map[int]*types.Snapshot),
	}

	rb.gameList = tview.NewList()
	rb.gameList.SetBorder(true)
	rb.gameList.SetTitle(" Game Records ")
	rb.gameList.ShowSecondaryText(false)
	rb.gameList.SetHighlightFullLine(true)
	rb.gameList.SetMainTextStyle(tcell.StyleDefault.Foreground(MenuColors.Label))
	rb.gameList.SetSelectedStyle(tcell.StyleDefault.
		Foreground(MenuColors.ButtonText).
		Background(MenuColors.ButtonFocus))

	rb.preview = tview.NewBox()
	rb.preview.SetBorder(true)
	rb.preview.SetTitle(" Preview ")
	rb.preview.SetDrawFunc(rb.drawPreview)

	rb.hint = tview.NewTextView()
	rb.hint.SetDynamicColors(true)
	rb.hint.SetBorder(false)
	rb.hint.SetText("  [dimgray]d[-] delete  [dimgray]q[-] back")

	rb.gameList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		rb.selected = index
	})
	rb.gameList.SetInputCapture(rb.handleInput)

	topRow := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(rb.gameList, 40, 0, true).
		AddItem(rb.preview, 0, 1, false)

	rb.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, true).
		AddItem(rb.hint, 1, 0, false)

	rb.loadGames()
	return rb
}

// Flex returns the flex container for this UI.
func (rb *RecordBrowserUI) Flex() *tview.Flex {
	return rb.flex
}

// Refresh reloads the record list from disk.
func (rb *RecordBrowserUI) Refresh() {
	rb.finals = make(map[int]*types.Snapshot)
	rb.loadGames()
}

func (rb *RecordBrowserUI) loadGames() {
	rb.gameList.Clear()
	rb.games = nil
	rb.selected = 0

	games, err := sgf.ListGames(rb.dir)
	if err != nil || len(games) == 0 {
		rb.gameList.AddItem("[dimgray]No games found[-]", "", 0, nil)
		return
	}

	rb.games = games
	for _, g := range games {
		rb.gameList.AddItem(recordLabel(g), "", 0, nil)
	}
}

// recordLabel is the list entry for a record.
func recordLabel(g sgf.GameInfo) string {
	result := g.Result
	if result == "" || result == "?" {
		result = "..."
	}
	return fmt.Sprintf("%s  %s v %s  %s", g.Date, g.PlayerBlack, g.PlayerWhite, result)
}

func (rb *RecordBrowserUI) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape:
		if rb.onDone != nil {
			rb.onDone()
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			if rb.onDone != nil {
				rb.onDone()
			}
			return nil
		case 'd':
			rb.deleteSelected()
			return nil
		}
	}
	return event
}

func (rb *RecordBrowserUI) deleteSelected() {
	if rb.selected < 0 || rb.selected >= len(rb.games) {
		return
	}
	os.Remove(rb.games[rb.selected].FilePath)
	rb.Refresh()
}

// finalPosition replays the selected record once and caches the result.
func (rb *RecordBrowserUI) finalPosition(i int) *types.Snapshot {
	if snap, ok := rb.finals[i]; ok {
		return snap
	}
	var snap *types.Snapshot
	if e, _, err := sgf.ReplayToEnd(rb.games[i].FilePath); err == nil {
		s := e.Snapshot()
		s.Outcome = e.Outcome()
		snap = &s
	}
	rb.finals[i] = snap
	return snap
}

func (rb *RecordBrowserUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	if rb.selected < 0 || rb.selected >= len(rb.games) {
		return x, y, width, height
	}
	game := rb.games[rb.selected]
	startX, startY := x+2, y+1
	infoStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(250))
	dimStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(245))

	snap := rb.finalPosition(rb.selected)
	if snap == nil {
		drawText(screen, startX, startY, "Record cannot be replayed", dimStyle)
		return x, y, width, height
	}

	size := snap.Width()
	if width < size*2+4 || height < size+7 {
		return x, y, width, height
	}

	emptyStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(240))
	blackStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(255)).Bold(true)
	whiteStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(250))

	for by := 0; by < size; by++ {
		for bx := 0; bx < size; bx++ {
			ch, style := '·', emptyStyle
			switch snap.Board[by][bx] {
			case 1:
				ch, style = '●', blackStyle
			case 2:
				ch, style = '○', whiteStyle
			}
			screen.SetContent(startX+bx*2, startY+by, ch, nil, style)
		}
	}

	infoY := startY + size + 1
	drawText(screen, startX, infoY, fmt.Sprintf("%d ● %d ○", snap.Counts.Black, snap.Counts.White), infoStyle)
	drawText(screen, startX+12, infoY, fmt.Sprintf("| %d moves", game.MoveCount), dimStyle)
	infoY++
	drawText(screen, startX, infoY, fmt.Sprintf("B: %s", game.PlayerBlack), dimStyle)
	infoY++
	drawText(screen, startX, infoY, fmt.Sprintf("W: %s", game.PlayerWhite), dimStyle)
	infoY++

	result := game.Result
	switch {
	case result == "" || result == "?":
		result = "Unfinished"
	case snap.Terminal:
		result += " · " + snap.Outcome
	}
	resultStyle := tcell.StyleDefault.Foreground(MenuColors.Selected)
	drawText(screen, startX, infoY, fmt.Sprintf("Result: %s", result), resultStyle)

	return x, y, width, height
}

// drawText writes a string to the screen at the given position.
func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	i := 0
	for _, ch := range text {
		screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}
