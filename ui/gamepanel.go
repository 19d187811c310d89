package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"othello-arbiter/engine/peer"
	"othello-arbiter/types"
)

// GameInfoPanel displays match information and move history alongside the board.
type GameInfoPanel struct {
	box  *tview.TextView
	snap types.Snapshot
}

// NewGameInfoPanel creates a new game info panel.
func NewGameInfoPanel() *GameInfoPanel {
	panel := &GameInfoPanel{
		box: tview.NewTextView(),
	}

	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)

	return panel
}

// Box returns the underlying tview component.
func (p *GameInfoPanel) Box() *tview.TextView {
	return p.box
}

// SetSnapshot updates the panel with the current position.
func (p *GameInfoPanel) SetSnapshot(snap types.Snapshot) {
	p.snap = snap
	p.box.SetText(panelText(snap))
}

// panelText renders the panel contents for snap.
func panelText(snap types.Snapshot) string {
	if snap.Width() == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString("[white::b]Match[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
	fmt.Fprintf(&b, "[white]● %s[-] %s\n", orDash(snap.Players.Black), youMarker(snap, 1))
	fmt.Fprintf(&b, "[dimgray]○ %s[-] %s\n", orDash(snap.Players.White), youMarker(snap, 2))
	fmt.Fprintf(&b, "[white]Turn:[-:-:-] %d\n", snap.Turn)
	fmt.Fprintf(&b, "[white]Discs:[-:-:-] %d ● %d ○ %d ·\n", snap.Counts.Black, snap.Counts.White, snap.Counts.Empty)
	if !snap.Finished() {
		fmt.Fprintf(&b, "[white]To move:[-:-:-] %s\n", colorName(snap.ToMove))
		legal := make([]string, 0, len(snap.Legal))
		for _, pos := range snap.Legal {
			legal = append(legal, peer.EncodePos(pos.X, pos.Y))
		}
		if len(legal) == 0 {
			legal = append(legal, "pass")
		}
		fmt.Fprintf(&b, "[white]Legal:[-:-:-] %s\n", strings.Join(legal, " "))
	} else if snap.Outcome != "" {
		fmt.Fprintf(&b, "[yellow]%s[-]\n", snap.Outcome)
	}

	if len(snap.Moves) > 0 {
		b.WriteString("\n[white::b]Moves[-:-:-]\n")
		b.WriteString("[dimgray]──────────────────────[-:-:-]\n")

		// Show the last moves that fit
		maxVisible := 12
		start := 0
		if len(snap.Moves) > maxVisible {
			start = len(snap.Moves) - maxVisible
		}
		for i := start; i < len(snap.Moves); i++ {
			m := snap.Moves[i]
			colorStr := "[white]B[-]"
			if m.Color == 2 {
				colorStr = "[dimgray]W[-]"
			}
			coord := "pass"
			if !m.IsPass() {
				coord = peer.EncodePos(m.Pos.X, m.Pos.Y)
			}
			marker := " "
			if i == len(snap.Moves)-1 {
				marker = "[white]>[-]"
			}
			fmt.Fprintf(&b, "%s[dimgray]%3d.[-] %s %s\n", marker, i+1, colorStr, coord)
		}
		if start > 0 {
			fmt.Fprintf(&b, "[dimgray]  ··· %d earlier[-]\n", start)
		}
	}
	return b.String()
}

func orDash(name string) string {
	if name == "" {
		return "-"
	}
	return name
}

func youMarker(snap types.Snapshot, color int) string {
	if snap.LocalColor == color {
		return "[yellow](you)[-]"
	}
	return ""
}

// CreateGameLayout creates the main game layout with board and side panel.
func CreateGameLayout(board *BoardUI, hint *tview.TextView) *tview.Flex {
	gameFrame := tview.NewFlex()
	RebuildNormalLayout(gameFrame, board, hint)
	return gameFrame
}

// CreateCenteredForm creates a centered form container for the setup screen.
func CreateCenteredForm(form tview.Primitive, maxWidth int) *tview.Flex {
	centered := tview.NewFlex().SetDirection(tview.FlexColumn)
	centered.AddItem(nil, 0, 1, false)        // Left spacer
	centered.AddItem(form, maxWidth, 0, true) // Form with max width
	centered.AddItem(nil, 0, 1, false)        // Right spacer

	return centered
}

// RebuildNormalLayout restores the normal game layout with board, info panel, and hint.
func RebuildNormalLayout(gameFrame *tview.Flex, board *BoardUI, hint *tview.TextView) {
	gameFrame.Clear()

	infoPanel := NewGameInfoPanel()
	board.infoPanel = infoPanel
	snap, _, _ := board.state()
	infoPanel.SetSnapshot(snap)

	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(board.Box, 0, 1, true)
	boardRow.AddItem(infoPanel.Box(), 30, 0, false)

	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(boardRow, 0, 1, true)
	gameFrame.AddItem(hint, 3, 0, false)
}

// BuildFocusLayout builds the focus mode layout with just the centered board.
func BuildFocusLayout(gameFrame *tview.Flex, board *BoardUI) {
	gameFrame.Clear()
	board.infoPanel = nil

	snap, _, _ := board.state()
	boardWidth := snap.Width()*2 + 3  // 2 chars per cell + row numbers
	boardHeight := snap.Height() + 1 // + column letters

	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(nil, 0, 1, false)

	centerRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	centerRow.AddItem(nil, 0, 1, false)
	centerRow.AddItem(board.Box, boardWidth, 0, true)
	centerRow.AddItem(nil, 0, 1, false)

	gameFrame.AddItem(centerRow, boardHeight, 0, true)
	gameFrame.AddItem(nil, 0, 1, false)
}
