package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"othello-arbiter/config"
)

// ColorConfigUI lets the user pick the two board square colors with a
// live preview. Choices are saved to the config file.
type ColorConfigUI struct {
	flex      *tview.Flex
	colorList *tview.List
	preview   *tview.Box
	cfg       *config.Config
	onDone    func()

	board    int
	boardAlt int
	alt      bool // editing the alternate square color
}

type paletteEntry struct {
	code int
	name string
}

var squareColors = []paletteEntry{
	{22, "Dark Green"},
	{28, "Green"},
	{29, "Sea Green"},
	{34, "Bright Green"},
	{35, "Jade"},
	{64, "Olive"},
	{65, "Fern"},
	{71, "Moss"},
	{23, "Teal"},
	{24, "Dark Cyan"},
	{94, "Saddle Brown"},
	{136, "Dark Brown"},
	{236, "Dark Gray"},
	{240, "Gray"},
}

// NewColorConfig creates the color configuration screen.
func NewColorConfig(cfg *config.Config, onDone func()) *ColorConfigUI {
	cc := &ColorConfigUI{
		cfg:      cfg,
		onDone:   onDone,
		board:    cfg.Theme.Colors.BoardColor,
		boardAlt: cfg.Theme.Colors.BoardColorAlt,
	}

	cc.colorList = tview.NewList()
	cc.colorList.SetBorder(true)
	cc.colorList.ShowSecondaryText(false)
	cc.populateColorList()

	cc.colorList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if index < 0 || index >= len(squareColors) {
			return
		}
		if cc.alt {
			cc.boardAlt = squareColors[index].code
		} else {
			cc.board = squareColors[index].code
		}
	})

	cc.colorList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if !cc.alt {
			// Pick the alternate color next.
			cc.ToggleMode()
			return
		}
		cc.Apply()
		onDone()
	})

	cc.preview = tview.NewBox()
	cc.preview.SetBorder(true)
	cc.preview.SetTitle(" Board Preview ")
	cc.preview.SetDrawFunc(cc.drawPreview)

	cc.flex = tview.NewFlex().
		AddItem(cc.colorList, 34, 0, true).
		AddItem(cc.preview, 0, 1, false)

	return cc
}

// Apply stores the chosen colors in the config and saves it.
func (cc *ColorConfigUI) Apply() error {
	cc.cfg.Theme.Colors.BoardColor = cc.board
	cc.cfg.Theme.Colors.BoardColorAlt = cc.boardAlt
	return cc.cfg.Save()
}

func (cc *ColorConfigUI) populateColorList() {
	cc.colorList.Clear()

	current := cc.board
	title := " Square Color (Tab: alternate) "
	if cc.alt {
		current = cc.boardAlt
		title = " Alternate Square (Tab: main) "
	}
	cc.colorList.SetTitle(title)

	for i, c := range squareColors {
		cc.colorList.AddItem(fmt.Sprintf("[#%06x]████[-] %s (%d)",
			tcell.PaletteColor(c.code).Hex(), c.name, c.code),
			"", rune('a'+i), nil)
	}
	for i, c := range squareColors {
		if c.code == current {
			cc.colorList.SetCurrentItem(i)
			break
		}
	}
}

func (cc *ColorConfigUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	const size = 6
	if width < size*2+4 || height < size+4 {
		return x, y, width, height
	}
	symbols := cc.cfg.Theme.Symbols
	black := tcell.PaletteColor(cc.cfg.Theme.Colors.BlackColor)
	white := tcell.PaletteColor(cc.cfg.Theme.Colors.WhiteColor)
	line := tcell.PaletteColor(cc.cfg.Theme.Colors.LineColor)

	// The opening cross in the middle of a small board.
	discs := map[[2]int]int{
		{2, 2}: 2, {3, 3}: 2,
		{3, 2}: 1, {2, 3}: 1,
		{2, 1}: 1,
	}
	startX, startY := x+2, y+1
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			bg := tcell.PaletteColor(cc.board)
			if (row+col)%2 == 1 {
				bg = tcell.PaletteColor(cc.boardAlt)
			}
			style := tcell.StyleDefault.Background(bg).Foreground(line)
			r := symbols.BoardSquare
			switch discs[[2]int{col, row}] {
			case 1:
				r, style = symbols.BlackDisc, style.Foreground(black)
			case 2:
				r, style = symbols.WhiteDisc, style.Foreground(white)
			}
			screen.SetContent(startX+col*2, startY+row, r, nil, style)
			screen.SetContent(startX+col*2+1, startY+row, ' ', nil, style)
		}
	}

	drawText(screen, startX, startY+size+1, fmt.Sprintf("Square: %d  Alternate: %d", cc.board, cc.boardAlt), tcell.StyleDefault)
	return x, y, width, height
}

// Flex returns the flex container for this UI.
func (cc *ColorConfigUI) Flex() *tview.Flex {
	return cc.flex
}

// SetInputCapture sets the input capture for the color list.
func (cc *ColorConfigUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	cc.colorList.SetInputCapture(capture)
}

// ToggleMode switches between the main and alternate square color.
func (cc *ColorConfigUI) ToggleMode() {
	cc.alt = !cc.alt
	cc.populateColorList()
}
