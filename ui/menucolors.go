package ui

import "github.com/gdamore/tcell/v2"

// MenuColors is the palette for the setup form and record browser,
// keyed to the green of the board.
var MenuColors = struct {
	Border      tcell.Color
	Label       tcell.Color
	Hint        tcell.Color
	Selected    tcell.Color // result line in previews
	ButtonBG    tcell.Color
	ButtonFocus tcell.Color // also the list selection
	ButtonText  tcell.Color
}{
	Border:      tcell.PaletteColor(65),
	Label:       tcell.PaletteColor(250),
	Hint:        tcell.PaletteColor(245),
	Selected:    tcell.PaletteColor(114),
	ButtonBG:    tcell.PaletteColor(22),
	ButtonFocus: tcell.PaletteColor(28),
	ButtonText:  tcell.PaletteColor(255),
}
