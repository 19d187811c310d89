package ui

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"othello-arbiter/board"
	"othello-arbiter/engine"
)

// MatchSetup is what the setup form produces.
type MatchSetup struct {
	Match    engine.MatchConfig
	PeerPath string
	Launch   bool
}

// GameSetupUI provides a form for configuring a new match.
type GameSetupUI struct {
	form  *tview.Form
	flex  *tview.Flex
	setup MatchSetup
}

// NewGameSetup creates a new game setup form seeded with initial.
func NewGameSetup(initial MatchSetup, onStart func(MatchSetup), onCancel func(), onRecords func(), onColors func()) *GameSetupUI {
	s := &GameSetupUI{setup: initial}

	colors := []string{"Black (play first)", "White (play second)"}
	colorIdx := 0
	if initial.Match.LocalColor == board.White {
		colorIdx = 1
	}
	declarations := []string{"Peer's color", "My color"}

	form := tview.NewForm()

	form.AddDropDown("Your Color", colors, colorIdx, func(option string, index int) {
		s.setup.Match.LocalColor = board.Black
		if index == 1 {
			s.setup.Match.LocalColor = board.White
		}
	})

	form.AddDropDown("START announces", declarations, int(initial.Match.Declaration), func(option string, index int) {
		s.setup.Match.Declaration = engine.Declaration(index)
	})

	form.AddInputField("Name", initial.Match.Name, 20, func(text string, lastChar rune) bool {
		return lastChar != ' ' && lastChar != '\t'
	}, func(text string) {
		if text = strings.TrimSpace(text); text != "" {
			s.setup.Match.Name = text
		}
	})

	form.AddInputField("Time budget (ms)", strconv.FormatInt(initial.Match.TimeBudget, 10), 12, func(text string, lastChar rune) bool {
		return lastChar >= '0' && lastChar <= '9'
	}, func(text string) {
		if val, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil && val > 0 {
			s.setup.Match.TimeBudget = val
		}
	})

	form.AddInputField("Peer engine", initial.PeerPath, 32, nil, func(text string) {
		s.setup.PeerPath = strings.TrimSpace(text)
	})

	form.AddCheckbox("Launch peer", initial.Launch, func(checked bool) {
		s.setup.Launch = checked
	})

	form.AddButton("Start Match", func() {
		onStart(s.setup)
	})

	form.AddButton("Records", func() {
		if onRecords != nil {
			onRecords()
		}
	})

	form.AddButton("Board Color", func() {
		if onColors != nil {
			onColors()
		}
	})

	form.AddButton("Quit", func() {
		onCancel()
	})

	form.SetBorder(true)
	form.SetTitle(" New Match ")
	form.SetTitleAlign(tview.AlignCenter)
	form.SetButtonBackgroundColor(MenuColors.ButtonBG)
	form.SetButtonTextColor(MenuColors.ButtonText)
	form.SetBorderColor(MenuColors.Border)

	helpText := tview.NewTextView().
		SetText("Tab/Shift+Tab: navigate fields  |  Arrow keys: change dropdown  |  Enter: confirm").
		SetTextAlign(tview.AlignCenter)
	helpText.SetTextColor(MenuColors.Hint)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(helpText, 1, 0, false)

	s.form = form
	s.flex = flex
	return s
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// Setup returns the current form values.
func (s *GameSetupUI) Setup() MatchSetup {
	return s.setup
}

// SetInputCapture sets the input capture function for the form.
func (s *GameSetupUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	s.form.SetInputCapture(capture)
}
