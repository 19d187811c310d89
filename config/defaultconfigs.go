package config

var DefaultConfig Config
var DefaultTheme Theme

func init() {
	DefaultTheme = Theme{
		DrawCursorBackground:     true,
		DrawLastPlayedBackground: true,
		ShowLegalMoves:           true,
		FullWidthLetters:         false,
		Colors: ConfigColors{
			BoardColor:        28,
			BoardColorAlt:     22,
			BlackColor:        232,
			WhiteColor:        255,
			LineColor:         22,
			LegalColor:        120,
			CursorColorFG:     2,
			CursorColorBG:     4,
			LastPlayedColorBG: 3,
		},
		Symbols: ConfigSymbols{
			BlackDisc:   '●',
			WhiteDisc:   '●',
			BoardSquare: '·',
			Legal:       '∘',
			Cursor:      '□',
		},
	}

	DefaultConfig = Config{
		Theme: DefaultTheme,
		Match: MatchConfig{
			Host:         "127.0.0.1",
			Port:         3000,
			PortAttempts: 20,
			PlayerName:   "user",
			TimeBudgetMs: 6000000,
			LocalColor:   "black",
			Declare:      "peer",
		},
		Peer: PeerConfig{
			Path:   "./target/release/reversi",
			Args:   []string{},
			Launch: true,
		},
		Record: RecordConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
