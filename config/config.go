package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"othello-arbiter/engine"
)

var (
	appDir  = "othello-arbiter"
	cfgFile = appDir + "/config.json"
)

// EnvPrefix is prepended to environment overrides, e.g. OTHELLO_MATCH_PORT.
const EnvPrefix = "OTHELLO"

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

type ConfigColors struct {
	BoardColor        int `json:"board" mapstructure:"board"`
	BoardColorAlt     int `json:"board_alt" mapstructure:"board_alt"`
	BlackColor        int `json:"black" mapstructure:"black"`
	WhiteColor        int `json:"white" mapstructure:"white"`
	LineColor         int `json:"line" mapstructure:"line"`
	LegalColor        int `json:"legal" mapstructure:"legal"`
	CursorColorFG     int `json:"cursor_fg" mapstructure:"cursor_fg"`
	CursorColorBG     int `json:"cursor_bg" mapstructure:"cursor_bg"`
	LastPlayedColorBG int `json:"last_played_bg" mapstructure:"last_played_bg"`
}

type ConfigSymbols struct {
	BlackDisc   rune `json:"black" mapstructure:"black"`
	WhiteDisc   rune `json:"white" mapstructure:"white"`
	BoardSquare rune `json:"board" mapstructure:"board"`
	Legal       rune `json:"legal" mapstructure:"legal"`
	Cursor      rune `json:"cursor" mapstructure:"cursor"`
}

type Theme struct {
	DrawCursorBackground     bool          `json:"draw_cursor_bg" mapstructure:"draw_cursor_bg"`
	DrawLastPlayedBackground bool          `json:"draw_last_played_bg" mapstructure:"draw_last_played_bg"`
	ShowLegalMoves           bool          `json:"show_legal_moves" mapstructure:"show_legal_moves"`
	FullWidthLetters         bool          `json:"fullwidth_letters" mapstructure:"fullwidth_letters"`
	Colors                   ConfigColors  `json:"colors" mapstructure:"colors"`
	Symbols                  ConfigSymbols `json:"symbols" mapstructure:"symbols"`
}

// MatchConfig holds how the arbiter meets the peer.
type MatchConfig struct {
	Host         string `json:"host" mapstructure:"host"`
	Port         int    `json:"port" mapstructure:"port"`
	PortAttempts int    `json:"port_attempts" mapstructure:"port_attempts"`
	PlayerName   string `json:"player_name" mapstructure:"player_name"`
	TimeBudgetMs int64  `json:"time_budget_ms" mapstructure:"time_budget_ms"`
	LocalColor   string `json:"local_color" mapstructure:"local_color"`
	Declare      string `json:"declare" mapstructure:"declare"`
}

// PeerConfig describes the peer engine binary the arbiter may launch.
type PeerConfig struct {
	Path   string   `json:"path" mapstructure:"path"`
	Args   []string `json:"args" mapstructure:"args"`
	Launch bool     `json:"launch" mapstructure:"launch"`
}

// RecordConfig controls SGF game records.
type RecordConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Dir     string `json:"dir" mapstructure:"dir"` // empty means the XDG data dir
}

// SpectateConfig controls the read-only HTTP surface. Empty Addr disables it.
type SpectateConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

type LogConfig struct {
	File  string `json:"file" mapstructure:"file"` // empty means the XDG data dir
	Level string `json:"level" mapstructure:"level"`
}

type Config struct {
	Theme    Theme          `json:"theme" mapstructure:"theme"`
	Match    MatchConfig    `json:"match" mapstructure:"match"`
	Peer     PeerConfig     `json:"peer" mapstructure:"peer"`
	Record   RecordConfig   `json:"record" mapstructure:"record"`
	Spectate SpectateConfig `json:"spectate" mapstructure:"spectate"`
	Log      LogConfig      `json:"log" mapstructure:"log"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"host":     "match.host",
	"port":     "match.port",
	"name":     "match.player_name",
	"budget":   "match.time_budget_ms",
	"color":    "match.local_color",
	"declare":  "match.declare",
	"peer":     "peer.path",
	"launch":   "peer.launch",
	"record":   "record.enabled",
	"spectate": "spectate.addr",
	"log":      "log.file",
	"level":    "log.level",
}

// InitConfig loads the config file from the XDG config dirs if present,
// then applies environment overrides and any changed flags.
func InitConfig(flags *pflag.FlagSet) (*Config, error) {
	path := ""
	if absPath, err := xdg.SearchConfigFile(cfgFile); err == nil {
		path = absPath
	}
	return Load(path, flags)
}

// Load layers DefaultConfig, the file at path (skipped when empty), OTHELLO_*
// environment variables and changed flags, in increasing precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	defaults, err := json.Marshal(DefaultConfig)
	if err != nil {
		return nil, err
	}
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	for _, r := range []rune{c.Theme.Symbols.BlackDisc, c.Theme.Symbols.WhiteDisc, c.Theme.Symbols.BoardSquare, c.Theme.Symbols.Legal} {
		if r < 32 || (r >= 127 && r <= 159) {
			return &InvalidConfig{"Unicode characters 1-31 and 127-159 are not allowed"}
		}
	}
	if c.Match.Port < 0 || c.Match.Port > 65535 {
		return &InvalidConfig{fmt.Sprintf("match.port %d is not a TCP port", c.Match.Port)}
	}
	if c.Match.PortAttempts < 1 {
		return &InvalidConfig{"match.port_attempts must be at least 1"}
	}
	if c.Match.TimeBudgetMs <= 0 {
		return &InvalidConfig{"match.time_budget_ms must be positive"}
	}
	if strings.TrimSpace(c.Match.PlayerName) == "" || strings.ContainsAny(c.Match.PlayerName, " \t\r\n") {
		return &InvalidConfig{"match.player_name must be a single word"}
	}
	if _, err := engine.ParseColor(c.Match.LocalColor); err != nil {
		return &InvalidConfig{"match.local_color: " + err.Error()}
	}
	if _, err := engine.ParseDeclaration(c.Match.Declare); err != nil {
		return &InvalidConfig{"match.declare: " + err.Error()}
	}
	if c.Peer.Launch && c.Peer.Path == "" {
		return &InvalidConfig{"peer.path is required when peer.launch is set"}
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return &InvalidConfig{fmt.Sprintf("log.level %q is not a log level", c.Log.Level)}
	}
	return nil
}

// MatchSettings converts the match section into the session configuration.
func (c *Config) MatchSettings() (engine.MatchConfig, error) {
	color, err := engine.ParseColor(c.Match.LocalColor)
	if err != nil {
		return engine.MatchConfig{}, err
	}
	decl, err := engine.ParseDeclaration(c.Match.Declare)
	if err != nil {
		return engine.MatchConfig{}, err
	}
	return engine.MatchConfig{
		LocalColor:  color,
		Declaration: decl,
		Name:        c.Match.PlayerName,
		TimeBudget:  c.Match.TimeBudgetMs,
	}, nil
}

// RecordDir returns the directory game records are written to.
func (c *Config) RecordDir() string {
	if c.Record.Dir != "" {
		return c.Record.Dir
	}
	return filepath.Join(xdg.DataHome, appDir, "records")
}

// LogPath returns the log file path, creating its directory.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.Log.File), 0755); err != nil {
			return "", err
		}
		return c.Log.File, nil
	}
	return xdg.DataFile(appDir + "/arbiter.log")
}

func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return saveCfgFile(absPath, c, 0664)
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}
