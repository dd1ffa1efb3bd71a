package util

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is looked up in $LOX_HOME when no -config flag is given.
const ConfigFileName = "lox.toml"

type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`
	LoxHome   string `toml:"-"`

	DebugJsonAST bool `toml:"debug_ast"`
	DebugTxtAST  bool `toml:"print_ast"`

	Log         LogConfig         `toml:"log"`
	Repl        ReplConfig        `toml:"repl"`
	Interpreter InterpreterConfig `toml:"interpreter"`
	Journal     JournalConfig     `toml:"journal"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type ReplConfig struct {
	Prompt      string `toml:"prompt"`
	HistoryFile string `toml:"history_file"`
}

type InterpreterConfig struct {
	MaxCallDepth int `toml:"max_call_depth"`
}

// JournalConfig selects the database that records runs. An empty Driver
// disables the journal.
type JournalConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Log: LogConfig{
			Level: "none",
		},
		Repl: ReplConfig{
			Prompt:      "> ",
			HistoryFile: "~/.lox_history",
		},
		Interpreter: InterpreterConfig{
			MaxCallDepth: 10000,
		},
	}
}

// ConfigPath returns the file to load: the explicit path if set, otherwise
// lox.toml under loxHome when that file exists, otherwise "".
func ConfigPath(explicit, loxHome string) string {
	if explicit != "" {
		return explicit
	}
	if loxHome == "" {
		return ""
	}
	candidate := filepath.Join(loxHome, ConfigFileName)
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}

// LoadConfig overlays the TOML file at path onto the defaults. An empty path
// yields the defaults unchanged.
func LoadConfig(path string) (Configuration, error) {
	cfg := DefaultConfiguration()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config '%s': %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key",
			slog.String("file", path),
			slog.String("key", key.String()))
	}
	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
