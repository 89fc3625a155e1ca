// Package config loads the optional netcli settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/psaab/netcli/pkg/logging"
)

// Backends accepted for the backend setting.
const (
	BackendNetlink = "netlink"
	BackendMemory  = "memory"
)

// Settings are the user-tunable defaults of the CLI.
type Settings struct {
	HistoryFile string `toml:"history_file"`
	MaxWidth    int    `toml:"max_width"`
	Color       bool   `toml:"color"`
	LogLevel    string `toml:"log_level"`
	Backend     string `toml:"backend"`

	// SyslogServer receives a copy of every log record when set, as
	// "host" or "host:port".
	SyslogServer   string `toml:"syslog_server"`
	SyslogSeverity string `toml:"syslog_severity"`

	// MetricsFile is rewritten with Prometheus metrics when the CLI exits.
	MetricsFile string `toml:"metrics_file"`

	// StartupConfig is a file of set commands replayed at start. With
	// SaveOnExit it is rewritten from the running configuration on exit.
	StartupConfig string `toml:"startup_config"`
	SaveOnExit    bool   `toml:"save_on_exit"`
}

// Default returns the settings used when no file overrides them.
func Default() *Settings {
	return &Settings{
		HistoryFile: filepath.Join(home(), ".netcli_history"),
		MaxWidth:    80,
		Color:       true,
		LogLevel:    "info",
		Backend:     BackendNetlink,
	}
}

// DefaultPath is $HOME/.netcli.toml.
func DefaultPath() string {
	return filepath.Join(home(), ".netcli.toml")
}

// Load reads path over the defaults. A missing file is an error only when
// required is set.
func Load(path string, required bool) (*Settings, error) {
	s := Default()
	md, err := toml.DecodeFile(os.ExpandEnv(path), s)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		slog.Warn("unknown settings ignored", "file", path, "keys", fmt.Sprint(keys))
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	s.HistoryFile = os.ExpandEnv(s.HistoryFile)
	s.MetricsFile = os.ExpandEnv(s.MetricsFile)
	s.StartupConfig = os.ExpandEnv(s.StartupConfig)
	return s, nil
}

// Validate checks field values.
func (s *Settings) Validate() error {
	switch s.Backend {
	case BackendNetlink, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	if s.MaxWidth < 20 {
		return fmt.Errorf("max_width %d is below 20", s.MaxWidth)
	}
	if s.SaveOnExit && s.StartupConfig == "" {
		return errors.New("save_on_exit requires startup_config")
	}
	if _, err := parseLevel(s.LogLevel); err != nil {
		return err
	}
	if s.SyslogSeverity != "" {
		if _, ok := logging.ParseSeverity(s.SyslogSeverity); !ok {
			return fmt.Errorf("unknown syslog_severity %q", s.SyslogSeverity)
		}
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (s *Settings) Level() slog.Level {
	l, err := parseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", name)
	}
	return l, nil
}

func home() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}
