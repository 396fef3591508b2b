package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/spoolview/internal/spooler"
)

// Config captures how spoolview reaches the print spooler.
type Config struct {
	Backend        string
	Server         string
	PrinterURI     string
	RequestTimeout time.Duration
	LogFile        string
}

const (
	defaultConfigPath     = "~/.config/spoolview/config.toml"
	defaultLogFile        = "~/.local/state/spoolview/spoolview.log"
	defaultServer         = "localhost:631"
	defaultRequestTimeout = 5 * time.Second
)

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Backend:        spooler.BackendAuto,
		Server:         defaultServer,
		RequestTimeout: defaultRequestTimeout,
		LogFile:        mustExpand(defaultLogFile),
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Backend        string `toml:"backend"`
		Server         string `toml:"server"`
		PrinterURI     string `toml:"printer_uri"`
		RequestTimeout string `toml:"request_timeout"`
		LogFile        string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if backend := strings.ToLower(strings.TrimSpace(raw.Backend)); backend != "" {
		switch backend {
		case spooler.BackendAuto, spooler.BackendIPP, spooler.BackendWinspool:
			cfg.Backend = backend
		default:
			return Config{}, fmt.Errorf("parse config: unknown backend %q", raw.Backend)
		}
	}

	if server := strings.TrimSpace(raw.Server); server != "" {
		cfg.Server = server
	}
	cfg.PrinterURI = strings.TrimSpace(raw.PrinterURI)

	if timeout := strings.TrimSpace(raw.RequestTimeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: request_timeout: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("parse config: request_timeout must be positive, got %s", d)
		}
		cfg.RequestTimeout = d
	}

	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}

	return cfg, nil
}

// Spooler returns the backend settings derived from the config.
func (c Config) Spooler() spooler.Settings {
	return spooler.Settings{
		Backend:    c.Backend,
		Server:     c.Server,
		PrinterURI: c.PrinterURI,
		Timeout:    c.RequestTimeout,
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
