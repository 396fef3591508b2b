package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/spoolview/internal/config"
	"github.com/five82/spoolview/internal/prefs"
	"github.com/five82/spoolview/internal/spooler"
	"github.com/five82/spoolview/internal/state"
	"github.com/five82/spoolview/internal/ui"
)

// Options configure the spoolview application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/spoolview/prefs.toml
}

// Run opens the job list window and blocks until it is closed or the context
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	closeLog := setupLogging(cfg.LogFile, log.Default())
	defer closeLog()

	opener, err := spooler.New(cfg.Spooler())
	if err != nil {
		return fmt.Errorf("init spooler backend: %w", err)
	}
	log.Printf("spoolview starting (backend %s)", spooler.ResolveBackend(cfg.Backend, runtime.GOOS))

	store := &state.Store{}

	return ui.Run(ctx, ui.Options{
		Query:     NewQuery(opener, cfg.RequestTimeout),
		Store:     store,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
	})
}

// setupLogging points logger at path for the lifetime of the window; the
// terminal itself belongs to the UI. Logging is dropped when the file cannot
// be opened.
func setupLogging(path string, logger *log.Logger) func() {
	if path == "" {
		logger.SetOutput(io.Discard)
		return func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.SetOutput(io.Discard)
		return func() {}
	}
	f, err := tea.LogToFileWith(path, "spoolview", logger)
	if err != nil {
		logger.SetOutput(io.Discard)
		return func() {}
	}
	return func() { _ = f.Close() }
}
