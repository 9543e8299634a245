package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ragconsole/internal/action"
	"ragconsole/internal/backend"
	"ragconsole/internal/config"
	"ragconsole/internal/logger"
	"ragconsole/internal/transcript"
)

type appConfig struct {
	baseURL   string
	timeout   time.Duration
	statusTTL time.Duration
	logFile   string
	altScreen bool
	mouse     bool
	dotenv    bool
}

func parseFlags() appConfig {
	env, dotenv := config.Load()

	timeoutSeconds := env.Backend.TimeoutSeconds
	statusTTLSeconds := env.Backend.StatusTTLSeconds
	cfg := appConfig{dotenv: dotenv}
	flag.StringVar(&cfg.baseURL, "base-url", env.Backend.BaseURL, "Retrieval backend base URL")
	flag.IntVar(&timeoutSeconds, "timeout", timeoutSeconds, "Per-request timeout seconds")
	flag.IntVar(&statusTTLSeconds, "status-ttl", statusTTLSeconds, "Vector store status cache seconds (0 disables)")
	flag.StringVar(&cfg.logFile, "log-file", env.Log.FilePath, "Log file path (empty disables logging)")
	flag.BoolVar(&cfg.altScreen, "alt-screen", env.UI.AltScreen, "Use alternate screen buffer")
	flag.BoolVar(&cfg.mouse, "mouse", env.UI.Mouse, "Enable mouse scrolling and dialog clicks")
	flag.Parse()

	env.Backend.BaseURL = cfg.baseURL
	env.Backend.TimeoutSeconds = timeoutSeconds
	env.Backend.StatusTTLSeconds = statusTTLSeconds
	env.Log.FilePath = cfg.logFile
	env.Normalize()

	cfg.baseURL = env.Backend.BaseURL
	cfg.timeout = env.Timeout()
	cfg.statusTTL = env.StatusTTL()
	cfg.logFile = env.Log.FilePath
	return cfg
}

// exportTranscript writes the transcript as JSON to path, creating parent
// directories as needed.
func exportTranscript(tr *transcript.Transcript, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := tr.Export(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	return f.Close()
}

func main() {
	cfg := parseFlags()
	log := logger.New(logger.Options{FilePath: cfg.logFile})
	defer func() { _ = log.Sync() }()
	log.Info(logModule, "starting", map[string]interface{}{
		"base_url":   cfg.baseURL,
		"timeout":    cfg.timeout.String(),
		"status_ttl": cfg.statusTTL.String(),
		"dotenv":     cfg.dotenv,
	})

	client := backend.New(cfg.baseURL, backend.WithTimeout(cfg.timeout), backend.WithLogger(log))
	exec := action.NewExecutor(transcript.New(), client,
		action.WithLogger(log),
		action.WithStatusTTL(cfg.statusTTL),
	)

	opts := []tea.ProgramOption{}
	if cfg.altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(newModel(cfg, exec, log), opts...)
	if _, err := p.Run(); err != nil {
		log.Error(logModule, "program exited", map[string]interface{}{"error": err})
		fmt.Fprintf(os.Stderr, "ragconsole fatal error: %v\n", err)
		os.Exit(1)
	}
}
