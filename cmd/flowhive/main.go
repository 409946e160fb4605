package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eddiemuhoro/flowhive/internal/api"
	"github.com/eddiemuhoro/flowhive/internal/app"
	"github.com/eddiemuhoro/flowhive/internal/config"
	"github.com/eddiemuhoro/flowhive/internal/nav"
	"github.com/eddiemuhoro/flowhive/internal/notify"
	"github.com/eddiemuhoro/flowhive/internal/realtime"
	"github.com/eddiemuhoro/flowhive/internal/session"
	"github.com/eddiemuhoro/flowhive/internal/state"
	"github.com/eddiemuhoro/flowhive/internal/workspace"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "Path to the client config file")
	apiURL := flag.String("api", "", "API base URL (overrides config)")
	wsURL := flag.String("ws", "", "Realtime base URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *wsURL != "" {
		cfg.Realtime.BaseURL = *wsURL
	}

	// The TUI owns the terminal; keep log output out of its way.
	logFile, err := os.OpenFile(filepath.Join(os.TempDir(), "flowhive.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	persist := state.NewStore(cfg.State.Dir)
	client := api.New(cfg.API.BaseURL, cfg.API.Timeout)

	sessions := session.NewStore(client, persist)
	workspaces := workspace.NewStore(client, persist)
	sessions.OnSessionCleared(workspaces.ClearWorkspace)

	conn := realtime.NewManager(realtime.Config{
		BaseURL:     cfg.Realtime.BaseURL,
		BaseDelay:   cfg.Realtime.BaseDelay,
		MaxAttempts: cfg.Realtime.MaxAttempts,
	})
	sessions.OnSessionCleared(conn.Disconnect)

	center := notify.NewCenter()
	center.Subscribe(conn)

	guard := nav.NewGuard(sessions, workspaces)

	m := app.New(sessions, workspaces, guard, conn, center)
	p := tea.NewProgram(m, tea.WithAltScreen())

	center.SetListener(func(n notify.Notification) {
		p.Send(app.NotificationMsg{Notification: n})
	})
	conn.SetStatusListener(func(s realtime.Status) {
		p.Send(app.ConnStatusMsg{Status: s})
	})
	client.SetUnauthorizedHandler(func() {
		// Spent token: drop the session and land back on login.
		sessions.Logout()
		p.Send(app.NavigateLogin())
	})

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "flowhive", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "flowhive", "config.yaml")
}
