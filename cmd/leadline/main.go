// cmd/leadline/main.go
//
// Entry point for the leadline TUI.
//
// Flow:
// 1. Load .env overrides, if a .env file exists next to the binary's
//    working directory
// 2. Initialize the .leadline folder (config + logs) in the cwd
// 3. Launch the TUI against the configured pipeline service

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/kestrelhq/leadline/internal/config"
	"github.com/kestrelhq/leadline/internal/tui"
)

func main() {
	// A missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.New(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .leadline directory: %v\n", err)
		os.Exit(1)
	}

	app, err := tui.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting leadline: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
