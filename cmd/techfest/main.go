// cmd/techfest/main.go
//
// This is the entry point for the festival companion.
// When you run `techfest` from any directory, this is what executes.
//
// Flow:
// 1. Initialize the .techfest folder in the working directory
// 2. Build the TUI from config and festival content
// 3. Run it until the user quits

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/techfest/internal/config"
	"github.com/kingrea/techfest/internal/tui"
)

func main() {
	// The working directory is the "project" the companion runs in
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitDir(cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s directory: %v\n", config.Dir, err)
		os.Exit(1)
	}

	app, err := tui.NewApp(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting techfest: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
