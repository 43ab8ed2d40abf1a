package ui

import (
	"log"
	"strings"
)

// maxNameLength bounds the name typed at first launch.
const maxNameLength = 20

// checkFirstLaunch asks for the player's name on first launch and greets
// returning players.
func (g *Game) checkFirstLaunch() {
	if g.storage == nil {
		return
	}

	isFirst, err := g.storage.IsFirstLaunch()
	if err != nil {
		log.Printf("Warning: Failed to check first launch: %v", err)
		return
	}

	if !isFirst {
		g.printf("Welcome back, %s!\n", g.username)
		return
	}

	g.printf("Welcome to ChessAI! You play White.\n")
	g.printf("Enter your name: ")
	if g.in.Scan() {
		if name := strings.TrimSpace(g.in.Text()); name != "" {
			if len(name) > maxNameLength {
				name = name[:maxNameLength]
			}
			g.username = name
		}
	}
	g.printf("Hello, %s. Type help for the commands.\n", g.username)

	if err := g.storage.MarkFirstLaunchComplete(); err != nil {
		log.Printf("Warning: Failed to mark first launch complete: %v", err)
	}
	g.savePreferences()
}
