// ChessAI - play chess against the computer in the terminal
package main

import (
	"log"
	"os"

	"github.com/hailam/chessai/internal/config"
	"github.com/hailam/chessai/internal/storage"
	"github.com/hailam/chessai/internal/ui"
)

func main() {
	log.SetPrefix("chessai: ")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Play without persistence when the database cannot be opened.
	var store *storage.Storage
	if dbDir, err := storage.GetDatabaseDir(cfg.DataDir); err != nil {
		log.Printf("Warning: Failed to locate data directory: %v", err)
	} else if store, err = storage.Open(dbDir); err != nil {
		log.Printf("Warning: Failed to initialize storage: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	game := ui.NewGame(cfg.NewEngine(), store, os.Stdin, os.Stdout)
	if err := game.Run(); err != nil {
		log.Printf("reading input: %v", err)
	}
}
