package main

import (
	"log"

	"github.com/hailam/chessai/internal/config"
	"github.com/hailam/chessai/internal/server"
	"github.com/hailam/chessai/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	dbDir, err := storage.GetDatabaseDir(cfg.DataDir)
	if err != nil {
		log.Fatalf("data directory: %v", err)
	}
	store, err := storage.Open(dbDir)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer store.Close()

	srv := server.New(cfg.NewEngine, store)
	if err := srv.Restore(); err != nil {
		log.Printf("restore games: %v", err)
	}

	log.Printf("listening on %s (difficulty %s, %d workers)", cfg.Addr, cfg.Difficulty, cfg.Workers)
	if err := srv.Router().Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
