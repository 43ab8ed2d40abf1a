// Package server exposes human-versus-AI games over a JSON HTTP API.
package server

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hailam/chessai/internal/engine"
	"github.com/hailam/chessai/internal/game"
	"github.com/hailam/chessai/internal/rules"
	"github.com/hailam/chessai/internal/storage"
)

var errUnknownGame = errors.New("unknown game")

// session is one game plus the bookkeeping the API reports.
type session struct {
	mu       sync.Mutex
	id       string
	game     *game.Game
	lastAI   rules.Move
	recorded bool
}

// Server holds the games in progress.
type Server struct {
	newEngine func() *engine.Engine
	store     *storage.Storage // may be nil

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a server. newEngine is called once per game; store may be nil
// to keep games in memory only.
func New(newEngine func() *engine.Engine, store *storage.Storage) *Server {
	return &Server{
		newEngine: newEngine,
		store:     store,
		sessions:  make(map[string]*session),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", s.health)
	router.POST("/games", s.createGame)
	router.GET("/games/:id", s.getGame)
	router.GET("/games/:id/moves", s.possibleMoves)
	router.POST("/games/:id/moves", s.playMove)
	router.POST("/games/:id/undo", s.undo)
	router.DELETE("/games/:id", s.deleteGame)

	return router
}

// Restore reloads every game saved in the store. Games that no longer replay
// are logged and skipped.
func (s *Server) Restore() error {
	if s.store == nil {
		return nil
	}

	ids, err := s.store.ListGames()
	if err != nil {
		return err
	}

	restored := 0
	for _, id := range ids {
		saved, err := s.store.LoadGame(id)
		if err != nil {
			log.Printf("restore %s: %v", id, err)
			continue
		}

		eng := s.newEngine()
		if d, err := engine.ParseDifficulty(saved.Difficulty); err == nil {
			eng.SetDifficulty(d)
		}
		g, err := game.Restore(eng, game.Snapshot{StartFEN: saved.StartFEN, Moves: saved.Moves})
		if err != nil {
			log.Printf("restore %s: %v", id, err)
			continue
		}

		s.mu.Lock()
		s.sessions[id] = &session{id: id, game: g, recorded: g.Status().IsOver()}
		s.mu.Unlock()
		restored++
	}

	log.Printf("restored %d of %d saved games", restored, len(ids))
	return nil
}

func (s *Server) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, errUnknownGame
	}
	return sess, nil
}

// persist saves the game and records its result once it has ended.
// Call with sess.mu held.
func (s *Server) persist(sess *session) {
	if s.store == nil {
		return
	}

	snap := sess.game.Snapshot()
	err := s.store.SaveGame(storage.SavedGame{
		ID:         sess.id,
		StartFEN:   snap.StartFEN,
		Moves:      snap.Moves,
		Difficulty: sess.game.Engine().Difficulty().String(),
	})
	if err != nil {
		log.Printf("save game %s: %v", sess.id, err)
	}

	outcome := sess.game.Outcome()
	if outcome == game.Ongoing || sess.recorded {
		return
	}
	sess.recorded = true
	err = s.store.RecordGame(storage.GameResult{
		Won:        outcome == game.HumanWon,
		Draw:       outcome == game.Drawn,
		Difficulty: sess.game.Engine().Difficulty().String(),
		Duration:   sess.game.Duration(),
	})
	if err != nil {
		log.Printf("record game %s: %v", sess.id, err)
	}
}

func (s *Server) health(c *gin.Context) {
	s.mu.Lock()
	n := len(s.sessions)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"status": "ok", "games": n})
}

func newID() string {
	return uuid.NewString()
}
