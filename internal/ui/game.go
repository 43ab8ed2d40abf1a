// Package ui is the interactive terminal front end: the human plays White
// against the engine, typing moves like "e2e4".
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/hailam/chessai/internal/engine"
	"github.com/hailam/chessai/internal/game"
	"github.com/hailam/chessai/internal/rules"
	"github.com/hailam/chessai/internal/storage"
)

// currentGameID is the storage key of the game in progress.
const currentGameID = "current"

// Game is a terminal chess session.
type Game struct {
	game *game.Game

	// Game settings
	username string

	// Storage (nil runs without persistence)
	storage *storage.Storage
	prefs   *storage.UserPreferences

	in  *bufio.Scanner
	out io.Writer

	// Game state
	gameOver   bool
	gameResult string
}

// NewGame creates a session playing with eng. The previous game in progress
// is resumed from store when there is one.
func NewGame(eng *engine.Engine, store *storage.Storage, in io.Reader, out io.Writer) *Game {
	g := &Game{
		username: "Player",
		storage:  store,
		in:       bufio.NewScanner(in),
		out:      out,
	}

	g.loadPreferences(eng)
	g.game = g.loadGame(eng)
	g.gameResult, g.gameOver = g.result()

	return g
}

// loadPreferences loads user preferences from storage.
func (g *Game) loadPreferences(eng *engine.Engine) {
	if g.storage == nil {
		g.prefs = storage.DefaultPreferences()
		g.prefs.Difficulty = eng.Difficulty().String()
		return
	}

	var err error
	g.prefs, err = g.storage.LoadPreferences()
	if err != nil {
		log.Printf("Warning: Failed to load preferences: %v", err)
		g.prefs = storage.DefaultPreferences()
	}

	// Apply preferences
	g.username = g.prefs.Username
	if d, err := engine.ParseDifficulty(g.prefs.Difficulty); err == nil {
		eng.SetDifficulty(d)
	}
}

// savePreferences saves current preferences to storage.
func (g *Game) savePreferences() {
	if g.storage == nil {
		return
	}

	g.prefs.Username = g.username
	g.prefs.Difficulty = g.game.Engine().Difficulty().String()
	g.prefs.LastPlayed = time.Now()

	if err := g.storage.SavePreferences(g.prefs); err != nil {
		log.Printf("Warning: Failed to save preferences: %v", err)
	}
}

// loadGame resumes the saved game, or starts a new one.
func (g *Game) loadGame(eng *engine.Engine) *game.Game {
	if g.storage == nil {
		return game.New(eng)
	}

	saved, err := g.storage.LoadGame(currentGameID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Warning: Failed to load saved game: %v", err)
		}
		return game.New(eng)
	}

	resumed, err := game.Restore(eng, game.Snapshot{StartFEN: saved.StartFEN, Moves: saved.Moves})
	if err != nil {
		log.Printf("Warning: Saved game does not replay: %v", err)
		return game.New(eng)
	}
	return resumed
}

// saveGame stores the game in progress. Finished games are removed.
func (g *Game) saveGame() {
	if g.storage == nil {
		return
	}

	if g.gameOver {
		if err := g.storage.DeleteGame(currentGameID); err != nil {
			log.Printf("Warning: Failed to delete saved game: %v", err)
		}
		return
	}

	snap := g.game.Snapshot()
	err := g.storage.SaveGame(storage.SavedGame{
		ID:         currentGameID,
		StartFEN:   snap.StartFEN,
		Moves:      snap.Moves,
		Difficulty: g.game.Engine().Difficulty().String(),
	})
	if err != nil {
		log.Printf("Warning: Failed to save game: %v", err)
	}
}

// Run reads commands until "quit" or end of input.
func (g *Game) Run() error {
	g.checkFirstLaunch()
	g.renderBoard()

	for {
		g.printf("> ")
		if !g.in.Scan() {
			break
		}

		fields := strings.Fields(strings.ToLower(g.in.Text()))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			g.Close()
			return nil
		case "help", "?":
			g.printHelp()
		case "new":
			g.NewGameAction()
		case "undo":
			g.UndoAction()
		case "board":
			g.renderBoard()
		case "moves":
			if len(fields) < 2 {
				g.printf("usage: moves <square>\n")
				continue
			}
			g.showMoves(fields[1])
		case "level":
			if len(fields) < 2 {
				g.printf("Level: %s\n", g.game.Engine().Difficulty())
				continue
			}
			g.SetDifficulty(fields[1])
		case "stats":
			g.showStats()
		default:
			g.playerMove(strings.Join(fields, ""))
		}
	}

	g.Close()
	return g.in.Err()
}

func (g *Game) printf(format string, args ...any) {
	fmt.Fprintf(g.out, format, args...)
}

func (g *Game) printHelp() {
	g.printf(`Commands:
  e2e4          play a move (from and to squares)
  moves <sq>    list the moves of the piece on a square
  undo          take back your last move and the reply
  new           start a new game
  level <name>  set difficulty: easy, medium, hard, expert
  board         show the board
  stats         show your results
  quit          save and exit
`)
}

// playerMove plays the human's move and the engine's reply.
func (g *Game) playerMove(input string) {
	if len(input) != 4 {
		g.printf("Unknown command %q (type help)\n", input)
		return
	}
	from, err := rules.ParseSquare(input[:2])
	if err != nil {
		g.printf("%v\n", err)
		return
	}
	to, err := rules.ParseSquare(input[2:])
	if err != nil {
		g.printf("%v\n", err)
		return
	}

	start := time.Now()
	human, reply, err := g.game.Play(from, to)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrGameOver):
			g.printf("The game is over: %s. Type new to play again.\n", g.gameResult)
		case errors.Is(err, rules.ErrIllegalMove):
			g.printf("Illegal move: %s\n", input)
		default:
			log.Printf("ERROR: engine failed: %v", err)
			g.printf("The engine failed, your move was taken back: %v\n", err)
		}
		return
	}

	san, err := g.game.SAN()
	if err != nil {
		log.Printf("Warning: Failed to render move history: %v", err)
	}
	g.printf("You played %s\n", moveName(san, len(g.game.History())-moveCount(reply), human))
	if reply.Move != rules.NoMove {
		g.printf("Computer played %s (%.1fs)\n", moveName(san, len(g.game.History())-1, reply), time.Since(start).Seconds())
	}
	g.checkGameEnd()

	g.saveGame()
	g.renderBoard()
}

// moveName returns the SAN of ply i, falling back to UCI notation.
func moveName(san []string, i int, p rules.Played) string {
	if i >= 0 && i < len(san) {
		return san[i]
	}
	return p.Move.String()
}

func moveCount(p rules.Played) int {
	if p.Move == rules.NoMove {
		return 1
	}
	return 2
}

// result describes a finished game; ok is false while play continues.
func (g *Game) result() (text string, ok bool) {
	switch g.game.Status() {
	case game.Checkmate:
		if g.game.Outcome() == game.HumanWon {
			return "White wins by checkmate!", true
		}
		return "Black wins by checkmate!", true
	case game.Stalemate:
		return "Draw by stalemate", true
	case game.Draw:
		return "Draw", true
	}
	return "", false
}

// checkGameEnd announces check or the end of the game, recording the result
// once.
func (g *Game) checkGameEnd() {
	text, over := g.result()
	if !over {
		if g.game.Status() == game.Check {
			g.printf("Check!\n")
		}
		return
	}
	if g.gameOver {
		return
	}

	g.gameOver = true
	g.gameResult = text
	g.printf("%s\n", text)
	g.recordGame()
}

func (g *Game) recordGame() {
	if g.storage == nil {
		return
	}

	outcome := g.game.Outcome()
	err := g.storage.RecordGame(storage.GameResult{
		Won:        outcome == game.HumanWon,
		Draw:       outcome == game.Drawn,
		Difficulty: g.game.Engine().Difficulty().String(),
		Duration:   g.game.Duration(),
	})
	if err != nil {
		log.Printf("Warning: Failed to record game: %v", err)
	}
}

// NewGameAction resets the game to the starting position.
func (g *Game) NewGameAction() {
	g.game.Reset()
	g.gameOver = false
	g.gameResult = ""
	g.saveGame()
	g.renderBoard()
}

// UndoAction takes back the last move pair.
func (g *Game) UndoAction() {
	if err := g.game.Undo(); err != nil {
		g.printf("%v\n", err)
		return
	}
	g.gameOver = false
	g.gameResult = ""
	g.saveGame()
	g.renderBoard()
}

func (g *Game) showMoves(square string) {
	sq, err := rules.ParseSquare(square)
	if err != nil {
		g.printf("%v\n", err)
		return
	}

	targets := g.game.PossibleMoves(sq)
	if len(targets) == 0 {
		g.printf("No moves from %s\n", sq)
		return
	}
	names := make([]string, len(targets))
	for i, to := range targets {
		names[i] = to.String()
	}
	g.printf("%s: %s\n", sq, strings.Join(names, " "))
}

// SetDifficulty changes the engine level and remembers it.
func (g *Game) SetDifficulty(label string) {
	d, err := engine.ParseDifficulty(label)
	if err != nil {
		g.printf("%v\n", err)
		return
	}
	g.game.Engine().SetDifficulty(d)
	g.savePreferences()
	g.printf("Level: %s (depth %d)\n", d, d.Depth())
}

func (g *Game) showStats() {
	if g.storage == nil {
		g.printf("No statistics without storage\n")
		return
	}

	stats, err := g.storage.LoadStats()
	if err != nil {
		g.printf("%v\n", err)
		return
	}
	g.printf("%s: %d played, %d won, %d lost, %d drawn (%.0f%% wins)\n",
		g.username, stats.GamesPlayed, stats.Wins, stats.Losses, stats.Draws, stats.GetWinRate())
	if stats.LongestWinStrk > 0 {
		g.printf("Longest winning streak: %d\n", stats.LongestWinStrk)
	}
}

// GameOver reports whether the current game has ended.
func (g *Game) GameOver() bool {
	return g.gameOver
}

// GameResult describes how the game ended.
func (g *Game) GameResult() string {
	return g.gameResult
}

// Close saves the session.
func (g *Game) Close() {
	g.saveGame()
	g.savePreferences()
}
