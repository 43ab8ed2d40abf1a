// Package game is the human-versus-computer game controller. The human plays
// White and the engine plays Black.
package game

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hailam/chessai/internal/engine"
	"github.com/hailam/chessai/internal/rules"
)

// Sides of the board.
const (
	HumanColor = rules.White
	AIColor    = rules.Black
)

var (
	// ErrGameOver is returned for moves attempted after the game has ended.
	ErrGameOver = errors.New("game is over")

	// ErrWrongTurn is returned when a side tries to move out of turn.
	ErrWrongTurn = errors.New("not this side's turn")

	// ErrNothingToUndo is returned by Undo at the starting position.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// Status is the state of the game for the side to move.
type Status int

const (
	Playing Status = iota
	Check
	Checkmate
	Stalemate
	Draw
)

var statusNames = [...]string{
	Playing:   "playing",
	Check:     "check",
	Checkmate: "checkmate",
	Stalemate: "stalemate",
	Draw:      "draw",
}

func (s Status) String() string {
	if s < Playing || s > Draw {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// IsOver reports whether no further moves can be played.
func (s Status) IsOver() bool {
	return s == Checkmate || s == Stalemate || s == Draw
}

// Outcome is the result of a finished game from the human's side.
type Outcome int

const (
	Ongoing Outcome = iota
	HumanWon
	AIWon
	Drawn
)

// Game holds one game in progress. It is not safe for concurrent use.
type Game struct {
	engine   *engine.Engine
	search   func(*rules.Position) (rules.Move, error)
	pos      *rules.Position
	startFEN string
	started  time.Time
}

// New starts a game from the standard position.
func New(eng *engine.Engine) *Game {
	g, _ := NewFromFEN(eng, rules.StartFEN)
	return g
}

// NewFromFEN starts a game from an arbitrary position.
func NewFromFEN(eng *engine.Engine, fen string) (*Game, error) {
	pos, err := rules.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Game{
		engine:   eng,
		search:   eng.Search,
		pos:      pos,
		startFEN: pos.FEN(),
		started:  time.Now(),
	}, nil
}

// Reset returns to the standard starting position.
func (g *Game) Reset() {
	g.pos = rules.NewPosition()
	g.startFEN = g.pos.FEN()
	g.started = time.Now()
}

// Engine returns the engine playing Black.
func (g *Game) Engine() *engine.Engine {
	return g.engine
}

// Status reports checkmate, check, stalemate and draw, in that order of
// precedence.
func (g *Game) Status() Status {
	switch {
	case g.pos.IsCheckmate():
		return Checkmate
	case g.pos.IsCheck():
		return Check
	case g.pos.IsStalemate():
		return Stalemate
	case g.pos.IsDraw():
		return Draw
	}
	return Playing
}

// Outcome returns who won a finished game.
func (g *Game) Outcome() Outcome {
	switch g.Status() {
	case Checkmate:
		if g.pos.SideToMove() == HumanColor {
			return AIWon
		}
		return HumanWon
	case Stalemate, Draw:
		return Drawn
	}
	return Ongoing
}

// Duration returns the time since the game started.
func (g *Game) Duration() time.Duration {
	return time.Since(g.started)
}

// Turn returns the side to move.
func (g *Game) Turn() rules.Color {
	return g.pos.SideToMove()
}

// FEN returns the current position.
func (g *Game) FEN() string {
	return g.pos.FEN()
}

// Plies returns the number of half-moves played.
func (g *Game) Plies() int {
	return g.pos.Plies()
}

// Board returns the board as [row][col] with row 0 = rank 8; empty squares
// are nil.
func (g *Game) Board() [8][8]*rules.Piece {
	var b [8][8]*rules.Piece
	for sq := rules.Square(0); sq < rules.NoSquare; sq++ {
		if p, ok := g.pos.PieceAt(sq); ok {
			b[sq.Row()][sq.Col()] = &p
		}
	}
	return b
}

// PossibleMoves returns the destination squares of the legal moves from sq.
func (g *Game) PossibleMoves(sq rules.Square) []rules.Square {
	var out []rules.Square
	for _, m := range g.pos.LegalMovesFrom(sq) {
		if !slices.Contains(out, m.To()) {
			out = append(out, m.To())
		}
	}
	return out
}

// Move plays the human's move from one square to another. Pawns reaching the
// last rank promote to a queen.
func (g *Game) Move(from, to rules.Square) (rules.Played, error) {
	if g.Status().IsOver() {
		return rules.Played{}, ErrGameOver
	}
	if g.Turn() != HumanColor {
		return rules.Played{}, ErrWrongTurn
	}

	move := rules.NoMove
	for _, m := range g.pos.LegalMovesFrom(from) {
		if m.To() != to {
			continue
		}
		if !m.IsPromotion() || m.Promotion() == rules.Queen {
			move = m
			break
		}
	}
	if move == rules.NoMove {
		return rules.Played{}, fmt.Errorf("%w: %s%s", rules.ErrIllegalMove, from, to)
	}

	if err := g.pos.Apply(move); err != nil {
		return rules.Played{}, err
	}
	return g.lastPlayed(), nil
}

// AIMove lets the engine choose and play Black's move. It returns
// rules.NoMove without error if the game is already over.
func (g *Game) AIMove() (rules.Played, error) {
	if g.Status().IsOver() {
		return rules.Played{Move: rules.NoMove}, nil
	}
	if g.Turn() != AIColor {
		return rules.Played{}, ErrWrongTurn
	}

	move, err := g.search(g.pos)
	if err != nil {
		return rules.Played{}, fmt.Errorf("search: %w", err)
	}
	if move == rules.NoMove {
		return rules.Played{Move: rules.NoMove}, nil
	}
	if err := g.pos.Apply(move); err != nil {
		return rules.Played{}, err
	}
	return g.lastPlayed(), nil
}

// Play makes the human's move and the engine's reply. If the engine fails,
// the human move is taken back so the game stays on White's turn. reply.Move
// is rules.NoMove when the human move ended the game.
func (g *Game) Play(from, to rules.Square) (human, reply rules.Played, err error) {
	human, err = g.Move(from, to)
	if err != nil {
		return rules.Played{}, rules.Played{}, err
	}

	reply, err = g.AIMove()
	if err != nil {
		if uerr := g.pos.Undo(); uerr != nil {
			return human, rules.Played{}, errors.Join(err, uerr)
		}
		return rules.Played{}, rules.Played{}, err
	}
	return human, reply, nil
}

// Undo takes back the last two plies (the AI reply and the human move), or a
// single ply if only one has been played.
func (g *Game) Undo() error {
	n := min(2, g.pos.Plies())
	if n == 0 {
		return ErrNothingToUndo
	}
	for i := 0; i < n; i++ {
		if err := g.pos.Undo(); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate returns the engine's static evaluation of the current position.
func (g *Game) Evaluate() engine.Score {
	return engine.Evaluate(g.pos)
}

// History returns the moves played so far.
func (g *Game) History() []rules.Played {
	return g.pos.History()
}

func (g *Game) lastPlayed() rules.Played {
	h := g.pos.History()
	return h[len(h)-1]
}
