package game

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/hailam/chessai/internal/engine"
	"github.com/hailam/chessai/internal/rules"
)

// SAN returns the moves played so far in standard algebraic notation.
func (g *Game) SAN() ([]string, error) {
	opt, err := chess.FEN(g.startFEN)
	if err != nil {
		return nil, fmt.Errorf("start position: %w", err)
	}
	pos := chess.NewGame(opt).Position()

	history := g.pos.History()
	out := make([]string, 0, len(history))
	for _, p := range history {
		m, err := chess.UCINotation{}.Decode(pos, p.Move.String())
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", p.Move, err)
		}
		out = append(out, chess.AlgebraicNotation{}.Encode(pos, m))
		pos = pos.Update(m)
	}
	return out, nil
}

// Snapshot is the persistent form of a game: where it started and the moves
// played since, in UCI notation.
type Snapshot struct {
	StartFEN string   `json:"start_fen"`
	Moves    []string `json:"moves"`
}

// Snapshot captures the game for storage.
func (g *Game) Snapshot() Snapshot {
	history := g.pos.History()
	s := Snapshot{StartFEN: g.startFEN, Moves: make([]string, len(history))}
	for i, p := range history {
		s.Moves[i] = p.Move.String()
	}
	return s
}

// Restore rebuilds a game by replaying a snapshot. Every move must be legal
// in turn.
func Restore(eng *engine.Engine, s Snapshot) (*Game, error) {
	fen := s.StartFEN
	if fen == "" {
		fen = rules.StartFEN
	}

	g, err := NewFromFEN(eng, fen)
	if err != nil {
		return nil, err
	}
	for i, str := range s.Moves {
		m, err := rules.ParseMove(str)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		if err := g.pos.Apply(m); err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
	}
	return g, nil
}
