package engine

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/hailam/chessai/internal/rules"
)

// Search window bounds.
var (
	Infinity    = Score(math.Inf(1))
	NegInfinity = Score(math.Inf(-1))
)

var (
	// ErrInvalidDepth is returned for a search depth below 1.
	ErrInvalidDepth = errors.New("search depth must be at least 1")

	// ErrInconsistentRules is returned when the rules engine fails to apply a
	// move it listed as legal, or fails to undo one it applied.
	ErrInconsistentRules = errors.New("rules engine inconsistency")
)

// Position is the rules collaborator the searcher walks. Apply and Undo mutate
// in place; every Apply made by the searcher is paired with an Undo before it
// returns.
type Position interface {
	Board
	LegalMoves() []rules.Move
	Apply(m rules.Move) error
	Undo() error
	IsGameOver() bool
}

// Searcher performs the root-shuffled alpha-beta minimax search.
// A Searcher may be shared by goroutines as long as each one searches its
// own Position.
type Searcher struct {
	mu  sync.Mutex // guards rng
	rng *rand.Rand

	nodes atomic.Uint64
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithRand sets the random source used to shuffle root moves. Tests pass a
// seeded source to make tie-breaking reproducible.
func WithRand(r *rand.Rand) Option {
	return func(s *Searcher) {
		s.rng = r
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(opts ...Option) *Searcher {
	s := &Searcher{}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Nodes returns the number of nodes visited since the last Reset.
func (s *Searcher) Nodes() uint64 {
	return s.nodes.Load()
}

// Reset clears the node counter.
func (s *Searcher) Reset() {
	s.nodes.Store(0)
}

// FindBestMove returns the root move with the highest score at the given
// depth, or rules.NoMove if the side to move has no legal moves. Among equal
// scores the first one in shuffled order wins, so repeated calls on the same
// position may return different moves. pos is left as it was found.
func (s *Searcher) FindBestMove(pos Position, depth int) (rules.Move, error) {
	move, _, err := s.search(pos, depth)
	return move, err
}

func (s *Searcher) search(pos Position, depth int) (rules.Move, Score, error) {
	if depth < 1 {
		return rules.NoMove, 0, fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}

	moves := pos.LegalMoves()
	s.shuffle(moves)

	bestMove := rules.NoMove
	bestScore := NegInfinity
	for _, m := range moves {
		score, err := s.scoreRootMove(pos, m, depth)
		if err != nil {
			return rules.NoMove, 0, err
		}
		if bestMove == rules.NoMove || score > bestScore {
			bestMove, bestScore = m, score
		}
	}
	return bestMove, bestScore, nil
}

// shuffle permutes moves uniformly (Fisher-Yates).
func (s *Searcher) shuffle(moves []rules.Move) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(moves) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		moves[i], moves[j] = moves[j], moves[i]
	}
}

// scoreRootMove plays m, searches the reply tree with a fresh full window and
// negates the result.
func (s *Searcher) scoreRootMove(pos Position, m rules.Move, depth int) (Score, error) {
	if err := pos.Apply(m); err != nil {
		return 0, fmt.Errorf("%w: apply %s: %w", ErrInconsistentRules, m, err)
	}

	score, err := s.minimax(pos, depth-1, NegInfinity, Infinity, false)
	if uerr := pos.Undo(); uerr != nil && err == nil {
		err = fmt.Errorf("%w: undo %s: %w", ErrInconsistentRules, m, uerr)
	}
	if err != nil {
		return 0, err
	}
	return -score, nil
}

// minimax returns the alpha-beta minimax value of pos, evaluated from White's
// side at the leaves. The maximizing side raises alpha and the minimizing side
// lowers beta; siblings are skipped once beta <= alpha.
func (s *Searcher) minimax(pos Position, depth int, alpha, beta Score, maximizing bool) (Score, error) {
	s.nodes.Add(1)

	if depth == 0 || pos.IsGameOver() {
		return Evaluate(pos), nil
	}

	best := Infinity
	if maximizing {
		best = NegInfinity
	}

	for _, m := range pos.LegalMoves() {
		if err := pos.Apply(m); err != nil {
			return 0, fmt.Errorf("%w: apply %s: %w", ErrInconsistentRules, m, err)
		}

		score, err := s.minimax(pos, depth-1, alpha, beta, !maximizing)
		if uerr := pos.Undo(); uerr != nil && err == nil {
			err = fmt.Errorf("%w: undo %s: %w", ErrInconsistentRules, m, uerr)
		}
		if err != nil {
			return 0, err
		}

		if maximizing {
			best = max(best, score)
			alpha = max(alpha, score)
		} else {
			best = min(best, score)
			beta = min(beta, score)
		}
		if beta <= alpha {
			break
		}
	}

	return best, nil
}
