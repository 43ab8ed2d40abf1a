package engine

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessai/internal/rules"
)

// SearchInfo contains information about a finished search.
type SearchInfo struct {
	Depth int
	Score Score // root score of the chosen move
	Nodes uint64
	Time  time.Duration
	Move  rules.Move
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 2 ply
	Medium                   // 3 ply
	Hard                     // 4 ply
	Expert                   // 5 ply
)

var difficultyDepth = [...]int{Easy: 2, Medium: 3, Hard: 4, Expert: 5}

var difficultyNames = [...]string{Easy: "Easy", Medium: "Medium", Hard: "Hard", Expert: "Expert"}

// Difficulties lists every level from weakest to strongest.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard, Expert}
}

// Depth returns the search depth in plies for the level.
func (d Difficulty) Depth() int {
	if d < Easy || d > Expert {
		return difficultyDepth[Medium]
	}
	return difficultyDepth[d]
}

func (d Difficulty) String() string {
	if d < Easy || d > Expert {
		return "Difficulty(" + strconv.Itoa(int(d)) + ")"
	}
	return difficultyNames[d]
}

// ParseDifficulty accepts a level name (case-insensitive) or its depth.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.TrimSpace(s)
	for _, d := range Difficulties() {
		if strings.EqualFold(s, d.String()) || s == strconv.Itoa(d.Depth()) {
			return d, nil
		}
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// Engine is the chess AI engine. It wraps a Searcher with a difficulty level
// and optional parallel scoring of root moves. An Engine runs one search at a
// time.
type Engine struct {
	searcher   *Searcher
	difficulty Difficulty
	workers    int

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine at Medium difficulty searching on a
// single goroutine.
func NewEngine(opts ...Option) *Engine {
	return &Engine{
		searcher:   NewSearcher(opts...),
		difficulty: Medium,
		workers:    1,
	}
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// Difficulty returns the current difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// SetWorkers sets how many goroutines score root moves. Values below 1 select
// runtime.NumCPU().
func (e *Engine) SetWorkers(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	e.workers = n
}

// Workers returns the number of search goroutines.
func (e *Engine) Workers() int {
	return e.workers
}

// Search finds the best move for the side to move at the engine's difficulty.
func (e *Engine) Search(pos *rules.Position) (rules.Move, error) {
	return e.SearchDepth(pos, e.difficulty.Depth())
}

// SearchDepth finds the best move at an explicit depth. With more than one
// worker the root moves are scored concurrently, each worker on its own clone
// of pos; the chosen move is the same one a sequential search would pick from
// the same shuffle.
func (e *Engine) SearchDepth(pos *rules.Position, depth int) (rules.Move, error) {
	e.searcher.Reset()
	startTime := time.Now()

	var move rules.Move
	var score Score
	var err error
	if e.workers > 1 {
		move, score, err = e.searchParallel(pos, depth)
	} else {
		move, score, err = e.searcher.search(pos, depth)
	}
	if err != nil {
		return rules.NoMove, err
	}

	if e.OnInfo != nil && move != rules.NoMove {
		e.OnInfo(SearchInfo{
			Depth: depth,
			Score: score,
			Nodes: e.searcher.Nodes(),
			Time:  time.Since(startTime),
			Move:  move,
		})
	}
	return move, nil
}

func (e *Engine) searchParallel(pos *rules.Position, depth int) (rules.Move, Score, error) {
	if depth < 1 {
		return rules.NoMove, 0, fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}

	moves := pos.LegalMoves()
	e.searcher.shuffle(moves)
	scores := make([]Score, len(moves))

	workers := min(e.workers, len(moves))
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		clone := pos.Clone()
		g.Go(func() error {
			for i := w; i < len(moves); i += workers {
				score, err := e.searcher.scoreRootMove(clone, moves[i], depth)
				if err != nil {
					return err
				}
				scores[i] = score
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rules.NoMove, 0, err
	}

	bestMove := rules.NoMove
	bestScore := NegInfinity
	for i, m := range moves {
		if bestMove == rules.NoMove || scores[i] > bestScore {
			bestMove, bestScore = m, scores[i]
		}
	}
	return bestMove, bestScore, nil
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos *rules.Position, depth int) (uint64, error) {
	if depth == 0 {
		return 1, nil
	}

	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(len(moves)), nil
	}

	var nodes uint64
	for _, m := range moves {
		if err := pos.Apply(m); err != nil {
			return 0, fmt.Errorf("%w: apply %s: %w", ErrInconsistentRules, m, err)
		}
		n, err := e.Perft(pos, depth-1)
		if uerr := pos.Undo(); uerr != nil && err == nil {
			err = fmt.Errorf("%w: undo %s: %w", ErrInconsistentRules, m, uerr)
		}
		if err != nil {
			return 0, err
		}
		nodes += n
	}

	return nodes, nil
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *rules.Position) Score {
	return Evaluate(pos)
}

// ScoreToString converts a score to pawns with one decimal and an explicit
// sign, e.g. "+1.5" or "-0.5".
func ScoreToString(score Score) string {
	pawns := float64(score / PawnValue)
	s := strconv.FormatFloat(pawns, 'f', 1, 64)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s
}
