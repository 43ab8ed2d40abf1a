// Package uci speaks the Universal Chess Interface protocol on top of the
// engine package.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/chessai/internal/engine"
	"github.com/hailam/chessai/internal/rules"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *rules.Position

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	outMu  sync.Mutex

	// Search state; searchDone is non-nil while a search goroutine runs.
	searchDone chan struct{}
}

// New creates a new UCI protocol handler reading commands from in and
// writing responses to out. Diagnostics go to errOut.
func New(eng *engine.Engine, in io.Reader, out, errOut io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		position: rules.NewPosition(),
		in:       in,
		out:      out,
		errOut:   errOut,
	}
}

// Run processes commands until "quit" or end of input. A search still running
// at that point is allowed to finish and report its move.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.println(u.position.String())
		case "eval":
			u.handleEval()
		case "perft":
			u.handlePerft(args)
		default:
			u.debugf("Unknown command: %s", cmd)
		}
	}

	u.handleStop()
	return scanner.Err()
}

func (u *UCI) printf(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

func (u *UCI) println(s string) {
	u.printf("%s\n", s)
}

// debugf reports a diagnostic as an "info string" line on errOut.
func (u *UCI) debugf(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.errOut, "info string "+format+"\n", args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.println("id name ChessAI")
	u.println("id author ChessAI Team")
	u.println("")
	u.println("option name Difficulty type combo default Medium var Easy var Medium var Hard var Expert")
	u.println("option name Threads type spin default 1 min 1 max 256")
	u.println("uciok")
}

// handleNewGame resets the position for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.position = rules.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// On any error the previous position is kept.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *rules.Position
	switch args[0] {
	case "startpos":
		pos = rules.NewPosition()
	case "fen":
		var err error
		pos, err = rules.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.debugf("Invalid FEN: %v", err)
			return
		}
	default:
		return
	}

	if movesAt < len(args) {
		for _, moveStr := range args[movesAt+1:] {
			move, err := rules.ParseMove(moveStr)
			if err == nil {
				err = pos.Apply(move)
			}
			if err != nil {
				u.debugf("Invalid move: %s (%v)", moveStr, err)
				return
			}
		}
	}

	u.position = pos
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth int // 0 = difficulty depth
}

// parseGoOptions parses "go" command arguments. Clock options are accepted
// and ignored: the search is depth-limited only.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes", "movetime", "wtime", "btime", "winc", "binc", "movestogo", "mate":
			i++
		}
	}

	return opts
}

// handleGo starts a search on a copy of the current position.
//
// The searcher picks the move that is best for Black, so with White to move
// it searches the colour-flipped position and maps the move back. The
// queen and knight tables are not row-symmetric, so a flipped search can
// rank moves slightly differently from a Black search of the same shape.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	opts := parseGoOptions(args)
	depth := opts.Depth
	if depth <= 0 {
		depth = u.engine.Difficulty().Depth()
	}

	pos := u.position.Clone()
	flipped := pos.SideToMove() == rules.White
	if flipped {
		mirror, err := pos.Mirror()
		if err != nil {
			u.debugf("Cannot search for White: %v", err)
			u.println("bestmove 0000")
			return
		}
		pos = mirror
	}

	u.engine.OnInfo = func(info engine.SearchInfo) {
		if flipped {
			info.Move = info.Move.Mirror()
		}
		u.sendInfo(info)
	}

	done := make(chan struct{})
	u.searchDone = done

	go func() {
		defer close(done)

		bestMove, err := u.engine.SearchDepth(pos, depth)
		if err != nil {
			u.debugf("Search failed: %v", err)
			bestMove = rules.NoMove
		}
		if flipped {
			bestMove = bestMove.Mirror()
		}
		u.printf("bestmove %s\n", bestMove)
	}()
}

// sendInfo outputs search info in UCI format. The score is the root score
// of the chosen move in centipawns, from the side to move's point of view.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		fmt.Sprintf("score cp %d", int(info.Score*100/engine.PawnValue)),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	parts = append(parts, "pv "+info.Move.String())

	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop waits for a running search to report its move. The search
// cannot be interrupted.
func (u *UCI) handleStop() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
	}
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	u.handleStop()

	// Format: setoption name <name> value <value>
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "difficulty":
		d, err := engine.ParseDifficulty(value)
		if err != nil {
			u.debugf("%v", err)
			return
		}
		u.engine.SetDifficulty(d)
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			u.debugf("Invalid Threads value: %q", value)
			return
		}
		u.engine.SetWorkers(n)
	default:
		u.debugf("Unknown option: %s", name)
	}
}

// handleEval prints the static evaluation of the current position.
func (u *UCI) handleEval() {
	score := u.engine.Evaluate(u.position)
	u.printf("Evaluation: %s (White's perspective)\n", engine.ScoreToString(score))
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	u.handleStop()

	depth := 3
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d >= 0 {
			depth = d
		}
	}

	start := time.Now()
	nodes, err := u.engine.Perft(u.position, depth)
	if err != nil {
		u.debugf("Perft failed: %v", err)
		return
	}
	elapsed := time.Since(start)

	u.printf("Nodes: %d\n", nodes)
	u.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		u.printf("NPS: %.0f\n", nps)
	}
}
