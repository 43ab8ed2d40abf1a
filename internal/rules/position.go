package rules

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"
	"strings"
	"unicode"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/notnil/chess"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	// ErrInvalidFEN indicates a malformed or unplayable FEN string.
	ErrInvalidFEN = errors.New("invalid FEN string")

	// ErrIllegalMove indicates a move that is not legal in the current position.
	ErrIllegalMove = errors.New("illegal move")

	// ErrNoHistory indicates an Undo with no applied move left to take back.
	ErrNoHistory = errors.New("no move to undo")
)

// lightSquares holds the light squares in a1 = 0 numbering.
const lightSquares uint64 = 0x55AA55AA55AA55AA

// undoEntry is one applied move. unapply is nil on clones, which cannot take
// back moves played before the copy was made.
type undoEntry struct {
	played  Played
	unapply func()
}

// positionKey identifies a position for repetition detection.
type positionKey struct {
	white, black dragon.Bitboards
	wtomove      bool
}

// Position is a mutable game state with reversible move application.
// It is not safe for concurrent use; use Clone to give each goroutine its own.
type Position struct {
	board dragon.Board
	stack []undoEntry
	keys  []positionKey // keys[0] is the position the game started from

	legal   []dragon.Move
	legalOK bool
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// ParseFEN parses a six-field FEN string.
func ParseFEN(fen string) (pos *Position, err error) {
	fen = strings.TrimSpace(fen)
	if _, err := chess.FEN(fen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}

	defer func() {
		if r := recover(); r != nil {
			pos, err = nil, fmt.Errorf("%w: %v", ErrInvalidFEN, r)
		}
	}()

	board := dragon.ParseFen(fen)
	if bits.OnesCount64(board.White.Kings) != 1 || bits.OnesCount64(board.Black.Kings) != 1 {
		return nil, fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}

	pos = &Position{board: board}
	pos.keys = []positionKey{pos.key()}
	return pos, nil
}

// FEN returns the FEN string of the current position.
func (p *Position) FEN() string {
	return p.board.ToFen()
}

// Clone returns an independent copy of the position. Repetition history and the
// move record are kept, but moves made before the copy cannot be undone on it.
func (p *Position) Clone() *Position {
	c := &Position{
		board: p.board,
		stack: make([]undoEntry, len(p.stack)),
		keys:  append([]positionKey(nil), p.keys...),
	}
	for i, e := range p.stack {
		c.stack[i] = undoEntry{played: e.played}
	}
	return c
}

// Mirror returns the colour-flipped position: ranks reversed, piece colours
// swapped and the other side to move. A move m on the mirror is m.Mirror()
// here. Move history, and with it repetition detection, is not carried over.
func (p *Position) Mirror() (*Position, error) {
	fields := strings.Fields(p.FEN())
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFEN, p.FEN())
	}

	ranks := strings.Split(fields[0], "/")
	slices.Reverse(ranks)
	fields[0] = swapCase(strings.Join(ranks, "/"))

	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}

	if fields[2] != "-" {
		var castling strings.Builder
		for _, c := range "KQkq" {
			if strings.ContainsRune(fields[2], swapRune(c)) {
				castling.WriteRune(c)
			}
		}
		fields[2] = castling.String()
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
		}
		fields[3] = sq.Mirror().String()
	}

	return ParseFEN(strings.Join(fields, " "))
}

func swapRune(r rune) rune {
	switch {
	case unicode.IsUpper(r):
		return unicode.ToLower(r)
	case unicode.IsLower(r):
		return unicode.ToUpper(r)
	}
	return r
}

func swapCase(s string) string {
	return strings.Map(swapRune, s)
}

// SideToMove returns the color whose turn it is.
func (p *Position) SideToMove() Color {
	if p.board.Wtomove {
		return White
	}
	return Black
}

// PieceAt returns the piece on a square and whether the square is occupied.
func (p *Position) PieceAt(sq Square) (Piece, bool) {
	bit := uint64(1) << sq.index()

	var c Color
	var bb *dragon.Bitboards
	switch {
	case p.board.White.All&bit != 0:
		c, bb = White, &p.board.White
	case p.board.Black.All&bit != 0:
		c, bb = Black, &p.board.Black
	default:
		return NoPiece, false
	}

	switch {
	case bb.Pawns&bit != 0:
		return NewPiece(Pawn, c), true
	case bb.Knights&bit != 0:
		return NewPiece(Knight, c), true
	case bb.Bishops&bit != 0:
		return NewPiece(Bishop, c), true
	case bb.Rooks&bit != 0:
		return NewPiece(Rook, c), true
	case bb.Queens&bit != 0:
		return NewPiece(Queen, c), true
	case bb.Kings&bit != 0:
		return NewPiece(King, c), true
	}
	return NoPiece, false
}

// LegalMoves returns all moves legal for the side to move, empty if none.
// The returned slice belongs to the caller.
func (p *Position) LegalMoves() []Move {
	legal := p.legalMoves()
	moves := make([]Move, len(legal))
	for i, dm := range legal {
		moves[i] = fromDragon(dm)
	}
	return moves
}

// LegalMovesFrom returns the legal moves starting on sq.
func (p *Position) LegalMovesFrom(sq Square) []Move {
	var moves []Move
	for _, dm := range p.legalMoves() {
		if m := fromDragon(dm); m.From() == sq {
			moves = append(moves, m)
		}
	}
	return moves
}

// legalMoves generates the legal moves once per position; Apply and Undo drop
// the cache. A fresh slice is allocated each time so earlier results stay valid.
func (p *Position) legalMoves() []dragon.Move {
	if !p.legalOK {
		p.legal = p.board.GenerateLegalMoves()
		p.legalOK = true
	}
	return p.legal
}

// Apply plays m in place. Moves not in the legal move list are rejected with
// ErrIllegalMove and leave the position untouched.
func (p *Position) Apply(m Move) error {
	for _, dm := range p.legalMoves() {
		if fromDragon(dm) != m {
			continue
		}

		mover, _ := p.PieceAt(m.From())
		captured, _ := p.PieceAt(m.To())
		if mover.Type() == Pawn && captured == NoPiece && m.From().Col() != m.To().Col() {
			captured = NewPiece(Pawn, mover.Color().Other())
		}

		unapply := p.board.Apply(dm)
		p.stack = append(p.stack, undoEntry{
			played:  Played{Move: m, Mover: mover, Captured: captured},
			unapply: unapply,
		})
		p.keys = append(p.keys, p.key())
		p.legalOK = false
		return nil
	}
	return fmt.Errorf("%w: %s", ErrIllegalMove, m)
}

// Undo takes back the most recent Apply, restoring the exact prior state.
func (p *Position) Undo() error {
	n := len(p.stack)
	if n == 0 || p.stack[n-1].unapply == nil {
		return ErrNoHistory
	}

	p.stack[n-1].unapply()
	p.stack = p.stack[:n-1]
	p.keys = p.keys[:len(p.keys)-1]
	p.legalOK = false
	return nil
}

// History returns the moves applied since the position was created.
func (p *Position) History() []Played {
	out := make([]Played, len(p.stack))
	for i, e := range p.stack {
		out[i] = e.played
	}
	return out
}

// Plies returns the number of moves applied since the position was created.
func (p *Position) Plies() int {
	return len(p.stack)
}

// IsCheck returns true if the side to move is in check.
func (p *Position) IsCheck() bool {
	return p.board.OurKingInCheck()
}

// IsCheckmate returns true if the side to move is in check and has no legal moves.
func (p *Position) IsCheckmate() bool {
	return len(p.legalMoves()) == 0 && p.IsCheck()
}

// IsStalemate returns true if the side to move has no legal moves but is not in check.
func (p *Position) IsStalemate() bool {
	return len(p.legalMoves()) == 0 && !p.IsCheck()
}

// IsDraw reports a drawn position: fifty-move rule, stalemate, insufficient
// material or threefold repetition.
func (p *Position) IsDraw() bool {
	return p.board.Halfmoveclock >= 100 ||
		p.IsStalemate() ||
		p.IsInsufficientMaterial() ||
		p.IsThreefoldRepetition()
}

// IsGameOver returns true on checkmate, stalemate or any draw.
func (p *Position) IsGameOver() bool {
	return p.IsCheckmate() || p.IsDraw()
}

// IsInsufficientMaterial reports K v K, K+minor v K, and positions where every
// remaining non-king piece is a bishop on squares of one color.
func (p *Position) IsInsufficientMaterial() bool {
	w, b := &p.board.White, &p.board.Black
	if w.Pawns|b.Pawns|w.Rooks|b.Rooks|w.Queens|b.Queens != 0 {
		return false
	}

	minors := bits.OnesCount64(w.Knights | b.Knights | w.Bishops | b.Bishops)
	if minors <= 1 {
		return true
	}
	if w.Knights|b.Knights != 0 {
		return false
	}

	bishops := w.Bishops | b.Bishops
	return bishops&lightSquares == 0 || bishops&^lightSquares == 0
}

// IsThreefoldRepetition returns true if the current position occurred at least
// three times in the game.
func (p *Position) IsThreefoldRepetition() bool {
	current := p.keys[len(p.keys)-1]
	count := 0
	for _, k := range p.keys {
		if k == current {
			count++
		}
	}
	return count >= 3
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%d  ", 8-row)
		for col := 0; col < 8; col++ {
			if piece, ok := p.PieceAt(NewSquare(row, col)); ok {
				sb.WriteString(piece.String() + " ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove())
	fmt.Fprintf(&sb, "FEN: %s\n", p.FEN())
	return sb.String()
}

func (p *Position) key() positionKey {
	return positionKey{white: p.board.White, black: p.board.Black, wtomove: p.board.Wtomove}
}

// fromDragon converts a dragontoothmg move to a Move.
func fromDragon(dm dragon.Move) Move {
	from := squareFromIndex(dm.From())
	to := squareFromIndex(dm.To())

	switch dm.Promote() {
	case dragon.Knight:
		return NewPromotion(from, to, Knight)
	case dragon.Bishop:
		return NewPromotion(from, to, Bishop)
	case dragon.Rook:
		return NewPromotion(from, to, Rook)
	case dragon.Queen:
		return NewPromotion(from, to, Queen)
	}
	return NewMove(from, to)
}
