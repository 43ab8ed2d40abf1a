// Package engine implements the chess AI: a static evaluator and a depth-limited
// alpha-beta minimax search over positions supplied by the rules package.
package engine

import (
	"github.com/hailam/chessai/internal/rules"
)

// Score is an evaluation from White's point of view: positive favors White.
type Score float64

// Material values, in evaluation units (a pawn is worth 10).
const (
	PawnValue   Score = 10
	KnightValue Score = 30
	BishopValue Score = 30
	RookValue   Score = 50
	QueenValue  Score = 90
	KingValue   Score = 900
)

// Terminal adjustments applied against the side to move.
const (
	MateBonus  Score = 1000
	CheckBonus Score = 50
)

// Piece values array for quick lookup
var pieceValues = [6]Score{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue}

// Piece-square tables, indexed [row][col] with row 0 = rank 8.
var (
	pawnTableWhite = [8][8]Score{
		{0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0},
		{5.0, 5.0, 5.0, 5.0, 5.0, 5.0, 5.0, 5.0},
		{1.0, 1.0, 2.0, 3.0, 3.0, 2.0, 1.0, 1.0},
		{0.5, 0.5, 1.0, 2.5, 2.5, 1.0, 0.5, 0.5},
		{0.0, 0.0, 0.0, 2.0, 2.0, 0.0, 0.0, 0.0},
		{0.5, -0.5, -1.0, 0.0, 0.0, -1.0, -0.5, 0.5},
		{0.5, 1.0, 1.0, -2.0, -2.0, 1.0, 1.0, 0.5},
		{0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0},
	}

	knightTable = [8][8]Score{
		{-5.0, -4.0, -3.0, -3.0, -3.0, -3.0, -4.0, -5.0},
		{-4.0, -2.0, 0.0, 0.0, 0.0, 0.0, -2.0, -4.0},
		{-3.0, 0.0, 1.0, 1.5, 1.5, 1.0, 0.0, -3.0},
		{-3.0, 0.5, 1.5, 2.0, 2.0, 1.5, 0.5, -3.0},
		{-3.0, 0.0, 1.5, 2.0, 2.0, 1.5, 0.0, -3.0},
		{-3.0, 0.5, 1.0, 1.5, 1.5, 1.0, 0.5, -3.0},
		{-4.0, -2.0, 0.0, 0.5, 0.5, 0.0, -2.0, -4.0},
		{-5.0, -4.0, -3.0, -3.0, -3.0, -3.0, -4.0, -5.0},
	}

	bishopTableWhite = [8][8]Score{
		{-2.0, -1.0, -1.0, -1.0, -1.0, -1.0, -1.0, -2.0},
		{-1.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, -1.0},
		{-1.0, 0.0, 0.5, 1.0, 1.0, 0.5, 0.0, -1.0},
		{-1.0, 0.5, 0.5, 1.0, 1.0, 0.5, 0.5, -1.0},
		{-1.0, 0.0, 1.0, 1.0, 1.0, 1.0, 0.0, -1.0},
		{-1.0, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0, -1.0},
		{-1.0, 0.5, 0.0, 0.0, 0.0, 0.0, 0.5, -1.0},
		{-2.0, -1.0, -1.0, -1.0, -1.0, -1.0, -1.0, -2.0},
	}

	rookTableWhite = [8][8]Score{
		{0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0},
		{0.5, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0, 0.5},
		{-0.5, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, -0.5},
		{-0.5, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, -0.5},
		{-0.5, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, -0.5},
		{-0.5, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, -0.5},
		{-0.5, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, -0.5},
		{0.0, 0.0, 0.0, 0.5, 0.5, 0.0, 0.0, 0.0},
	}

	// Shared by both colors; not mirrored for Black.
	queenTable = [8][8]Score{
		{-2.0, -1.0, -1.0, -0.5, -0.5, -1.0, -1.0, -2.0},
		{-1.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, -1.0},
		{-1.0, 0.0, 0.5, 0.5, 0.5, 0.5, 0.0, -1.0},
		{-0.5, 0.0, 0.5, 0.5, 0.5, 0.5, 0.0, -0.5},
		{0.0, 0.0, 0.5, 0.5, 0.5, 0.5, 0.0, -0.5},
		{-1.0, 0.5, 0.5, 0.5, 0.5, 0.5, 0.0, -1.0},
		{-1.0, 0.0, 0.5, 0.0, 0.0, 0.0, 0.0, -1.0},
		{-2.0, -1.0, -1.0, -0.5, -0.5, -1.0, -1.0, -2.0},
	}

	kingTableWhite = [8][8]Score{
		{-3.0, -4.0, -4.0, -5.0, -5.0, -4.0, -4.0, -3.0},
		{-3.0, -4.0, -4.0, -5.0, -5.0, -4.0, -4.0, -3.0},
		{-3.0, -4.0, -4.0, -5.0, -5.0, -4.0, -4.0, -3.0},
		{-3.0, -4.0, -4.0, -5.0, -5.0, -4.0, -4.0, -3.0},
		{-2.0, -3.0, -3.0, -4.0, -4.0, -3.0, -3.0, -2.0},
		{-1.0, -2.0, -2.0, -2.0, -2.0, -2.0, -2.0, -1.0},
		{2.0, 2.0, 0.0, 0.0, 0.0, 0.0, 2.0, 2.0},
		{2.0, 3.0, 1.0, 0.0, 0.0, 1.0, 3.0, 2.0},
	}

	pawnTableBlack   = mirrorRows(pawnTableWhite)
	bishopTableBlack = mirrorRows(bishopTableWhite)
	rookTableBlack   = mirrorRows(rookTableWhite)
	kingTableBlack   = mirrorRows(kingTableWhite)
)

// pieceSquareTables maps [color][pieceType] to its table.
var pieceSquareTables = [2][6]*[8][8]Score{
	rules.White: {&pawnTableWhite, &knightTable, &bishopTableWhite, &rookTableWhite, &queenTable, &kingTableWhite},
	rules.Black: {&pawnTableBlack, &knightTable, &bishopTableBlack, &rookTableBlack, &queenTable, &kingTableBlack},
}

// mirrorRows reverses the row order of a table. Columns are left alone.
func mirrorRows(t [8][8]Score) [8][8]Score {
	var m [8][8]Score
	for row := 0; row < 8; row++ {
		m[row] = t[7-row]
	}
	return m
}

// Board is the read-only view of a position the evaluator needs.
type Board interface {
	PieceAt(sq rules.Square) (rules.Piece, bool)
	SideToMove() rules.Color
	IsCheck() bool
	IsCheckmate() bool
}

// Evaluate returns the static evaluation of a position from White's perspective.
// Draws are not special-cased: they score whatever material remains.
func Evaluate(b Board) Score {
	var score Score

	for sq := rules.Square(0); sq < rules.NoSquare; sq++ {
		piece, ok := b.PieceAt(sq)
		if !ok {
			continue
		}

		value := pieceValue(piece) + positionalValue(piece, sq)
		if piece.Color() == rules.White {
			score += value
		} else {
			score -= value
		}
	}

	switch {
	case b.IsCheckmate():
		score += terminalAdjustment(b.SideToMove(), MateBonus)
	case b.IsCheck():
		score += terminalAdjustment(b.SideToMove(), CheckBonus)
	}

	return score
}

// terminalAdjustment penalizes the side to move by bonus.
func terminalAdjustment(toMove rules.Color, bonus Score) Score {
	if toMove == rules.White {
		return -bonus
	}
	return bonus
}

func pieceValue(p rules.Piece) Score {
	pt := p.Type()
	if pt >= rules.NoPieceType {
		return 0
	}
	return pieceValues[pt]
}

func positionalValue(p rules.Piece, sq rules.Square) Score {
	c, pt := p.Color(), p.Type()
	if c >= rules.NoColor || pt >= rules.NoPieceType {
		return 0
	}
	return pieceSquareTables[c][pt][sq.Row()][sq.Col()]
}
