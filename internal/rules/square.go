// Package rules is the chess rules collaborator of the search engine: legal move
// generation, reversible move application, terminal-state detection and FEN
// handling, backed by dragontoothmg.
package rules

import "fmt"

// Square identifies one of the 64 board squares as row*8 + col.
// Row 0 is rank 8 (Black's back rank) and col 0 is file a, so A8 = 0 and H1 = 63.
// The evaluation tables are laid out in this order.
type Square uint8

// Square constants for all 64 squares.
const (
	A8 Square = iota
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A1
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	NoSquare Square = 64
)

// NewSquare creates a square from a row (0 = rank 8) and column (0 = file a).
func NewSquare(row, col int) Square {
	return Square(row*8 + col)
}

// Row returns the board row (0-7, where 0 is rank 8).
func (sq Square) Row() int {
	return int(sq) >> 3
}

// Col returns the board column (0-7, where 0 is file a).
func (sq Square) Col() int {
	return int(sq) & 7
}

// String returns the algebraic notation for the square (e.g., "e4").
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.Col(), '8'-sq.Row())
}

// ParseSquare parses algebraic notation (e.g., "e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	col := int(s[0]) - 'a'
	rank := int(s[1]) - '1'

	if col < 0 || col > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	return NewSquare(7-rank, col), nil
}

// IsValid returns true if the square is a valid board square (0-63).
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// Mirror returns the square with its row reversed (a8 <-> a1).
func (sq Square) Mirror() Square {
	return sq ^ 56
}

// index converts to dragontoothmg's little-endian numbering (a1 = 0, h8 = 63).
// Reversing the row is the whole conversion, so it is its own inverse.
func (sq Square) index() uint8 {
	return uint8(sq ^ 56)
}

func squareFromIndex(idx uint8) Square {
	return Square(idx ^ 56)
}
