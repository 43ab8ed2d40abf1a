package game

import (
	"slices"
	"strconv"

	"github.com/hailam/chessai/internal/rules"
)

// Material values used for the captured-pieces display.
var displayValues = [6]int{
	rules.Pawn:   1,
	rules.Knight: 3,
	rules.Bishop: 3,
	rules.Rook:   5,
	rules.Queen:  9,
}

// Captured lists the pieces each color has lost, cheapest first.
type Captured struct {
	White []rules.Piece // white pieces taken by Black
	Black []rules.Piece // black pieces taken by White
}

// Captured returns the pieces removed from the board so far.
func (g *Game) Captured() Captured {
	var c Captured
	for _, p := range g.pos.History() {
		switch {
		case p.Captured == rules.NoPiece:
		case p.Captured.Color() == rules.White:
			c.White = append(c.White, p.Captured)
		default:
			c.Black = append(c.Black, p.Captured)
		}
	}

	byType := func(a, b rules.Piece) int { return int(a.Type()) - int(b.Type()) }
	slices.SortStableFunc(c.White, byType)
	slices.SortStableFunc(c.Black, byType)
	return c
}

// MaterialAdvantage returns the value of captured black pieces minus the value
// of captured white pieces: positive when White is ahead.
func (g *Game) MaterialAdvantage() int {
	c := g.Captured()
	return capturedValue(c.Black) - capturedValue(c.White)
}

func capturedValue(pieces []rules.Piece) int {
	total := 0
	for _, p := range pieces {
		if t := p.Type(); t < rules.NoPieceType {
			total += displayValues[t]
		}
	}
	return total
}

// FormatAdvantage renders an advantage as "Even", "White +3" or "Black +1".
func FormatAdvantage(adv int) string {
	switch {
	case adv > 0:
		return "White +" + strconv.Itoa(adv)
	case adv < 0:
		return "Black +" + strconv.Itoa(-adv)
	}
	return "Even"
}
