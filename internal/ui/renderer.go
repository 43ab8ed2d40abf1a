package ui

import (
	"strings"

	"github.com/hailam/chessai/internal/engine"
	"github.com/hailam/chessai/internal/game"
	"github.com/hailam/chessai/internal/rules"
)

const files = "  a b c d e f g h"

// renderBoard draws the board from White's side with the status lines below.
func (g *Game) renderBoard() {
	var sb strings.Builder

	sb.WriteString(files + "\n")
	for row, cols := range g.game.Board() {
		rank := byte('8' - row)
		sb.WriteByte(rank)
		for _, p := range cols {
			sb.WriteByte(' ')
			if p == nil {
				sb.WriteByte('.')
			} else {
				sb.WriteString(p.String())
			}
		}
		sb.WriteByte(' ')
		sb.WriteByte(rank)
		sb.WriteByte('\n')
	}
	sb.WriteString(files + "\n")
	g.printf("%s", sb.String())

	g.renderPanel()
}

// renderPanel prints captures, material, evaluation and whose turn it is.
func (g *Game) renderPanel() {
	captured := g.game.Captured()
	if len(captured.White)+len(captured.Black) > 0 {
		g.printf("Captured: %s | %s\n", pieceList(captured.White), pieceList(captured.Black))
	}

	g.printf("Material: %s  Eval: %s  Level: %s\n",
		game.FormatAdvantage(g.game.MaterialAdvantage()),
		engine.ScoreToString(g.game.Evaluate()),
		g.game.Engine().Difficulty())

	if g.gameOver {
		g.printf("%s Type new to play again.\n", g.gameResult)
		return
	}
	if g.game.Turn() == game.HumanColor {
		g.printf("%s to move (White)\n", g.username)
	}
}

func pieceList(pieces []rules.Piece) string {
	if len(pieces) == 0 {
		return "-"
	}
	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteString(p.String())
	}
	return sb.String()
}
