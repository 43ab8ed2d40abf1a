package rules

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// perft counts the number of leaf nodes at the given depth.
func perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := p.LegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}

	var nodes int64
	for _, m := range moves {
		if err := p.Apply(m); err != nil {
			panic(err)
		}
		nodes += perft(p, depth-1)
		if err := p.Undo(); err != nil {
			panic(err)
		}
	}
	return nodes
}

func mustFEN(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func moveStrings(moves []Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	sort.Strings(out)
	return out
}

func TestPerftStartingPosition(t *testing.T) {
	pos := NewPosition()
	fen := pos.FEN()

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
	}

	for _, tc := range tests {
		if got := perft(pos, tc.depth); got != tc.expected {
			t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
		}
	}

	if pos.FEN() != fen {
		t.Errorf("position changed after perft: %s", pos.FEN())
	}
}

func TestPieceAtOrientation(t *testing.T) {
	pos := NewPosition()

	tests := []struct {
		sq    Square
		piece Piece
	}{
		{A8, NewPiece(Rook, Black)},
		{E8, NewPiece(King, Black)},
		{D8, NewPiece(Queen, Black)},
		{B7, NewPiece(Pawn, Black)},
		{A1, NewPiece(Rook, White)},
		{E1, NewPiece(King, White)},
		{G1, NewPiece(Knight, White)},
		{H2, NewPiece(Pawn, White)},
	}
	for _, tc := range tests {
		got, ok := pos.PieceAt(tc.sq)
		if !ok || got != tc.piece {
			t.Errorf("PieceAt(%s) = %v,%v, want %v", tc.sq, got, ok, tc.piece)
		}
	}

	if _, ok := pos.PieceAt(E4); ok {
		t.Error("PieceAt(e4) should be empty in the starting position")
	}
	if A8.Row() != 0 || A8.Col() != 0 || H1.Row() != 7 || H1.Col() != 7 {
		t.Error("a8 must be (0,0) and h1 must be (7,7)")
	}
}

func TestApplyUndoRestoresPosition(t *testing.T) {
	pos := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	fen := pos.FEN()
	before := moveStrings(pos.LegalMoves())

	for _, m := range pos.LegalMoves() {
		if err := pos.Apply(m); err != nil {
			t.Fatalf("Apply(%s): %v", m, err)
		}
		if err := pos.Undo(); err != nil {
			t.Fatalf("Undo after %s: %v", m, err)
		}
		if pos.FEN() != fen {
			t.Fatalf("after %s: FEN = %s, want %s", m, pos.FEN(), fen)
		}
	}

	if diff := cmp.Diff(before, moveStrings(pos.LegalMoves())); diff != "" {
		t.Errorf("legal moves changed (-want +got):\n%s", diff)
	}
}

func TestApplyRejectsIllegalMove(t *testing.T) {
	pos := NewPosition()
	fen := pos.FEN()

	err := pos.Apply(NewMove(E2, E5))
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("Apply(e2e5) error = %v, want ErrIllegalMove", err)
	}
	if pos.FEN() != fen || pos.Plies() != 0 {
		t.Error("rejected move must leave the position untouched")
	}

	if err := pos.Undo(); !errors.Is(err, ErrNoHistory) {
		t.Errorf("Undo on fresh position error = %v, want ErrNoHistory", err)
	}
}

func TestParseFENErrors(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"garbage", "not a fen"},
		{"missing fields", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"},
		{"no black king", "8/8/8/8/8/8/8/4K3 w - - 0 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseFEN(tc.fen); !errors.Is(err, ErrInvalidFEN) {
				t.Errorf("ParseFEN(%q) error = %v, want ErrInvalidFEN", tc.fen, err)
			}
		})
	}
}

func TestTerminalStates(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		check     bool
		checkmate bool
		stalemate bool
		draw      bool
	}{
		{"back rank mate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", true, true, false, false},
		{"king takes rook", "6Rk/8/8/8/8/8/8/K7 b - - 0 1", true, false, false, false},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false, false, true, true},
		{"bare kings", "8/8/8/4k3/8/8/8/4K3 w - - 0 1", false, false, false, true},
		{"king and knight", "8/8/8/4k3/8/8/8/3NK3 w - - 0 1", false, false, false, true},
		{"same colored bishops", "8/8/8/2b1k3/8/8/8/2B1K3 w - - 0 1", false, false, false, true},
		{"king and rook", "8/8/8/4k3/8/8/8/3RK3 w - - 0 1", false, false, false, false},
		{"fifty moves", "8/8/8/4k3/8/8/8/3RK3 w - - 100 80", false, false, false, true},
		{"start", StartFEN, false, false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustFEN(t, tc.fen)
			if got := pos.IsCheck(); got != tc.check {
				t.Errorf("IsCheck = %v, want %v", got, tc.check)
			}
			if got := pos.IsCheckmate(); got != tc.checkmate {
				t.Errorf("IsCheckmate = %v, want %v", got, tc.checkmate)
			}
			if got := pos.IsStalemate(); got != tc.stalemate {
				t.Errorf("IsStalemate = %v, want %v", got, tc.stalemate)
			}
			if got := pos.IsDraw(); got != tc.draw {
				t.Errorf("IsDraw = %v, want %v", got, tc.draw)
			}
			if got, want := pos.IsGameOver(), tc.checkmate || tc.draw; got != want {
				t.Errorf("IsGameOver = %v, want %v", got, want)
			}
		})
	}
}

func TestThreefoldRepetition(t *testing.T) {
	pos := NewPosition()
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}

	for round := 0; round < 2; round++ {
		if pos.IsThreefoldRepetition() {
			t.Fatalf("repetition reported too early (round %d)", round)
		}
		for _, s := range shuffle {
			m, err := ParseMove(s)
			if err != nil {
				t.Fatal(err)
			}
			if err := pos.Apply(m); err != nil {
				t.Fatalf("Apply(%s): %v", s, err)
			}
		}
	}

	if !pos.IsThreefoldRepetition() || !pos.IsDraw() {
		t.Error("starting position seen three times should be a draw")
	}

	if err := pos.Undo(); err != nil {
		t.Fatal(err)
	}
	if pos.IsThreefoldRepetition() {
		t.Error("Undo must drop the repetition record")
	}
}

func TestHistoryRecordsCaptures(t *testing.T) {
	pos := mustFEN(t, "rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 3")

	ep, _ := ParseMove("d4e3")
	if err := pos.Apply(ep); err != nil {
		t.Fatalf("en passant: %v", err)
	}
	if _, ok := pos.PieceAt(E4); ok {
		t.Error("captured pawn still on e4")
	}

	recapture, _ := ParseMove("f2e3")
	if err := pos.Apply(recapture); err != nil {
		t.Fatalf("recapture: %v", err)
	}

	want := []Played{
		{Move: ep, Mover: NewPiece(Pawn, Black), Captured: NewPiece(Pawn, White)},
		{Move: recapture, Mover: NewPiece(Pawn, White), Captured: NewPiece(Pawn, Black)},
	}
	if diff := cmp.Diff(want, pos.History()); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
}

func TestPromotionMoves(t *testing.T) {
	pos := mustFEN(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1")

	got := moveStrings(pos.LegalMovesFrom(A7))
	want := []string{"a7a8b", "a7a8n", "a7a8q", "a7a8r"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("LegalMovesFrom(a7) (-want +got):\n%s", diff)
	}

	if err := pos.Apply(NewPromotion(A7, A8, Queen)); err != nil {
		t.Fatal(err)
	}
	if p, _ := pos.PieceAt(A8); p != NewPiece(Queen, White) {
		t.Errorf("a8 = %v, want Q", p)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	pos := NewPosition()
	e4, _ := ParseMove("e2e4")
	if err := pos.Apply(e4); err != nil {
		t.Fatal(err)
	}

	clone := pos.Clone()
	e5, _ := ParseMove("e7e5")
	if err := clone.Apply(e5); err != nil {
		t.Fatal(err)
	}
	if pos.Plies() != 1 || clone.Plies() != 2 {
		t.Fatalf("plies = %d/%d, want 1/2", pos.Plies(), clone.Plies())
	}
	if err := clone.Undo(); err != nil {
		t.Fatal(err)
	}
	if clone.FEN() != pos.FEN() {
		t.Errorf("clone FEN = %s, want %s", clone.FEN(), pos.FEN())
	}
	if err := clone.Undo(); !errors.Is(err, ErrNoHistory) {
		t.Errorf("undoing past the clone point error = %v, want ErrNoHistory", err)
	}
}

func TestMoveAndSquareNotation(t *testing.T) {
	for _, s := range []string{"e2e4", "a7a8q", "h1h8", "b7b8n"} {
		m, err := ParseMove(s)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		if m.String() != s {
			t.Errorf("ParseMove(%q).String() = %q", s, m.String())
		}
	}

	for _, s := range []string{"e9e4", "e2", "a7a8k", "z1a1"} {
		if _, err := ParseMove(s); err == nil {
			t.Errorf("ParseMove(%q) should fail", s)
		}
	}

	sq, err := ParseSquare("e4")
	if err != nil || sq != E4 || sq.Row() != 4 || sq.Col() != 4 {
		t.Errorf("ParseSquare(e4) = %v (%d,%d), %v", sq, sq.Row(), sq.Col(), err)
	}
	if E2.Mirror() != E7 {
		t.Errorf("E2.Mirror() = %s, want e7", E2.Mirror())
	}
	if NoMove.String() != "0000" {
		t.Errorf("NoMove.String() = %q", NoMove.String())
	}
}

func TestMirror(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r3k2r/8/8/8/8/8/8/R3K2R b Kq - 0 1",
		"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2",
		"k7/8/8/3q4/4P3/8/8/4K3 w - - 0 1",
	}

	for _, fen := range fens {
		pos := mustFEN(t, fen)
		mirror, err := pos.Mirror()
		if err != nil {
			t.Fatalf("Mirror(%s): %v", fen, err)
		}

		if mirror.SideToMove() != pos.SideToMove().Other() {
			t.Errorf("%s: mirror side to move = %v", fen, mirror.SideToMove())
		}
		for sq := Square(0); sq < NoSquare; sq++ {
			p, ok := pos.PieceAt(sq)
			mp, mok := mirror.PieceAt(sq.Mirror())
			if ok != mok || (ok && mp != NewPiece(p.Type(), p.Color().Other())) {
				t.Errorf("%s: %s holds %v, mirror %s holds %v", fen, sq, p, sq.Mirror(), mp)
			}
		}

		var want []string
		for _, m := range pos.LegalMoves() {
			want = append(want, m.String())
		}
		var got []string
		for _, m := range mirror.LegalMoves() {
			got = append(got, m.Mirror().String())
		}
		sort.Strings(want)
		sort.Strings(got)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: mirrored legal moves (-want +got):\n%s", fen, diff)
		}

		back, err := mirror.Mirror()
		if err != nil {
			t.Fatal(err)
		}
		if back.FEN() != pos.FEN() {
			t.Errorf("double mirror = %s, want %s", back.FEN(), pos.FEN())
		}
	}
}

func TestMoveMirror(t *testing.T) {
	tests := []struct{ in, want string }{
		{"e2e4", "e7e5"},
		{"a7a8q", "a2a1q"},
		{"e1g1", "e8g8"},
	}
	for _, tc := range tests {
		m, err := ParseMove(tc.in)
		if err != nil {
			t.Fatal(err)
		}
		if got := m.Mirror().String(); got != tc.want {
			t.Errorf("%s.Mirror() = %s, want %s", tc.in, got, tc.want)
		}
	}
	if NoMove.Mirror() != NoMove {
		t.Error("NoMove.Mirror() != NoMove")
	}
}
