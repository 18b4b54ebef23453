package board

import (
	"math/rand"
	"testing"
)

// snapshot captures everything make/unmake must restore exactly.
type snapshot struct {
	board      Board
	side       Color
	castling   CastlingRights
	enPassant  Square
	kings      [2]Square
	halfMove   int
	fullMove   int
	historyLen int
}

func takeSnapshot(gs *GameState) snapshot {
	return snapshot{
		board:      gs.Board,
		side:       gs.SideToMove,
		castling:   gs.CastlingRights,
		enPassant:  gs.EnPassant,
		kings:      gs.KingSquare,
		halfMove:   gs.HalfMoveClock,
		fullMove:   gs.FullMoveNumber,
		historyLen: gs.Ply(),
	}
}

func mustParseFEN(t *testing.T, fen string) *GameState {
	t.Helper()
	gs, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return gs
}

func mustPlay(t *testing.T, gs *GameState, moves ...string) {
	t.Helper()
	for _, s := range moves {
		m, err := ParseMove(s, gs)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v\n%s", s, err, gs)
		}
		gs.MakeMove(m)
	}
}

func checkHistoryInvariant(t *testing.T, gs *GameState) {
	t.Helper()
	if len(gs.moveLog) != len(gs.castlingLog)-1 || len(gs.moveLog) != len(gs.enPassantLog)-1 {
		t.Fatalf("history lengths out of step: moves=%d castling=%d enpassant=%d",
			len(gs.moveLog), len(gs.castlingLog), len(gs.enPassantLog))
	}
}

func TestNewGame(t *testing.T) {
	gs := NewGame()

	if gs.SideToMove != White {
		t.Errorf("SideToMove = %v, want White", gs.SideToMove)
	}
	if gs.CastlingRights != AllCastling {
		t.Errorf("CastlingRights = %v, want KQkq", gs.CastlingRights)
	}
	if gs.EnPassant != NoSquare {
		t.Errorf("EnPassant = %v, want none", gs.EnPassant)
	}
	if gs.KingSquare != [2]Square{E1, E8} {
		t.Errorf("KingSquare = %v, want [e1 e8]", gs.KingSquare)
	}
	if gs.Ply() != 0 {
		t.Errorf("Ply() = %d, want 0", gs.Ply())
	}
	if gs.PieceAt(E1) != WhiteKing || gs.PieceAt(D8) != BlackQueen || gs.PieceAt(A7) != BlackPawn {
		t.Errorf("unexpected starting placement:\n%s", gs)
	}
	checkHistoryInvariant(t, gs)
}

func TestMakeUnmakeRestoresState(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	}

	for _, fen := range fens {
		gs := mustParseFEN(t, fen)
		before := takeSnapshot(gs)
		for _, m := range gs.LegalMoves() {
			gs.MakeMove(m)
			checkHistoryInvariant(t, gs)
			gs.UnmakeMove()
			if after := takeSnapshot(gs); after != before {
				t.Errorf("%s: make/unmake of %v did not restore state\nbefore %+v\nafter  %+v", fen, m, before, after)
			}
		}
	}
}

func TestRandomWalkReversibility(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	gs := NewGame()

	var snapshots []snapshot
	for ply := 0; ply < 120; ply++ {
		moves := gs.LegalMoves()
		if len(moves) == 0 {
			break
		}
		snapshots = append(snapshots, takeSnapshot(gs))
		gs.MakeMove(moves[rng.Intn(len(moves))])
		checkHistoryInvariant(t, gs)
	}

	for i := len(snapshots) - 1; i >= 0; i-- {
		gs.UnmakeMove()
		if got := takeSnapshot(gs); got != snapshots[i] {
			t.Fatalf("ply %d not restored after undo\nwant %+v\ngot  %+v", i, snapshots[i], got)
		}
	}
	if gs.FEN() != StartFEN {
		t.Errorf("FEN after full undo = %s", gs.FEN())
	}
}

func TestMakeMoveEmptyOriginIsNoop(t *testing.T) {
	gs := NewGame()
	before := takeSnapshot(gs)

	tests := []struct {
		name string
		move Move
	}{
		{"empty origin", Move{From: E4, To: E5}},
		{"null move", NoMove},
		{"off-board destination", Move{From: E2, To: NoSquare, Moved: NewPiece(Pawn, White)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs.MakeMove(tc.move)
			if after := takeSnapshot(gs); after != before {
				t.Errorf("MakeMove(%v) changed the state", tc.move)
			}
			checkHistoryInvariant(t, gs)
		})
	}
}

func TestUnmakeEmptyHistoryIsNoop(t *testing.T) {
	gs := NewGame()
	before := takeSnapshot(gs)

	gs.UnmakeMove()
	if after := takeSnapshot(gs); after != before {
		t.Errorf("unmake with no history changed the state")
	}
	checkHistoryInvariant(t, gs)
}

func TestTryMove(t *testing.T) {
	gs := NewGame()

	if _, ok := gs.TryMove(E2, E5); ok {
		t.Fatal("e2e5 should be rejected")
	}
	if gs.Ply() != 0 || gs.SideToMove != White {
		t.Fatal("rejected move changed the state")
	}

	m, ok := gs.TryMove(G1, F3)
	if !ok {
		t.Fatal("Ng1-f3 should be accepted")
	}
	if m.Moved != WhiteKnight || gs.PieceAt(F3) != WhiteKnight || !gs.Board.IsEmpty(G1) {
		t.Errorf("knight not moved: %v\n%s", m, gs)
	}
	if gs.SideToMove != Black {
		t.Error("side to move not flipped")
	}

	gs.Undo()
	if gs.FEN() != StartFEN {
		t.Errorf("FEN after undo = %s", gs.FEN())
	}
}

func TestEnPassantLifecycle(t *testing.T) {
	gs := NewGame()
	mustPlay(t, gs, "e2e4")
	if gs.EnPassant != E3 {
		t.Errorf("after e2e4 en passant target = %v, want e3", gs.EnPassant)
	}

	mustPlay(t, gs, "a7a6", "e4e5")
	if gs.EnPassant != NoSquare {
		t.Errorf("single push left en passant target %v", gs.EnPassant)
	}

	mustPlay(t, gs, "d7d5")
	if gs.EnPassant != D6 {
		t.Fatalf("after d7d5 en passant target = %v, want d6", gs.EnPassant)
	}

	m, ok := gs.FindMove(E5, D6)
	if !ok {
		t.Fatal("exd6 en passant not generated")
	}
	if !m.EnPassant || m.Captured != BlackPawn {
		t.Fatalf("exd6 = %+v, want en passant capturing a black pawn", m)
	}
	if m.Notation() != "exd6" {
		t.Errorf("Notation() = %s, want exd6", m.Notation())
	}

	gs.MakeMove(m)
	if !gs.Board.IsEmpty(D5) {
		t.Error("captured pawn still on d5")
	}
	if gs.PieceAt(D6) != WhitePawn {
		t.Error("capturing pawn not on d6")
	}
	if gs.EnPassant != NoSquare {
		t.Error("en passant target not cleared after capture")
	}

	gs.UnmakeMove()
	if gs.PieceAt(D5) != BlackPawn || gs.PieceAt(E5) != WhitePawn || !gs.Board.IsEmpty(D6) {
		t.Fatalf("unmake of en passant did not restore pawns:\n%s", gs)
	}
	if gs.EnPassant != D6 {
		t.Errorf("unmake did not restore en passant target, got %v", gs.EnPassant)
	}

	// Declining the capture lets the right expire.
	mustPlay(t, gs, "a2a3")
	if gs.EnPassant != NoSquare {
		t.Errorf("en passant target survived an unrelated move: %v", gs.EnPassant)
	}
	mustPlay(t, gs, "a6a5")
	if _, ok := gs.FindMove(E5, D6); ok {
		t.Error("en passant still available one move later")
	}
}

func TestPawnPushBlocking(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want []Square
	}{
		{"open", "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", []Square{E3, E4}},
		{"far square blocked", "4k3/8/8/8/4n3/8/4P3/4K3 w - - 0 1", []Square{E3}},
		{"near square blocked", "4k3/8/8/8/8/4n3/4P3/4K3 w - - 0 1", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := mustParseFEN(t, tc.fen)
			var got []Square
			for _, m := range gs.LegalMoves() {
				if m.From == E2 {
					got = append(got, m.To)
				}
			}
			if len(got) != len(tc.want) {
				t.Fatalf("pawn moves = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("pawn moves = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestPawnCapturesNeedTarget(t *testing.T) {
	// d3 holds a friendly knight, f3 is empty: neither is a capture.
	gs := mustParseFEN(t, "4k3/8/8/8/8/3N4/4P3/4K3 w - - 0 1")
	for _, m := range gs.LegalMoves() {
		if m.From == E2 && m.To.Col() != E2.Col() {
			t.Errorf("unexpected pawn capture %v", m)
		}
	}
}

func TestPromotion(t *testing.T) {
	gs := mustParseFEN(t, "3r3k/4P3/8/8/8/8/8/4K3 w - - 0 1")

	var promos []Move
	for _, m := range gs.LegalMoves() {
		if m.Promotion {
			promos = append(promos, m)
		}
	}
	if len(promos) != 2 {
		t.Fatalf("expected push and capture promotions, got %v", promos)
	}

	m, ok := gs.TryMove(E7, D8)
	if !ok {
		t.Fatal("exd8 not accepted")
	}
	if gs.PieceAt(D8) != WhiteQueen {
		t.Errorf("promoted piece = %v, want white queen", gs.PieceAt(D8))
	}
	if m.String() != "e7d8q" || m.Notation() != "exd8=Q" {
		t.Errorf("String/Notation = %s/%s", m.String(), m.Notation())
	}

	gs.Undo()
	if gs.PieceAt(E7) != WhitePawn || gs.PieceAt(D8) != BlackRook {
		t.Errorf("unmake of promotion did not restore pieces:\n%s", gs)
	}
}

func TestCastling(t *testing.T) {
	gs := mustParseFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")

	var castles []string
	for _, m := range gs.LegalMoves() {
		if m.Castle {
			castles = append(castles, m.Notation())
		}
	}
	if len(castles) != 2 {
		t.Fatalf("castles = %v, want O-O and O-O-O", castles)
	}

	m, ok := gs.TryMove(E1, G1)
	if !ok || !m.Castle {
		t.Fatalf("O-O not accepted: %+v", m)
	}
	if gs.PieceAt(G1) != WhiteKing || gs.PieceAt(F1) != WhiteRook || !gs.Board.IsEmpty(H1) {
		t.Errorf("castle did not relocate king and rook:\n%s", gs)
	}
	if gs.KingSquare[White] != G1 {
		t.Errorf("king square = %v, want g1", gs.KingSquare[White])
	}
	if gs.CastlingRights.CanCastle(White, true) || gs.CastlingRights.CanCastle(White, false) {
		t.Error("white castling rights survived castling")
	}
	if !gs.CastlingRights.CanCastle(Black, true) || !gs.CastlingRights.CanCastle(Black, false) {
		t.Error("black castling rights were touched")
	}

	gs.Undo()
	if gs.PieceAt(E1) != WhiteKing || gs.PieceAt(H1) != WhiteRook || !gs.Board.IsEmpty(F1) || !gs.Board.IsEmpty(G1) {
		t.Errorf("undo did not restore king and rook:\n%s", gs)
	}
	if gs.KingSquare[White] != E1 || gs.CastlingRights != AllCastling {
		t.Errorf("undo did not restore king square or rights: %v %v", gs.KingSquare[White], gs.CastlingRights)
	}
}

func TestCastlingRestrictions(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		kingSide  bool
		queenSide bool
	}{
		{"both", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", true, true},
		{"in check", "r3k2r/8/8/8/4r3/8/8/R3K2R w KQkq - 0 1", false, false},
		{"transit attacked", "r3k2r/8/8/8/8/8/5r2/R3K2R w KQkq - 0 1", false, true},
		{"landing attacked", "r3k2r/8/8/8/8/8/6r1/R3K2R w KQkq - 0 1", false, true},
		{"queen side knight", "r3k2r/8/8/8/8/8/8/RN2K2R w KQkq - 0 1", true, false},
		{"b1 attacked only", "r3k2r/8/8/8/4b3/8/8/R3K2R w KQkq - 0 1", true, true},
		{"pawn covers f1", "r3k2r/8/8/8/8/8/6p1/R3K2R w KQkq - 0 1", false, true},
		{"no rights", "r3k2r/8/8/8/8/8/8/R3K2R w kq - 0 1", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := mustParseFEN(t, tc.fen)
			var kingSide, queenSide bool
			for _, m := range gs.LegalMoves() {
				if !m.Castle {
					continue
				}
				if m.To == G1 {
					kingSide = true
				}
				if m.To == C1 {
					queenSide = true
				}
			}
			if kingSide != tc.kingSide || queenSide != tc.queenSide {
				t.Errorf("O-O=%v O-O-O=%v, want %v %v", kingSide, queenSide, tc.kingSide, tc.queenSide)
			}
		})
	}
}

func TestCastlingRightsMonotonic(t *testing.T) {
	gs := mustParseFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")

	// Rook leaves and returns: the right stays gone.
	mustPlay(t, gs, "a1a2", "a8a7", "a2a1", "a7a8")
	if gs.CastlingRights.CanCastle(White, false) || gs.CastlingRights.CanCastle(Black, false) {
		t.Errorf("queen-side rights survived rook moves: %v", gs.CastlingRights)
	}
	if !gs.CastlingRights.CanCastle(White, true) || !gs.CastlingRights.CanCastle(Black, true) {
		t.Errorf("king-side rights lost: %v", gs.CastlingRights)
	}

	// Undo that does not cross the revoking move keeps the right revoked.
	gs.Undo()
	gs.Undo()
	if gs.CastlingRights.CanCastle(White, false) {
		t.Error("undo after the revoking move restored the right")
	}

	// Undoing the revoking move itself restores it.
	gs.Undo()
	gs.Undo()
	if gs.CastlingRights != AllCastling {
		t.Errorf("rights after full undo = %v, want KQkq", gs.CastlingRights)
	}
}

func TestRookCaptureRevokesRight(t *testing.T) {
	gs := mustParseFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")

	mustPlay(t, gs, "h1h8")
	if gs.CastlingRights.CanCastle(Black, true) {
		t.Error("capturing the h8 rook must revoke black's king-side right")
	}
	if gs.CastlingRights.CanCastle(White, true) {
		t.Error("moving the h1 rook must revoke white's king-side right")
	}
	if !gs.CastlingRights.CanCastle(Black, false) || !gs.CastlingRights.CanCastle(White, false) {
		t.Errorf("queen-side rights changed: %v", gs.CastlingRights)
	}

	gs.Undo()
	if gs.CastlingRights != AllCastling || gs.PieceAt(H8) != BlackRook {
		t.Errorf("undo did not restore capture: %v\n%s", gs.CastlingRights, gs)
	}
}

func TestKingMoveRevokesBothRights(t *testing.T) {
	gs := mustParseFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	mustPlay(t, gs, "e1f1")
	if gs.CastlingRights != BlackKingSideCastle|BlackQueenSideCastle {
		t.Errorf("rights after king move = %v, want kq", gs.CastlingRights)
	}
	if gs.KingSquare[White] != F1 {
		t.Errorf("king square = %v, want f1", gs.KingSquare[White])
	}
}

func TestLegalMovesLeavesStateUntouched(t *testing.T) {
	gs := mustParseFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	mustPlay(t, gs, "a2a4")
	before := takeSnapshot(gs)

	gs.LegalMoves()
	if after := takeSnapshot(gs); after != before {
		t.Errorf("LegalMoves mutated the state\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestPinnedPieceCannotMove(t *testing.T) {
	// The e2 knight is pinned by the e8 rook.
	gs := mustParseFEN(t, "4r1k1/8/8/8/8/8/4N3/4K3 w - - 0 1")
	legal := gs.LegalMoves()
	for _, m := range legal {
		if m.From == E2 {
			t.Errorf("pinned knight moved: %v", m)
		}
	}

	// The knight's moves are still generated, only filtered out.
	pseudo := gs.PseudoLegalMoves()
	ids := make(map[int]bool, len(pseudo))
	knightMoves := 0
	for _, m := range pseudo {
		ids[m.ID()] = true
		if m.From == E2 {
			knightMoves++
		}
	}
	for _, m := range legal {
		if !ids[m.ID()] {
			t.Errorf("legal move %v missing from pseudo-legal moves", m)
		}
	}
	if knightMoves != 6 {
		t.Errorf("expected 6 pseudo-legal knight moves, got %d", knightMoves)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	gs := NewGame()
	mustPlay(t, gs, "e2e4", "c7c5")

	c := gs.Copy()
	if c.FEN() != gs.FEN() || c.Ply() != gs.Ply() || !c.LastMove().Equal(gs.LastMove()) {
		t.Fatalf("copy differs: %s vs %s", c.FEN(), gs.FEN())
	}

	c.MakeMove(c.LegalMoves()[0])
	c.UnmakeMove()
	c.UnmakeMove()
	if gs.Ply() != 2 || gs.LastMove().String() != "c7c5" {
		t.Errorf("changing the copy changed the original: %s", gs.FEN())
	}
	if gs.EnPassant != C6 {
		t.Errorf("original en passant target = %s, want c6", gs.EnPassant)
	}
	checkHistoryInvariant(t, gs)
	checkHistoryInvariant(t, c)
}

func TestLastMove(t *testing.T) {
	gs := NewGame()
	if !gs.LastMove().IsNull() {
		t.Errorf("new game LastMove = %v, want NoMove", gs.LastMove())
	}

	mustPlay(t, gs, "g1f3")
	if got := gs.LastMove().Notation(); got != "Nf3" {
		t.Errorf("LastMove().Notation() = %s, want Nf3", got)
	}

	gs.Undo()
	if !gs.LastMove().IsNull() {
		t.Error("LastMove after undo should be NoMove")
	}
}
