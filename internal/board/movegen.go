package board

// offset is a row/column step.
type offset struct {
	dr, dc int
}

var (
	knightOffsets = [8]offset{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = [8]offset{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	rookDirs      = [4]offset{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	bishopDirs    = [4]offset{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

// moveListCapacity covers the branching factor of nearly every position.
const moveListCapacity = 64

// LegalMoves returns every legal move for the side to move and recomputes the
// Checkmate and Stalemate flags. It is the generator callers should use.
func (gs *GameState) LegalMoves() []Move {
	savedEnPassant := gs.EnPassant
	savedCastling := gs.CastlingRights
	us := gs.SideToMove

	moves := gs.appendPseudoLegalMoves(make([]Move, 0, moveListCapacity), us)
	moves = gs.appendCastlingMoves(moves, us)

	// Filter in place; the write index never passes the read index.
	legal := moves[:0]
	for _, m := range moves {
		gs.MakeMove(m)
		if !gs.IsAttacked(gs.KingSquare[us], us.Other()) {
			legal = append(legal, m)
		}
		gs.UnmakeMove()
	}

	gs.EnPassant = savedEnPassant
	gs.CastlingRights = savedCastling

	gs.Checkmate = false
	gs.Stalemate = false
	if len(legal) == 0 {
		if gs.InCheck() {
			gs.Checkmate = true
		} else {
			gs.Stalemate = true
		}
	}

	return legal
}

// PseudoLegalMoves returns the moves the side to move could make ignoring
// whether its own king is left attacked. Castling is not included.
func (gs *GameState) PseudoLegalMoves() []Move {
	return gs.appendPseudoLegalMoves(make([]Move, 0, moveListCapacity), gs.SideToMove)
}

// InCheck returns true if the side to move is in check.
func (gs *GameState) InCheck() bool {
	us := gs.SideToMove
	return gs.IsAttacked(gs.KingSquare[us], us.Other())
}

// FindMove returns the legal move with the given origin and destination.
func (gs *GameState) FindMove(from, to Square) (Move, bool) {
	candidate := Move{From: from, To: to}
	for _, m := range gs.LegalMoves() {
		if m.Equal(candidate) {
			return m, true
		}
	}
	return NoMove, false
}

// TryMove plays the move from one square to another if it is legal.
// A rejected move leaves the state unchanged.
func (gs *GameState) TryMove(from, to Square) (Move, bool) {
	m, ok := gs.FindMove(from, to)
	if !ok {
		return NoMove, false
	}
	gs.MakeMove(m)
	return m, true
}

// Undo takes back one move.
func (gs *GameState) Undo() {
	gs.UnmakeMove()
}

// appendPseudoLegalMoves generates all pseudo-legal moves for a side.
func (gs *GameState) appendPseudoLegalMoves(moves []Move, us Color) []Move {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := gs.Board[row][col]
			if p == NoPiece || p.Color() != us {
				continue
			}
			from := NewSquare(row, col)
			switch p.Type() {
			case Pawn:
				moves = gs.appendPawnMoves(moves, from, us)
			case Knight:
				moves = gs.appendStepMoves(moves, from, us, knightOffsets[:])
			case Bishop:
				moves = gs.appendSlidingMoves(moves, from, us, bishopDirs[:])
			case Rook:
				moves = gs.appendSlidingMoves(moves, from, us, rookDirs[:])
			case Queen:
				moves = gs.appendSlidingMoves(moves, from, us, rookDirs[:])
				moves = gs.appendSlidingMoves(moves, from, us, bishopDirs[:])
			case King:
				moves = gs.appendStepMoves(moves, from, us, kingOffsets[:])
			}
		}
	}
	return moves
}

// appendPawnMoves generates pushes, captures, en passant and promotions.
func (gs *GameState) appendPawnMoves(moves []Move, from Square, us Color) []Move {
	dir := us.Forward()
	row, col := from.Row(), from.Col()

	startRow, promoRow := 6, 0
	if us == Black {
		startRow, promoRow = 1, 7
	}

	// Pushes
	if r := row + dir; onBoard(r, col) && gs.Board[r][col] == NoPiece {
		m := NewMove(from, NewSquare(r, col), &gs.Board)
		m.Promotion = r == promoRow
		moves = append(moves, m)

		if row == startRow && gs.Board[r+dir][col] == NoPiece {
			moves = append(moves, NewMove(from, NewSquare(r+dir, col), &gs.Board))
		}
	}

	// Captures
	for _, dc := range [2]int{-1, 1} {
		r, c := row+dir, col+dc
		if !onBoard(r, c) {
			continue
		}
		to := NewSquare(r, c)
		target := gs.Board[r][c]

		if target != NoPiece && target.Color() != us {
			m := NewMove(from, to, &gs.Board)
			m.Promotion = r == promoRow
			moves = append(moves, m)
			continue
		}

		if to == gs.EnPassant && target == NoPiece {
			victim := gs.Board[row][c]
			if victim.Is(Pawn, us.Other()) {
				moves = append(moves, Move{
					From:      from,
					To:        to,
					Moved:     gs.Board[row][col],
					Captured:  victim,
					EnPassant: true,
				})
			}
		}
	}

	return moves
}

// appendStepMoves generates knight and king moves from a fixed offset set.
func (gs *GameState) appendStepMoves(moves []Move, from Square, us Color, offsets []offset) []Move {
	row, col := from.Row(), from.Col()
	for _, o := range offsets {
		r, c := row+o.dr, col+o.dc
		if !onBoard(r, c) {
			continue
		}
		if target := gs.Board[r][c]; target != NoPiece && target.Color() == us {
			continue
		}
		moves = append(moves, NewMove(from, NewSquare(r, c), &gs.Board))
	}
	return moves
}

// appendSlidingMoves casts rays until the edge, a friendly piece (excluded)
// or an enemy piece (included).
func (gs *GameState) appendSlidingMoves(moves []Move, from Square, us Color, dirs []offset) []Move {
	row, col := from.Row(), from.Col()
	for _, d := range dirs {
		for r, c := row+d.dr, col+d.dc; onBoard(r, c); r, c = r+d.dr, c+d.dc {
			target := gs.Board[r][c]
			if target != NoPiece && target.Color() == us {
				break
			}
			moves = append(moves, NewMove(from, NewSquare(r, c), &gs.Board))
			if target != NoPiece {
				break
			}
		}
	}
	return moves
}

// appendCastlingMoves adds castling moves. The king may not be in check, the
// squares between king and rook must be empty, and the squares the king
// crosses or lands on must not be attacked.
func (gs *GameState) appendCastlingMoves(moves []Move, us Color) []Move {
	if !gs.CastlingRights.CanCastle(us, true) && !gs.CastlingRights.CanCastle(us, false) {
		return moves
	}

	row := 7
	if us == Black {
		row = 0
	}
	kingSq := NewSquare(row, 4)
	king := NewPiece(King, us)
	rook := NewPiece(Rook, us)
	them := us.Other()

	if gs.Board.At(kingSq) != king || gs.IsAttacked(kingSq, them) {
		return moves
	}

	if gs.CastlingRights.CanCastle(us, true) &&
		gs.Board[row][7] == rook &&
		gs.Board[row][5] == NoPiece && gs.Board[row][6] == NoPiece &&
		!gs.IsAttacked(NewSquare(row, 5), them) && !gs.IsAttacked(NewSquare(row, 6), them) {
		moves = append(moves, Move{From: kingSq, To: NewSquare(row, 6), Moved: king, Castle: true})
	}

	if gs.CastlingRights.CanCastle(us, false) &&
		gs.Board[row][0] == rook &&
		gs.Board[row][1] == NoPiece && gs.Board[row][2] == NoPiece && gs.Board[row][3] == NoPiece &&
		!gs.IsAttacked(NewSquare(row, 3), them) && !gs.IsAttacked(NewSquare(row, 2), them) {
		moves = append(moves, Move{From: kingSq, To: NewSquare(row, 2), Moved: king, Castle: true})
	}

	return moves
}

// IsAttacked returns true if sq is attacked by any piece of color by.
// Works for empty squares too, which castling needs: a pawn attacks the
// diagonal squares in front of it whether or not they are occupied.
func (gs *GameState) IsAttacked(sq Square, by Color) bool {
	if !sq.IsValid() {
		return false
	}
	row, col := sq.Row(), sq.Col()

	// A pawn of color by attacks sq from one row behind, relative to its direction.
	pr := row - by.Forward()
	for _, dc := range [2]int{-1, 1} {
		if onBoard(pr, col+dc) && gs.Board[pr][col+dc].Is(Pawn, by) {
			return true
		}
	}

	for _, o := range knightOffsets {
		r, c := row+o.dr, col+o.dc
		if onBoard(r, c) && gs.Board[r][c].Is(Knight, by) {
			return true
		}
	}

	for _, o := range kingOffsets {
		r, c := row+o.dr, col+o.dc
		if onBoard(r, c) && gs.Board[r][c].Is(King, by) {
			return true
		}
	}

	if gs.rayHits(row, col, rookDirs[:], NewPiece(Rook, by), NewPiece(Queen, by)) {
		return true
	}
	return gs.rayHits(row, col, bishopDirs[:], NewPiece(Bishop, by), NewPiece(Queen, by))
}

// rayHits reports whether the first piece met along any direction is one of
// the two given sliders.
func (gs *GameState) rayHits(row, col int, dirs []offset, a, b Piece) bool {
	for _, d := range dirs {
		for r, c := row+d.dr, col+d.dc; onBoard(r, c); r, c = r+d.dr, c+d.dc {
			p := gs.Board[r][c]
			if p == NoPiece {
				continue
			}
			if p == a || p == b {
				return true
			}
			break
		}
	}
	return false
}
