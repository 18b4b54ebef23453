package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castleRight(c, kingSide) != 0
}

func castleRight(c Color, kingSide bool) CastlingRights {
	if c == White {
		if kingSide {
			return WhiteKingSideCastle
		}
		return WhiteQueenSideCastle
	}
	if kingSide {
		return BlackKingSideCastle
	}
	return BlackQueenSideCastle
}

// cornerRights maps the four rook corners to the right they guard.
var cornerRights = map[Square]CastlingRights{
	A1: WhiteQueenSideCastle,
	H1: WhiteKingSideCastle,
	A8: BlackQueenSideCastle,
	H8: BlackKingSideCastle,
}

// Board is an 8x8 grid of occupants, row-major, row 0 being the 8th rank.
type Board [8][8]Piece

// At returns the piece on a square.
func (b *Board) At(sq Square) Piece {
	return b[sq.Row()][sq.Col()]
}

// IsEmpty returns true if the square is empty.
func (b *Board) IsEmpty(sq Square) bool {
	return b.At(sq) == NoPiece
}

func (b *Board) set(sq Square, p Piece) {
	b[sq.Row()][sq.Col()] = p
}

// GameState is the complete, reversible state of a game.
//
// The history stacks always satisfy
// len(moveLog) == len(castlingLog)-1 == len(enPassantLog)-1;
// the extra entry is the snapshot taken before the first move.
type GameState struct {
	Board          Board
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int    // Moves since last pawn move or capture
	FullMoveNumber int    // Full move counter, starts at 1

	// King positions, updated with every king move including castling.
	KingSquare [2]Square

	// Set by LegalMoves, cleared by UnmakeMove.
	Checkmate bool
	Stalemate bool

	moveLog      []Move
	enPassantLog []Square
	castlingLog  []CastlingRights
	halfMoveLog  []int
}

// historyCapacity is the initial capacity of the history stacks.
const historyCapacity = 256

// NewGame creates the standard starting position with White to move.
func NewGame() *GameState {
	gs, _ := ParseFEN(StartFEN)
	return gs
}

// resetHistory starts fresh history stacks seeded with the current state.
func (gs *GameState) resetHistory() {
	gs.moveLog = make([]Move, 0, historyCapacity)
	gs.enPassantLog = append(make([]Square, 0, historyCapacity+1), gs.EnPassant)
	gs.castlingLog = append(make([]CastlingRights, 0, historyCapacity+1), gs.CastlingRights)
	gs.halfMoveLog = append(make([]int, 0, historyCapacity+1), gs.HalfMoveClock)
}

// Copy creates a deep copy of the state, history included.
func (gs *GameState) Copy() *GameState {
	c := *gs
	c.moveLog = append([]Move(nil), gs.moveLog...)
	c.enPassantLog = append([]Square(nil), gs.enPassantLog...)
	c.castlingLog = append([]CastlingRights(nil), gs.castlingLog...)
	c.halfMoveLog = append([]int(nil), gs.halfMoveLog...)
	return &c
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (gs *GameState) PieceAt(sq Square) Piece {
	return gs.Board.At(sq)
}

// History returns the moves played so far, oldest first.
func (gs *GameState) History() []Move {
	return append([]Move(nil), gs.moveLog...)
}

// Ply returns the number of moves in the history.
func (gs *GameState) Ply() int {
	return len(gs.moveLog)
}

// LastMove returns the most recent move, or NoMove if none was played.
func (gs *GameState) LastMove() Move {
	if len(gs.moveLog) == 0 {
		return NoMove
	}
	return gs.moveLog[len(gs.moveLog)-1]
}

// MakeMove applies a move. A move off the board or whose origin square is
// empty, NoMove included, is ignored.
func (gs *GameState) MakeMove(m Move) {
	if !m.From.IsValid() || !m.To.IsValid() || gs.Board.IsEmpty(m.From) {
		return
	}

	us := m.Moved.Color()

	gs.Board.set(m.From, NoPiece)
	gs.Board.set(m.To, m.Moved)
	gs.moveLog = append(gs.moveLog, m)
	gs.SideToMove = gs.SideToMove.Other()

	if m.Moved.Type() == King {
		gs.KingSquare[us] = m.To
	}

	if m.Promotion {
		gs.Board.set(m.To, NewPiece(Queen, us))
	}

	// The captured pawn stands beside the origin, on the destination's column.
	if m.EnPassant {
		gs.Board.set(NewSquare(m.From.Row(), m.To.Col()), NoPiece)
	}

	if m.Moved.Type() == Pawn && abs(m.To.Row()-m.From.Row()) == 2 {
		gs.EnPassant = NewSquare((m.From.Row()+m.To.Row())/2, m.From.Col())
	} else {
		gs.EnPassant = NoSquare
	}
	gs.enPassantLog = append(gs.enPassantLog, gs.EnPassant)

	if m.Castle {
		rookFrom, rookTo := castleRookSquares(m)
		gs.Board.set(rookTo, gs.Board.At(rookFrom))
		gs.Board.set(rookFrom, NoPiece)
	}

	gs.updateCastlingRights(m)
	gs.castlingLog = append(gs.castlingLog, gs.CastlingRights)

	if m.Moved.Type() == Pawn || m.IsCapture() {
		gs.HalfMoveClock = 0
	} else {
		gs.HalfMoveClock++
	}
	gs.halfMoveLog = append(gs.halfMoveLog, gs.HalfMoveClock)
	if us == Black {
		gs.FullMoveNumber++
	}
}

// UnmakeMove takes back the last move. It does nothing if no move was played.
func (gs *GameState) UnmakeMove() {
	n := len(gs.moveLog)
	if n == 0 {
		return
	}

	m := gs.moveLog[n-1]
	gs.moveLog = gs.moveLog[:n-1]
	us := m.Moved.Color()

	gs.Board.set(m.From, m.Moved)
	if m.EnPassant {
		gs.Board.set(m.To, NoPiece)
		gs.Board.set(NewSquare(m.From.Row(), m.To.Col()), m.Captured)
	} else {
		gs.Board.set(m.To, m.Captured)
	}
	gs.SideToMove = gs.SideToMove.Other()

	if m.Moved.Type() == King {
		gs.KingSquare[us] = m.From
	}

	gs.enPassantLog = gs.enPassantLog[:len(gs.enPassantLog)-1]
	gs.EnPassant = gs.enPassantLog[len(gs.enPassantLog)-1]

	gs.castlingLog = gs.castlingLog[:len(gs.castlingLog)-1]
	gs.CastlingRights = gs.castlingLog[len(gs.castlingLog)-1]

	gs.halfMoveLog = gs.halfMoveLog[:len(gs.halfMoveLog)-1]
	gs.HalfMoveClock = gs.halfMoveLog[len(gs.halfMoveLog)-1]
	if us == Black {
		gs.FullMoveNumber--
	}

	if m.Castle {
		rookFrom, rookTo := castleRookSquares(m)
		gs.Board.set(rookFrom, gs.Board.At(rookTo))
		gs.Board.set(rookTo, NoPiece)
	}

	gs.Checkmate = false
	gs.Stalemate = false
}

// castleRookSquares returns the rook's origin corner and post-castle square.
func castleRookSquares(m Move) (from, to Square) {
	row := m.From.Row()
	if m.To.Col() > m.From.Col() {
		return NewSquare(row, 7), NewSquare(row, 5)
	}
	return NewSquare(row, 0), NewSquare(row, 3)
}

// updateCastlingRights revokes rights after a move. A king move revokes both
// of its side's rights; anything leaving or landing on a rook corner revokes
// that corner's right.
func (gs *GameState) updateCastlingRights(m Move) {
	if m.Moved.Type() == King {
		gs.CastlingRights &^= castleRight(m.Moved.Color(), true) | castleRight(m.Moved.Color(), false)
	}
	if r, ok := cornerRights[m.From]; ok {
		gs.CastlingRights &^= r
	}
	if r, ok := cornerRights[m.To]; ok {
		gs.CastlingRights &^= r
	}
}

// Status describes whether the game has ended.
type Status int

const (
	Ongoing Status = iota
	CheckmateStatus
	StalemateStatus
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case CheckmateStatus:
		return "Checkmate"
	case StalemateStatus:
		return "Stalemate"
	default:
		return "Ongoing"
	}
}

// Status reports the outcome flags computed by the last LegalMoves call.
func (gs *GameState) Status() Status {
	switch {
	case gs.Checkmate:
		return CheckmateStatus
	case gs.Stalemate:
		return StalemateStatus
	default:
		return Ongoing
	}
}

// Result returns the game result in PGN form ("1-0", "0-1", "1/2-1/2" or "*").
func (gs *GameState) Result() string {
	switch {
	case gs.Checkmate && gs.SideToMove == White:
		return "0-1"
	case gs.Checkmate:
		return "1-0"
	case gs.Stalemate:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// String returns a visual representation of the state.
func (gs *GameState) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%c  ", '8'-row)
		for col := 0; col < 8; col++ {
			piece := gs.Board[row][col]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", gs.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", gs.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", gs.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", gs.HalfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", gs.FullMoveNumber)
	return sb.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
