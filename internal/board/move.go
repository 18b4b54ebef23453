package board

import (
	"fmt"
	"strings"
)

// Move describes one ply. Moves are values and are never modified after
// construction.
//
// For en passant captures Captured holds the pawn that is actually removed,
// which sits beside the origin square rather than on the destination.
type Move struct {
	From     Square
	To       Square
	Moved    Piece
	Captured Piece

	EnPassant bool
	Castle    bool
	Promotion bool
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare}

// NewMove creates a move from one square to another, reading the moved and
// captured pieces from the board.
func NewMove(from, to Square, b *Board) Move {
	return Move{
		From:     from,
		To:       to,
		Moved:    b.At(from),
		Captured: b.At(to),
	}
}

// IsNull returns true for NoMove and other moves that go nowhere.
func (m Move) IsNull() bool {
	return m.From == m.To || !m.From.IsValid() || !m.To.IsValid()
}

// ID returns the equality key of the move, derived from its coordinates:
// fromRow*1000 + fromCol*100 + toRow*10 + toCol.
func (m Move) ID() int {
	return m.From.Row()*1000 + m.From.Col()*100 + m.To.Row()*10 + m.To.Col()
}

// Equal reports whether two moves share the same equality key.
func (m Move) Equal(o Move) bool {
	return m.ID() == o.ID()
}

// IsCapture returns true if this move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m.Captured != NoPiece
}

// String returns the coordinate format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}

	s := m.From.String() + m.To.String()
	if m.Promotion {
		s += "q"
	}
	return s
}

// Notation returns the short display form used by move logs:
// "O-O"/"O-O-O" for castles, "e4" for pawn pushes, "exd5" for pawn
// captures and "Nf3"/"Bxc4" for other pieces.
func (m Move) Notation() string {
	if m.IsNull() {
		return "-"
	}

	if m.Castle {
		if m.To.Col() > m.From.Col() {
			return "O-O"
		}
		return "O-O-O"
	}

	var sb strings.Builder

	if m.Moved.Type() == Pawn {
		if m.IsCapture() {
			sb.WriteByte(m.From.File())
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.Promotion {
			sb.WriteString("=Q")
		}
		return sb.String()
	}

	sb.WriteByte(m.Moved.Type().Letter())
	if m.IsCapture() {
		sb.WriteByte('x')
	}
	sb.WriteString(m.To.String())
	return sb.String()
}

// ParseMove parses a coordinate move string ("e2e4", "e7e8q") and resolves it
// against the legal moves of the state. The state is not modified.
func ParseMove(s string, gs *GameState) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	// Promotion is always to a queen, so any suffix must say so.
	if len(s) == 5 && s[4] != 'q' && s[4] != 'Q' {
		return NoMove, fmt.Errorf("unsupported promotion piece: %c", s[4])
	}

	m, ok := gs.FindMove(from, to)
	if !ok {
		return NoMove, fmt.Errorf("illegal move: %s", s)
	}
	return m, nil
}
