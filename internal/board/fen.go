package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string and returns a GameState with empty history.
func ParseFEN(fen string) (*GameState, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid FEN: need at least 4 fields, got %d", len(parts))
	}

	gs := &GameState{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	gs.KingSquare[White] = NoSquare
	gs.KingSquare[Black] = NoSquare

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(gs, parts[0]); err != nil {
		return nil, err
	}

	// Parse side to move (field 1)
	switch parts[1] {
	case "w":
		gs.SideToMove = White
	case "b":
		gs.SideToMove = Black
	default:
		return nil, fmt.Errorf("invalid side to move: %s", parts[1])
	}

	// Parse castling rights (field 2)
	if err := parseCastlingRights(gs, parts[2]); err != nil {
		return nil, err
	}

	// Parse en passant square (field 3)
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant square: %s", parts[3])
		}
		gs.EnPassant = sq
	}

	// Parse half-move clock (field 4, optional)
	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil {
			return nil, fmt.Errorf("invalid half-move clock: %s", parts[4])
		}
		gs.HalfMoveClock = hmc
	}

	// Parse full-move number (field 5, optional)
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil {
			return nil, fmt.Errorf("invalid full-move number: %s", parts[5])
		}
		gs.FullMoveNumber = fmn
	}

	if err := gs.Validate(); err != nil {
		return nil, err
	}

	gs.resetHistory()
	return gs, nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
// FEN lists the 8th rank first, which is row 0.
func parsePiecePlacement(gs *GameState, placement string) error {
	rows := strings.Split(placement, "/")
	if len(rows) != 8 {
		return fmt.Errorf("invalid piece placement: need 8 ranks, got %d", len(rows))
	}

	for row, rowStr := range rows {
		col := 0

		for _, c := range rowStr {
			if col > 7 {
				return fmt.Errorf("too many squares in rank %d", 8-row)
			}

			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}

			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return fmt.Errorf("invalid piece character: %c", c)
			}
			sq := NewSquare(row, col)
			gs.Board.set(sq, piece)
			if piece.Type() == King {
				gs.KingSquare[piece.Color()] = sq
			}
			col++
		}

		if col != 8 {
			return fmt.Errorf("invalid number of squares in rank %d: got %d", 8-row, col)
		}
	}

	return nil
}

// parseCastlingRights parses the castling rights section of a FEN string.
func parseCastlingRights(gs *GameState, castling string) error {
	if castling == "-" {
		gs.CastlingRights = NoCastling
		return nil
	}

	for _, c := range castling {
		switch c {
		case 'K':
			gs.CastlingRights |= WhiteKingSideCastle
		case 'Q':
			gs.CastlingRights |= WhiteQueenSideCastle
		case 'k':
			gs.CastlingRights |= BlackKingSideCastle
		case 'q':
			gs.CastlingRights |= BlackQueenSideCastle
		default:
			return fmt.Errorf("invalid castling character: %c", c)
		}
	}

	return nil
}

// Validate checks that the position can be played from.
func (gs *GameState) Validate() error {
	var kings [2]int
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := gs.Board[row][col]
			if p.Type() == King {
				kings[p.Color()]++
			}
			if p.Type() == Pawn && (row == 0 || row == 7) {
				return fmt.Errorf("pawns cannot be on rank 1 or 8")
			}
		}
	}

	if kings[White] != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if kings[Black] != 1 {
		return fmt.Errorf("black must have exactly one king")
	}

	return nil
}

// FEN returns the FEN representation of the state.
func (gs *GameState) FEN() string {
	var sb strings.Builder

	// Piece placement
	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			piece := gs.Board[row][col]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}

	// Side to move
	sb.WriteByte(' ')
	if gs.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	// Castling rights
	sb.WriteByte(' ')
	sb.WriteString(gs.CastlingRights.String())

	// En passant
	sb.WriteByte(' ')
	sb.WriteString(gs.EnPassant.String())

	// Half-move clock and full-move number
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(gs.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(gs.FullMoveNumber))

	return sb.String()
}
