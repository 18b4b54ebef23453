package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// Forward returns the row delta a pawn of this color advances by.
// Row 0 is Black's back rank, so White moves toward lower rows.
func (c Color) Forward() int {
	if c == White {
		return -1
	}
	return 1
}

// PieceType represents the kind of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Letter returns the uppercase letter used in move notation ('P' for pawns).
func (pt PieceType) Letter() byte {
	if pt >= NoPieceType {
		return ' '
	}
	return "PNBRQK"[pt]
}

// Piece is the occupant of a square: either NoPiece or a colored piece.
// Encoded as: 1 + pieceType + color*6, so the zero value is an empty square.
type Piece uint8

const (
	NoPiece     Piece = 0
	WhitePawn   Piece = 1 + Piece(Pawn) + Piece(White)*6
	WhiteKnight Piece = 1 + Piece(Knight) + Piece(White)*6
	WhiteBishop Piece = 1 + Piece(Bishop) + Piece(White)*6
	WhiteRook   Piece = 1 + Piece(Rook) + Piece(White)*6
	WhiteQueen  Piece = 1 + Piece(Queen) + Piece(White)*6
	WhiteKing   Piece = 1 + Piece(King) + Piece(White)*6
	BlackPawn   Piece = 1 + Piece(Pawn) + Piece(Black)*6
	BlackKnight Piece = 1 + Piece(Knight) + Piece(Black)*6
	BlackBishop Piece = 1 + Piece(Bishop) + Piece(Black)*6
	BlackRook   Piece = 1 + Piece(Rook) + Piece(Black)*6
	BlackQueen  Piece = 1 + Piece(Queen) + Piece(Black)*6
	BlackKing   Piece = 1 + Piece(King) + Piece(Black)*6
)

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return 1 + Piece(pt) + Piece(c)*6
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	if p == NoPiece || p > BlackKing {
		return NoPieceType
	}
	return PieceType((p - 1) % 6)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if p == NoPiece || p > BlackKing {
		return NoColor
	}
	return Color((p - 1) / 6)
}

// Is reports whether the piece is of the given type and color.
func (p Piece) Is(pt PieceType, c Color) bool {
	return p != NoPiece && p == NewPiece(pt, c)
}

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) String() string {
	if p == NoPiece || p > BlackKing {
		return " "
	}
	chars := "PNBRQKpnbrqk"
	return string(chars[p-1])
}

// PieceFromChar converts a FEN character to a Piece.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'P':
		return WhitePawn
	case 'N':
		return WhiteKnight
	case 'B':
		return WhiteBishop
	case 'R':
		return WhiteRook
	case 'Q':
		return WhiteQueen
	case 'K':
		return WhiteKing
	case 'p':
		return BlackPawn
	case 'n':
		return BlackKnight
	case 'b':
		return BlackBishop
	case 'r':
		return BlackRook
	case 'q':
		return BlackQueen
	case 'k':
		return BlackKing
	default:
		return NoPiece
	}
}
