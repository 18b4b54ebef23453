// Package engine implements the chess AI: static evaluation and a fixed-depth
// negamax search with alpha-beta pruning.
package engine

import (
	"github.com/hailam/chessmate/internal/board"
)

// Evaluation constants
const (
	PawnValue   = 1
	KnightValue = 3
	BishopValue = 3
	RookValue   = 5
	QueenValue  = 10
	KingValue   = 0

	CheckmateScore = 1000
	StalemateScore = 0
)

// Piece values array for quick lookup
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Evaluate returns the static score of the state from White's point of view.
//
// A mated side has no moves, so the mate score favors the side not to move.
// The Checkmate and Stalemate flags are those computed by the last
// LegalMoves call on the state.
func Evaluate(gs *board.GameState) int {
	if gs.Checkmate {
		if gs.SideToMove == board.White {
			return -CheckmateScore
		}
		return CheckmateScore
	}
	if gs.Stalemate {
		return StalemateScore
	}
	return EvaluateMaterial(&gs.Board)
}

// EvaluateMaterial returns the material balance (positive favors White).
func EvaluateMaterial(b *board.Board) int {
	score := 0
	for row := range b {
		for _, p := range b[row] {
			switch p.Color() {
			case board.White:
				score += pieceValues[p.Type()]
			case board.Black:
				score -= pieceValues[p.Type()]
			}
		}
	}
	return score
}
