package engine

import (
	"github.com/hailam/chessmate/internal/board"
)

// Search constants
const (
	Infinity     = 1 << 20
	DefaultDepth = 2
	MaxDepth     = 8
)

// Searcher performs a fixed-depth negamax search. It keeps no state between
// searches other than the node counter of the last one.
type Searcher struct {
	depth int
	nodes uint64
}

// NewSearcher creates a searcher for the given depth, clamped to [1, MaxDepth].
func NewSearcher(depth int) *Searcher {
	return &Searcher{depth: clampDepth(depth)}
}

// Depth returns the search depth.
func (s *Searcher) Depth() int {
	return s.depth
}

// Nodes returns the number of nodes visited by the last search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search runs negamax with alpha-beta pruning over the root moves in the
// order given. It returns the first move reaching the best score, and that
// score from the side to move's point of view. With no root moves it returns
// NoMove and the static score.
//
// The state is used as a scratchpad: every MakeMove is paired with an
// UnmakeMove, so it is back in its original position on return.
func (s *Searcher) Search(gs *board.GameState, moves []board.Move) (board.Move, int) {
	s.nodes = 0
	best := board.NoMove
	score := s.negamax(gs, moves, s.depth, -Infinity, Infinity, sideSign(gs.SideToMove), &best)
	return best, score
}

// Minimax runs the same search without pruning. It visits every node and
// exists as a reference for Search.
func (s *Searcher) Minimax(gs *board.GameState, moves []board.Move) (board.Move, int) {
	s.nodes = 0
	best := board.NoMove
	score := s.minimax(gs, moves, s.depth, sideSign(gs.SideToMove), &best)
	return best, score
}

// negamax returns the score of the state for the side whose sign is given.
// best is non-nil only at the root, where it receives the chosen move.
func (s *Searcher) negamax(gs *board.GameState, moves []board.Move, depth, alpha, beta, sign int, best *board.Move) int {
	s.nodes++

	// A node without moves is terminal whatever the remaining depth.
	if depth == 0 || len(moves) == 0 {
		return sign * Evaluate(gs)
	}

	bestScore := -Infinity
	for _, m := range moves {
		gs.MakeMove(m)
		score := -s.negamax(gs, gs.LegalMoves(), depth-1, -beta, -alpha, -sign, nil)
		gs.UnmakeMove()

		if score > bestScore {
			bestScore = score
			if best != nil {
				*best = m
			}
		}
		alpha = max(alpha, bestScore)
		if alpha >= beta {
			break
		}
	}
	return bestScore
}

func (s *Searcher) minimax(gs *board.GameState, moves []board.Move, depth, sign int, best *board.Move) int {
	s.nodes++

	if depth == 0 || len(moves) == 0 {
		return sign * Evaluate(gs)
	}

	bestScore := -Infinity
	for _, m := range moves {
		gs.MakeMove(m)
		score := -s.minimax(gs, gs.LegalMoves(), depth-1, -sign, nil)
		gs.UnmakeMove()

		if score > bestScore {
			bestScore = score
			if best != nil {
				*best = m
			}
		}
	}
	return bestScore
}

// sideSign is +1 for White and -1 for Black.
func sideSign(c board.Color) int {
	if c == board.White {
		return 1
	}
	return -1
}

func clampDepth(depth int) int {
	return min(max(depth, 1), MaxDepth)
}
