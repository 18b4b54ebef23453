package engine

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/hailam/chessmate/internal/board"
)

// SearchInfo contains information about a finished search.
type SearchInfo struct {
	Depth int
	Score int // From the side to move's point of view
	Nodes uint64
	Time  time.Duration
	Move  board.Move
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 1 ply
	Medium                   // 2 ply
	Hard                     // 3 ply
)

// String returns the difficulty name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// ParseDifficulty parses a difficulty name.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return Medium, fmt.Errorf("unknown difficulty: %s", s)
	}
}

// DifficultyDepth maps difficulty to search depth.
var DifficultyDepth = map[Difficulty]int{
	Easy:   1,
	Medium: DefaultDepth,
	Hard:   3,
}

// Engine is the chess AI. It shuffles the root moves with its own random
// source before every search, so games vary between runs but a fixed seed
// reproduces them.
type Engine struct {
	searcher *Searcher
	rng      *rand.Rand

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine searching at DefaultDepth with the given seed.
func NewEngine(seed int64) *Engine {
	return NewEngineWithRand(rand.New(rand.NewSource(seed)))
}

// NewEngineWithRand creates an engine that draws its randomness from rng.
func NewEngineWithRand(rng *rand.Rand) *Engine {
	return &Engine{
		searcher: NewSearcher(DefaultDepth),
		rng:      rng,
	}
}

// SetDepth sets the search depth, clamped to [1, MaxDepth].
func (e *Engine) SetDepth(depth int) {
	e.searcher = NewSearcher(depth)
}

// Depth returns the search depth.
func (e *Engine) Depth() int {
	return e.searcher.Depth()
}

// SetDifficulty sets the search depth from a difficulty level.
func (e *Engine) SetDifficulty(d Difficulty) {
	depth, ok := DifficultyDepth[d]
	if !ok {
		depth = DefaultDepth
	}
	e.SetDepth(depth)
}

// Search shuffles a copy of moves and searches them. The returned move is
// NoMove when moves is empty.
func (e *Engine) Search(gs *board.GameState, moves []board.Move) SearchInfo {
	startTime := time.Now()

	ordered := append([]board.Move(nil), moves...)
	e.rng.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})

	move, score := e.searcher.Search(gs, ordered)

	info := SearchInfo{
		Depth: e.searcher.Depth(),
		Score: score,
		Nodes: e.searcher.Nodes(),
		Time:  time.Since(startTime),
		Move:  move,
	}
	if e.OnInfo != nil {
		e.OnInfo(info)
	}
	return info
}

// ChooseMove returns the engine's move for the side to move, falling back to
// a random legal move if the search finds none. moves must be the state's
// legal moves and must not be empty.
func (e *Engine) ChooseMove(gs *board.GameState, moves []board.Move) board.Move {
	if len(moves) == 0 {
		panic("engine: ChooseMove called without legal moves")
	}

	info := e.Search(gs, moves)
	if info.Move.IsNull() {
		return e.RandomMove(moves)
	}
	return info.Move
}

// RandomMove picks a uniformly random move. moves must not be empty.
func (e *Engine) RandomMove(moves []board.Move) board.Move {
	if len(moves) == 0 {
		panic("engine: RandomMove called without moves")
	}
	return moves[e.rng.Intn(len(moves))]
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(gs *board.GameState, depth int) uint64 {
	return Perft(gs, depth)
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
// A depth below 1 counts the current position only.
func Perft(gs *board.GameState, depth int) uint64 {
	if depth <= 0 {
		return 1
	}

	moves := gs.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, move := range moves {
		gs.MakeMove(move)
		nodes += Perft(gs, depth-1)
		gs.UnmakeMove()
	}

	return nodes
}

// Evaluate returns the static evaluation of a state.
func (e *Engine) Evaluate(gs *board.GameState) int {
	return Evaluate(gs)
}

// ScoreToString converts a side-to-move score to a human-readable string.
func ScoreToString(score int) string {
	switch {
	case score >= CheckmateScore:
		return "Mate"
	case score <= -CheckmateScore:
		return "Mated"
	case score > 0:
		return "+" + strconv.Itoa(score)
	default:
		return strconv.Itoa(score)
	}
}
