// Package record exports played games as PGN. Moves are replayed through
// github.com/notnil/chess, which also gives an outcome computed independently
// of our own rules code.
package record

import (
	"fmt"
	"time"

	"github.com/notnil/chess"

	"github.com/hailam/chessmate/internal/board"
)

// Record is a replayed game.
type Record struct {
	game *chess.Game
	fen  string
}

// Replay rebuilds a game from its start position and the moves played.
// An empty startFEN means the standard starting position.
func Replay(startFEN string, moves []board.Move) (*Record, error) {
	r := &Record{fen: startFEN}

	if startFEN == "" || startFEN == board.StartFEN {
		r.game = chess.NewGame()
	} else {
		opt, err := chess.FEN(startFEN)
		if err != nil {
			return nil, fmt.Errorf("record: start position: %w", err)
		}
		r.game = chess.NewGame(opt)
		r.game.AddTagPair("SetUp", "1")
		r.game.AddTagPair("FEN", startFEN)
	}

	for i, m := range moves {
		if err := r.push(m); err != nil {
			return nil, fmt.Errorf("record: ply %d: %w", i+1, err)
		}
	}
	return r, nil
}

// FromState replays the history of a game state that started at startFEN.
func FromState(startFEN string, gs *board.GameState) (*Record, error) {
	return Replay(startFEN, gs.History())
}

func (r *Record) push(m board.Move) error {
	if m.IsNull() {
		return fmt.Errorf("null move")
	}
	mv, err := chess.UCINotation{}.Decode(r.game.Position(), m.String())
	if err != nil {
		return fmt.Errorf("decode %s: %w", m, err)
	}
	if err := r.game.Move(mv); err != nil {
		return fmt.Errorf("play %s: %w", m, err)
	}
	return nil
}

// SetTag sets a PGN tag pair.
func (r *Record) SetTag(key, value string) {
	r.game.AddTagPair(key, value)
}

// SetPlayers fills in the Seven Tag Roster for a game played now.
func (r *Record) SetPlayers(white, black string) {
	r.SetTag("Event", "Casual game")
	r.SetTag("Site", "chessmate")
	r.SetTag("Date", time.Now().Format("2006.01.02"))
	r.SetTag("White", white)
	r.SetTag("Black", black)
	r.SetTag("Result", r.Result())
}

// PGN returns the game in PGN.
func (r *Record) PGN() string {
	return r.game.String()
}

// Result returns "1-0", "0-1", "1/2-1/2" or "*".
func (r *Record) Result() string {
	return r.game.Outcome().String()
}

// Method returns how the game ended, e.g. "Checkmate" or "Stalemate", or
// "NoMethod" while it is in progress.
func (r *Record) Method() string {
	return r.game.Method().String()
}

// Checkmate reports whether the replayed game ended in checkmate.
func (r *Record) Checkmate() bool {
	return r.game.Method() == chess.Checkmate
}

// Stalemate reports whether the replayed game ended in stalemate.
func (r *Record) Stalemate() bool {
	return r.game.Method() == chess.Stalemate
}

// FEN returns the final position.
func (r *Record) FEN() string {
	return r.game.Position().String()
}

// StartFEN returns the position the game was replayed from.
func (r *Record) StartFEN() string {
	if r.fen == "" {
		return board.StartFEN
	}
	return r.fen
}
