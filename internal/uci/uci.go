// Package uci drives the rules engine and the AI over a UCI-style line
// protocol.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chessmate/internal/board"
	"github.com/hailam/chessmate/internal/engine"
	"github.com/hailam/chessmate/internal/record"
	"github.com/hailam/chessmate/internal/storage"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	store    *storage.Storage // nil disables persistence
	prefs    *storage.UserPreferences
	position *board.GameState
	startFEN string

	// Game bookkeeping for the archive
	engineColor board.Color
	started     time.Time
	archived    bool

	out io.Writer

	// CPU profiling
	profileFile *os.File
}

// New creates a new UCI protocol handler. store may be nil.
func New(eng *engine.Engine, store *storage.Storage) *UCI {
	u := &UCI{
		engine:      eng,
		store:       store,
		prefs:       storage.DefaultPreferences(),
		out:         os.Stdout,
		engineColor: board.NoColor,
	}
	if store != nil {
		prefs, err := store.LoadPreferences()
		if err != nil {
			log.Printf("Warning: could not load preferences: %v", err)
		} else {
			u.prefs = prefs
		}
	}
	u.applyPreferences()
	u.resetGame(board.NewGame(), board.StartFEN)
	return u
}

// Position returns the current game state.
func (u *UCI) Position() *board.GameState {
	return u.position
}

// Run starts the UCI main loop on stdin and stdout.
func (u *UCI) Run() error {
	return u.RunIO(os.Stdin, os.Stdout)
}

// RunIO reads commands from r until "quit" or end of input, writing
// responses to w.
func (u *UCI) RunIO(r io.Reader, w io.Writer) error {
	u.out = w
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Fprintln(u.out, "readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			// Searches are synchronous; nothing to stop.
		case "quit":
			u.handleQuit()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			fmt.Fprint(u.out, u.position.String())
			fmt.Fprintf(u.out, "Fen: %s\n", u.position.FEN())
			if last := u.position.LastMove(); !last.IsNull() {
				fmt.Fprintf(u.out, "Last move: %s\n", last.Notation())
			}
		case "perft":
			u.handlePerft(args)
		case "undo":
			u.handleUndo()
		case "pgn":
			u.handlePGN()
		case "games":
			u.handleGames(args)
		default:
			fmt.Fprintf(u.out, "info string Unknown command: %s\n", cmd)
		}
	}

	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	fmt.Fprintln(u.out, "id name chessmate")
	fmt.Fprintln(u.out, "id author chessmate authors")
	fmt.Fprintln(u.out)
	fmt.Fprintf(u.out, "option name Difficulty type combo default %s var easy var medium var hard\n", engine.Medium)
	fmt.Fprintf(u.out, "option name Depth type spin default %d min 1 max %d\n", engine.DefaultDepth, engine.MaxDepth)
	fmt.Fprintln(u.out, "option name CPUProfile type string default <empty>")
	fmt.Fprintln(u.out, "uciok")
}

// handleNewGame archives the current game if moves were played and starts
// over from the initial position.
func (u *UCI) handleNewGame() {
	if u.position.Ply() > 0 {
		u.archiveGame()
	}
	u.resetGame(board.NewGame(), board.StartFEN)
}

func (u *UCI) resetGame(gs *board.GameState, fen string) {
	u.position = gs
	u.startFEN = fen
	u.engineColor = board.NoColor
	u.started = time.Now()
	u.archived = false
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	// Find "moves" keyword
	specEnd, moveStart := len(args), len(args)
	for i, arg := range args {
		if arg == "moves" {
			specEnd, moveStart = i, i+1
			break
		}
	}

	var gs *board.GameState
	var fen string
	switch args[0] {
	case "startpos":
		gs, fen = board.NewGame(), board.StartFEN
	case "fen":
		fen = strings.Join(args[1:specEnd], " ")
		pos, err := board.ParseFEN(fen)
		if err != nil {
			fmt.Fprintf(u.out, "info string Invalid FEN: %v\n", err)
			return
		}
		gs = pos
	default:
		return
	}

	// A GUI resends the whole game on every move; keep the game's clock,
	// engine side and archive state when the position continues this game.
	sameGame := fen == u.startFEN
	prevFEN, archived := u.position.FEN(), u.archived
	engineColor, started := u.engineColor, u.started
	u.resetGame(gs, fen)
	if sameGame {
		u.engineColor, u.started = engineColor, started
	}

	for _, moveStr := range args[moveStart:] {
		if !u.applyMove(moveStr) {
			fmt.Fprintf(u.out, "info string Invalid move: %s\n", moveStr)
			break
		}
	}

	if sameGame && u.position.FEN() == prevFEN {
		u.archived = archived
	}
	if len(u.position.LegalMoves()) == 0 {
		u.archiveGame()
	}
}

// applyMove plays a coordinate move if it is legal in the current position.
// ParseMove has already matched it against the legal moves.
func (u *UCI) applyMove(s string) bool {
	m, err := board.ParseMove(s, u.position)
	if err != nil {
		return false
	}
	u.position.MakeMove(m)
	return true
}

// handleGo searches the current position and prints the best move.
// "go depth N" overrides the configured depth for this search only.
func (u *UCI) handleGo(args []string) {
	depth := 0
	for i := 0; i < len(args); i++ {
		if args[i] == "depth" && i+1 < len(args) {
			depth, _ = strconv.Atoi(args[i+1])
			i++
		}
	}

	moves := u.position.LegalMoves()
	if len(moves) == 0 {
		fmt.Fprintln(u.out, "bestmove 0000")
		return
	}

	if depth > 0 {
		saved := u.engine.Depth()
		u.engine.SetDepth(depth)
		defer u.engine.SetDepth(saved)
	}

	u.engine.OnInfo = u.sendInfo
	u.engineColor = u.position.SideToMove

	// Search on a copy so the game position cannot be disturbed.
	best := u.engine.ChooseMove(u.position.Copy(), moves)
	fmt.Fprintf(u.out, "bestmove %s\n", best)
}

// sendInfo outputs search info in UCI format. Scores are in pawns, so they
// are scaled to centipawns.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	parts = append(parts, fmt.Sprintf("score cp %d", info.Score*100))
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	if !info.Move.IsNull() {
		parts = append(parts, "pv "+info.Move.String())
	}

	fmt.Fprintf(u.out, "info %s\n", strings.Join(parts, " "))
}

// handleUndo takes back the last move.
func (u *UCI) handleUndo() {
	if u.position.Ply() == 0 {
		fmt.Fprintln(u.out, "info string Nothing to undo")
		return
	}
	u.position.Undo()
	u.archived = false
}

// handleGames lists archived games, newest first.
// Formats:
//   - games [N]
//   - games show <id>
func (u *UCI) handleGames(args []string) {
	if u.store == nil {
		fmt.Fprintln(u.out, "info string Storage disabled")
		return
	}

	if len(args) > 1 && args[0] == "show" {
		u.printGame(args[1])
		return
	}

	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintf(u.out, "info string Invalid count: %s\n", args[0])
			return
		}
		limit = n
	}

	games, err := u.store.ListGames(limit)
	if err != nil {
		fmt.Fprintf(u.out, "info string Could not list games: %v\n", err)
		return
	}
	for _, g := range games {
		fmt.Fprintf(u.out, "%s %s %s %s moves %d\n",
			g.ID, g.Played.Format(time.RFC3339), g.Result, g.Method, len(g.Moves))
	}
}

// printGame prints the PGN of one archived game.
func (u *UCI) printGame(id string) {
	g, err := u.store.LoadGame(id)
	if err != nil {
		fmt.Fprintf(u.out, "info string %v\n", err)
		return
	}
	fmt.Fprintln(u.out, g.PGN)
}

// handlePGN prints the current game as PGN.
func (u *UCI) handlePGN() {
	rec, err := u.record()
	if err != nil {
		fmt.Fprintf(u.out, "info string PGN export failed: %v\n", err)
		return
	}
	fmt.Fprintln(u.out, rec.PGN())
}

func (u *UCI) record() (*record.Record, error) {
	rec, err := record.FromState(u.startFEN, u.position)
	if err != nil {
		return nil, err
	}

	white, black := u.prefs.Username, "chessmate"
	if u.playerColor() == board.Black {
		white, black = black, white
	}
	rec.SetPlayers(white, black)
	return rec, nil
}

// playerColor is the side the engine was not asked to play.
func (u *UCI) playerColor() board.Color {
	if u.engineColor != board.NoColor {
		return u.engineColor.Other()
	}
	if u.prefs.PlayerColor == storage.ColorBlack {
		return board.Black
	}
	return board.White
}

// archiveGame stores the current game and, when it is finished, counts it in
// the statistics. Each game is archived once.
func (u *UCI) archiveGame() {
	if u.store == nil || u.archived {
		return
	}
	u.archived = true

	rec, err := u.record()
	if err != nil {
		log.Printf("Warning: could not export game: %v", err)
		return
	}

	moves := make([]string, 0, u.position.Ply())
	for _, m := range u.position.History() {
		moves = append(moves, m.String())
	}

	gr := &storage.GameRecord{
		StartFEN:   u.startFEN,
		FinalFEN:   u.position.FEN(),
		Moves:      moves,
		PGN:        rec.PGN(),
		Result:     u.position.Result(),
		Method:     rec.Method(),
		Difficulty: u.prefs.Difficulty.String(),
	}
	if err := u.store.ArchiveGame(gr); err != nil {
		log.Printf("Warning: could not archive game: %v", err)
		return
	}

	if u.position.Status() == board.Ongoing {
		return
	}
	result := storage.GameResult{
		Draw:       u.position.Stalemate,
		Won:        u.position.Checkmate && u.position.SideToMove != u.playerColor(),
		Difficulty: u.prefs.Difficulty,
		Duration:   time.Since(u.started),
	}
	if err := u.store.RecordGame(result); err != nil {
		log.Printf("Warning: could not record game: %v", err)
	}
}

// handleQuit archives an unfinished game and stops profiling.
func (u *UCI) handleQuit() {
	if u.position.Ply() > 0 {
		u.archiveGame()
	}
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
		u.profileFile = nil
		log.Printf("CPU profile saved")
	}
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "difficulty":
		d, err := engine.ParseDifficulty(strings.ToLower(value))
		if err != nil {
			fmt.Fprintf(u.out, "info string %v\n", err)
			return
		}
		u.prefs.Difficulty = storage.Difficulty(d)
		u.prefs.Depth = 0
		u.applyPreferences()
		u.savePreferences()
	case "depth":
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 1 {
			fmt.Fprintf(u.out, "info string Invalid depth: %s\n", value)
			return
		}
		u.prefs.Depth = depth
		u.applyPreferences()
		u.savePreferences()
	case "cpuprofile":
		if u.profileFile != nil {
			pprof.StopCPUProfile()
			u.profileFile.Close()
			u.profileFile = nil
			log.Printf("CPU profile stopped")
		}
		if value != "" && value != "stop" {
			f, err := os.Create(value)
			if err != nil {
				fmt.Fprintf(u.out, "info string Failed to create profile: %v\n", err)
				return
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				fmt.Fprintf(u.out, "info string Failed to start profile: %v\n", err)
				return
			}
			u.profileFile = f
			log.Printf("CPU profiling to %s", value)
		}
	default:
		fmt.Fprintf(u.out, "info string Unknown option: %s\n", name)
	}
}

// applyPreferences configures the engine from the stored preferences.
func (u *UCI) applyPreferences() {
	if u.prefs.Depth > 0 {
		u.engine.SetDepth(u.prefs.Depth)
		return
	}
	u.engine.SetDifficulty(engine.Difficulty(u.prefs.Difficulty))
}

func (u *UCI) savePreferences() {
	if u.store == nil {
		return
	}
	if err := u.store.SavePreferences(u.prefs); err != nil {
		log.Printf("Warning: could not save preferences: %v", err)
	}
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 1 {
			fmt.Fprintf(u.out, "info string Invalid depth: %s\n", args[0])
			return
		}
		depth = d
	}

	start := time.Now()
	nodes := u.engine.Perft(u.position, depth)
	elapsed := time.Since(start)

	fmt.Fprintf(u.out, "Nodes: %d\n", nodes)
	fmt.Fprintf(u.out, "Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		fmt.Fprintf(u.out, "NPS: %.0f\n", nps)
	}
}
