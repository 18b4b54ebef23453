package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/hailam/chessmate/internal/engine"
	"github.com/hailam/chessmate/internal/storage"
	"github.com/hailam/chessmate/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	depth      = flag.Int("depth", 0, "search depth in plies (overrides the saved difficulty)")
	seed       = flag.Int64("seed", 0, "random seed for move ordering (0 uses the clock)")
	dbDir      = flag.String("db", "", "database directory (default: platform data directory)")
	noDB       = flag.Bool("nodb", false, "run without persistent storage")
)

func main() {
	flag.Parse()

	// UCI owns stdout; diagnostics go to stderr.
	log.SetOutput(os.Stderr)

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	eng := engine.NewEngine(s)

	store := openStorage()
	if store != nil {
		defer store.Close()
	}

	protocol := uci.New(eng, store)
	if *depth > 0 {
		eng.SetDepth(*depth)
	}

	if err := protocol.Run(); err != nil {
		log.Printf("Input error: %v", err)
	}
}

// openStorage opens the database, or returns nil if storage is disabled or
// unavailable.
func openStorage() *storage.Storage {
	if *noDB {
		return nil
	}

	var (
		store *storage.Storage
		err   error
	)
	if *dbDir != "" {
		store, err = storage.Open(*dbDir)
	} else {
		store, err = storage.NewStorage()
	}
	if err != nil {
		log.Printf("Warning: storage not available: %v (games will not be saved)", err)
		return nil
	}
	return store
}
