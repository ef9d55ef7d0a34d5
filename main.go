// ════════════════════════════════════════════════════════════════════════════════════════════════
// Tick Store - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: Main Entry Point & System Orchestration
//
// Description:
//   System orchestration with phased initialization and clean separation of concerns.
//   Bootstrap → Consumer Fleet → Memory Optimization → Production Event Processing
//
// Architecture:
//   - Phase 0: Symbol universe load, store construction, archive warm-up
//   - Phase 1: Pinned consumer fleet over every partition stream
//   - Phase 2: Memory cleanup and optimization for production
//   - Phase 3: Real-time tick processing with GC disabled
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"crypto/tls"
	"net"
	"os"
	"os/signal"
	"runtime"
	rtdebug "runtime/debug"
	"sync/atomic"
	"syscall"
	"time"

	"tickdb/archive"
	"tickdb/constants"
	"tickdb/control"
	"tickdb/debug"
	"tickdb/feed"
	"tickdb/mpmc"
	"tickdb/partition"
	"tickdb/table"
	"tickdb/tick"
	"tickdb/utils"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONSUMER-SIDE STATE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// topOfBook caches the latest quote per partition slot. Exactly one pinned
// L1 consumer writes each slot, so plain stores suffice.
var topOfBook [constants.MaxSymbols]tick.Record

// Stream tallies, reported at shutdown.
var (
	quotesSeen atomic.Uint64
	tradesSeen atomic.Uint64
	refsSeen   atomic.Uint64
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MAIN ORCHESTRATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// main orchestrates the complete system lifecycle in distinct phases.
func main() {
	// PHASE 0: System initialization and data loading
	debug.DropMessage("INIT", "Loading symbol universe")

	symbols := loadSymbolsFromFile("symbols.txt")
	debug.DropMessage("LOADED", utils.Itoa(len(symbols))+" symbols")

	// Display sample data for verification during development
	for i := 0; i < 3 && i < len(symbols); i++ {
		debug.DropMessage("SYMBOL", utils.Itoa(i+1)+": "+symbols[i])
	}

	// Construct the store: partition universe, feed mirror, decoder
	mgr, err := partition.NewManager(partition.DefaultConfig())
	if err != nil {
		panic("Failed to build partition manager: " + err.Error())
	}

	mirror, err := table.New("feed_mirror", feed.MirrorTableConfig(constants.DefaultFieldRingCapacity))
	if err != nil {
		panic("Failed to build mirror table: " + err.Error())
	}

	dec := feed.NewDecoder(mgr, mirror)
	for _, s := range symbols {
		if err := dec.Track(s); err != nil {
			panic("Failed to track " + s + ": " + err.Error())
		}
	}

	// PHASE 1: Pinned consumer fleet over every partition stream.
	// Without drains the fixed-capacity partition rings would fill within
	// seconds of live traffic and every later write would be dropped.
	startConsumerFleet(mgr, symbols)

	// Archive sink: drains the mirror table off the hot path
	arc, err := archive.Open(constants.ArchivePath, mirror)
	if err != nil {
		panic("Failed to open archive: " + err.Error())
	}

	stopFlag, _ := control.Flags()
	control.ShutdownWG.Add(1)
	go func() {
		defer control.ShutdownWG.Done()
		arc.Run(stopFlag, constants.ArchiveBatchSize, 50*time.Millisecond)
		if err := arc.Close(); err != nil {
			debug.DropError("ARCHIVE_CLOSE", err)
		}
	}()

	debug.DropMessage("READY", "System initialized")

	setupSignalHandling()

	// PHASE 2: Memory optimization for deterministic runtime behavior
	// Performs garbage collection and memory consolidation before production mode
	runtime.GC()
	runtime.GC() // Double GC to ensure thorough cleanup
	rtdebug.FreeOSMemory()

	// PHASE 3: Production mode with optimized runtime characteristics
	rtdebug.SetGCPercent(-1) // Disable garbage collection; hot paths allocate nothing
	runtime.LockOSThread()   // Lock the feed pump to the current OS thread
	control.ForceHot()       // Consumers start hot; cooldown takes over from here

	// Infinite reconnection loop for continuous tick processing
	for *stopFlag == 0 {
		if err := processTickStream(dec, symbols); err != nil {
			debug.DropError("FEED", err)
		}
	}

	control.ShutdownWG.Wait()
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONSUMER FLEET
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// startConsumerFleet launches one pinned drain per symbol stream, cores
// assigned round-robin across the machine. The very first drain runs the
// cooldown variant so exactly one core manages the global hot/cold
// transition; all others run the standard consumer.
func startConsumerFleet(mgr *partition.Manager, symbols []string) {
	stopFlag, hotFlag := control.Flags()
	cores := runtime.NumCPU()
	launched := 0

	for _, sym := range symbols {
		b, err := mgr.Register(sym) // Idempotent; resolves the live partition
		if err != nil {
			panic("Failed to resolve partition for " + sym + ": " + err.Error())
		}
		slot, ok := mgr.Index().Lookup(b.Token())
		if !ok {
			panic("Symbol index lost " + sym)
		}

		for _, st := range [...]partition.Stream{partition.L1Quote, partition.Trade, partition.Reference} {
			handler := streamHandler(st, slot)
			done := make(chan struct{})
			core := launched % cores

			if launched == 0 {
				mpmc.PinnedConsumerWithCooldown(core, b.Ring(st), stopFlag, hotFlag, handler, done)
			} else {
				mpmc.PinnedConsumer(core, b.Ring(st), stopFlag, hotFlag, handler, done)
			}
			launched++

			// Fold each consumer's termination into the shutdown barrier
			control.ShutdownWG.Add(1)
			go func(d <-chan struct{}) {
				<-d
				control.ShutdownWG.Done()
			}(done)
		}
	}

	debug.DropMessage("CONSUMERS", utils.Itoa(launched)+" pinned drains across "+utils.Itoa(cores)+" cores")
}

// streamHandler returns the per-stream record callback: quotes refresh the
// top-of-book cache, trades and reference updates are tallied.
func streamHandler(st partition.Stream, slot uint32) func(tick.Record) {
	switch st {
	case partition.L1Quote:
		return func(rec tick.Record) {
			topOfBook[slot] = rec
			quotesSeen.Add(1)
		}
	case partition.Trade:
		return func(rec tick.Record) {
			tradesSeen.Add(1)
		}
	default:
		return func(rec tick.Record) {
			refsSeen.Add(1)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// DATA LOADING FUNCTIONS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// loadSymbolsFromFile parses the subscription universe from a text file,
// one symbol per line. Byte-by-byte parsing into a slice sized once from
// the line count; blank lines and '#' comments are skipped.
func loadSymbolsFromFile(filename string) []string {
	data, err := os.ReadFile(filename)
	if err != nil {
		panic("Failed to load symbols: " + err.Error())
	}

	// Count lines to size the slice once (an upper bound on symbols)
	lineCount := 0
	for _, b := range data {
		if b == '\n' {
			lineCount++
		}
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		lineCount++ // Account for final line without newline
	}

	symbols := make([]string, 0, lineCount)
	i, dataLen := 0, len(data)

	for i < dataLen {
		start := i
		for i < dataLen && data[i] != '\n' {
			i++
		}
		line := data[start:i]
		if i < dataLen {
			i++ // Skip '\n'
		}

		// Trim trailing CR from CRLF files
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		symbols = append(symbols, string(line))
	}

	if len(symbols) == 0 {
		panic("No symbols found in file")
	}
	return symbols
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PRODUCTION TICK PROCESSING
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// processTickStream establishes the feed connection and pumps frames until
// failure. Connection-level tuning happens here; protocol handling lives
// in the feed package.
func processTickStream(dec *feed.Decoder, symbols []string) error {
	raw, err := net.Dial("tcp", constants.WsDialAddr)
	if err != nil {
		return err
	}

	// Configure TCP-level optimizations
	if tcpConn, ok := raw.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)                       // Disable Nagle's algorithm
		tcpConn.SetReadBuffer(constants.MaxFrameSize)  // Optimize read buffer size
		tcpConn.SetWriteBuffer(constants.MaxFrameSize) // Optimize write buffer size
	}

	// TLS over the tuned TCP connection
	conn := tls.Client(raw, &tls.Config{ServerName: constants.WsHost})

	err = feed.Ingest(conn, dec, symbols)
	conn.Close()
	return err // Non-nil by contract; triggers reconnection
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SYSTEM LIFECYCLE MANAGEMENT
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// setupSignalHandling configures graceful shutdown coordination.
// Uses the control package's ShutdownWG for proper subsystem coordination.
func setupSignalHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Background signal handler for coordinated shutdown
	go func() {
		<-sigChan
		debug.DropMessage("SIGNAL", "Received interrupt, shutting down...")

		// Signal shutdown to all subsystems
		control.Shutdown()

		// Wait for all subsystems to complete graceful shutdown
		control.ShutdownWG.Wait()

		debug.DropMessage("STATS", utils.Itoa(int(quotesSeen.Load()))+" quotes, "+
			utils.Itoa(int(tradesSeen.Load()))+" trades, "+
			utils.Itoa(int(refsSeen.Load()))+" reference updates consumed")
		debug.DropMessage("SIGNAL", "All subsystems shutdown complete")
		os.Exit(0)
	}()
}
