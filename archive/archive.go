// ════════════════════════════════════════════════════════════════════════════════════════════════
// Tick Archive - SQLite Persistence Sink
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: In-Memory MPMC Tick Store
// Component: Edge Persistence Drain
//
// Description:
//   Transactional batch drain from the feed mirror table into a local SQLite
//   database. Strictly an edge collaborator: the drain polls the table's
//   non-blocking read path and never touches ring internals. Batches are
//   committed in single transactions with a prepared statement to amortize
//   fsync cost.
//
// Durability model:
//   WAL journal with NORMAL synchronous. A crash can lose the tail batch;
//   the store itself is ephemeral by contract, the archive is best-effort
//   capture for research, not a system of record.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package archive

import (
	"database/sql"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tickdb/debug"
	"tickdb/table"
	"tickdb/tick"
	"tickdb/utils"
)

// schema is created on open; IF NOT EXISTS keeps reopen idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS ticks (
	rec_seq   INTEGER NOT NULL,
	token     INTEGER NOT NULL,
	bid       REAL    NOT NULL,
	ask       REAL    NOT NULL,
	last      REAL    NOT NULL,
	bid_size  INTEGER NOT NULL,
	ask_size  INTEGER NOT NULL,
	last_size INTEGER NOT NULL,
	venue_ts  INTEGER NOT NULL,
	venue_seq INTEGER NOT NULL,
	flags     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ticks_token_ts ON ticks(token, venue_ts);
`

const insertSQL = `INSERT INTO ticks
	(rec_seq, token, bid, ask, last, bid_size, ask_size, last_size, venue_ts, venue_seq, flags)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// ============================================================================
// ARCHIVER
// ============================================================================

// Archiver drains one mirror table into one SQLite database. Single-owner:
// exactly one goroutine runs the drain; the table underneath is the
// concurrency boundary.
type Archiver struct {
	db       *sql.DB
	tbl      *table.Table
	archived atomic.Uint64 // Rows committed over the archiver's lifetime
}

// Open prepares the archive database: connection, pragmas, schema.
func Open(path string, tbl *table.Table) (*Archiver, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Single drain goroutine; a second connection would only add lock churn
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Archiver{db: db, tbl: tbl}, nil
}

// Close releases the database handle. Call after the drain loop has exited.
func (a *Archiver) Close() error {
	return a.db.Close()
}

// Archived returns the number of rows committed so far.
func (a *Archiver) Archived() uint64 {
	return a.archived.Load()
}

// ============================================================================
// BATCH DRAIN
// ============================================================================

// DrainBatch moves up to max records from the table into one committed
// transaction. Returns the number of rows written. An empty table returns
// (0, nil) immediately; the caller owns pacing.
func (a *Archiver) DrainBatch(max int) (int, error) {
	// Peek cheaply before paying for a transaction
	if a.tbl.FieldLen("tick") == 0 {
		return 0, nil
	}

	tx, err := a.db.Begin()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	rows := 0
	rec := make(map[string][]byte, 2)
	for rows < max {
		if !a.tbl.ReadRecordInto(rec) {
			break
		}

		recSeq := utils.LoadLE64(rec["seq"])
		var tk tick.Record
		tk.UnmarshalSlot((*[tick.Size]byte)(rec["tick"]))

		if _, err := stmt.Exec(
			int64(recSeq), int64(tk.Token),
			tk.BidPrice, tk.AskPrice, tk.LastPrice,
			int64(tk.BidSize), int64(tk.AskSize), int64(tk.LastSize),
			int64(tk.Timestamp), int64(tk.SeqNum), int64(tk.Flags),
		); err != nil {
			stmt.Close()
			tx.Rollback()
			return 0, err
		}
		rows++
	}

	stmt.Close()
	if rows == 0 {
		tx.Rollback()
		return 0, nil
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	a.archived.Add(uint64(rows))
	return rows, nil
}

// Run drains in batches until the stop flag rises. Sleeps between empty
// polls; the archive is latency-insensitive by design and must not compete
// with pinned consumers for CPU.
func (a *Archiver) Run(stop *uint32, batch int, idle time.Duration) {
	for *stop == 0 {
		n, err := a.DrainBatch(batch)
		if err != nil {
			debug.DropError("ARCHIVE", err)
			time.Sleep(idle)
			continue
		}
		if n == 0 {
			time.Sleep(idle)
		}
	}

	// Final sweep so shutdown does not strand resident records
	for {
		n, err := a.DrainBatch(batch)
		if err != nil {
			debug.DropError("ARCHIVE", err)
			return
		}
		if n == 0 {
			return
		}
	}
}
