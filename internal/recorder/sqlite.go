package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit trail to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS screen_passes (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			benchmark     TEXT,
			market_change REAL,
			screened      INTEGER,
			alerted       INTEGER,
			notified      INTEGER,
			skipped       INTEGER,
			duration_ms   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passes_ts ON screen_passes(timestamp)`,

		`CREATE TABLE IF NOT EXISTS order_submissions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT,
			side        TEXT,
			quantity    INTEGER,
			limit_price REAL,
			accepted    INTEGER,
			note        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_ts ON order_submissions(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPass(rec *PassRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO screen_passes
		(timestamp, benchmark, market_change, screened, alerted, notified, skipped, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Benchmark, rec.MarketChange,
		rec.Screened, rec.Alerted, rec.Notified, rec.Skipped,
		rec.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordOrder(rec *OrderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	accepted := 0
	if rec.Accepted {
		accepted = 1
	}
	_, err := r.db.Exec(`INSERT INTO order_submissions
		(timestamp, symbol, side, quantity, limit_price, accepted, note)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Symbol, rec.Side, rec.Quantity,
		rec.LimitPrice, accepted, rec.Note,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
