// Package history persists run summaries so past batches can be inspected
// after the editor session ends.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"relint/internal/logging"
)

// BatchRecord is one persisted batch summary.
type BatchRecord struct {
	ID           string
	Mode         string
	StartedAt    time.Time
	Duration     time.Duration
	FilesTotal   int
	Succeeded    int
	Failed       int
	ConfigErrors int
	Incomplete   int
}

// ResultRecord is one persisted per-file outcome. Output is the combined
// captured stdout/stderr; it is stored zstd-compressed.
type ResultRecord struct {
	Path     string
	ExitCode int
	Duration time.Duration
	Output   string
}

// Store provides persistence for batches in a SQLite database.
type Store struct {
	conn    *sql.DB
	logger  *logging.Logger
	dbPath  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates the history database at <dir>/history.db.
func Open(dir string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	dbPath := filepath.Join(dir, "history.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	store := &Store{
		conn:    conn,
		logger:  logger.WithComponent("history"),
		dbPath:  dbPath,
		encoder: encoder,
		decoder: decoder,
	}
	if err := store.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS batches (
	id            TEXT PRIMARY KEY,
	mode          TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL,
	files_total   INTEGER NOT NULL,
	succeeded     INTEGER NOT NULL,
	failed        INTEGER NOT NULL,
	config_errors INTEGER NOT NULL,
	incomplete    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	batch_id    TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
	path        TEXT NOT NULL,
	exit_code   INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	output      BLOB,
	PRIMARY KEY (batch_id, path)
);
CREATE INDEX IF NOT EXISTS idx_batches_started ON batches(started_at DESC);
`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate history schema: %w", err)
	}
	return nil
}

// SaveBatch persists a batch and its per-file results in one transaction.
func (s *Store) SaveBatch(batch BatchRecord, results []ResultRecord) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT INTO batches
		(id, mode, started_at, duration_ms, files_total, succeeded, failed, config_errors, incomplete)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.Mode, batch.StartedAt.UTC().Format(time.RFC3339Nano),
		batch.Duration.Milliseconds(), batch.FilesTotal, batch.Succeeded,
		batch.Failed, batch.ConfigErrors, batch.Incomplete)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO results
		(batch_id, path, exit_code, duration_ms, output) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range results {
		blob := s.encoder.EncodeAll([]byte(r.Output), nil)
		if _, err := stmt.Exec(batch.ID, r.Path, r.ExitCode, r.Duration.Milliseconds(), blob); err != nil {
			return fmt.Errorf("insert result for %s: %w", r.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	s.logger.Debug("Batch persisted", map[string]interface{}{
		"batchId": batch.ID,
		"results": len(results),
	})
	return nil
}

// ListBatches returns the most recent batches, newest first.
func (s *Store) ListBatches(limit int) ([]BatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(`SELECT id, mode, started_at, duration_ms,
		files_total, succeeded, failed, config_errors, incomplete
		FROM batches ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var batches []BatchRecord
	for rows.Next() {
		var b BatchRecord
		var started string
		var durationMs int64
		if err := rows.Scan(&b.ID, &b.Mode, &started, &durationMs,
			&b.FilesTotal, &b.Succeeded, &b.Failed, &b.ConfigErrors, &b.Incomplete); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		b.Duration = time.Duration(durationMs) * time.Millisecond
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// Results returns the per-file results of one batch with decompressed output.
func (s *Store) Results(batchID string) ([]ResultRecord, error) {
	rows, err := s.conn.Query(`SELECT path, exit_code, duration_ms, output
		FROM results WHERE batch_id = ? ORDER BY path`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []ResultRecord
	for rows.Next() {
		var r ResultRecord
		var durationMs int64
		var blob []byte
		if err := rows.Scan(&r.Path, &r.ExitCode, &durationMs, &blob); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		if len(blob) > 0 {
			out, err := s.decoder.DecodeAll(blob, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress output for %s: %w", r.Path, err)
			}
			r.Output = string(out)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Reset drops all history.
func (s *Store) Reset() error {
	if _, err := s.conn.Exec(`DELETE FROM batches`); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	return nil
}

// Close releases the database and codec resources.
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.conn.Close()
}
