// Package store handles SQLite persistence of input records.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/tuirace/internal/record"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNoRecord reports that no record exists for the requested text.
var ErrNoRecord = errors.New("no record for text")

// TextKey derives the storage key for a target text: the first ten hex
// characters of its SHA-256 digest.
func TextKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:10]
}

// Summary describes one stored record without its inputs.
type Summary struct {
	ID        int64
	TextKey   string
	User      string
	CreatedAt time.Time
	Finished  bool
	AvgWpm    float64
	Inputs    int
}

// Store wraps SQLite access for record data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY,
			text_key TEXT NOT NULL,
			user TEXT NOT NULL,
			created_at TEXT NOT NULL,
			finished INTEGER NOT NULL,
			avg_wpm REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS record_inputs (
			record_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			expected TEXT NOT NULL,
			PRIMARY KEY (record_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_text_key ON records(text_key);`,
		`CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRecord stores a completed run and its inputs.
func (s *Store) SaveRecord(ctx context.Context, textKey, user string, rec record.Record, finished bool) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO records (text_key, user, created_at, finished, avg_wpm)
		 VALUES (?, ?, ?, ?, ?)`,
		textKey,
		user,
		time.Now().UTC().Format(time.RFC3339Nano),
		finished,
		rec.AverageWpm(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if rec.Len() > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO record_inputs (record_id, seq, elapsed_ms, correct, expected)
			 VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for seq, e := range rec.Inputs {
			expected := ""
			if !e.Result.Correct {
				expected = string(e.Result.Expected)
			}
			if _, err := stmt.ExecContext(ctx, id, seq, e.Elapsed.Milliseconds(), e.Result.Correct, expected); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// LoadBestOrLatest returns the record to race a ghost against for a text:
// the finished record with the highest average WPM, or the most recent one
// when no finished record exists. ErrNoRecord when the text has none.
func (s *Store) LoadBestOrLatest(ctx context.Context, textKey string) (Summary, record.Record, error) {
	summary, err := s.queryOne(ctx,
		`SELECT id, text_key, user, created_at, finished, avg_wpm FROM records
		 WHERE text_key = ? AND finished = 1
		 ORDER BY avg_wpm DESC LIMIT 1`, textKey)
	if errors.Is(err, sql.ErrNoRows) {
		summary, err = s.queryOne(ctx,
			`SELECT id, text_key, user, created_at, finished, avg_wpm FROM records
			 WHERE text_key = ?
			 ORDER BY created_at DESC LIMIT 1`, textKey)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, record.Record{}, ErrNoRecord
	}
	if err != nil {
		return Summary{}, record.Record{}, err
	}
	rec, err := s.loadInputs(ctx, summary.ID)
	if err != nil {
		return Summary{}, record.Record{}, err
	}
	summary.Inputs = rec.Len()
	return summary, rec, nil
}

// ListRecords returns record summaries, newest first. An empty textKey
// lists records for every text.
func (s *Store) ListRecords(ctx context.Context, textKey string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.text_key, r.user, r.created_at, r.finished, r.avg_wpm,
			(SELECT COUNT(*) FROM record_inputs i WHERE i.record_id = r.id)
		 FROM records r
		 WHERE (? = '' OR r.text_key = ?)
		 ORDER BY r.created_at DESC`, textKey, textKey)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var createdAt string
		if err := rows.Scan(&sum.ID, &sum.TextKey, &sum.User, &createdAt, &sum.Finished, &sum.AvgWpm, &sum.Inputs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse record timestamp: %w", err)
		}
		sum.CreatedAt = parsed
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *Store) queryOne(ctx context.Context, query, textKey string) (Summary, error) {
	var sum Summary
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, textKey).
		Scan(&sum.ID, &sum.TextKey, &sum.User, &createdAt, &sum.Finished, &sum.AvgWpm)
	if err != nil {
		return Summary{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to parse record timestamp: %w", err)
	}
	sum.CreatedAt = parsed
	return sum, nil
}

func (s *Store) loadInputs(ctx context.Context, recordID int64) (record.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT elapsed_ms, correct, expected FROM record_inputs
		 WHERE record_id = ?
		 ORDER BY seq ASC`, recordID)
	if err != nil {
		return record.Record{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rec record.Record
	for rows.Next() {
		var elapsedMs int64
		var correct bool
		var expected string
		if err := rows.Scan(&elapsedMs, &correct, &expected); err != nil {
			return record.Record{}, err
		}
		result := record.Correct()
		if !correct {
			runes := []rune(expected)
			if len(runes) != 1 {
				return record.Record{}, fmt.Errorf("malformed expected rune %q in record %d", expected, recordID)
			}
			result = record.Wrong(runes[0])
		}
		rec.Append(time.Duration(elapsedMs)*time.Millisecond, result)
	}
	if err := rows.Err(); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}
