package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/interview"
	"github.com/safal938/nurse-sim/logging"
	"github.com/safal938/nurse-sim/transcript"
)

// ErrNotFound is returned when a session is not archived.
var ErrNotFound = errors.New("session not found")

// Summary is one row of List.
type Summary struct {
	SessionID string
	PatientID string
	StartedAt time.Time
	EndedAt   time.Time
	Cycles    int
	Entries   int
}

// SQLiteArchive stores sessions in a SQLite database.
type SQLiteArchive struct {
	db     *sql.DB
	logger logging.Logger
}

var _ interview.Archiver = (*SQLiteArchive)(nil)

// Open creates or opens the archive at path. The schema is created if it
// doesn't exist and parent directories are created if needed.
func Open(path string, logger logging.Logger) (*SQLiteArchive, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	a := &SQLiteArchive{db: db, logger: logger}
	if err := a.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	logger.Info("archive initialized", "path", path)
	return a, nil
}

func (a *SQLiteArchive) createSchema() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL,
			gender TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			cycles INTEGER NOT NULL,
			diagnoses TEXT NOT NULL,
			questions TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_patient ON sessions(patient_id);

		CREATE TABLE IF NOT EXISTS entries (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at TEXT NOT NULL,
			speaker TEXT NOT NULL,
			text TEXT NOT NULL,
			highlights TEXT NOT NULL,
			PRIMARY KEY (session_id, seq),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);
	`)
	return err
}

// Close closes the database.
func (a *SQLiteArchive) Close() error { return a.db.Close() }

// Archive implements interview.Archiver. Re-archiving a session id
// replaces the previous copy.
func (a *SQLiteArchive) Archive(ctx context.Context, rec interview.Record) error {
	diagnoses, err := json.Marshal(rec.Diagnoses)
	if err != nil {
		return fmt.Errorf("encoding diagnoses: %w", err)
	}
	questions, err := json.Marshal(rec.Questions)
	if err != nil {
		return fmt.Errorf("encoding questions: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM entries WHERE session_id = ?`, `DELETE FROM sessions WHERE id = ?`} {
		if _, err := tx.ExecContext(ctx, q, rec.SessionID); err != nil {
			return fmt.Errorf("replacing session: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, patient_id, gender, started_at, ended_at, cycles, diagnoses, questions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.PatientID, rec.Gender,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.EndedAt.UTC().Format(time.RFC3339Nano),
		rec.Cycles, string(diagnoses), string(questions))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (session_id, seq, at, speaker, text, highlights) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing entries: %w", err)
	}
	defer stmt.Close()
	for i, e := range rec.Transcript {
		hl, err := json.Marshal(e.Highlights)
		if err != nil {
			return fmt.Errorf("encoding highlights: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, rec.SessionID, i,
			e.Timestamp.UTC().Format(time.RFC3339Nano), string(e.Speaker), e.Text, string(hl)); err != nil {
			return fmt.Errorf("inserting entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	a.logger.Info("session archived", "session_id", rec.SessionID, "entries", len(rec.Transcript))
	return nil
}

// Get loads an archived session.
func (a *SQLiteArchive) Get(ctx context.Context, sessionID string) (interview.Record, error) {
	var (
		rec                  interview.Record
		started, ended       string
		diagnoses, questions string
	)
	err := a.db.QueryRowContext(ctx,
		`SELECT id, patient_id, gender, started_at, ended_at, cycles, diagnoses, questions
		 FROM sessions WHERE id = ?`, sessionID).
		Scan(&rec.SessionID, &rec.PatientID, &rec.Gender, &started, &ended, &rec.Cycles, &diagnoses, &questions)
	if errors.Is(err, sql.ErrNoRows) {
		return interview.Record{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return interview.Record{}, fmt.Errorf("querying session: %w", err)
	}
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return interview.Record{}, fmt.Errorf("parsing started_at: %w", err)
	}
	if rec.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
		return interview.Record{}, fmt.Errorf("parsing ended_at: %w", err)
	}
	if err := json.Unmarshal([]byte(diagnoses), &rec.Diagnoses); err != nil {
		return interview.Record{}, fmt.Errorf("decoding diagnoses: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &rec.Questions); err != nil {
		return interview.Record{}, fmt.Errorf("decoding questions: %w", err)
	}

	rec.Transcript, err = a.entries(ctx, sessionID)
	if err != nil {
		return interview.Record{}, err
	}
	return rec, nil
}

func (a *SQLiteArchive) entries(ctx context.Context, sessionID string) ([]transcript.Entry, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT at, speaker, text, highlights FROM entries WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []transcript.Entry
	for rows.Next() {
		var (
			e           transcript.Entry
			at, speaker string
			hl          string
		)
		if err := rows.Scan(&at, &speaker, &e.Text, &hl); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parsing entry time: %w", err)
		}
		e.Speaker = core.Speaker(speaker)
		if err := json.Unmarshal([]byte(hl), &e.Highlights); err != nil {
			return nil, fmt.Errorf("decoding highlights: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// List returns the most recent sessions, newest first.
func (a *SQLiteArchive) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT s.id, s.patient_id, s.started_at, s.ended_at, s.cycles, COUNT(e.seq)
		FROM sessions s LEFT JOIN entries e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s              Summary
			started, ended string
		)
		if err := rows.Scan(&s.SessionID, &s.PatientID, &started, &ended, &s.Cycles, &s.Entries); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if s.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if s.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, fmt.Errorf("parsing ended_at: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
