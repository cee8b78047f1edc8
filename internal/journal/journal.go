package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mazen160/go-random"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
	StatusDryRun Status = "dry-run"
)

// Entry is the outcome of one row of one run.
type Entry struct {
	RunID     string
	FileHash  string
	FileName  string
	Row       int
	Month     string
	Category  string
	Status    Status
	Detail    string
	CreatedAt time.Time
}

// Run summarizes the entries recorded under one run id.
type Run struct {
	ID       string
	FileName string
	Sent     int
	Failed   int
	Started  time.Time
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

func wrapOpen(err error) error {
	return fmt.Errorf("open journal: %w", err)
}

// Open opens (creating if needed) the journal at path and applies the
// schema. ":memory:" gives a throwaway journal.
func Open(path string) (Store, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return Store{}, wrapOpen(err)
		}
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, wrapOpen(err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	database.SetMaxOpenConns(1)

	if path != ":memory:" {
		_, err = database.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			database.Close()
			return Store{}, wrapOpen(err)
		}
	}
	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return Store{}, wrapOpen(err)
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

func (s Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into submission
			(run_id, file_hash, file_name, row_number, month, category, status, detail, created_at)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.FileHash, e.FileName, e.Row, e.Month, e.Category, string(e.Status), e.Detail, e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record row %d: %w", e.Row, err)
	}
	return nil
}

// Succeeded returns the rows of a file that were already sent by any run.
func (s Store) Succeeded(ctx context.Context, fileHash string) (map[int]bool, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select distinct row_number from submission where file_hash = ? and status = ?`,
		fileHash, string(StatusSent),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int]bool{}
	for rows.Next() {
		var row int
		if err := rows.Scan(&row); err != nil {
			return nil, err
		}
		out[row] = true
	}
	return out, rows.Err()
}

// List returns every entry of a file in the order it was recorded.
func (s Store) List(ctx context.Context, fileHash string) ([]Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select run_id, file_hash, file_name, row_number, month, category, status, detail, created_at
			from submission where file_hash = ? order by id`,
		fileHash,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var status string
		var created int64
		err := rows.Scan(&e.RunID, &e.FileHash, &e.FileName, &e.Row, &e.Month, &e.Category, &status, &e.Detail, &created)
		if err != nil {
			return nil, err
		}
		e.Status = Status(status)
		e.CreatedAt = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs lists the recorded runs, newest first.
func (s Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select run_id, max(file_name),
			sum(case when status = 'sent' then 1 else 0 end),
			sum(case when status = 'failed' then 1 else 0 end),
			min(created_at), min(id)
			from submission group by run_id order by min(id) desc`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, firstID int64
		err := rows.Scan(&r.ID, &r.FileName, &r.Sent, &r.Failed, &started, &firstID)
		if err != nil {
			return nil, err
		}
		r.Started = time.Unix(started, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// NewRunID returns a random id to group the entries of one run.
func NewRunID() (string, error) {
	return random.String(12)
}

// HashFile returns the hex SHA-256 of a file's contents, it identifies a
// CSV across renames.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	_, err = io.Copy(h, f)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
