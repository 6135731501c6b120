package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/aimsync/internal/domain/model"
	"github.com/okian/aimsync/pkg/metrics"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Default store configuration constants.
const (
	DefaultFileName    = "klutch.bytes"
	defaultBusyTimeout = 5 * time.Second
	cutoffLayout       = "2006-01-02"
)

// createDate values seen in the wild; the driver may also hand back
// RFC 3339 text for DATETIME columns.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

const scoresQuery = `SELECT rowid, taskName, score, createDate
FROM TaskData
WHERE taskName = ? AND createDate > date(?)
ORDER BY createDate, rowid`

// SQLiteTaskStore reads the TaskData table of an Aim Lab database, opening
// it read-only for every query so the trainer keeps ownership of the file.
type SQLiteTaskStore struct {
	dir         string
	fileName    string
	busyTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewSQLiteTaskStore creates a store for the database inside dir.
func NewSQLiteTaskStore(dir string, opts ...Option) *SQLiteTaskStore {
	s := &SQLiteTaskStore{
		dir:         dir,
		fileName:    DefaultFileName,
		busyTimeout: defaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the database file path.
func (s *SQLiteTaskStore) Path() string {
	return filepath.Join(s.dir, s.fileName)
}

func (s *SQLiteTaskStore) dsn() string {
	q := url.Values{}
	q.Set("mode", "ro")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", s.busyTimeout.Milliseconds()))
	return "file:" + filepath.ToSlash(s.Path()) + "?" + q.Encode()
}

// Scores implements TaskStore.
func (s *SQLiteTaskStore) Scores(ctx context.Context, taskName string, after time.Time) ([]TaskScore, error) {
	const op = "repository.scores"
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, ErrClosed)
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, err)
	}

	cutoff := "0001-01-01"
	if !after.IsZero() {
		cutoff = after.Format(cutoffLayout)
	}
	rows, err := db.QueryContext(ctx, scoresQuery, taskName, cutoff)
	if err != nil {
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var out []TaskScore
	for rows.Next() {
		var (
			ts      TaskScore
			created sql.NullString
		)
		if err := rows.Scan(&ts.RowKey, &ts.TaskName, &ts.Score, &created); err != nil {
			return nil, model.WrapKind(op, model.ErrSourceUnavailable, fmt.Errorf("scan: %w", err))
		}
		ts.PlayedAt = parseDate(created.String)
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, err)
	}
	return out, nil
}

// Close marks the store closed; later queries fail.
func (s *SQLiteTaskStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// parseDate returns the zero time when v matches no known layout.
func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
