// CLAUDE:SUMMARY SQLite audit trail of page extractions — one row per read_pdf call, queried by extraction_history.
// CLAUDE:DEPENDS extractlog/schema.go
// CLAUDE:EXPORTS Store, Entry, Open, New, NewEntry
package extractlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/aitools/kit"
	"github.com/hazyhaar/aitools/pdfpage"
)

// DefaultRecentLimit is used by Recent when limit <= 0.
const DefaultRecentLimit = 20

// MaxRecentLimit caps Recent.
const MaxRecentLimit = 500

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Entry is one extraction record.
type Entry struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  string        `json:"requestId,omitempty"`
	SessionID  string        `json:"sessionId,omitempty"`
	Transport  string        `json:"transport,omitempty"`
	Path       string        `json:"path"`
	Page       int           `json:"page"`
	PageCount  int           `json:"pageCount"`
	TotalItems int           `json:"totalItems"`
	TotalLines int           `json:"totalLines"`
	Flags      pdfpage.Flags `json:"flags"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	DurationMs int64         `json:"durationMs"`
}

// Store persists entries in SQLite.
type Store struct {
	db     *sql.DB
	newID  kit.IDGenerator
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the entry id generator. Default: "ext_" + UUIDv7.
func WithIDGenerator(gen kit.IDGenerator) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New wraps an open database. Call Init before use.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		newID:  kit.Prefixed("ext_", kit.UUIDv7),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open opens (creating if needed) the database at path with WAL, a busy
// timeout and NORMAL synchronous mode, and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("extractlog: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("extractlog: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("extractlog: %s: %w", p, err)
		}
	}
	s := New(db, opts...)
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init applies Schema.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("extractlog: init schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewEntry builds an entry for one extraction from its outcome. Request,
// session and transport come from the kit context values.
func (s *Store) NewEntry(ctx context.Context, path string, page int, res *pdfpage.Result, err error, d time.Duration) *Entry {
	e := &Entry{
		ID:         s.newID(),
		Timestamp:  time.Now().UTC(),
		RequestID:  kit.GetRequestID(ctx),
		SessionID:  kit.GetSessionID(ctx),
		Transport:  kit.GetTransport(ctx),
		Path:       path,
		Page:       page,
		DurationMs: d.Milliseconds(),
		Status:     StatusSuccess,
	}
	if res != nil {
		e.PageCount = res.PageCount
		e.TotalItems = res.Metrics.TotalItems
		e.TotalLines = res.Metrics.TotalLines
		e.Flags = res.Flags
	}
	if err != nil {
		e.Status = StatusError
		e.Error = err.Error()
	}
	return e
}

// Record inserts e.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	flags, err := json.Marshal(e.Flags)
	if err != nil {
		return fmt.Errorf("extractlog: marshal flags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO extractions
		(entry_id, timestamp, request_id, session_id, transport, path, page,
		 page_count, total_items, total_lines, flags, status, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UnixMilli(), e.RequestID, e.SessionID, e.Transport, e.Path, e.Page,
		e.PageCount, e.TotalItems, e.TotalLines, string(flags), e.Status, e.Error, e.DurationMs)
	if err != nil {
		return fmt.Errorf("extractlog: insert: %w", err)
	}
	return nil
}

// RecordQuietly inserts e and logs failures instead of returning them.
func (s *Store) RecordQuietly(ctx context.Context, e *Entry) {
	if err := s.Record(ctx, e); err != nil {
		s.logger.Warn("extractlog: record failed", "entry_id", e.ID, "error", err)
	}
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT entry_id, timestamp, request_id, session_id,
		transport, path, page, page_count, total_items, total_lines, flags, status,
		error_message, duration_ms
		FROM extractions ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("extractlog: query: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var (
			e                        Entry
			ts                       int64
			reqID, sessID, transport sql.NullString
			flags                    string
			errMsg                   sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &reqID, &sessID, &transport, &e.Path, &e.Page,
			&e.PageCount, &e.TotalItems, &e.TotalLines, &flags, &e.Status, &errMsg, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("extractlog: scan: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		e.RequestID, e.SessionID, e.Transport = reqID.String, sessID.String, transport.String
		e.Error = errMsg.String
		if err := json.Unmarshal([]byte(flags), &e.Flags); err != nil {
			s.logger.Warn("extractlog: bad flags column", "entry_id", e.ID, "error", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
