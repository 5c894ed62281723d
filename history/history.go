// Package history records publish attempts so the last draft can be found
// again after the process exits.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"wechat_md_publisher/publisher"
)

// ErrNotFound is returned by Last and Get when no entry matches.
var ErrNotFound = errors.New("history: no entries")

// Entry is one publish attempt.
type Entry struct {
	bun.BaseModel `bun:"table:publish_history,alias:ph"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	DraftURL  string    `bun:"draft_url" json:"draftUrl,omitempty"`
	Success   bool      `bun:"success,notnull" json:"success"`
	Error     string    `bun:"error" json:"error,omitempty"`
	Source    string    `bun:"source" json:"source,omitempty"`
	Markdown  string    `bun:"markdown" json:"-"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Store is a bun-backed history table.
type Store struct {
	db *bun.DB
}

// Open opens (creating if needed) the SQLite database at path. A path that
// already starts with "file:" is used as the DSN unchanged.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + path + "?_fk=1"
	}
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}
	store, err := New(ctx, bun.NewDB(sqldb, sqlitedialect.New()))
	if err != nil {
		sqldb.Close()
		return nil, err
	}
	return store, nil
}

// New wraps db and makes sure the history table exists.
func New(ctx context.Context, db *bun.DB) (*Store, error) {
	if _, err := db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("history: create table: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores e, assigning its ID and timestamp when unset.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(&e).Exec(ctx); err != nil {
		return Entry{}, fmt.Errorf("history: insert: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. A limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	var entries []Entry
	q := s.db.NewSelect().Model(&entries).Order("created_at DESC").OrderExpr("rowid DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return entries, nil
}

// Last returns the newest entry.
func (s *Store) Last(ctx context.Context) (Entry, error) {
	entries, err := s.List(ctx, 1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[0], nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	var e Entry
	if err := s.db.NewSelect().Model(&e).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("history: get: %w", err)
	}
	return e, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FromResult builds the entry for a finished publish.
func FromResult(res publisher.Result, source, markdown string) Entry {
	return Entry{
		Title:    res.Title,
		DraftURL: res.DraftURL,
		Success:  res.Success,
		Error:    res.Error,
		Source:   source,
		Markdown: markdown,
	}
}
