package drafts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

const schema = `
CREATE TABLE IF NOT EXISTS wizard_drafts (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    flow TEXT NOT NULL,
    step_cursor INTEGER NOT NULL,
    values_json TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (owner, flow)
);
CREATE INDEX IF NOT EXISTS wizard_drafts_owner_idx ON wizard_drafts (owner, updated_at);
`

// SQLiteStore persists drafts in a SQLite database file. It is safe for
// concurrent use.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the draft database at path. Use
// ":memory:" for a throwaway database.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("drafts: storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("drafts: open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("drafts: ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("drafts: create schema: %w", err)
	}

	o := applyOptions(opts)
	return &SQLiteStore{db: db, now: o.now}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, draft Draft) (Draft, error) {
	owner, flow, err := normalizeKey(draft.Owner, draft.Flow)
	if err != nil {
		return Draft{}, err
	}
	values, err := encodeValues(draft.Snapshot.Values)
	if err != nil {
		return Draft{}, err
	}

	id := draft.ID
	if id == "" {
		id = uuid.NewString()
	}
	updatedAt := s.now().UTC().Truncate(time.Millisecond)

	row := s.db.QueryRowContext(
		ctx,
		`INSERT INTO wizard_drafts (id, owner, flow, step_cursor, values_json, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(owner, flow) DO UPDATE SET
		    step_cursor = excluded.step_cursor,
		    values_json = excluded.values_json,
		    updated_at = excluded.updated_at
		 RETURNING id`,
		id, owner, flow, draft.Snapshot.Cursor, string(values), updatedAt.UnixMilli(),
	)
	if err := row.Scan(&id); err != nil {
		return Draft{}, fmt.Errorf("drafts: save draft: %w", err)
	}

	decoded, err := decodeValues(values)
	if err != nil {
		return Draft{}, err
	}
	return Draft{
		ID:        id,
		Owner:     owner,
		Flow:      flow,
		Snapshot:  wizard.Snapshot{Cursor: draft.Snapshot.Cursor, Values: decoded},
		UpdatedAt: updatedAt,
	}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, owner, flow string) (Draft, error) {
	owner, flow, err := normalizeKey(owner, flow)
	if err != nil {
		return Draft{}, err
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, owner, flow, step_cursor, values_json, updated_at
		 FROM wizard_drafts
		 WHERE owner = ? AND flow = ?`,
		owner, flow,
	)
	draft, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("drafts: load draft: %w", err)
	}
	return draft, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, owner, flow string) error {
	owner, flow, err := normalizeKey(owner, flow)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM wizard_drafts WHERE owner = ? AND flow = ?`, owner, flow)
	if err != nil {
		return fmt.Errorf("drafts: delete draft: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("drafts: delete draft: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, owner string) ([]Draft, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, owner, flow, step_cursor, values_json, updated_at
		 FROM wizard_drafts
		 WHERE owner = ?
		 ORDER BY updated_at DESC, flow ASC`,
		strings.TrimSpace(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("drafts: list drafts: %w", err)
	}
	defer rows.Close()

	var out []Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("drafts: list drafts: %w", err)
		}
		out = append(out, draft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("drafts: list drafts: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (Draft, error) {
	var (
		draft     Draft
		values    string
		updatedAt int64
	)
	if err := row.Scan(&draft.ID, &draft.Owner, &draft.Flow, &draft.Snapshot.Cursor, &values, &updatedAt); err != nil {
		return Draft{}, err
	}
	decoded, err := decodeValues([]byte(values))
	if err != nil {
		return Draft{}, err
	}
	draft.Snapshot.Values = decoded
	draft.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return draft, nil
}
