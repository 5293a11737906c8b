package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Stream/internal/adapters/store"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS streams (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	streamer_id TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	ended_at    TIMESTAMP NULL
);
CREATE TABLE IF NOT EXISTS chat_log (
	id           TEXT PRIMARY KEY,
	stream_id    TEXT NOT NULL,
	identity     TEXT NOT NULL,
	display_name TEXT NOT NULL,
	text         TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_log_stream ON chat_log (stream_id, id);
`

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite %q: %w", path, err)
	}
	log.Info().Str("module", "store.sqlite").Str("path", path).Msg("opened")
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

func (s *Store) CreateStream(ctx context.Context, rec domain.StreamRecord) error {
	query := "INSERT INTO streams (id, title, streamer_id, status, created_at, ended_at) VALUES (?, ?, ?, ?, ?, ?)"
	var endedAt sql.NullTime
	if rec.EndedAt != nil {
		endedAt = sql.NullTime{Time: *rec.EndedAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query, rec.ID, rec.Title, rec.StreamerID, rec.Status, rec.CreatedAt, endedAt)
	if isConstraint(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert stream %q: %w", rec.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStream(row scanner) (domain.StreamRecord, error) {
	var rec domain.StreamRecord
	var endedAt sql.NullTime
	if err := row.Scan(&rec.ID, &rec.Title, &rec.StreamerID, &rec.Status, &rec.CreatedAt, &endedAt); err != nil {
		return rec, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if endedAt.Valid {
		t := endedAt.Time.UTC()
		rec.EndedAt = &t
	}
	return rec, nil
}

func (s *Store) GetStream(ctx context.Context, id domain.StreamID) (domain.StreamRecord, error) {
	query := "SELECT id, title, streamer_id, status, created_at, ended_at FROM streams WHERE id = ?"
	rec, err := scanStream(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, store.ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("error querying stream %q: %w", id, err)
	}
	return rec, nil
}

func (s *Store) ListStreams(ctx context.Context) ([]domain.StreamRecord, error) {
	query := "SELECT id, title, streamer_id, status, created_at, ended_at FROM streams ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query streams: %w", err)
	}
	defer rows.Close()

	out := []domain.StreamRecord{}
	for rows.Next() {
		rec, err := scanStream(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stream: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over streams: %w", err)
	}
	return out, nil
}

func (s *Store) MarkStreamEnded(ctx context.Context, id domain.StreamID) error {
	query := "UPDATE streams SET status = ?, ended_at = ? WHERE id = ? AND status <> ?"
	res, err := s.db.ExecContext(ctx, query, domain.StreamEnded, s.now().UTC(), id, domain.StreamEnded)
	if err != nil {
		return fmt.Errorf("failed to end stream %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Nothing updated: either already ended or unknown.
	_, err = s.GetStream(ctx, id)
	return err
}

func (s *Store) AppendChatLog(ctx context.Context, e domain.ChatEntry) error {
	query := "INSERT INTO chat_log (id, stream_id, identity, display_name, text, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	if _, err := s.db.ExecContext(ctx, query, store.ChatKey(e.Timestamp), e.StreamID, e.Identity, e.DisplayName, e.Text, e.Timestamp.UTC()); err != nil {
		return fmt.Errorf("failed to append chat for %q: %w", e.StreamID, err)
	}
	return nil
}

func (s *Store) ListChat(ctx context.Context, id domain.StreamID, limit int) ([]domain.ChatEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT stream_id, identity, display_name, text, created_at FROM (
			SELECT * FROM chat_log WHERE stream_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat for %q: %w", id, err)
	}
	defer rows.Close()

	out := []domain.ChatEntry{}
	for rows.Next() {
		var e domain.ChatEntry
		if err := rows.Scan(&e.StreamID, &e.Identity, &e.DisplayName, &e.Text, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over chat for %q: %w", id, err)
	}
	return out, nil
}
