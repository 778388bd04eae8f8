package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Alexxandr133/JungAI-sub002/internal/domain"
)

// SQLiteStore implements EventStore on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given path.
// Use ":memory:" for an in-memory database.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS voice_events (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			starts_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_voice_events_room ON voice_events(room_id);
	`)
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, ev domain.Event) error {
	created := ev.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO voice_events (id, room_id, owner_id, title, starts_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.RoomID), string(ev.OwnerID), ev.Title, ev.StartsAt, created,
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, room_id, owner_id, title, starts_at, created_at
		 FROM voice_events WHERE id = ?`, id)
	return scanEvent(row)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (*domain.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, room_id, owner_id, title, starts_at, created_at
		 FROM voice_events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM voice_events WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanEvent(row *sql.Row) (*domain.Event, error) {
	var ev domain.Event
	var roomID, ownerID string
	err := row.Scan(&ev.ID, &roomID, &ownerID, &ev.Title, &ev.StartsAt, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ev.RoomID = domain.RoomID(roomID)
	ev.OwnerID = domain.UserID(ownerID)
	return &ev, nil
}
