package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to Postgres through the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// PostgresSnapshots persists named State documents as JSONB rows. Every save
// also appends to console_snapshot_history.
type PostgresSnapshots struct {
	db *sql.DB
}

func NewPostgresSnapshots(db *sql.DB) *PostgresSnapshots {
	return &PostgresSnapshots{db: db}
}

func (s *PostgresSnapshots) SaveState(ctx context.Context, name string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save state: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO console_snapshots (name, payload, client_count, lead_count, saved_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			payload=EXCLUDED.payload,
			client_count=EXCLUDED.client_count,
			lead_count=EXCLUDED.lead_count,
			saved_at=EXCLUDED.saved_at
	`, name, payload, len(state.Graph.Clients), len(state.Outreach), state.SavedAt); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO console_snapshot_history (name, payload, saved_at) VALUES ($1, $2, $3)
	`, name, payload, state.SavedAt); err != nil {
		return fmt.Errorf("append state history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save state: %w", err)
	}
	return nil
}

func (s *PostgresSnapshots) LoadState(ctx context.Context, name string) (State, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM console_snapshots WHERE name=$1`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, notFound("snapshot", name)
	}
	if err != nil {
		return State{}, fmt.Errorf("load state: %w", err)
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, nil
}

// HistoryCount reports how many saves were recorded for name.
func (s *PostgresSnapshots) HistoryCount(ctx context.Context, name string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM console_snapshot_history WHERE name=$1`, name).Scan(&count); err != nil {
		return 0, fmt.Errorf("count state history: %w", err)
	}
	return count, nil
}

func (s *PostgresSnapshots) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresSnapshots) Close() error {
	return s.db.Close()
}
