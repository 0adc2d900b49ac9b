package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"personal-insights/pkg/types"
)

// PostgresEventSource fetches events from the upstream event store, a
// Postgres database owned by the data-collection service. The engine
// only ever reads from it.
type PostgresEventSource struct {
	db *sql.DB
}

// NewPostgresEventSource connects to the event database
func NewPostgresEventSource(dsn string) (*PostgresEventSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open event database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return &PostgresEventSource{db: db}, nil
}

// FetchEvents loads one user's events within [since, until), ordered
// by timestamp. Event values are stored as JSON objects of numeric and
// string fields.
func (p *PostgresEventSource) FetchEvents(ctx context.Context, userID string, since, until time.Time) ([]*types.Event, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, data_type, source, value, timestamp
		 FROM events
		 WHERE user_id = $1 AND timestamp >= $2 AND timestamp < $3
		 ORDER BY timestamp`,
		userID, since.UnixMilli(), until.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []*types.Event{}
	for rows.Next() {
		var (
			event   types.Event
			rawType string
			value   []byte
		)
		if err := rows.Scan(&event.ID, &rawType, &event.Source, &value, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		event.DataType = types.DataType(rawType)
		if err := json.Unmarshal(value, &event.Value); err != nil {
			return nil, fmt.Errorf("failed to decode event %s value: %w", event.ID, err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return events, nil
}

// Close closes the connection pool
func (p *PostgresEventSource) Close() error {
	return p.db.Close()
}
