// Package outbox persists events in the same transaction as the state change
// that produced them. The relay drains committed rows to the message broker.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"provenance/pkg/platform/events"
	txcontext "provenance/pkg/platform/tx"
)

// Record is one undelivered outbox row.
type Record struct {
	ID        uuid.UUID
	Source    string
	EventName string
	Payload   []byte
	CreatedAt time.Time
}

// Store implements events.Publisher on the event_outbox table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Emit writes the event through the ambient transaction when one is open, so
// an event row exists if and only if the surrounding operation committed.
func (s *Store) Emit(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	query := `
		INSERT INTO event_outbox (id, source, event_name, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		event.ID,
		event.Source.String(),
		string(event.Name),
		payload,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ClaimPending locks up to limit unpublished rows in insertion order. Callers
// must hold a transaction so concurrent relays skip each other's rows.
func (s *Store) ClaimPending(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, source, event_name, payload, created_at
		FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox entries: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Source, &r.EventName, &r.Payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return records, nil
}

// MarkPublished stamps the given rows as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := `UPDATE event_outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	if _, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, query, at, pq.Array(raw)); err != nil {
		return fmt.Errorf("mark outbox entries published: %w", err)
	}
	return nil
}

// PendingCount reports undelivered rows, for the relay's backlog gauge.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := txcontext.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_outbox WHERE published_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox entries: %w", err)
	}
	return n, nil
}
