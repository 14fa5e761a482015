package calls

import (
	"context"
	"database/sql"
	"errors"
)

// Repository is the persistence contract for call events.
// It is append-only; there are no Update or Delete methods.
type Repository interface {
	Append(ctx context.Context, e Event) error

	// Latest returns the most recent event for a call SID.
	Latest(ctx context.Context, callSid string) (Event, error)

	// List returns events in the query window, newest first.
	List(ctx context.Context, q ListQuery) ([]Event, error)
}

var ErrNotFound = errors.New("calls: not found")

// PostgresRepo stores call events in Postgres via database/sql (pgx stdlib).
//
// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE call_events (
//	    id            UUID PRIMARY KEY,
//	    call_sid      TEXT NOT NULL,
//	    caller        TEXT NOT NULL DEFAULT '',
//	    endpoint      TEXT NOT NULL,
//	    template_stem TEXT NOT NULL,
//	    occurred_at   TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX call_events_call_sid_idx ON call_events (call_sid, occurred_at DESC);
//	CREATE INDEX call_events_occurred_at_idx ON call_events (occurred_at DESC);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO call_events (id, call_sid, caller, endpoint, template_stem, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.CallSid, e.Caller, e.Endpoint, e.TemplateStem, e.OccurredAt)
	return err
}

func (r *PostgresRepo) Latest(ctx context.Context, callSid string) (Event, error) {
	const q = `
SELECT id, call_sid, caller, endpoint, template_stem, occurred_at
FROM call_events
WHERE call_sid = $1
ORDER BY occurred_at DESC
LIMIT 1
`
	var e Event
	if err := r.db.QueryRowContext(ctx, q, callSid).Scan(
		&e.ID,
		&e.CallSid,
		&e.Caller,
		&e.Endpoint,
		&e.TemplateStem,
		&e.OccurredAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	return e, nil
}

func (r *PostgresRepo) List(ctx context.Context, q ListQuery) ([]Event, error) {
	const stmt = `
SELECT id, call_sid, caller, endpoint, template_stem, occurred_at
FROM call_events
WHERE occurred_at >= $1 AND occurred_at < $2
  AND ($3 = '' OR caller = $3)
ORDER BY occurred_at DESC
LIMIT $4 OFFSET $5
`
	rows, err := r.db.QueryContext(ctx, stmt, q.Start, q.End, q.Caller, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.CallSid, &e.Caller, &e.Endpoint, &e.TemplateStem, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
