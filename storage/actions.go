package storage

import (
	"fmt"
	"time"
)

// ActionRecord is one key press and what it did
type ActionRecord struct {
	ID            int64
	Timestamp     time.Time
	Action        string
	Context       string
	Device        string
	ObservedState int
	Issued        bool
	Resynced      bool
	NewState      int
	LatencyMs     int64
}

// SaveAction saves a key press to the database
func (db *DB) SaveAction(a *ActionRecord) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	a.Timestamp = a.Timestamp.UTC()

	query := `
		INSERT INTO actions (
			timestamp, action, context, device, observed_state,
			issued, resynced, new_state, latency_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.conn.Exec(query,
		a.Timestamp, a.Action, a.Context, a.Device, a.ObservedState,
		a.Issued, a.Resynced, a.NewState, a.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("failed to save action: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	a.ID = id
	return nil
}

// GetActions retrieves key presses with pagination, newest first
func (db *DB) GetActions(limit, offset int) ([]ActionRecord, error) {
	query := `
		SELECT
			id, timestamp, action, context, device, observed_state,
			issued, resynced, new_state, latency_ms
		FROM actions
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	var actions []ActionRecord
	for rows.Next() {
		var a ActionRecord
		err := rows.Scan(
			&a.ID, &a.Timestamp, &a.Action, &a.Context, &a.Device, &a.ObservedState,
			&a.Issued, &a.Resynced, &a.NewState, &a.LatencyMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, a)
	}

	return actions, rows.Err()
}
