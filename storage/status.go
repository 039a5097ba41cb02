package storage

import (
	"fmt"
	"time"
)

// StatusChange is a Zoom status that differed from the one polled before it
type StatusChange struct {
	ID        int64
	Timestamp time.Time
	Open      bool
	Muted     bool
	Video     bool
	Share     bool
}

// SaveStatusChange saves a status transition to the database
func (db *DB) SaveStatusChange(s *StatusChange) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	s.Timestamp = s.Timestamp.UTC()

	result, err := db.conn.Exec(
		`INSERT INTO status_changes (timestamp, zoom_open, muted, video, share) VALUES (?, ?, ?, ?, ?)`,
		s.Timestamp, s.Open, s.Muted, s.Video, s.Share,
	)
	if err != nil {
		return fmt.Errorf("failed to save status change: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	s.ID = id
	return nil
}

// GetStatusChanges retrieves status transitions with pagination, newest first
func (db *DB) GetStatusChanges(limit, offset int) ([]StatusChange, error) {
	query := `
		SELECT id, timestamp, zoom_open, muted, video, share
		FROM status_changes
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query status changes: %w", err)
	}
	defer rows.Close()

	var changes []StatusChange
	for rows.Next() {
		var s StatusChange
		if err := rows.Scan(&s.ID, &s.Timestamp, &s.Open, &s.Muted, &s.Video, &s.Share); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		changes = append(changes, s)
	}

	return changes, rows.Err()
}

// GetStatusChangeCount returns the total number of status transitions
func (db *DB) GetStatusChangeCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM status_changes").Scan(&count)
	return count, err
}
