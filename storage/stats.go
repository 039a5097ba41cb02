package storage

import (
	"fmt"
	"time"
)

// ActionStats represents statistics grouped by action
type ActionStats struct {
	Action       string
	Presses      int
	Resynced     int
	AvgLatencyMs float64
}

// GetActionStats retrieves key press statistics for the last N days
func (db *DB) GetActionStats(days int) ([]ActionStats, error) {
	query := `
		SELECT
			action,
			COUNT(*) as presses,
			SUM(CASE WHEN resynced = 1 THEN 1 ELSE 0 END) as resynced,
			COALESCE(AVG(latency_ms), 0) as avg_latency_ms
		FROM actions
		WHERE timestamp >= ?
		GROUP BY action
		ORDER BY presses DESC, action
	`

	rows, err := db.conn.Query(query, since(days))
	if err != nil {
		return nil, fmt.Errorf("failed to query action stats: %w", err)
	}
	defer rows.Close()

	var stats []ActionStats
	for rows.Next() {
		var s ActionStats
		if err := rows.Scan(&s.Action, &s.Presses, &s.Resynced, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("failed to scan action stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// Prune deletes history older than retentionDays. Zero keeps everything.
func (db *DB) Prune(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := since(retentionDays)

	var total int64
	for _, table := range []string{"actions", "status_changes"} {
		result, err := db.conn.Exec("DELETE FROM "+table+" WHERE timestamp < ?", cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to get rows affected: %w", err)
		}
		total += n
	}

	return total, nil
}

func since(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}
