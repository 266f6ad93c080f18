package metrics

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
)

// store keeps the lifetime counters in the metrics table. Prometheus
// counters reset on restart; these do not.
type store struct {
	db *sql.DB
}

// New creates a new metrics Store.
func New(db *sql.DB) MetricsStore {
	return &store{db: db}
}

func (s *store) Increment(key string) {
	s.Add(key, 1)
}

// Add upserts key and raises its value by n. Failures are logged and
// dropped; a lost count never blocks a session change.
func (s *store) Add(key string, n int) {
	if n <= 0 {
		return
	}
	_, err := s.db.Exec(`
		INSERT INTO metrics (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = value + excluded.value;
	`, key, n)
	if err != nil {
		log.Error("Failed to increment lifetime counter", "error", err, "key", key, "n", n)
		return
	}
	log.Debug("Incremented lifetime counter", "key", key, "n", n)
}

// GetAll returns every counter keyed by name.
func (s *store) GetAll() (map[string]int, error) {
	rows, err := s.db.Query("SELECT key, value FROM metrics")
	if err != nil {
		return nil, fmt.Errorf("failed to query counters: %w", err)
	}
	defer rows.Close()

	counters := make(map[string]int)
	for rows.Next() {
		var key string
		var value int
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		counters[key] = value
	}
	return counters, rows.Err()
}
