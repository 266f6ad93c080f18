package inbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// New creates a new Inbox backed by db.
func New(db *sql.DB, clock clockwork.Clock) Inbox {
	return &store{
		db:    db,
		clock: clock,
	}
}

func (s *store) Enqueue(ctx context.Context, clubID, action string, payload []byte, requester string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (id, club_id, action, payload, requester, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, clubID, action, string(payload), requester, StatusPending, s.clock.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s for club %s: %w", action, clubID, err)
	}
	log.Debug("Enqueued request", "clubID", clubID, "requestID", id, "action", action, "requester", requester)
	return id, nil
}

func (s *store) Pending(ctx context.Context, clubID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, club_id, action, payload, requester, status, created_at
		FROM requests
		WHERE club_id = ? AND status = ?
		ORDER BY seq
		LIMIT ?`, clubID, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending requests for club %s: %w", clubID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			payload string
			created int64
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.ClubID, &e.Action, &payload, &e.Requester, &e.Status, &created); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		e.Payload = []byte(payload)
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *store) Mark(ctx context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE requests SET status = ?, processed_at = ?, payload = ?
		WHERE id = ? AND status = ?`,
		status, s.clock.Now().UnixNano(), consumedPayload, id, StatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark request %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark request %s: %w", id, err)
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM requests WHERE id = ?)", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to mark request %s: %w", id, err)
		}
		if !exists {
			return ErrEntryNotFound
		}
	}
	return nil
}

func (s *store) ClubsWithPending(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT club_id FROM requests WHERE status = ?
		GROUP BY club_id ORDER BY MIN(seq)`, StatusPending)
	if err != nil {
		log.Error("Failed to query clubs with pending requests", "error", err)
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-olderThan).UnixNano()
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM requests
		WHERE status != ? AND processed_at IS NOT NULL AND processed_at < ?`,
		StatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune consumed requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune consumed requests: %w", err)
	}
	if n > 0 {
		log.Debug("Pruned consumed requests", "count", n)
	}
	return n, nil
}
