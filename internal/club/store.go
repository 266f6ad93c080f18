package club

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a new ClubStore.
func New(db *sql.DB) ClubStore {
	return &store{
		db: db,
	}
}

// Create inserts a brand new club document at version 0.
func (s *store) Create(ctx context.Context, c Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.Version = 0
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode club %s: %w", c.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO clubs (id, host_owner_id, version, document, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?, ?)`,
		c.ID, c.HostOwnerID, string(doc), c.CreatedAt.Unix(), c.UpdatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrClubExists
		}
		return fmt.Errorf("failed to create club %s: %w", c.ID, err)
	}
	log.Info("Created club", "clubID", c.ID, "sport", c.Sport)
	return nil
}

// Get loads a club document by id.
func (s *store) Get(ctx context.Context, id string) (Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		doc     string
		version int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT document, version FROM clubs WHERE id = ?", id).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Club{}, ErrClubNotFound
		}
		return Club{}, fmt.Errorf("failed to load club %s: %w", id, err)
	}
	var c Club
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return Club{}, fmt.Errorf("failed to decode club %s: %w", id, err)
	}
	c.Version = version
	normalize(&c)
	return c, nil
}

// Update is a conditional write: it only succeeds if nobody else has
// written the document since expectedVersion was read.
func (s *store) Update(ctx context.Context, c Club, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.Version = expectedVersion + 1
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode club %s: %w", c.ID, err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE clubs SET document = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(doc), c.Version, c.UpdatedAt.Unix(), c.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update club %s: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update club %s: %w", c.ID, err)
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM clubs WHERE id = ?)", c.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to update club %s: %w", c.ID, err)
		}
		if !exists {
			return ErrClubNotFound
		}
		log.Warn("Rejected stale club update", "clubID", c.ID, "expected_version", expectedVersion)
		return ErrVersionConflict
	}
	log.Debug("Updated club", "clubID", c.ID, "version", c.Version)
	return nil
}

// ListIDs returns the ids of every stored club.
func (s *store) ListIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM clubs ORDER BY created_at")
	if err != nil {
		log.Error("Failed to query club ids", "error", err)
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

// Delete removes a club and, through the foreign key, its request inbox.
func (s *store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM clubs WHERE id = ?", id)
	if err != nil {
		log.Error("Failed to delete club", "error", err, "clubID", id)
		return err
	}
	return nil
}

// normalize replaces nil collections so callers never need nil checks.
func normalize(c *Club) {
	if c.WaitingQueue == nil {
		c.WaitingQueue = []QueueEntry{}
	}
	if c.UnitOccupants == nil {
		c.UnitOccupants = map[string][]QueueEntry{}
	}
	if c.Roster == nil {
		c.Roster = map[string][]RosterPlayer{}
	}
	if c.MatchHistory == nil {
		c.MatchHistory = []MatchRecord{}
	}
	if c.SavedQueue == nil {
		c.SavedQueue = []QueueEntry{}
	}
}
