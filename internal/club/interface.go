package club

import (
	"context"
	"errors"
)

var (
	ErrClubNotFound    = errors.New("club not found")
	ErrClubExists      = errors.New("club already exists")
	ErrVersionConflict = errors.New("club was modified concurrently")
)

// ClubStore defines the interface for persisting club documents.
type ClubStore interface {
	Create(ctx context.Context, c Club) error
	Get(ctx context.Context, id string) (Club, error)
	// Update stores c if the persisted version still equals expectedVersion.
	// On success the stored document carries expectedVersion+1.
	Update(ctx context.Context, c Club, expectedVersion int64) error
	ListIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}
