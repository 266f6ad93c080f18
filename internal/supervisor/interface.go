package supervisor

import (
	"context"

	"github.com/mauv0809/courtside/internal/club"
)

// Processor is the subset of the request processor the supervisors drive.
// Every change they make goes through the same per-club write path as
// guest requests.
type Processor interface {
	ActiveClubs() []string
	Snapshot(ctx context.Context, clubID string) (club.Club, error)
	EvictStale(ctx context.Context, clubID string, names []string) (int, error)
	RotateTop(ctx context.Context, clubID string) (bool, error)
	Announce(ctx context.Context, clubID, text string)
}
