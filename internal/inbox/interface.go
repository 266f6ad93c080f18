package inbox

import (
	"context"
	"errors"
	"time"
)

var ErrEntryNotFound = errors.New("request not found")

// Inbox is the append-only queue of guest requests, drained by the host in
// arrival order.
type Inbox interface {
	Enqueue(ctx context.Context, clubID, action string, payload []byte, requester string) (string, error)
	// Pending returns up to limit PENDING entries for clubID, oldest first.
	Pending(ctx context.Context, clubID string, limit int) ([]Entry, error)
	// Mark moves an entry out of PENDING and drops its payload, which may
	// carry a join or elevation code. It is a no-op for entries that are
	// already marked.
	Mark(ctx context.Context, id string, status Status) error
	// Prune deletes entries consumed more than olderThan ago.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	// ClubsWithPending lists the clubs that have work queued.
	ClubsWithPending(ctx context.Context) ([]string, error)
}
