package inbox

import (
	"database/sql"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Status is the lifecycle of a queued request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApplied  Status = "APPLIED"
	StatusRejected Status = "REJECTED"
)

// consumedPayload replaces the payload of a marked entry.
const consumedPayload = "{}"

// Entry is one guest request waiting for the host.
type Entry struct {
	Seq         int64      `json:"seq"`
	ID          string     `json:"id"`
	ClubID      string     `json:"club_id"`
	Action      string     `json:"action"`
	Payload     []byte     `json:"payload"`
	Requester   string     `json:"requester"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

type store struct {
	db    *sql.DB
	clock clockwork.Clock
	mu    sync.RWMutex
}
