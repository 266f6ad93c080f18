package club

import (
	"database/sql"
	"strconv"
	"sync"
	"time"
)

// store handles all database operations for club documents.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// MaxHistory is the number of finished matches kept on a club.
const MaxHistory = 100

// Gender is the self-reported gender used by the auto-pick balance policy.
type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = ""
)

// ParseGender normalises user input; anything unrecognised is unknown.
func ParseGender(s string) Gender {
	switch s {
	case "M", "m", "male", "MALE":
		return GenderMale
	case "F", "f", "female", "FEMALE":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// Club is the authoritative session document. One per session, keyed by
// its human-typeable join code.
type Club struct {
	ID                  string                    `json:"id"`
	HostOwnerID         string                    `json:"host_owner_id"`
	Version             int64                     `json:"version"`
	Sport               string                    `json:"sport"`
	ActiveUnitCount     int                       `json:"active_unit_count"`
	PickRange           int                       `json:"pick_range"`
	WaitingQueue        []QueueEntry              `json:"waiting_queue"`
	UnitOccupants       map[string][]QueueEntry   `json:"unit_occupants"`
	Roster              map[string][]RosterPlayer `json:"roster"`
	MatchHistory        []MatchRecord             `json:"match_history"`
	SavedQueue          []QueueEntry              `json:"saved_queue"`
	JoinSecret          string                    `json:"join_secret,omitempty"`
	ElevatedGuestSecret string                    `json:"elevated_guest_secret,omitempty"`
	Settings            Settings                  `json:"settings"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

// Settings are the host-controlled policy toggles read at apply time.
type Settings struct {
	RepeatAnnouncement    bool `json:"repeat_announcement"`
	RepeatIntervalSeconds int  `json:"repeat_interval_seconds"`
	Countdown             bool `json:"countdown"`
	CountdownLimitSeconds int  `json:"countdown_limit_seconds"`
	GenderBalance         bool `json:"gender_balance"`
	AvoidRepeats          bool `json:"avoid_repeats"`
}

// QueueEntry is a player's slot in the waiting line or on a unit.
type QueueEntry struct {
	Name            string `json:"name"`
	Gender          Gender `json:"gender"`
	IsPaused        bool   `json:"is_paused"`
	IsElevatedGuest bool   `json:"is_elevated_guest"`
}

// RosterPlayer holds a player's stats for one sport.
type RosterPlayer struct {
	Name   string `json:"name"`
	Gender Gender `json:"gender"`
	Games  int    `json:"games"`
	Wins   int    `json:"wins"`
}

// MatchRecord is one finished match.
type MatchRecord struct {
	Timestamp time.Time `json:"timestamp"`
	UnitIndex int       `json:"unit_index"`
	TeamA     []string  `json:"team_a"`
	TeamB     []string  `json:"team_b"`
	Winners   []string  `json:"winners"`
}

// UnitKey is the occupancy map key for a unit index.
func UnitKey(unit int) string {
	return strconv.Itoa(unit)
}
