package notifier

import (
	"sync"

	"github.com/mauv0809/courtside/internal/club"
)

// Announcement is one recorded Announce call.
type Announcement struct {
	ClubID string
	Text   string
	DryRun bool
}

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	AnnounceFunc func(clubID, text string) error

	// Call records
	AnnounceCalls        []Announcement
	SendMatchResultCalls []struct {
		ClubID    string
		UnitLabel string
		Record    club.MatchRecord
	}
	SendLeaderboardCalls []struct {
		ClubID  string
		Sport   string
		Players []club.RosterPlayer
	}
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnnounceCalls = nil
	m.SendMatchResultCalls = nil
	m.SendLeaderboardCalls = nil
}

func (m *Mock) Announce(clubID, text string, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnnounceCalls = append(m.AnnounceCalls, Announcement{clubID, text, dryRun})
	if m.AnnounceFunc != nil {
		return m.AnnounceFunc(clubID, text)
	}
	return nil
}

func (m *Mock) SendMatchResult(clubID, unitLabel string, rec club.MatchRecord, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, struct {
		ClubID    string
		UnitLabel string
		Record    club.MatchRecord
	}{clubID, unitLabel, rec})
	return nil
}

func (m *Mock) SendLeaderboard(clubID, sportName string, players []club.RosterPlayer, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, struct {
		ClubID  string
		Sport   string
		Players []club.RosterPlayer
	}{clubID, sportName, players})
	return nil
}

// Announced returns the texts passed to Announce, in call order.
func (m *Mock) Announced() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.AnnounceCalls))
	for i, a := range m.AnnounceCalls {
		out[i] = a.Text
	}
	return out
}
