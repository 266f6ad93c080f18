package club

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice", "ALICE"},
		{"  Mary   Jane  ", "MARY JANE"},
		{"Zoë O'Brien", "ZO OBRIEN"},
		{"bob\t\nsmith", "BOBSMITH"},
		{"!!!", ""},
		{"", ""},
		{"abcdefghijklmnopqrstuvwxyz", "ABCDEFGHIJKLMNOPQRST"},
		{"Player 1", "PLAYER 1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}

	t.Run("sanitizing is idempotent", func(t *testing.T) {
		for _, tt := range tests {
			assert.Equal(t, tt.want, SanitizeName(tt.want))
		}
	})
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeID("abc123"))
	assert.Equal(t, "HALL9", NormalizeID(" hall 9 "))
	assert.Equal(t, "COURT9", NormalizeID("court-9"))
	assert.Empty(t, NormalizeID("--"))
}

func TestCloneIsDeep(t *testing.T) {
	c := NewClub("X", "host", "badminton", time.Now())
	c.WaitingQueue = []QueueEntry{{Name: "A"}}
	c.UnitOccupants["0"] = []QueueEntry{{Name: "B"}, {Name: "C"}, {Name: "D"}, {Name: "E"}}
	c.Roster["badminton"] = []RosterPlayer{{Name: "A"}}
	c.MatchHistory = []MatchRecord{{TeamA: []string{"B", "C"}, Winners: []string{"B"}}}

	cp := c.Clone()
	cp.WaitingQueue[0].IsPaused = true
	cp.UnitOccupants["0"][0].Name = "Z"
	cp.Roster["badminton"][0].Games = 9
	cp.MatchHistory[0].Winners[0] = "Z"

	assert.False(t, c.WaitingQueue[0].IsPaused)
	assert.Equal(t, "B", c.UnitOccupants["0"][0].Name)
	assert.Equal(t, 0, c.Roster["badminton"][0].Games)
	assert.Equal(t, "B", c.MatchHistory[0].Winners[0])
}

func TestQueueHelpers(t *testing.T) {
	c := NewClub("X", "host", "unknown-sport", time.Now())
	assert.Equal(t, DefaultSport, c.Sport)
	assert.Equal(t, 4, c.SportOf().PlayersPerUnit)

	c.WaitingQueue = []QueueEntry{
		{Name: "A", IsPaused: true},
		{Name: "B", IsElevatedGuest: true},
		{Name: "C"},
	}
	c.UnitOccupants["1"] = []QueueEntry{{Name: "D"}}

	assert.Equal(t, 1, c.FirstActive())
	assert.Equal(t, 2, c.ActiveCount())
	assert.Equal(t, 2, c.QueueIndex("C"))
	assert.Equal(t, -1, c.QueueIndex("D"))
	assert.True(t, c.IsElevated("B"))
	assert.False(t, c.IsElevated("C"))

	unit, ok := c.UnitOf("D")
	assert.True(t, ok)
	assert.Equal(t, "1", unit)
}

func TestParseGender(t *testing.T) {
	assert.Equal(t, GenderMale, ParseGender("m"))
	assert.Equal(t, GenderFemale, ParseGender("F"))
	assert.Equal(t, GenderUnknown, ParseGender("x"))
}
