package pubsub

import (
	"testing"
	"time"

	"github.com/mauv0809/courtside/internal/club"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateChangedSurvivesTheWire(t *testing.T) {
	c := club.NewClub("CLUB1", "owner", "padel", time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	c.Version = 7
	c.WaitingQueue = []club.QueueEntry{{Name: "ALICE", Gender: club.GenderFemale, IsPaused: true}}
	c.UnitOccupants["0"] = []club.QueueEntry{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}

	data, err := Encode(StateChanged{ClubID: c.ID, Version: c.Version, Club: c})
	require.NoError(t, err)

	var got StateChanged
	require.NoError(t, NewMock().ProcessMessage(data, &got))
	assert.Equal(t, "CLUB1", got.ClubID)
	assert.Equal(t, int64(7), got.Version)
	assert.Equal(t, c.WaitingQueue, got.Club.WaitingQueue)
	assert.Equal(t, c.UnitOccupants, got.Club.UnitOccupants)
	assert.True(t, c.CreatedAt.Equal(got.Club.CreatedAt))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var got RequestSubmitted
	assert.Error(t, Decode([]byte{0xc1}, &got))
}
