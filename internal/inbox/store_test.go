package inbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/database"
	"github.com/mauv0809/courtside/internal/inbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (inbox.Inbox, club.ClubStore, *clockwork.FakeClock, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	return inbox.New(db, clock), club.New(db), clock, teardown
}

func TestEnqueueAndDrainOrder(t *testing.T) {
	box, clubs, clock, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	require.NoError(t, clubs.Create(ctx, club.NewClub("C1", "owner", "badminton", clock.Now())))
	require.NoError(t, clubs.Create(ctx, club.NewClub("C2", "owner", "badminton", clock.Now())))

	first, err := box.Enqueue(ctx, "C1", "batch_join", []byte(`{"players":[{"name":"A"}]}`), "A")
	require.NoError(t, err)
	_, err = box.Enqueue(ctx, "C2", "leave", []byte(`{}`), "Z")
	require.NoError(t, err)
	second, err := box.Enqueue(ctx, "C1", "toggle_pause", []byte(`{}`), "A")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	pending, err := box.Pending(ctx, "C1", 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first, pending[0].ID)
	assert.Equal(t, "batch_join", pending[0].Action)
	assert.JSONEq(t, `{"players":[{"name":"A"}]}`, string(pending[0].Payload))
	assert.Equal(t, inbox.StatusPending, pending[0].Status)
	assert.Equal(t, clock.Now(), pending[0].CreatedAt)
	assert.Equal(t, second, pending[1].ID)

	t.Run("limit", func(t *testing.T) {
		one, err := box.Pending(ctx, "C1", 1)
		require.NoError(t, err)
		require.Len(t, one, 1)
		assert.Equal(t, first, one[0].ID)
	})

	t.Run("clubs with pending work", func(t *testing.T) {
		ids, err := box.ClubsWithPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"C1", "C2"}, ids)
	})

	t.Run("marked entries leave the pending set", func(t *testing.T) {
		require.NoError(t, box.Mark(ctx, first, inbox.StatusApplied))
		require.NoError(t, box.Mark(ctx, first, inbox.StatusRejected), "marking twice is a no-op")

		pending, err := box.Pending(ctx, "C1", 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, second, pending[0].ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		assert.ErrorIs(t, box.Mark(ctx, "missing", inbox.StatusApplied), inbox.ErrEntryNotFound)
	})
}

func TestEnqueueRequiresClub(t *testing.T) {
	box, _, _, teardown := setupTestDB(t)
	defer teardown()

	_, err := box.Enqueue(context.Background(), "NOPE", "leave", []byte(`{}`), "A")
	assert.Error(t, err)
}

func TestMarkDropsPayload(t *testing.T) {
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()
	clock := clockwork.NewFakeClock()
	box := inbox.New(db, clock)
	ctx := context.Background()
	require.NoError(t, club.New(db).Create(ctx, club.NewClub("C1", "owner", "badminton", clock.Now())))

	id, err := box.Enqueue(ctx, "C1", "claim_power_guest", []byte(`{"secret":"4321"}`), "ANNA")
	require.NoError(t, err)
	require.NoError(t, box.Mark(ctx, id, inbox.StatusRejected))

	var stored string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT payload FROM requests WHERE id = ?", id).Scan(&stored))
	assert.NotContains(t, stored, "4321")
	assert.JSONEq(t, `{}`, stored)
}

func TestPrune(t *testing.T) {
	box, clubs, clock, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	require.NoError(t, clubs.Create(ctx, club.NewClub("C1", "owner", "badminton", clock.Now())))

	old, err := box.Enqueue(ctx, "C1", "leave", []byte(`{}`), "A")
	require.NoError(t, err)
	recent, err := box.Enqueue(ctx, "C1", "leave", []byte(`{}`), "B")
	require.NoError(t, err)
	waiting, err := box.Enqueue(ctx, "C1", "leave", []byte(`{}`), "C")
	require.NoError(t, err)

	require.NoError(t, box.Mark(ctx, old, inbox.StatusApplied))
	clock.Advance(30 * time.Minute)
	require.NoError(t, box.Mark(ctx, recent, inbox.StatusRejected))
	clock.Advance(time.Hour)

	n, err := box.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.ErrorIs(t, box.Mark(ctx, old, inbox.StatusApplied), inbox.ErrEntryNotFound, "pruned entries are gone")
	assert.NoError(t, box.Mark(ctx, recent, inbox.StatusApplied))

	pending, err := box.Pending(ctx, "C1", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, waiting, pending[0].ID)
}
