package club_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (club.ClubStore, *sql.DB, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	return club.New(db), db, dbTeardown
}

func TestCreateAndGet(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	c := club.NewClub("ABC123", "host-1", "table_tennis", time.Unix(1700000000, 0))
	c.WaitingQueue = append(c.WaitingQueue, club.QueueEntry{Name: "ALICE", Gender: club.GenderFemale})
	require.NoError(t, store.Create(ctx, c))

	got, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Version)
	assert.Equal(t, "host-1", got.HostOwnerID)
	assert.Equal(t, "table_tennis", got.Sport)
	assert.Equal(t, 4, got.PickRange)
	require.Len(t, got.WaitingQueue, 1)
	assert.Equal(t, "ALICE", got.WaitingQueue[0].Name)
	assert.NotNil(t, got.UnitOccupants)

	t.Run("duplicate id is rejected", func(t *testing.T) {
		err := store.Create(ctx, c)
		assert.ErrorIs(t, err, club.ErrClubExists)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Get(ctx, "NOPE")
		assert.ErrorIs(t, err, club.ErrClubNotFound)
	})
}

func TestConditionalUpdate(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, club.NewClub("C1", "host", "badminton", time.Now())))

	c, err := store.Get(ctx, "C1")
	require.NoError(t, err)
	c.ActiveUnitCount = 3
	require.NoError(t, store.Update(ctx, c, c.Version))

	got, err := store.Get(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, 3, got.ActiveUnitCount)

	t.Run("stale version conflicts", func(t *testing.T) {
		c.ActiveUnitCount = 5
		err := store.Update(ctx, c, 0)
		assert.ErrorIs(t, err, club.ErrVersionConflict)

		got, err := store.Get(ctx, "C1")
		require.NoError(t, err)
		assert.Equal(t, 3, got.ActiveUnitCount, "a conflicting write must not land")
	})

	t.Run("missing club", func(t *testing.T) {
		ghost := club.NewClub("GHOST", "host", "badminton", time.Now())
		assert.ErrorIs(t, store.Update(ctx, ghost, 0), club.ErrClubNotFound)
	})
}

func TestListAndDelete(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, club.NewClub("A", "host", "padel", time.Unix(1, 0))))
	require.NoError(t, store.Create(ctx, club.NewClub("B", "host", "padel", time.Unix(2, 0))))

	ids, err := store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids)

	_, err = db.Exec(`INSERT INTO requests (id, club_id, action, payload, requester, created_at) VALUES ('r1', 'A', 'leave', '{}', 'BOB', 0)`)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "A"))
	ids, err = store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM requests WHERE club_id = 'A'").Scan(&count))
	assert.Equal(t, 0, count, "requests of a deleted club should cascade")
}
