package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mauv0809/courtside/internal/audit"
	"github.com/mauv0809/courtside/internal/broadcast"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/engine"
	"github.com/mauv0809/courtside/internal/inbox"
	"github.com/mauv0809/courtside/internal/metrics"
	"github.com/mauv0809/courtside/internal/notifier"
	"github.com/mauv0809/courtside/internal/presence"
	"github.com/mauv0809/courtside/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClub  = "ABC123"
	testOwner = "host-1"
)

type fixture struct {
	p        *Processor
	store    *club.MockStore
	inbox    *inbox.MockInbox
	notif    *notifier.Mock
	metr     *metrics.Mock
	counters *metrics.MockStore
	hub      *broadcast.Hub
	audit    *audit.Log
	presence *presence.Tracker
	pubsub   *pubsub.MockPubSubClient
	clock    *clockwork.FakeClock
}

type idleSpy struct{ clubs []string }

func (s *idleSpy) ResetIdle(clubID string) { s.clubs = append(s.clubs, clubID) }

func newFixture(t *testing.T, queue ...string) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC))
	f := &fixture{
		store:    club.NewMock(),
		inbox:    inbox.NewMock(),
		notif:    notifier.NewMock(),
		metr:     metrics.NewMock(),
		counters: metrics.NewMockStore(),
		hub:      broadcast.NewHub(),
		audit:    audit.New(clock),
		presence: presence.New(clock),
		pubsub:   pubsub.NewMock(),
		clock:    clock,
	}
	c := club.NewClub(testClub, testOwner, "badminton", clock.Now())
	c.ActiveUnitCount = 2
	c.PickRange = 6
	for _, name := range queue {
		c.WaitingQueue = append(c.WaitingQueue, club.QueueEntry{Name: name})
	}
	f.store.Put(c)

	f.p = New(Deps{
		Store:       f.store,
		Inbox:       f.inbox,
		Broadcaster: broadcast.New(f.hub, nil),
		Notifier:    f.notif,
		Metrics:     f.metr,
		Counters:    f.counters,
		Audit:       f.audit,
		Presence:    f.presence,
		PubSub:      f.pubsub,
		Clock:       clock,
		HostOwnerID: testOwner,
	})
	t.Cleanup(f.hub.Close)
	return f
}

func (f *fixture) snapshot(t *testing.T) club.Club {
	t.Helper()
	c, err := f.p.Snapshot(context.Background(), testClub)
	require.NoError(t, err)
	return c
}

func names(entries []club.QueueEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func auditTexts(l *audit.Log) []string {
	var out []string
	for _, line := range l.Lines(testClub) {
		out = append(out, line.Text)
	}
	return out
}

func TestApplyHost(t *testing.T) {
	t.Run("applied request is persisted, broadcast and narrated", func(t *testing.T) {
		f := newFixture(t, "ANNA", "BO", "CARL", "DINA", "EMIL")
		sub := f.hub.Subscribe(testClub)
		defer sub.Close()
		idle := &idleSpy{}
		f.p.SetIdleResetter(idle)

		out, err := f.p.ApplyHost(context.Background(), testClub, "start_match",
			[]byte(`{"unit":0,"players":["ANNA","BO","CARL","DINA"]}`))
		require.NoError(t, err)
		f.p.Wait()

		assert.Equal(t, engine.Applied, out.Kind)
		require.Len(t, f.store.UpdateCalls, 1)
		assert.Equal(t, int64(0), f.store.UpdateCalls[0].ExpectedVersion)

		c := f.snapshot(t)
		assert.Equal(t, int64(1), c.Version)
		assert.Equal(t, []string{"EMIL"}, names(c.WaitingQueue))
		assert.Equal(t, []string{"ANNA", "BO", "CARL", "DINA"}, names(c.UnitOccupants["0"]))

		select {
		case got := <-sub.C:
			assert.Equal(t, int64(1), got.Version)
		default:
			t.Fatal("expected a broadcast")
		}

		assert.Equal(t, []string{"Court 1: ANNA, BO, CARL and DINA"}, f.notif.Announced())
		assert.Equal(t, []string{testClub}, idle.clubs)
		assert.Equal(t, 1, f.metr.Applied("start_match"))
		all, _ := f.counters.GetAll()
		assert.Equal(t, 1, all[metrics.KeyMatchesStarted])
	})

	t.Run("persist failure keeps the previous state", func(t *testing.T) {
		f := newFixture(t, "ANNA", "BO", "CARL", "DINA")
		f.store.UpdateFunc = func(c club.Club, expectedVersion int64) error {
			return errors.New("disk full")
		}
		sub := f.hub.Subscribe(testClub)
		defer sub.Close()

		_, err := f.p.ApplyHost(context.Background(), testClub, "start_match",
			[]byte(`{"unit":0,"players":["ANNA","BO","CARL","DINA"]}`))
		require.Error(t, err)
		f.p.Wait()

		c := f.snapshot(t)
		assert.Equal(t, int64(0), c.Version)
		assert.Len(t, c.WaitingQueue, 4)
		assert.Empty(t, c.UnitOccupants)
		assert.Empty(t, f.notif.Announced())
		assert.Equal(t, 1, f.metr.PersistFailures())
		assert.Zero(t, f.metr.Applied("start_match"))
		select {
		case <-sub.C:
			t.Fatal("no broadcast expected after a failed write")
		default:
		}
	})

	t.Run("malformed payload is an error", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.p.ApplyHost(context.Background(), testClub, "start_match", []byte(`{"players":["A"]}`))
		assert.ErrorIs(t, err, engine.ErrMissingUnit)
	})

	t.Run("unknown club", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.p.ApplyHost(context.Background(), "NOPE", "leave", []byte(`{"name":"A"}`))
		assert.ErrorIs(t, err, club.ErrClubNotFound)
	})

	t.Run("finish sends the match result", func(t *testing.T) {
		f := newFixture(t, "ANNA", "BO", "CARL", "DINA")
		ctx := context.Background()
		_, err := f.p.ApplyHost(ctx, testClub, "start_match", []byte(`{"unit":1,"players":["ANNA","BO","CARL","DINA"]}`))
		require.NoError(t, err)
		_, err = f.p.ApplyHost(ctx, testClub, "finish_match", []byte(`{"unit":1,"winners":["ANNA","BO"]}`))
		require.NoError(t, err)
		f.p.Wait()

		require.Len(t, f.notif.SendMatchResultCalls, 1)
		call := f.notif.SendMatchResultCalls[0]
		assert.Equal(t, "Court 2", call.UnitLabel)
		assert.Equal(t, []string{"ANNA", "BO"}, call.Record.Winners)
		all, _ := f.counters.GetAll()
		assert.Equal(t, 1, all[metrics.KeyMatchesFinished])
	})
}

func TestSubmitAndDrain(t *testing.T) {
	t.Run("guest requests are applied in arrival order", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		id1, err := f.p.Submit(ctx, testClub, "batch_join", []byte(`{"players":[{"name":"anna"}]}`), "anna")
		require.NoError(t, err)
		id2, err := f.p.Submit(ctx, testClub, "batch_join", []byte(`{"players":[{"name":"bo"}]}`), "bo")
		require.NoError(t, err)

		n, err := f.p.Drain(ctx, testClub)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		statuses := f.inbox.Statuses()
		assert.Equal(t, inbox.StatusApplied, statuses[id1])
		assert.Equal(t, inbox.StatusApplied, statuses[id2])
		assert.Equal(t, []string{"ANNA", "BO"}, names(f.snapshot(t).WaitingQueue))
		assert.Equal(t, []string{"ANNA joined the queue", "BO joined the queue"}, auditTexts(f.audit))

		calls := f.pubsub.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, pubsub.EventRequestSubmitted, calls[0].Topic)
	})

	t.Run("rejected request is marked and leaves state alone", func(t *testing.T) {
		f := newFixture(t, "ANNA", "BO")
		ctx := context.Background()

		id, err := f.p.Submit(ctx, testClub, "leave", []byte(`{"name":"BO"}`), "ANNA")
		require.NoError(t, err)
		_, err = f.p.Drain(ctx, testClub)
		require.NoError(t, err)

		assert.Equal(t, inbox.StatusRejected, f.inbox.Statuses()[id])
		assert.Equal(t, []string{"ANNA", "BO"}, names(f.snapshot(t).WaitingQueue))
		assert.Equal(t, 1, f.metr.Rejected("leave"))
		assert.Empty(t, f.store.UpdateCalls)
		assert.Empty(t, auditTexts(f.audit))
	})

	t.Run("wrong elevated secret is audited", func(t *testing.T) {
		f := newFixture(t, "ANNA")
		ctx := context.Background()
		secret := "1234"
		_, err := f.p.UpdateSettings(ctx, testClub, engine.SettingsPatch{ElevatedSecret: &secret})
		require.NoError(t, err)

		id, err := f.p.Submit(ctx, testClub, "claim_power_guest", []byte(`{"secret":"0000"}`), "ANNA")
		require.NoError(t, err)
		_, err = f.p.Drain(ctx, testClub)
		require.NoError(t, err)

		assert.Equal(t, inbox.StatusRejected, f.inbox.Statuses()[id])
		assert.Equal(t, 1, f.metr.Audited("claim_power_guest"))
		assert.Contains(t, auditTexts(f.audit), "ANNA failed to claim queue management with a wrong code")

		payload, ok := f.inbox.Payload(id)
		require.True(t, ok)
		assert.NotContains(t, string(payload), "0000", "consumed requests keep no codes")
	})

	t.Run("persist failure leaves the request pending for the next drain", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		failing := true
		f.store.UpdateFunc = func(c club.Club, expectedVersion int64) error {
			if failing {
				return errors.New("connection reset")
			}
			return nil
		}

		id, err := f.p.Submit(ctx, testClub, "batch_join", []byte(`{"players":[{"name":"ANNA"}]}`), "ANNA")
		require.NoError(t, err)

		n, err := f.p.Drain(ctx, testClub)
		require.Error(t, err)
		assert.Zero(t, n)
		assert.Equal(t, inbox.StatusPending, f.inbox.Statuses()[id])
		assert.Empty(t, f.snapshot(t).WaitingQueue)

		failing = false
		n, err = f.p.Drain(ctx, testClub)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, inbox.StatusApplied, f.inbox.Statuses()[id])
		assert.Equal(t, []string{"ANNA"}, names(f.snapshot(t).WaitingQueue))
	})

	t.Run("malformed stored payload is rejected", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		id, err := f.inbox.Enqueue(ctx, testClub, "start_match", []byte(`{"unit":"x"}`), "ANNA")
		require.NoError(t, err)

		_, err = f.p.Drain(ctx, testClub)
		require.NoError(t, err)
		assert.Equal(t, inbox.StatusRejected, f.inbox.Statuses()[id])
	})

	t.Run("submit validates before queueing", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		_, err := f.p.Submit(ctx, testClub, "batch_join", []byte(`{"players":[]}`), "ANNA")
		assert.ErrorIs(t, err, engine.ErrEmptyPlayerList)
		_, err = f.p.Submit(ctx, testClub, "leave", nil, "")
		assert.ErrorIs(t, err, engine.ErrMissingRequester)
		_, err = f.p.Submit(ctx, "NOPE", "leave", nil, "ANNA")
		assert.ErrorIs(t, err, club.ErrClubNotFound)
		assert.Empty(t, f.inbox.Statuses())
	})

	t.Run("heartbeat is recorded without queueing", func(t *testing.T) {
		f := newFixture(t, "ANNA")
		id, err := f.p.Submit(context.Background(), testClub, "heartbeat", nil, "anna")
		require.NoError(t, err)
		assert.Empty(t, id)
		assert.Empty(t, f.inbox.Statuses())

		seen, ok := f.presence.LastSeen(testClub, "ANNA")
		require.True(t, ok)
		assert.Equal(t, f.clock.Now(), seen)
	})
}

func TestHeartbeat(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.p.Heartbeat(context.Background(), testClub, " bo "))
	_, ok := f.presence.LastSeen(testClub, "BO")
	assert.True(t, ok)
	assert.ErrorIs(t, f.p.Heartbeat(context.Background(), testClub, "!!"), engine.ErrMissingRequester)
}

func TestPresenceFollowsQueue(t *testing.T) {
	f := newFixture(t, "ANNA", "BOB", "CARL", "DINA", "ERIK")
	ctx := context.Background()

	t.Run("leaving drops the heartbeat record", func(t *testing.T) {
		require.NoError(t, f.p.Heartbeat(ctx, testClub, "BOB"))
		_, err := f.p.ApplyHost(ctx, testClub, "leave", []byte(`{"name":"BOB"}`))
		require.NoError(t, err)

		_, ok := f.presence.LastSeen(testClub, "BOB")
		assert.False(t, ok)
	})

	t.Run("a host re-add is not stale", func(t *testing.T) {
		f.clock.Advance(10 * time.Minute)
		out, err := f.p.ApplyHost(ctx, testClub, "batch_join", []byte(`{"players":[{"name":"BOB"}]}`))
		require.NoError(t, err)
		require.Equal(t, engine.Applied, out.Kind)

		assert.Empty(t, f.presence.Stale(testClub, 2*time.Minute))
	})

	t.Run("starting a match drops the players' records", func(t *testing.T) {
		require.NoError(t, f.p.Heartbeat(ctx, testClub, "ANNA"))
		require.NoError(t, f.p.Heartbeat(ctx, testClub, "ERIK"))
		_, err := f.p.ApplyHost(ctx, testClub, "start_match", []byte(`{"unit":0,"players":["ANNA","CARL","DINA","BOB"]}`))
		require.NoError(t, err)

		_, ok := f.presence.LastSeen(testClub, "ANNA")
		assert.False(t, ok)
		_, ok = f.presence.LastSeen(testClub, "ERIK")
		assert.True(t, ok)
	})
}

func TestVersionConflictReloads(t *testing.T) {
	f := newFixture(t, "ANNA", "BO")
	ctx := context.Background()
	_ = f.snapshot(t)

	// Another writer bumps the stored document.
	stored, err := f.store.Get(ctx, testClub)
	require.NoError(t, err)
	stored.WaitingQueue = append(stored.WaitingQueue, club.QueueEntry{Name: "CARL"})
	stored.Version = 3
	f.store.Put(stored)

	_, err = f.p.ApplyHost(ctx, testClub, "leave", []byte(`{"name":"ANNA"}`))
	require.ErrorIs(t, err, club.ErrVersionConflict)

	out, err := f.p.ApplyHost(ctx, testClub, "leave", []byte(`{"name":"ANNA"}`))
	require.NoError(t, err)
	assert.Equal(t, engine.Applied, out.Kind)
	c := f.snapshot(t)
	assert.Equal(t, int64(4), c.Version)
	assert.Equal(t, []string{"BO", "CARL"}, names(c.WaitingQueue))
}

func TestMaintenance(t *testing.T) {
	t.Run("reset sends the leaderboard of the finished session", func(t *testing.T) {
		f := newFixture(t, "ANNA", "BO", "CARL", "DINA")
		ctx := context.Background()
		_, err := f.p.ApplyHost(ctx, testClub, "start_match", []byte(`{"unit":0,"players":["ANNA","BO","CARL","DINA"]}`))
		require.NoError(t, err)
		_, err = f.p.ApplyHost(ctx, testClub, "finish_match", []byte(`{"unit":0,"winners":["ANNA"]}`))
		require.NoError(t, err)
		f.presence.Touch(testClub, "ANNA")

		out, err := f.p.ResetSession(ctx, testClub)
		require.NoError(t, err)
		f.p.Wait()
		assert.Equal(t, engine.Applied, out.Kind)

		c := f.snapshot(t)
		assert.Empty(t, c.WaitingQueue)
		assert.Empty(t, c.MatchHistory)
		assert.Len(t, c.Roster["badminton"], 4)

		require.Len(t, f.notif.SendLeaderboardCalls, 1)
		assert.Equal(t, "Badminton", f.notif.SendLeaderboardCalls[0].Sport)
		assert.Len(t, f.notif.SendLeaderboardCalls[0].Players, 4)
		_, ok := f.presence.LastSeen(testClub, "ANNA")
		assert.False(t, ok)
	})

	t.Run("evict stale removes only queued players", func(t *testing.T) {
		f := newFixture(t, "ANNA", "BO", "CARL")
		f.presence.Touch(testClub, "ANNA")
		f.presence.Touch(testClub, "BO")

		n, err := f.p.EvictStale(context.Background(), testClub, []string{"ANNA", "ZED"})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"BO", "CARL"}, names(f.snapshot(t).WaitingQueue))
		assert.Equal(t, 1, f.metr.Evictions())
		_, ok := f.presence.LastSeen(testClub, "ANNA")
		assert.False(t, ok)
		_, ok = f.presence.LastSeen(testClub, "BO")
		assert.True(t, ok)
	})

	t.Run("rotate top needs four active players", func(t *testing.T) {
		f := newFixture(t, "ANNA", "BO", "CARL")
		rotated, err := f.p.RotateTop(context.Background(), testClub)
		require.NoError(t, err)
		assert.False(t, rotated)

		f = newFixture(t, "ANNA", "BO", "CARL", "DINA")
		rotated, err = f.p.RotateTop(context.Background(), testClub)
		require.NoError(t, err)
		f.p.Wait()
		assert.True(t, rotated)
		assert.Equal(t, []string{"BO", "ANNA", "CARL", "DINA"}, names(f.snapshot(t).WaitingQueue))
		assert.Equal(t, []string{"BO, you're up"}, f.notif.Announced())
		assert.Equal(t, 1, f.metr.Rotations())
	})

	t.Run("dry run is passed to the narrator", func(t *testing.T) {
		f := newFixture(t, "ANNA", "BO", "CARL", "DINA")
		ctx := notifier.WithDryRun(context.Background(), true)
		_, err := f.p.RotateTop(ctx, testClub)
		require.NoError(t, err)
		f.p.Wait()
		require.Len(t, f.notif.AnnounceCalls, 1)
		assert.True(t, f.notif.AnnounceCalls[0].DryRun)
	})
}

func TestClubs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.p.CreateClub(ctx, "", "squash")
	require.NoError(t, err)
	assert.Len(t, c.ID, joinCodeLength)
	assert.Equal(t, "squash", c.Sport)
	assert.Equal(t, testOwner, c.HostOwnerID)

	_, err = f.p.CreateClub(ctx, testClub, "")
	assert.ErrorIs(t, err, club.ErrClubExists)

	require.NoError(t, f.p.LoadAll(ctx))
	assert.ElementsMatch(t, []string{testClub, c.ID}, f.p.ActiveClubs())
	assert.Equal(t, 2, f.metr.ActiveSessions())

	assert.NoError(t, f.p.Authorize(ctx, c.ID, testOwner))
	assert.ErrorIs(t, f.p.Authorize(ctx, c.ID, "someone"), ErrNotHost)

	require.NoError(t, f.p.DeleteClub(ctx, c.ID))
	assert.Equal(t, []string{testClub}, f.p.ActiveClubs())
	all, _ := f.counters.GetAll()
	assert.Equal(t, 1, all[metrics.KeyClubsCreated])

	t.Run("chosen codes are normalized", func(t *testing.T) {
		c, err := f.p.CreateClub(ctx, "hall 9", "")
		require.NoError(t, err)
		assert.Equal(t, "HALL9", c.ID)

		_, err = f.p.Snapshot(ctx, club.NormalizeID(" hall9 "))
		assert.NoError(t, err)
	})
}

func TestRunDrainsKickedClubs(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.p.Run(ctx) }()

	_, err := f.p.Submit(context.Background(), testClub, "batch_join", []byte(`{"players":[{"name":"ANNA"}]}`), "ANNA")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(f.snapshot(t).WaitingQueue) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRunPrunesConsumedRequests(t *testing.T) {
	f := newFixture(t)
	pruned := make(chan time.Duration, 1)
	f.inbox.PruneFunc = func(olderThan time.Duration) (int64, error) {
		select {
		case pruned <- olderThan:
		default:
		}
		return 0, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.p.Run(ctx) }()

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(defaultDrain)

	select {
	case olderThan := <-pruned:
		assert.Equal(t, consumedRetention, olderThan)
	case <-time.After(time.Second):
		t.Fatal("inbox was not pruned on the poll tick")
	}

	cancel()
	require.NoError(t, <-done)
}
