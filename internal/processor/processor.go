package processor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/engine"
	"github.com/mauv0809/courtside/internal/inbox"
	"github.com/mauv0809/courtside/internal/metrics"
	"github.com/mauv0809/courtside/internal/notifier"
	"github.com/mauv0809/courtside/internal/pubsub"
)

const (
	drainBatch     = 50
	workBuffer     = 64
	defaultDrain   = 2 * time.Second
	joinCodeLength = 6
	// consumedRetention is how long marked inbox entries are kept.
	consumedRetention = time.Hour
)

// New creates a new Processor.
func New(d Deps) *Processor {
	interval := d.DrainInterval
	if interval <= 0 {
		interval = defaultDrain
	}
	return &Processor{
		store:       d.Store,
		inbox:       d.Inbox,
		out:         d.Broadcaster,
		notifier:    d.Notifier,
		metrics:     d.Metrics,
		counters:    d.Counters,
		audit:       d.Audit,
		presence:    d.Presence,
		pubsub:      d.PubSub,
		clock:       d.Clock,
		hostOwnerID: d.HostOwnerID,
		interval:    interval,
		sessions:    make(map[string]*session),
		work:        make(chan string, workBuffer),
	}
}

// SetIdleResetter wires the top-of-queue timer.
func (p *Processor) SetIdleResetter(r IdleResetter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idle = r
}

// LoadAll warms the session cache with every stored club.
func (p *Processor) LoadAll(ctx context.Context) error {
	ids, err := p.store.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list clubs: %w", err)
	}
	for _, id := range ids {
		if _, err := p.session(ctx, id); err != nil {
			return err
		}
	}
	log.Info("Loaded club sessions", "count", len(ids))
	return nil
}

func (p *Processor) session(ctx context.Context, clubID string) (*session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[clubID]; ok {
		return s, nil
	}
	c, err := p.store.Get(ctx, clubID)
	if err != nil {
		return nil, err
	}
	s := &session{state: c}
	p.sessions[clubID] = s
	p.metrics.SetActiveSessions(len(p.sessions))
	return s, nil
}

func (p *Processor) evict(clubID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, clubID)
	p.metrics.SetActiveSessions(len(p.sessions))
}

// ActiveClubs lists the clubs held in memory.
func (p *Processor) ActiveClubs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Snapshot returns a copy of the club's current document.
func (p *Processor) Snapshot(ctx context.Context, clubID string) (club.Club, error) {
	s, err := p.session(ctx, clubID)
	if err != nil {
		return club.Club{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

// Authorize checks that ownerID administers clubID.
func (p *Processor) Authorize(ctx context.Context, clubID, ownerID string) error {
	c, err := p.Snapshot(ctx, clubID)
	if err != nil {
		return err
	}
	if ownerID == "" || c.HostOwnerID != ownerID {
		return ErrNotHost
	}
	return nil
}

// CreateClub starts a new session owned by the configured host. An empty
// id gets a generated join code.
func (p *Processor) CreateClub(ctx context.Context, id, sport string) (club.Club, error) {
	id = club.NormalizeID(id)
	if id == "" {
		id = newJoinCode()
	}
	c := club.NewClub(id, p.hostOwnerID, sport, p.clock.Now())
	if err := p.store.Create(ctx, c); err != nil {
		return club.Club{}, err
	}

	p.mu.Lock()
	p.sessions[id] = &session{state: c}
	p.metrics.SetActiveSessions(len(p.sessions))
	p.mu.Unlock()

	p.counters.Increment(metrics.KeyClubsCreated)
	p.audit.Recordf(id, "Session created for %s", c.SportOf().DisplayName)
	p.out.Broadcast(c)
	return c, nil
}

func newJoinCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:joinCodeLength])
}

// Mutate runs fn against the club's current document under the club's
// lock. An Applied outcome is persisted with a conditional write; if that
// fails the session keeps its previous document and the error is returned.
// Only after a successful write is the new document broadcast, audited and
// narrated.
func (p *Processor) Mutate(ctx context.Context, clubID, action string, fn func(club.Club) engine.Outcome) (engine.Outcome, error) {
	s, err := p.session(ctx, clubID)
	if err != nil {
		return engine.Outcome{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := p.clock.Now()
	out := fn(s.state)

	switch out.Kind {
	case engine.Rejected:
		p.metrics.IncRequestsRejected(action)
		log.Debug("Rejected request", "clubID", clubID, "action", action, "reason", out.Reason)
		return out, nil
	case engine.RejectedWithAudit:
		p.metrics.IncRequestsAudited(action)
		p.audit.Record(clubID, out.Audit...)
		log.Warn("Rejected request with audit", "clubID", clubID, "action", action, "reason", out.Reason)
		return out, nil
	case engine.Acknowledged:
		return out, nil
	}

	expected := s.state.Version
	if err := p.store.Update(ctx, out.State, expected); err != nil {
		p.metrics.IncPersistFailures()
		log.Error("Failed to persist club, keeping previous state", "clubID", clubID, "action", action, "version", expected, "error", err)
		if errors.Is(err, club.ErrVersionConflict) || errors.Is(err, club.ErrClubNotFound) {
			// Someone else wrote the document; reload on next access.
			p.evict(clubID)
		}
		return out, fmt.Errorf("failed to persist %s for club %s: %w", action, clubID, err)
	}
	out.State.Version = expected + 1
	moved := queueMoves(s.state, out.State)
	s.state = out.State
	if len(moved) > 0 {
		p.presence.Forget(clubID, moved...)
	}

	p.metrics.IncRequestsApplied(action)
	p.metrics.ObserveApplyDuration(p.clock.Since(start).Seconds())
	p.countLifetime(action, out)

	p.out.Broadcast(s.state.Clone())
	p.audit.Record(clubID, out.Audit...)
	dryRun := notifier.IsDryRun(ctx)
	if out.Announcement != "" {
		p.announce(clubID, out.Announcement, dryRun)
	}
	if out.Result != nil {
		p.sendResult(clubID, s.state.SportOf().UnitLabel, *out.Result, dryRun)
	}
	if out.ResetIdle {
		p.resetIdle(clubID)
	}
	log.Debug("Applied request", "clubID", clubID, "action", action, "version", s.state.Version)
	return out, nil
}

// queueMoves lists names that joined or left the waiting queue between
// before and after. A heartbeat record only counts for the queue entry it
// was made for, so these records are dropped.
func queueMoves(before, after club.Club) []string {
	var moved []string
	for _, e := range before.WaitingQueue {
		if after.QueueIndex(e.Name) < 0 {
			moved = append(moved, e.Name)
		}
	}
	for _, e := range after.WaitingQueue {
		if before.QueueIndex(e.Name) < 0 {
			moved = append(moved, e.Name)
		}
	}
	return moved
}

func (p *Processor) countLifetime(action string, out engine.Outcome) {
	switch engine.Action(action) {
	case engine.ActionStartMatch:
		p.counters.Increment(metrics.KeyMatchesStarted)
	case engine.ActionFinishMatch:
		p.counters.Increment(metrics.KeyMatchesFinished)
	case engine.ActionBatchJoin:
		p.counters.Add(metrics.KeyPlayersJoined, len(out.Audit))
	}
}

func (p *Processor) resetIdle(clubID string) {
	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()
	if idle != nil {
		idle.ResetIdle(clubID)
	}
}

// Announce hands text to the narrator without waiting for delivery.
func (p *Processor) Announce(ctx context.Context, clubID, text string) {
	p.announce(clubID, text, notifier.IsDryRun(ctx))
}

func (p *Processor) announce(clubID, text string, dryRun bool) {
	p.notify.Add(1)
	go func() {
		defer p.notify.Done()
		if err := p.notifier.Announce(clubID, text, dryRun); err != nil {
			log.Warn("Announcement failed", "clubID", clubID, "text", text, "error", err)
		}
	}()
}

func (p *Processor) sendResult(clubID, unitLabel string, rec club.MatchRecord, dryRun bool) {
	label := fmt.Sprintf("%s %d", unitLabel, rec.UnitIndex+1)
	p.notify.Add(1)
	go func() {
		defer p.notify.Done()
		if err := p.notifier.SendMatchResult(clubID, label, rec, dryRun); err != nil {
			log.Warn("Match result notification failed", "clubID", clubID, "error", err)
		}
	}()
}

// Wait blocks until every pending notification has been handed off. Call
// it only once nothing can mutate any more, i.e. after the HTTP server and
// the supervisors have stopped.
func (p *Processor) Wait() {
	p.notify.Wait()
}

// ApplyHost applies a trusted request from the host directly, bypassing
// the inbox. Persistence errors are returned to the host.
func (p *Processor) ApplyHost(ctx context.Context, clubID, action string, payload []byte) (engine.Outcome, error) {
	req, err := engine.ParseRequest(action, payload, "", true)
	if err != nil {
		return engine.Outcome{}, err
	}
	return p.Mutate(ctx, clubID, action, func(c club.Club) engine.Outcome {
		return engine.Apply(c, req, p.clock.Now())
	})
}

// Submit validates a guest request and queues it for the host. Heartbeats
// are recorded immediately instead. It returns the inbox entry id.
func (p *Processor) Submit(ctx context.Context, clubID, action string, payload []byte, requester string) (string, error) {
	req, err := engine.ParseRequest(action, payload, requester, false)
	if err != nil {
		return "", err
	}
	if _, err := p.session(ctx, clubID); err != nil {
		return "", err
	}
	if req.Action == engine.ActionHeartbeat {
		p.presence.Touch(clubID, req.Requester)
		return "", nil
	}

	canonical, err := engine.EncodePayload(req.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", action, err)
	}
	id, err := p.inbox.Enqueue(ctx, clubID, action, canonical, req.Requester)
	if err != nil {
		return "", err
	}
	if p.pubsub != nil {
		msg := pubsub.RequestSubmitted{ClubID: clubID, RequestID: id}
		if err := p.pubsub.SendMessage(ctx, pubsub.EventRequestSubmitted, msg); err != nil {
			log.Warn("Failed to publish request notification", "clubID", clubID, "requestID", id, "error", err)
		}
	}
	p.Kick(clubID)
	return id, nil
}

// Heartbeat records that requester is still connected to clubID.
func (p *Processor) Heartbeat(ctx context.Context, clubID, requester string) error {
	name := club.SanitizeName(requester)
	if name == "" {
		return engine.ErrMissingRequester
	}
	if _, err := p.session(ctx, clubID); err != nil {
		return err
	}
	p.presence.Touch(clubID, name)
	return nil
}

// Kick schedules a drain of clubID without blocking. A full work queue is
// fine: the periodic poll picks the club up.
func (p *Processor) Kick(clubID string) {
	select {
	case p.work <- clubID:
	default:
	}
}

// Drain applies the club's pending requests one at a time in arrival
// order. It stops at the first persistence failure and leaves that request
// and everything after it pending.
func (p *Processor) Drain(ctx context.Context, clubID string) (int, error) {
	s, err := p.session(ctx, clubID)
	if err != nil {
		return 0, err
	}
	s.drain.Lock()
	defer s.drain.Unlock()

	processed := 0
	for {
		entries, err := p.inbox.Pending(ctx, clubID, drainBatch)
		if err != nil {
			return processed, err
		}
		for _, e := range entries {
			status, err := p.applyEntry(ctx, e)
			if err != nil {
				return processed, err
			}
			if err := p.inbox.Mark(ctx, e.ID, status); err != nil {
				return processed, err
			}
			processed++
		}
		if len(entries) < drainBatch {
			break
		}
	}
	if processed > 0 {
		log.Info("Drained requests", "clubID", clubID, "count", processed)
	}
	return processed, nil
}

func (p *Processor) applyEntry(ctx context.Context, e inbox.Entry) (inbox.Status, error) {
	req, err := engine.ParseRequest(e.Action, e.Payload, e.Requester, false)
	if err != nil {
		log.Warn("Dropping malformed request", "clubID", e.ClubID, "requestID", e.ID, "error", err)
		p.metrics.IncRequestsRejected(e.Action)
		return inbox.StatusRejected, nil
	}
	req.ID = e.ID
	out, err := p.Mutate(ctx, e.ClubID, e.Action, func(c club.Club) engine.Outcome {
		return engine.Apply(c, req, p.clock.Now())
	})
	if err != nil {
		return "", err
	}
	switch out.Kind {
	case engine.Applied, engine.Acknowledged:
		return inbox.StatusApplied, nil
	default:
		return inbox.StatusRejected, nil
	}
}

// Run drains clubs as they are kicked and polls the inbox every interval
// until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()
	log.Info("Request processor started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("Request processor stopped")
			return nil
		case clubID := <-p.work:
			if _, err := p.Drain(ctx, clubID); err != nil {
				log.Error("Drain failed", "clubID", clubID, "error", err)
			}
		case <-ticker.Chan():
			ids, err := p.inbox.ClubsWithPending(ctx)
			if err != nil {
				log.Error("Failed to poll inbox", "error", err)
				continue
			}
			for _, id := range ids {
				if _, err := p.Drain(ctx, id); err != nil {
					log.Error("Drain failed", "clubID", id, "error", err)
				}
			}
			if _, err := p.inbox.Prune(ctx, consumedRetention); err != nil {
				log.Error("Failed to prune inbox", "error", err)
			}
		}
	}
}
