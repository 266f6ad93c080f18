package notifier

import (
	"context"

	"github.com/mauv0809/courtside/internal/club"
)

// Notifier defines a high-level interface for narrating session events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// Announce delivers a short narration line, such as who is up next.
	Announce(clubID, text string, dryRun bool) error
	// SendMatchResult posts a finished match.
	SendMatchResult(clubID, unitLabel string, rec club.MatchRecord, dryRun bool) error
	// SendLeaderboard posts the roster stats of one sport, best first.
	SendLeaderboard(clubID, sportName string, players []club.RosterPlayer, dryRun bool) error
}

type contextKey struct{}

// WithDryRun marks ctx so that notifications triggered under it are only logged.
func WithDryRun(ctx context.Context, dryRun bool) context.Context {
	return context.WithValue(ctx, contextKey{}, dryRun)
}

// IsDryRun reports whether ctx was marked by WithDryRun.
func IsDryRun(ctx context.Context) bool {
	dryRun, ok := ctx.Value(contextKey{}).(bool)
	return ok && dryRun
}
