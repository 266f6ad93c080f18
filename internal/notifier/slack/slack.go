package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/metrics"
	"github.com/mauv0809/courtside/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier narrates session events to a Slack channel.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	loc       *time.Location
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		loc = time.UTC
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
		loc:       loc,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncAnnouncementsFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncAnnouncementsSent()
	log.Debug("Sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) Announce(clubID, text string, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatAnnouncement(clubID, text), dryRun)
	return err
}

func (s *Notifier) SendMatchResult(clubID, unitLabel string, rec club.MatchRecord, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatMatchResult(clubID, unitLabel, rec), dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(clubID, sportName string, players []club.RosterPlayer, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatLeaderboard(clubID, sportName, players), dryRun)
	return err
}

func (s *Notifier) formatAnnouncement(clubID, text string) slack.Message {
	return slack.NewBlockMessage(
		slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "📣 "+text, true, false), nil, nil),
		slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "Club "+clubID, false, false)),
	)
}

// formatMatchResult creates the Slack message for a finished match using Block Kit.
func (s *Notifier) formatMatchResult(clubID, unitLabel string, rec club.MatchRecord) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏸 Match finished! 🏸", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("%s at %s", unitLabel, rec.Timestamp.In(s.loc).Format("15:04"))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, false, false), nil, nil))

	teams := []*slack.TextBlockObject{
		slack.NewTextBlockObject("plain_text", strings.Join(rec.TeamA, " & "), true, false),
		slack.NewTextBlockObject("plain_text", strings.Join(rec.TeamB, " & "), true, false),
	}
	resultText := "Result: no winners recorded."
	if len(rec.Winners) > 0 {
		resultText = fmt.Sprintf("Result: %s won! 🏆", strings.Join(rec.Winners, " & "))
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", resultText, true, false), teams, nil))

	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "Club "+clubID, false, false)))
	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates a Slack message to display the session leaderboard.
func (s *Notifier) formatLeaderboard(clubID, sportName string, players []club.RosterPlayer) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🏆 %s Leaderboard 🏆", sportName), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	ranked := rank(players)
	if len(ranked) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No matches played yet. Go play some!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, p := range ranked {
		var medal string
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}
		playerText := fmt.Sprintf("%d. %s %s\n> *Wins*: %d/%d (%.0f%%)",
			i+1,
			medal,
			p.Name,
			p.Wins,
			p.Games,
			winRate(p),
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", playerText, false, false), nil, nil))
	}

	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "Club "+clubID, false, false)))
	return slack.NewBlockMessage(blocks...)
}

// rank drops players without games and orders the rest by wins, then win
// rate, then name.
func rank(players []club.RosterPlayer) []club.RosterPlayer {
	ranked := make([]club.RosterPlayer, 0, len(players))
	for _, p := range players {
		if p.Games > 0 {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if winRate(a) != winRate(b) {
			return winRate(a) > winRate(b)
		}
		return a.Name < b.Name
	})
	return ranked
}

func winRate(p club.RosterPlayer) float64 {
	if p.Games == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.Games) * 100
}
