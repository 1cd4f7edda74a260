package service

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rallykat/rallykat/internal/bracket"
	"github.com/rallykat/rallykat/internal/countdown"
)

func (s *EventService) EventsReport(ctx context.Context) (string, error) {
	groups, err := s.EventGroups(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("🏁 *Upcoming Events*\n\n")
	if len(groups) == 0 {
		sb.WriteString("No events scheduled.")
		return sb.String(), nil
	}
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("*%s*\n", EscapeMarkdown(g.Name)))
		for _, e := range g.Events {
			sb.WriteString(fmt.Sprintf("%s %s - %s", e.Emoji, EscapeMarkdown(e.Name), e.DateLabel))
			if e.TimeLeft != "00:00:00:00" {
				sb.WriteString(fmt.Sprintf(" (%s)", e.TimeLeft))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (s *EventService) NextEventReport(ctx context.Context) (string, error) {
	next, err := s.NextEvent(ctx)
	if err != nil {
		return "", err
	}
	if next == nil {
		return "No upcoming events.", nil
	}

	card := s.Card(*next)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏱️ *Next up: %s %s*\n", card.Emoji, EscapeMarkdown(card.Name)))
	sb.WriteString(fmt.Sprintf("%s\n", card.DateLabel))
	sb.WriteString(fmt.Sprintf("Starts in %s", card.TimeLeft))
	return sb.String(), nil
}

func (s *EventService) BracketReport(ctx context.Context, slug string) (string, error) {
	event, view, err := s.Bracket(ctx, slug)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🚲 *%s %s*\n\n", event.Emoji, EscapeMarkdown(event.Name)))
	if view.Empty() {
		sb.WriteString("No bracket data.")
		return sb.String(), nil
	}
	for _, col := range view.Columns {
		sb.WriteString(fmt.Sprintf("*%s*\n", col.Header))
		for _, c := range col.Cards {
			sb.WriteString(formatCard(c.Card))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func formatCard(c bracket.Card) string {
	names := make([]string, 0, len(c.Rows))
	for _, row := range c.Rows {
		if row.TBD {
			names = append(names, "TBD")
			continue
		}
		name := EscapeMarkdown(row.Player.DisplayName())
		if row.Mark != "" {
			name = row.Mark + " " + name
		}
		names = append(names, name)
	}
	label := c.Label
	if c.Redemption {
		label += " (R)"
	}
	return fmt.Sprintf("%s: %s\n", label, strings.Join(names, " vs "))
}

// ReminderReport announces today's events. ok is false when nothing races
// today.
func (s *EventService) ReminderReport(ctx context.Context) (report string, ok bool, err error) {
	today, err := s.EventsToday(ctx)
	if err != nil {
		return "", false, err
	}
	if len(today) == 0 {
		return "", false, nil
	}

	now := s.clock.Now()
	var sb strings.Builder
	sb.WriteString("📣 *Race day!*\n\n")
	for _, e := range today {
		sb.WriteString(fmt.Sprintf("%s *%s* starts at %s (in %s)\n",
			e.Emoji, EscapeMarkdown(e.Name), e.Date.Format("15:04"), countdown.TimeLeft(e.Date, now)))
	}
	return strings.TrimRight(sb.String(), "\n"), true, nil
}

func (s *PlayerService) LeaderboardReport(ctx context.Context, limit int) (string, error) {
	ranked, err := s.Leaderboard(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("🏆 *Leaderboard*\n\n")
	if len(ranked) == 0 {
		sb.WriteString("No players yet.")
		return sb.String(), nil
	}
	for i, p := range ranked {
		if limit > 0 && i >= limit {
			break
		}
		sb.WriteString(fmt.Sprintf("%d%s. %s *%s* - %s pts\n", p.Rank, p.Suffix, p.Emoji, EscapeMarkdown(p.DisplayName()), formatScore(p.Score)))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (s *PlayerService) PlayerReport(ctx context.Context, query string) (string, error) {
	p, err := s.FindPlayer(ctx, query)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s *%s*", p.Emoji, EscapeMarkdown(p.DisplayName())))
	if p.Name != "" && p.Name != p.DisplayName() {
		sb.WriteString(fmt.Sprintf(" (%s)", EscapeMarkdown(p.Name)))
	}
	sb.WriteString("\n━━━━━━━━━━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("%d%s place\n%s pts", p.Rank, p.Suffix, formatScore(p.Score)))
	return sb.String(), nil
}

func formatScore(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%.1f", score)
}

// EscapeMarkdown escapes CMS and user text for Telegram's legacy Markdown.
func EscapeMarkdown(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
