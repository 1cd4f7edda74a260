package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rallykat/rallykat/internal/api/content"
	"github.com/rallykat/rallykat/internal/service"
)

const defaultLeaderboardSize = 10

type Handler struct {
	events  *service.EventService
	players *service.PlayerService
	tracks  *service.TrackService
}

func NewHandler(events *service.EventService, players *service.PlayerService, tracks *service.TrackService) *Handler {
	return &Handler{events: events, players: players, tracks: tracks}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	command := strings.ToLower(update.Message.Command())
	args := strings.TrimSpace(update.Message.CommandArguments())
	msg.ParseMode = "Markdown"

	switch command {
	case "start":
		msg.Text = "Welcome to RallyKat! Use /help to see available commands."
	case "help":
		msg.Text = "Available commands:\n/events - Upcoming events\n/next - Countdown to the next race\n/bracket <event> - Heats of an event\n/leaderboard [n] - Top players\n/player <name> - Look up a player\n/tracks - Available GPX tracks"
	case "events":
		h.handleEvents(ctx, &msg)
	case "next":
		h.handleNext(ctx, &msg)
	case "bracket":
		h.handleBracket(ctx, &msg, args)
	case "leaderboard":
		h.handleLeaderboard(ctx, &msg, args)
	case "player":
		h.handlePlayer(ctx, &msg, args)
	case "tracks":
		h.handleTracks(ctx, &msg)
	default:
		msg.Text = "Unknown command. Use /help to see available commands."
	}

	return msg
}

func (h *Handler) handleEvents(ctx context.Context, msg *tgbotapi.MessageConfig) {
	report, err := h.events.EventsReport(ctx)
	if err != nil {
		msg.Text = service.EscapeMarkdown(fmt.Sprintf("Error fetching events: %v", err))
	} else {
		msg.Text = report
	}
}

func (h *Handler) handleNext(ctx context.Context, msg *tgbotapi.MessageConfig) {
	report, err := h.events.NextEventReport(ctx)
	if err != nil {
		msg.Text = service.EscapeMarkdown(fmt.Sprintf("Error fetching next event: %v", err))
	} else {
		msg.Text = report
	}
}

func (h *Handler) handleBracket(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide an event slug. Usage: /bracket <event>"
		return
	}
	report, err := h.events.BracketReport(ctx, args)
	switch {
	case errors.Is(err, content.ErrEventNotFound):
		msg.Text = service.EscapeMarkdown(fmt.Sprintf("No event found for %q.", args))
	case err != nil:
		msg.Text = service.EscapeMarkdown(fmt.Sprintf("Error fetching bracket: %v", err))
	default:
		msg.Text = report
	}
}

func (h *Handler) handleLeaderboard(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	limit := defaultLeaderboardSize
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			msg.Text = "Please provide a positive number. Usage: /leaderboard [n]"
			return
		}
		limit = n
	}
	report, err := h.players.LeaderboardReport(ctx, limit)
	if err != nil {
		msg.Text = service.EscapeMarkdown(fmt.Sprintf("Error fetching leaderboard: %v", err))
	} else {
		msg.Text = report
	}
}

func (h *Handler) handlePlayer(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a player name. Usage: /player <name>"
		return
	}
	report, err := h.players.PlayerReport(ctx, args)
	switch {
	case errors.Is(err, service.ErrPlayerNotFound):
		msg.Text = service.EscapeMarkdown(fmt.Sprintf("No player found matching %q.", args))
	case err != nil:
		msg.Text = service.EscapeMarkdown(fmt.Sprintf("Error looking up player: %v", err))
	default:
		msg.Text = report
	}
}

func (h *Handler) handleTracks(ctx context.Context, msg *tgbotapi.MessageConfig) {
	report, err := h.tracks.TracksReport(ctx)
	if err != nil {
		msg.Text = service.EscapeMarkdown(fmt.Sprintf("Error listing tracks: %v", err))
	} else {
		msg.Text = report
	}
}
