package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/rallykat/rallykat/internal/config"
	"github.com/rallykat/rallykat/internal/service"
)

const (
	refreshJob  = "refresh"
	reminderJob = "reminder"
)

type Scheduler struct {
	s           gocron.Scheduler
	events      *service.EventService
	players     *service.PlayerService
	cfg         config.Schedule
	sendMessage func(string) error
}

// NewScheduler runs jobs in the event time zone. sendMessage may be nil, in
// which case no race day reminder is scheduled.
func NewScheduler(events *service.EventService, players *service.PlayerService, cfg config.Schedule, location *time.Location, sendMessage func(string) error, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	if location == nil {
		location = time.UTC
	}

	s, err := gocron.NewScheduler(append([]gocron.SchedulerOption{gocron.WithLocation(location)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:           s,
		events:      events,
		players:     players,
		cfg:         cfg,
		sendMessage: sendMessage,
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	// Content refresh - warms the cache at startup, then on REFRESH_CRON
	_, err := s.s.NewJob(
		gocron.CronJob(s.cfg.RefreshCron, false),
		gocron.NewTask(s.refresh, ctx),
		gocron.WithName(refreshJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh job: %w", err)
	}

	if s.sendMessage != nil {
		hour, minute, err := config.ParseClock(s.cfg.ReminderTime)
		if err != nil {
			return fmt.Errorf("failed to parse reminder time: %w", err)
		}

		// Race day reminder - daily at REMINDER_TIME, only sent when something races today
		_, err = s.s.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0))),
			gocron.NewTask(s.sendReminder, ctx),
			gocron.WithName(reminderJob),
		)
		if err != nil {
			return fmt.Errorf("failed to create reminder job: %w", err)
		}
	}

	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) Jobs() []gocron.Job {
	return s.s.Jobs()
}

func (s *Scheduler) refresh(ctx context.Context) {
	if err := s.events.Refresh(ctx); err != nil {
		slog.Error("Failed to refresh events", "error", err)
	}
	if err := s.players.Refresh(ctx); err != nil {
		slog.Error("Failed to refresh players", "error", err)
	}
}

func (s *Scheduler) sendReminder(ctx context.Context) {
	report, ok, err := s.events.ReminderReport(ctx)
	if err != nil {
		slog.Error("Failed to get race day reminder", "error", err)
		return
	}
	if !ok {
		slog.Debug("No events today, skipping reminder")
		return
	}
	if err := s.sendMessage(report); err != nil {
		slog.Error("Failed to send race day reminder", "error", err)
	}
}
