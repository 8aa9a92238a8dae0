package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/munje/internal/chooser"
	"github.com/example/munje/internal/database"
)

// Default window for sending reminders
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(chatID int64, count int) error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     *database.UserRepository
	queues    *database.QueueRepository
	answers   *database.AnswerRepository
	unit      chooser.TimeUnit
}

// New creates a new scheduler instance
func New(notifier Notifier, unit chooser.TimeUnit) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		users:     database.NewUserRepository(),
		queues:    database.NewQueueRepository(),
		answers:   database.NewAnswerRepository(),
		unit:      unit,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Hourly check for users with questions ready for review
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders notifies each linked user who has questions ready
// for review
func (s *Scheduler) checkAndSendReminders() {
	currentHour := time.Now().Hour()

	startHour := hourFromEnv("NOTIFICATION_START_HOUR", DefaultNotificationStartHour)
	endHour := hourFromEnv("NOTIFICATION_END_HOUR", DefaultNotificationEndHour)
	if currentHour < startHour || currentHour > endHour {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, startHour, endHour)
		return
	}

	ctx := context.Background()
	users, err := s.users.WithTelegram(ctx)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	for _, user := range users {
		count, err := s.DueCount(ctx, user.ID)
		if err != nil {
			log.Printf("Error counting due questions for user %s: %v", user.ID, err)
			continue
		}
		if count == 0 {
			continue
		}
		if err := s.notifier.SendReminders(*user.TelegramChatID, count); err != nil {
			log.Printf("Error sending reminder to user %s: %v", user.ID, err)
		}
	}
}

// DueCount returns how many questions are currently available across all
// of the user's queues. Availability is computed by the same strategy the
// chooser uses, not by duplicated SQL date math.
func (s *Scheduler) DueCount(ctx context.Context, userID string) (int, error) {
	queues, err := s.queues.AllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, queue := range queues {
		rows, err := s.answers.Candidates(ctx, userID, queue.ID)
		if err != nil {
			return 0, err
		}
		strategy := chooser.NewSpacedRepetition(rows, chooser.NewClock(s.unit))
		count += len(strategy.FilterChoices(strategy.ToVec()))
	}
	return count, nil
}

// RunManualCheck forces a reminder check for a specific user
func (s *Scheduler) RunManualCheck(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.TelegramChatID == nil {
		return nil
	}

	count, err := s.DueCount(ctx, userID)
	if err != nil {
		return err
	}
	if count > 0 {
		return s.notifier.SendReminders(*user.TelegramChatID, count)
	}
	return nil
}

func hourFromEnv(name string, fallback int) int {
	if value := os.Getenv(name); value != "" {
		if h, err := strconv.Atoi(value); err == nil && h >= 0 && h <= 23 {
			return h
		}
	}
	return fallback
}
