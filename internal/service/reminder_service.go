package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/pkg/jobs"
)

const reminderJobType = "bag_reminder"

type reminderPreferences interface {
	ReminderSettings(ctx context.Context, userID string) (models.ReminderSettings, error)
	UsersWithRemindersEnabled(ctx context.Context) ([]string, error)
}

type bagBuilder interface {
	Bag(ctx context.Context, userID string, date time.Time) (*dto.BagView, error)
}

type reminderPublisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) (int64, error)
}

// ReminderServiceConfig tunes reminder delivery.
type ReminderServiceConfig struct {
	Workers       int
	Retries       int
	RetryDelay    time.Duration
	ChannelPrefix string
	Location      *time.Location
}

type reminderPayload struct {
	UserID string
	At     time.Time
}

// ReminderService decides when the evening bag reminder fires and delivers it
// through a worker queue to a per-user Redis channel.
type ReminderService struct {
	prefs     reminderPreferences
	bags      bagBuilder
	publisher reminderPublisher
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ReminderServiceConfig
	queue     *jobs.Queue[reminderPayload]

	mu   sync.Mutex
	sent map[string]string
}

// NewReminderService constructs a ReminderService. Call Start before DispatchDue.
func NewReminderService(prefs reminderPreferences, bags bagBuilder, publisher reminderPublisher, metrics *MetricsService, logger *zap.Logger, cfg ReminderServiceConfig) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = "planner:reminders"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	s := &ReminderService{
		prefs:     prefs,
		bags:      bags,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		sent:      make(map[string]string),
	}
	s.queue = jobs.NewQueue[reminderPayload]("reminders", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *ReminderService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for in-flight deliveries.
func (s *ReminderService) Stop() {
	s.queue.Stop()
}

// Stats exposes queue counters.
func (s *ReminderService) Stats() jobs.Stats {
	return s.queue.Stats()
}

// IsDue reports whether the reminder fires at now: notifications are on, the
// clock matches the configured HH:MM and tomorrow is Monday to Friday.
func IsDue(settings models.ReminderSettings, now time.Time) bool {
	if !settings.Enabled {
		return false
	}
	if now.Format("15:04") != settings.Time {
		return false
	}
	return isSchoolDay(now.AddDate(0, 0, 1))
}

// Check returns the reminder state for polling clients.
func (s *ReminderService) Check(ctx context.Context, userID string, now time.Time) (*dto.ReminderStatus, error) {
	now = s.localTime(now)
	settings, err := s.prefs.ReminderSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := &dto.ReminderStatus{
		Enabled:             settings.Enabled,
		Time:                settings.Time,
		Due:                 IsDue(settings, now),
		TomorrowIsSchoolDay: isSchoolDay(now.AddDate(0, 0, 1)),
	}
	if status.Due {
		msg, err := s.buildMessage(ctx, settings, now)
		if err != nil {
			return nil, err
		}
		status.Message = msg.Body
		status.Materials = msg.Materials
	}
	return status, nil
}

// DispatchDue enqueues a delivery for each user whose reminder is due at now
// and returns how many were queued. A user is reminded at most once per day.
func (s *ReminderService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	now = s.localTime(now)
	userIDs, err := s.prefs.UsersWithRemindersEnabled(ctx)
	if err != nil {
		return 0, err
	}

	day := now.Format(time.DateOnly)
	queued := 0
	for _, userID := range userIDs {
		settings, err := s.prefs.ReminderSettings(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to load reminder settings", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if !IsDue(settings, now) || !s.markSent(userID, day) {
			continue
		}
		job := jobs.Job[reminderPayload]{
			ID:      uuid.NewString(),
			Type:    reminderJobType,
			Payload: reminderPayload{UserID: userID, At: now},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.unmarkSent(userID, day)
			return queued, fmt.Errorf("enqueue reminder: %w", err)
		}
		queued++
	}
	if queued > 0 {
		s.logger.Info("bag reminders queued", zap.Int("count", queued), zap.String("at", now.Format("15:04")))
	}
	return queued, nil
}

func (s *ReminderService) deliver(ctx context.Context, job jobs.Job[reminderPayload]) error {
	settings, err := s.prefs.ReminderSettings(ctx, job.Payload.UserID)
	if err != nil {
		return err
	}
	msg, err := s.buildMessage(ctx, settings, job.Payload.At)
	if err != nil {
		return err
	}
	channel := s.cfg.ChannelPrefix + ":" + job.Payload.UserID
	if _, err := s.publisher.Publish(ctx, channel, msg); err != nil {
		if job.Attempt >= s.cfg.Retries {
			s.metrics.RecordReminder(false)
		}
		return err
	}
	s.metrics.RecordReminder(true)
	return nil
}

func (s *ReminderService) buildMessage(ctx context.Context, settings models.ReminderSettings, now time.Time) (models.ReminderMessage, error) {
	bag, err := s.bags.Bag(ctx, settings.UserID, now)
	if err != nil {
		return models.ReminderMessage{}, err
	}
	body := "Good evening"
	if name := strings.TrimSpace(settings.UserName); name != "" {
		body += " " + name
	}
	body += ", don't forget to pack your bag for tomorrow!"
	if len(bag.Materials) > 0 {
		body += " Materials: " + strings.Join(bag.Materials, ", ") + "."
	}
	return models.ReminderMessage{
		UserID:    settings.UserID,
		Title:     "Pack your bag",
		Body:      body,
		ForDate:   bag.Tomorrow,
		Materials: bag.Materials,
		SentAt:    now.UTC(),
	}, nil
}

func (s *ReminderService) markSent(userID, day string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent[userID] == day {
		return false
	}
	s.sent[userID] = day
	return true
}

func (s *ReminderService) unmarkSent(userID, day string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent[userID] == day {
		delete(s.sent, userID)
	}
}

func (s *ReminderService) localTime(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	return now.In(s.cfg.Location)
}

func isSchoolDay(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}
