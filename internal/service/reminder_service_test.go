package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-planner-api/internal/models"
)

type stubPublisher struct {
	mu       sync.Mutex
	channels []string
	messages []models.ReminderMessage
	err      error
}

func (p *stubPublisher) Publish(_ context.Context, channel string, payload interface{}) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	p.channels = append(p.channels, channel)
	if msg, ok := payload.(models.ReminderMessage); ok {
		p.messages = append(p.messages, msg)
	}
	return 1, nil
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func newTestReminderService(t *testing.T, publisher *stubPublisher) (*ReminderService, *stubPreferenceRepo, *MetricsService) {
	t.Helper()
	prefRepo := newStubPreferenceRepo()
	prefs := NewPreferenceService(prefRepo, nil, nil, nil, nil, PreferenceServiceConfig{CacheTTL: time.Minute})
	timetable := newTestTimetableService(plannerCourses(), stubOverrides{})
	metrics := NewMetricsService()
	svc := NewReminderService(prefs, timetable, publisher, metrics, nil, ReminderServiceConfig{
		Workers:    1,
		Retries:    1,
		RetryDelay: 10 * time.Millisecond,
		Location:   time.UTC,
	})
	return svc, prefRepo, metrics
}

func TestIsDue(t *testing.T) {
	on := models.ReminderSettings{Enabled: true, Time: "20:00"}
	friday := time.Date(2024, time.January, 12, 20, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, time.January, 13, 20, 0, 0, 0, time.UTC)

	assert.True(t, IsDue(on, sundayWeekA))
	assert.False(t, IsDue(on, sundayWeekA.Add(time.Minute)))
	assert.False(t, IsDue(on, friday))
	assert.False(t, IsDue(on, saturday))
	assert.False(t, IsDue(models.ReminderSettings{Enabled: false, Time: "20:00"}, sundayWeekA))
}

func TestReminderServiceCheck(t *testing.T) {
	svc, prefRepo, _ := newTestReminderService(t, &stubPublisher{})
	prefRepo.set("u1", models.PrefNotificationsEnabled, "true")
	prefRepo.set("u1", models.PrefUserName, "Lena")

	status, err := svc.Check(context.Background(), "u1", sundayWeekA)
	require.NoError(t, err)
	assert.True(t, status.Due)
	assert.True(t, status.TomorrowIsSchoolDay)
	assert.Equal(t, "Good evening Lena, don't forget to pack your bag for tomorrow! Materials: ruler, calculator, dictionary, vocab book.", status.Message)

	status, err = svc.Check(context.Background(), "u1", sundayWeekA.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, status.Due)
	assert.Empty(t, status.Message)
}

func TestReminderServiceDispatchDueOncePerDay(t *testing.T) {
	publisher := &stubPublisher{}
	svc, prefRepo, metrics := newTestReminderService(t, publisher)
	prefRepo.set("u1", models.PrefNotificationsEnabled, "true")
	prefRepo.set("u2", models.PrefNotificationsEnabled, "true")
	prefRepo.set("u2", models.PrefNotificationTime, "19:00")
	prefRepo.set("u3", models.PrefNotificationsEnabled, "false")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	queued, err := svc.DispatchDue(ctx, sundayWeekA)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	require.Eventually(t, func() bool { return publisher.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "planner:reminders:u1", publisher.channels[0])
	assert.Equal(t, "2024-01-15", publisher.messages[0].ForDate)

	queued, err = svc.DispatchDue(ctx, sundayWeekA)
	require.NoError(t, err)
	assert.Zero(t, queued)
	require.Eventually(t, func() bool { return metrics.Snapshot().RemindersSent == 1 }, time.Second, 5*time.Millisecond)
}

func TestReminderServiceDeliveryRetries(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("redis down")}
	svc, prefRepo, _ := newTestReminderService(t, publisher)
	prefRepo.set("u1", models.PrefNotificationsEnabled, "true")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	_, err := svc.DispatchDue(ctx, sundayWeekA)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return svc.Stats().Dropped == 1 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, svc.Stats().Failed)
}

func TestReminderServiceDispatchRequiresStart(t *testing.T) {
	svc, prefRepo, _ := newTestReminderService(t, &stubPublisher{})
	prefRepo.set("u1", models.PrefNotificationsEnabled, "true")

	_, err := svc.DispatchDue(context.Background(), sundayWeekA)
	require.Error(t, err)

	// The failed enqueue must not count as sent.
	svc.Start(context.Background())
	defer svc.Stop()
	queued, err := svc.DispatchDue(context.Background(), sundayWeekA)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
}
