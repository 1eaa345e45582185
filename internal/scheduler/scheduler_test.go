package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-planner-api/internal/weekcycle"
)

type fakeJobs struct {
	mu         sync.Mutex
	dispatched []time.Time
	refreshed  []time.Time
	cleanups   int
	err        error
}

func (f *fakeJobs) DispatchDue(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, now)
	return 1, f.err
}

func (f *fakeJobs) Refresh(_ context.Context, now time.Time) (weekcycle.WeekLabel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, now)
	return weekcycle.LabelA, false
}

func (f *fakeJobs) Cleanup(time.Duration) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
	return nil, f.err
}

func (f *fakeJobs) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refreshed)
}

func TestNewRegistersConfiguredJobs(t *testing.T) {
	jobs := &fakeJobs{}
	s, err := New(Jobs{Reminders: jobs, Week: jobs, Exports: jobs}, Config{
		Location:        time.UTC,
		ReminderCron:    "* * * * *",
		WeekRefreshCron: "0 * * * *",
		CleanupCron:     "",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())

	s, err = New(Jobs{Week: jobs}, Config{ReminderCron: "* * * * *", WeekRefreshCron: "0 * * * *"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())
}

func TestNewRejectsInvalidExpression(t *testing.T) {
	jobs := &fakeJobs{}
	_, err := New(Jobs{Reminders: jobs}, Config{ReminderCron: "every minute"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reminders")
}

func TestJobsUseSchedulerClock(t *testing.T) {
	jobs := &fakeJobs{err: errors.New("redis down")}
	s, err := New(Jobs{Reminders: jobs, Week: jobs, Exports: jobs}, Config{Location: time.UTC}, nil)
	require.NoError(t, err)
	fixed := time.Date(2024, time.January, 14, 20, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.dispatchReminders()
	s.refreshWeek()
	s.cleanupExports()

	assert.Equal(t, []time.Time{fixed}, jobs.dispatched)
	assert.Equal(t, []time.Time{fixed}, jobs.refreshed)
	assert.Equal(t, 1, jobs.cleanups)
}

func TestStartRefreshesImmediatelyAndStops(t *testing.T) {
	jobs := &fakeJobs{}
	s, err := New(Jobs{Week: jobs}, Config{Location: time.UTC, WeekRefreshCron: "0 * * * *"}, nil)
	require.NoError(t, err)

	s.Start(context.Background())
	assert.Equal(t, 1, jobs.refreshCount())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}
