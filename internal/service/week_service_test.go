package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-planner-api/internal/weekcycle"
)

func TestWeekServiceCurrent(t *testing.T) {
	overrides := stubOverrides{"pinned": {Enabled: true, Label: weekcycle.LabelB}}
	svc := NewWeekService(overrides, nil, nil, nil, WeekServiceConfig{Calendar: weekcycle.Default, Location: time.UTC})

	tests := []struct {
		name   string
		user   string
		date   time.Time
		next   bool
		expect weekcycle.WeekLabel
	}{
		{name: "even week", user: "u1", date: mondayWeekA, expect: weekcycle.LabelA},
		{name: "odd week", user: "u1", date: mondayWeekB, expect: weekcycle.LabelB},
		{name: "next week flips", user: "u1", date: mondayWeekA, next: true, expect: weekcycle.LabelB},
		{name: "override wins", user: "pinned", date: mondayWeekA, expect: weekcycle.LabelB},
		{name: "override flips for next week", user: "pinned", date: mondayWeekA, next: true, expect: weekcycle.LabelA},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, err := svc.Current(context.Background(), tc.user, tc.date, tc.next)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, info.EffectiveLabel)
		})
	}
}

func TestWeekServiceCurrentDescribesWeek(t *testing.T) {
	svc := NewWeekService(stubOverrides{}, nil, nil, nil, WeekServiceConfig{Calendar: weekcycle.Default, Location: time.UTC})

	info, err := svc.Current(context.Background(), "u1", sundayWeekA, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-14", info.Date)
	assert.Equal(t, "2024-01-08", info.WeekStart)
	assert.Equal(t, 2, info.ISOWeek)
	assert.Equal(t, weekcycle.LabelA, info.NaturalLabel)
}

func TestWeekServiceCurrentDefaultsToToday(t *testing.T) {
	svc := NewWeekService(stubOverrides{}, nil, nil, nil, WeekServiceConfig{Location: time.UTC})
	svc.now = func() time.Time { return mondayWeekB }

	info, err := svc.Current(context.Background(), "u1", time.Time{}, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", info.Date)
	assert.Equal(t, weekcycle.LabelB, info.EffectiveLabel)
}

func TestWeekServiceRefreshFlushesOnRollover(t *testing.T) {
	inv := &stubInvalidator{}
	metrics := NewMetricsService()
	svc := NewWeekService(stubOverrides{}, inv, metrics, nil, WeekServiceConfig{Calendar: weekcycle.Default, Location: time.UTC})
	ctx := context.Background()

	label, changed := svc.Refresh(ctx, mondayWeekA)
	assert.Equal(t, weekcycle.LabelA, label)
	assert.False(t, changed)

	_, changed = svc.Refresh(ctx, sundayWeekA)
	assert.False(t, changed)
	assert.Zero(t, inv.all)

	label, changed = svc.Refresh(ctx, mondayWeekB)
	assert.Equal(t, weekcycle.LabelB, label)
	assert.True(t, changed)
	assert.Equal(t, 1, inv.all)
	assert.Equal(t, "B", metrics.Snapshot().CurrentWeekLabel)
}
