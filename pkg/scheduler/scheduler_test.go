package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJobNextRunIsMidnightInLocation(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	s := NewEventScheduler(loc)
	// gocron คำนวณรอบถัดไปเมื่อ scheduler ทำงานอยู่
	s.Start()
	defer s.Stop()

	require.NoError(t, s.AddJob("rollover", "0 0 * * *", func(time.Time) {}))

	info, ok := s.GetJob("rollover")
	require.True(t, ok)
	require.NotNil(t, info.NextRun)
	next := info.NextRun.In(loc)
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestAddJobRejectsDuplicatesAndBadCron(t *testing.T) {
	s := NewEventScheduler(nil)

	require.NoError(t, s.AddJob("a", "*/5 * * * *", func(time.Time) {}))
	assert.Error(t, s.AddJob("a", "*/5 * * * *", func(time.Time) {}))
	assert.Error(t, s.AddJob("b", "not a cron", func(time.Time) {}))
}

func TestRemoveJob(t *testing.T) {
	s := NewEventScheduler(time.UTC)

	require.NoError(t, s.AddJob("a", "0 0 * * *", func(time.Time) {}))
	require.NoError(t, s.RemoveJob("a"))
	_, ok := s.GetJob("a")
	assert.False(t, ok)
	assert.Error(t, s.RemoveJob("a"))
}

func TestStartStop(t *testing.T) {
	s := NewEventScheduler(time.UTC)
	s.Start()
	assert.True(t, s.IsRunning())
	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestRunNowPassesTimeInLocation(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	s := NewEventScheduler(loc)

	var got time.Time
	require.NoError(t, s.AddJob("rollover", "0 0 * * *", func(now time.Time) { got = now }))
	require.NoError(t, s.RunNow("rollover"))

	assert.Equal(t, loc, got.Location())
	info, ok := s.GetJob("rollover")
	require.True(t, ok)
	require.NotNil(t, info.LastRun)
	assert.True(t, info.LastRun.Equal(got))

	assert.Error(t, s.RunNow("missing"))
}

func TestJobsSortedByID(t *testing.T) {
	s := NewEventScheduler(time.UTC)
	require.NoError(t, s.AddJob("b", "0 0 * * *", func(time.Time) {}))
	require.NoError(t, s.AddJob("a", "0 1 * * *", func(time.Time) {}))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].ID)
	assert.Equal(t, "0 1 * * *", jobs[0].CronExpr)
	assert.Equal(t, "b", jobs[1].ID)
}
