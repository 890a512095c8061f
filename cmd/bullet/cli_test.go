package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullet-ai/domain/models"
)

func TestResolveTaskByPrefix(t *testing.T) {
	a := models.Task{ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"), Title: "a"}
	b := models.Task{ID: uuid.MustParse("aaaabbbb-0000-0000-0000-000000000002"), Title: "b"}
	tasks := []models.Task{a, b}

	got, err := resolveTask(tasks, "AAAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Title)

	got, err = resolveTask(tasks, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "b", got.Title)

	_, err = resolveTask(tasks, "aaaa")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveTask(tasks, "ffff")
	assert.ErrorContains(t, err, "not found")

	_, err = resolveTask(tasks, uuid.NewString())
	assert.ErrorContains(t, err, "not found")
}

func TestParseDay(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, loc)

	got, err := parseDay("today", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 23, 59, 59, 0, loc), got)

	got, err = parseDay("Tomorrow", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 23, 59, 59, 0, loc), got)

	got, err = parseDay("2026-04-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 23, 59, 59, 0, loc), got)

	_, err = parseDay("next week", now)
	assert.Error(t, err)
}

func TestFormatTask(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 9, 23, 59, 59, 0, time.UTC)
	task := models.Task{
		ID:       uuid.MustParse("12345678-0000-0000-0000-000000000000"),
		Title:    "Pay rent",
		Priority: models.PriorityHigh,
		Tags:     []string{"home"},
		DueDate:  &due,
	}

	assert.Equal(t, "• 12345678  Pay rent !  [2026-03-09] overdue #home", formatTask(task, now))

	task.IsCompleted = true
	assert.Equal(t, "× 12345678  Pay rent !  [2026-03-09] #home", formatTask(task, now))
}

func TestPrintViewsGroupsTasks(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)
	later := time.Date(2026, 3, 20, 23, 59, 59, 0, time.UTC)
	tasks := []models.Task{
		{ID: uuid.New(), Title: "Standup", DueDate: &today},
		{ID: uuid.New(), Title: "Dentist", DueDate: &later},
		{ID: uuid.New(), Title: "Read book"},
	}

	var buf bytes.Buffer
	printViews(&buf, tasks, now)
	out := buf.String()

	assert.Contains(t, out, "Today (1)")
	assert.Contains(t, out, "Future (1)")
	assert.Contains(t, out, "Migration (1)")
	assert.Contains(t, out, "3 total · 0 done · 3 pending · 0 overdue")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Standup")), bytes.Index(buf.Bytes(), []byte("Dentist")))
}
