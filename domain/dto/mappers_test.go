package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"bullet-ai/domain/models"
)

// state ที่ client ถือ → update request → server เขียนทับแถวเดิม → response → model ของ client
// ต้องได้ task เดิม (null กับค่าว่างถือว่าเท่ากัน)
func TestTaskSurvivesUpdateRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 123456000, time.UTC)
	due := time.Date(2026, 3, 12, 23, 59, 59, 0, time.FixedZone("ICT", 7*60*60))
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	base := func() models.Task {
		return models.Task{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			Title:     "Buy milk",
			Priority:  models.PriorityMedium,
			CreatedAt: created,
			UpdatedAt: created,
		}
	}

	tests := []struct {
		name   string
		mutate func(*models.Task)
	}{
		{"unscheduled without tags", func(t *models.Task) {}},
		{"empty tags", func(t *models.Task) { t.Tags = pq.StringArray{} }},
		{"tags and due date", func(t *models.Task) {
			t.Tags = pq.StringArray{"home", "errand"}
			t.DueDate = &due
		}},
		{"start and due date", func(t *models.Task) {
			t.StartDate = &start
			t.DueDate = &due
		}},
		{"completed low priority", func(t *models.Task) {
			t.IsCompleted = true
			t.Priority = models.PriorityLow
			t.Position = 7
			t.Description = "2 litres"
		}},
		{"high priority", func(t *models.Task) { t.Priority = models.PriorityHigh }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := base()
			tt.mutate(&want)

			// แถวใน DB ก่อน update มีค่าที่ต้องถูกล้าง
			stored := want.Clone()
			stored.Title = "old title"
			stored.Description = "old description"
			stored.Priority = models.PriorityHigh
			stored.Tags = pq.StringArray{"stale"}
			staleDay := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
			stored.StartDate = &staleDay
			stored.DueDate = &staleDay
			stored.IsCompleted = !want.IsCompleted
			stored.Position = 99

			ApplyUpdateRequest(&stored, TaskToUpdateRequest(&want))

			raw, err := json.Marshal(TaskToTaskResponse(&stored))
			require.NoError(t, err)
			var resp TaskResponse
			require.NoError(t, json.Unmarshal(raw, &resp))
			got := TaskResponseToTask(&resp)

			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTaskResponseAlwaysCarriesTagsArray(t *testing.T) {
	raw, err := json.Marshal(TaskToTaskResponse(&models.Task{Title: "x"}))
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	require.Equal(t, "[]", string(fields["tags"]))
	require.Equal(t, "null", string(fields["dueDate"]))
}
