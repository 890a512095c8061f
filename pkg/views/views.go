// Package views partitions tasks into the today, future and migration views.
// Membership is derived from DueDate on every call and never stored.
package views

import (
	"sort"
	"time"

	"bullet-ai/domain/models"
)

type Bucket string

const (
	BucketToday     Bucket = "today"
	BucketFuture    Bucket = "future"
	BucketMigration Bucket = "migration"
)

type Views struct {
	Today     []models.Task
	Future    []models.Task
	Migration []models.Task
}

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// BucketOf คืน view ของ task ณ เวลา now (calendar day ตาม now.Location())
// due ที่ผ่านมาแล้วยังอยู่ใน today
func BucketOf(t models.Task, now time.Time) Bucket {
	if t.DueDate == nil {
		return BucketMigration
	}
	if StartOfDay(t.DueDate.In(now.Location())).After(StartOfDay(now)) {
		return BucketFuture
	}
	return BucketToday
}

// Classify แบ่ง tasks เป็น 3 view ที่ไม่ซ้อนกัน
func Classify(tasks []models.Task, now time.Time) Views {
	v := Views{
		Today:     []models.Task{},
		Future:    []models.Task{},
		Migration: []models.Task{},
	}
	for _, t := range tasks {
		switch BucketOf(t, now) {
		case BucketToday:
			v.Today = append(v.Today, t)
		case BucketFuture:
			v.Future = append(v.Future, t)
		default:
			v.Migration = append(v.Migration, t)
		}
	}
	SortByPosition(v.Today)
	SortByPosition(v.Future)
	SortByPosition(v.Migration)
	return v
}

// SortByPosition เรียงตาม Position แล้วตาม CreatedAt
func SortByPosition(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Position != tasks[j].Position {
			return tasks[i].Position < tasks[j].Position
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}

// IsOverdue - ยังไม่เสร็จและเลย due แล้ว (display attribute เท่านั้น)
func IsOverdue(t models.Task, now time.Time) bool {
	return !t.IsCompleted && t.DueDate != nil && t.DueDate.Before(now)
}

func ComputeStats(tasks []models.Task, now time.Time) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.IsCompleted {
			s.Completed++
		} else {
			s.Pending++
		}
		if IsOverdue(t, now) {
			s.Overdue++
		}
	}
	return s
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay คืนวินาทีสุดท้ายของวันเดียวกับ t
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
