package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bullet-ai/domain/models"
	"bullet-ai/pkg/apiclient"
	"bullet-ai/pkg/tasksync"
	"bullet-ai/pkg/views"
)

// session - replica หนึ่งชุดต่อการรันคำสั่ง (Load → mutate → Close)
type session struct {
	client  *apiclient.Client
	replica *tasksync.Replica
	loc     *time.Location

	mu     sync.Mutex
	errors []error
}

func openSession(ctx context.Context) (*session, error) {
	if token == "" {
		return nil, errors.New("missing access token: pass --token or set BULLET_TOKEN")
	}
	loc, err := location()
	if err != nil {
		return nil, err
	}

	client := apiclient.New(apiclient.Config{
		BaseURL:  serverURL,
		Token:    token,
		TimeZone: loc.String(),
		Timeout:  timeout,
	})
	s := &session{
		client:  client,
		replica: tasksync.New(client, tasksync.Options{Debounce: 100 * time.Millisecond}),
		loc:     loc,
	}
	s.replica.OnError(func(err error) {
		s.mu.Lock()
		s.errors = append(s.errors, err)
		s.mu.Unlock()
	})

	if err := s.replica.Load(ctx); err != nil {
		_ = s.replica.Close()
		return nil, err
	}
	return s, nil
}

// close รอ write ค้างทั้งหมด แล้วคืน error ของ write ที่ถูก rollback
func (s *session) close() error {
	_ = s.replica.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.errors...)
}

func (s *session) now() time.Time {
	return time.Now().In(s.loc)
}

// resolve หา task จาก id เต็มหรือ prefix ที่ไม่ซ้ำ (views แสดง 8 ตัวแรก)
func (s *session) resolve(ref string) (models.Task, error) {
	return resolveTask(s.replica.Tasks(), ref)
}

func resolveTask(tasks []models.Task, ref string) (models.Task, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return models.Task{}, errors.New("task id is required")
	}
	if id, err := uuid.Parse(ref); err == nil {
		for _, t := range tasks {
			if t.ID == id {
				return t, nil
			}
		}
		return models.Task{}, fmt.Errorf("task %s not found", ref)
	}

	var matches []models.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID.String(), ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("task %s not found", ref)
	case 1:
		return matches[0], nil
	}
	return models.Task{}, fmt.Errorf("task id %s is ambiguous (%d matches)", ref, len(matches))
}

// parseDay รับ today / tomorrow / YYYY-MM-DD แล้วคืนเวลาสิ้นวันนั้นใน loc
func parseDay(value string, now time.Time) (time.Time, error) {
	loc := now.Location()
	var day time.Time
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "today":
		day = now
	case "tomorrow":
		day = now.AddDate(0, 0, 1)
	default:
		d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: use today, tomorrow or YYYY-MM-DD", value)
		}
		day = d
	}
	return views.EndOfDay(day), nil
}
