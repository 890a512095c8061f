package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"bullet-ai/pkg/logger"
)

// JobFunc รับเวลาปัจจุบันใน location ของ scheduler
type JobFunc func(now time.Time)

type EventScheduler interface {
	Start()
	Stop()
	AddJob(id, cronExpr string, task JobFunc) error
	RemoveJob(id string) error
	RunNow(id string) error
	GetJob(id string) (*JobInfo, bool)
	Jobs() []JobInfo
	IsRunning() bool
}

type JobInfo struct {
	ID       string
	CronExpr string
	LastRun  *time.Time
	NextRun  *time.Time
}

type job struct {
	cronExpr string
	task     JobFunc
	handle   *gocron.Job
	lastRun  *time.Time
}

type GocronScheduler struct {
	scheduler *gocron.Scheduler
	loc       *time.Location
	jobs      map[string]*job
	mu        sync.RWMutex
	running   bool
}

// NewEventScheduler - cron ทำงานตามเวลาของ loc (เช่น เที่ยงคืนของ APP_TIMEZONE)
func NewEventScheduler(loc *time.Location) EventScheduler {
	if loc == nil {
		loc = time.UTC
	}
	scheduler := gocron.NewScheduler(loc)
	scheduler.SingletonModeAll()

	return &GocronScheduler{
		scheduler: scheduler,
		loc:       loc,
		jobs:      make(map[string]*job),
	}
}

func (s *GocronScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.scheduler.StartAsync()
	s.running = true
	logger.Info("Event scheduler started", "jobs", len(s.jobs), "tz", s.loc.String())
}

func (s *GocronScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.scheduler.Stop()
	s.running = false
	logger.Info("Event scheduler stopped")
}

func (s *GocronScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *GocronScheduler) AddJob(id, cronExpr string, task JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job with ID %s already exists", id)
	}

	handle, err := s.scheduler.Cron(cronExpr).Do(func() { s.run(id) })
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	s.jobs[id] = &job{cronExpr: cronExpr, task: task, handle: handle}

	logger.Info("Job added", "job_id", id, "cron", cronExpr, "next_run", handle.NextRun().Format(time.RFC3339))
	return nil
}

func (s *GocronScheduler) RemoveJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job with ID %s not found", id)
	}

	s.scheduler.RemoveByReference(j.handle)
	delete(s.jobs, id)
	logger.Info("Job removed", "job_id", id)
	return nil
}

// RunNow รัน job ทันทีใน goroutine ของผู้เรียก (ไม่กระทบรอบ cron ถัดไป)
func (s *GocronScheduler) RunNow(id string) error {
	s.mu.RLock()
	_, exists := s.jobs[id]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job with ID %s not found", id)
	}
	s.run(id)
	return nil
}

func (s *GocronScheduler) run(id string) {
	now := time.Now().In(s.loc)

	s.mu.Lock()
	j, exists := s.jobs[id]
	if !exists {
		s.mu.Unlock()
		return
	}
	j.lastRun = &now
	task := j.task
	s.mu.Unlock()

	logger.Debug("Executing job", "job_id", id, "at", now.Format(time.RFC3339))
	task(now)
}

// GetJob คืนสำเนา (ไม่แชร์ pointer เวลา)
func (s *GocronScheduler) GetJob(id string) (*JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, exists := s.jobs[id]
	if !exists {
		return nil, false
	}
	info := j.info(id)
	return &info, true
}

// Jobs คืนทุก job เรียงตาม id
func (s *GocronScheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for id, j := range s.jobs {
		out = append(out, j.info(id))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (j *job) info(id string) JobInfo {
	info := JobInfo{ID: id, CronExpr: j.cronExpr}
	if j.lastRun != nil {
		lastRun := *j.lastRun
		info.LastRun = &lastRun
	}
	nextRun := j.handle.NextRun()
	info.NextRun = &nextRun
	return info
}
