package tasksync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"bullet-ai/domain/models"
	"bullet-ai/domain/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Fake remote ---

type fakeRemote struct {
	mu         sync.Mutex
	rows       []models.Task
	gate       chan struct{}
	failInsert error
	failUpdate error
	failDelete error
	failReord  error

	inserts   []models.Task
	updates   []models.Task
	deletes   []uuid.UUID
	reorders  [][]uuid.UUID
	mutations map[uuid.UUID]string
	lastMut   string
}

func newFakeRemote(rows ...models.Task) *fakeRemote {
	return &fakeRemote{rows: rows, mutations: make(map[uuid.UUID]string)}
}

func (f *fakeRemote) hold() {
	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()
}

func (f *fakeRemote) release() {
	f.mu.Lock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
	f.mu.Unlock()
}

func (f *fakeRemote) wait() {
	f.mu.Lock()
	g := f.gate
	f.mu.Unlock()
	if g != nil {
		<-g
	}
}

func (f *fakeRemote) Fetch(_ context.Context) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Task(nil), f.rows...), nil
}

func (f *fakeRemote) Insert(_ context.Context, t models.Task, mutationID string) (models.Task, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != nil {
		return models.Task{}, f.failInsert
	}
	t.ID = uuid.New()
	f.inserts = append(f.inserts, t)
	f.mutations[t.ID] = mutationID
	f.lastMut = mutationID
	return t, nil
}

func (f *fakeRemote) Update(_ context.Context, t models.Task, mutationID string) (models.Task, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return models.Task{}, f.failUpdate
	}
	f.updates = append(f.updates, t)
	f.mutations[t.ID] = mutationID
	f.lastMut = mutationID
	return t, nil
}

func (f *fakeRemote) Delete(_ context.Context, id uuid.UUID, mutationID string) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deletes = append(f.deletes, id)
	f.lastMut = mutationID
	return nil
}

func (f *fakeRemote) Reorder(_ context.Context, ids []uuid.UUID, mutationID string) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReord != nil {
		return f.failReord
	}
	f.reorders = append(f.reorders, ids)
	f.lastMut = mutationID
	return nil
}

func (f *fakeRemote) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeRemote) mutationFor(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mutations[id]
}

// --- Helpers ---

type errorLog struct {
	mu   sync.Mutex
	errs []error
}

func (l *errorLog) add(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

func (l *errorLog) all() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}

func seedTask(title string, pos int) models.Task {
	return models.Task{
		ID:        uuid.New(),
		Title:     title,
		Priority:  models.PriorityMedium,
		Position:  pos,
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newLoaded(t *testing.T, remote *fakeRemote, opts Options) (*Replica, *errorLog) {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = time.Hour
	}
	r := New(remote, opts)
	log := &errorLog{}
	r.OnError(log.add)
	require.NoError(t, r.Load(context.Background()))
	t.Cleanup(func() { _ = r.Close() })
	return r, log
}

func titles(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func updateEcho(task models.Task, mutationID string) *ports.TaskChange {
	return &ports.TaskChange{
		Type:       ports.ChangeUpdate,
		TaskID:     task.ID,
		Task:       &task,
		MutationID: mutationID,
	}
}

// --- Tests ---

func TestLoadReplacesWholesale(t *testing.T) {
	remote := newFakeRemote(seedTask("a", 0), seedTask("b", 1))
	r, _ := newLoaded(t, remote, Options{})
	assert.Equal(t, []string{"a", "b"}, titles(r.Tasks()))

	remote.mu.Lock()
	remote.rows = []models.Task{seedTask("c", 0)}
	remote.mu.Unlock()

	require.NoError(t, r.Load(context.Background()))
	assert.Equal(t, []string{"c"}, titles(r.Tasks()))
}

func TestCreateIsOptimisticAndSwapsTempRow(t *testing.T) {
	remote := newFakeRemote()
	r, log := newLoaded(t, remote, Options{})

	var changes int
	var mu sync.Mutex
	r.OnChange(func() {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	remote.hold()
	tempID, err := r.Create(models.Task{Title: "Buy milk"})
	require.NoError(t, err)

	got, ok := r.Get(tempID)
	require.True(t, ok, "row must be visible before the insert completes")
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, models.PriorityMedium, got.Priority)
	assert.ErrorIs(t, r.Update(tempID, func(t *models.Task) { t.Title = "x" }), ErrNotPersisted)

	remote.release()
	r.Flush()

	_, ok = r.Get(tempID)
	assert.False(t, ok, "temp row must be replaced")
	tasks := r.Tasks()
	require.Len(t, tasks, 1)
	assert.NotEqual(t, tempID, tasks[0].ID)

	echo := &ports.TaskChange{Type: ports.ChangeInsert, TaskID: tasks[0].ID, Task: &tasks[0], MutationID: remote.lastMut}
	assert.False(t, r.Apply(echo), "own insert echo must be dropped")
	assert.Len(t, r.Tasks(), 1)
	assert.Equal(t, 0, r.PendingEchoes())
	assert.Empty(t, log.all())

	mu.Lock()
	assert.GreaterOrEqual(t, changes, 2)
	mu.Unlock()
}

func TestCreateFailureRollsBack(t *testing.T) {
	boom := errors.New("insert failed")
	remote := newFakeRemote()
	remote.failInsert = boom
	r, log := newLoaded(t, remote, Options{})

	_, err := r.Create(models.Task{Title: "Buy milk"})
	require.NoError(t, err)
	r.Flush()

	assert.Empty(t, r.Tasks())
	errs := log.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
	var we *WriteError
	require.ErrorAs(t, errs[0], &we)
	assert.Equal(t, "create", we.Op)
	assert.Equal(t, 0, r.PendingEchoes())
}

func TestForeignInsertForKnownRowMerges(t *testing.T) {
	remote := newFakeRemote()
	r, _ := newLoaded(t, remote, Options{})

	_, err := r.Create(models.Task{Title: "Buy milk"})
	require.NoError(t, err)
	r.Flush()

	// A foreign event for a row we already hold is merged, never duplicated.
	saved := r.Tasks()[0]
	assert.True(t, r.Apply(&ports.TaskChange{Type: ports.ChangeInsert, TaskID: saved.ID, Task: &saved, MutationID: "other"}))
	assert.Len(t, r.Tasks(), 1)
}

func TestUpdatesCoalesceIntoOneWrite(t *testing.T) {
	a := seedTask("a", 0)
	remote := newFakeRemote(a)
	r, _ := newLoaded(t, remote, Options{})

	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "first" }))
	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "second" }))
	require.NoError(t, r.Toggle(a.ID))

	got, _ := r.Get(a.ID)
	assert.Equal(t, "second", got.Title)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, 0, remote.updateCount(), "nothing is written inside the window")

	r.Flush()
	require.Equal(t, 1, remote.updateCount())
	assert.Equal(t, "second", remote.updates[0].Title)
	assert.True(t, remote.updates[0].IsCompleted)
}

func TestDebounceTimerFlushes(t *testing.T) {
	a := seedTask("a", 0)
	remote := newFakeRemote(a)
	r, _ := newLoaded(t, remote, Options{Debounce: 10 * time.Millisecond})

	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "b" }))
	require.Eventually(t, func() bool { return remote.updateCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestUpdateFailureRestoresWindowSnapshot(t *testing.T) {
	boom := errors.New("update failed")
	a := seedTask("orig", 0)
	remote := newFakeRemote(a)
	remote.failUpdate = boom
	r, log := newLoaded(t, remote, Options{})

	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "x" }))
	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "y" }))
	r.Flush()

	got, _ := r.Get(a.ID)
	assert.Equal(t, "orig", got.Title)
	require.Len(t, log.all(), 1)
	assert.ErrorIs(t, log.all()[0], boom)
	assert.Equal(t, 0, r.PendingEchoes())
}

func TestMigrateFailureRollsBack(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	due := now.Add(2 * time.Hour)
	a := seedTask("standup", 0)
	a.DueDate = &due
	remote := newFakeRemote(a)
	remote.failUpdate = errors.New("offline")
	r, log := newLoaded(t, remote, Options{})

	require.NoError(t, r.Migrate(a.ID))
	v := r.Views(now)
	assert.Equal(t, []string{"standup"}, titles(v.Migration))
	assert.Empty(t, v.Today)

	r.Flush()
	v = r.Views(now)
	assert.Equal(t, []string{"standup"}, titles(v.Today))
	assert.Empty(t, v.Migration)
	assert.Len(t, log.all(), 1)
}

func TestScheduleMovesToToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	milk := seedTask("Buy milk", 0)
	remote := newFakeRemote(milk)
	r, _ := newLoaded(t, remote, Options{})

	assert.Equal(t, []string{"Buy milk"}, titles(r.Views(now).Migration))
	require.NoError(t, r.Schedule(milk.ID, now.Add(time.Hour)))
	v := r.Views(now)
	assert.Equal(t, []string{"Buy milk"}, titles(v.Today))
	assert.Empty(t, v.Migration)
}

func TestEchoSuppressionIsPerWrite(t *testing.T) {
	a := seedTask("a", 0)
	b := seedTask("b", 1)
	remote := newFakeRemote(a, b)
	r, _ := newLoaded(t, remote, Options{})

	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "a2" }))
	require.NoError(t, r.Update(b.ID, func(t *models.Task) { t.Title = "b2" }))
	r.Flush()
	require.Equal(t, 2, r.PendingEchoes())

	gotA, _ := r.Get(a.ID)
	gotB, _ := r.Get(b.ID)

	// Echoes arrive out of order; each one only cancels its own write.
	assert.False(t, r.Apply(updateEcho(gotB, remote.mutationFor(b.ID))))
	assert.Equal(t, 1, r.PendingEchoes())
	assert.False(t, r.Apply(updateEcho(gotA, remote.mutationFor(a.ID))))
	assert.Equal(t, 0, r.PendingEchoes())

	external := gotA.Clone()
	external.Title = "from phone"
	assert.True(t, r.Apply(updateEcho(external, "phone-mutation")))
	got, _ := r.Get(a.ID)
	assert.Equal(t, "from phone", got.Title)
}

func TestEventsWithoutMutationIDAreApplied(t *testing.T) {
	a := seedTask("a", 0)
	remote := newFakeRemote(a)
	r, _ := newLoaded(t, remote, Options{})

	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "mine" }))
	r.Flush()

	other := a.Clone()
	other.Title = "theirs"
	assert.True(t, r.Apply(updateEcho(other, "")))
	assert.Equal(t, 1, r.PendingEchoes(), "an unrelated event must not consume our pending echo")
}

func TestExternalUpdateReplaysOpenWindow(t *testing.T) {
	a := seedTask("t", 0)
	a.Priority = models.PriorityLow
	remote := newFakeRemote(a)
	r, _ := newLoaded(t, remote, Options{})

	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "mine" }))

	external := a.Clone()
	external.Priority = models.PriorityHigh
	assert.True(t, r.Apply(updateEcho(external, "other-device")))

	got, _ := r.Get(a.ID)
	assert.Equal(t, "mine", got.Title)
	assert.Equal(t, models.PriorityHigh, got.Priority)

	r.Flush()
	require.Equal(t, 1, remote.updateCount())
	assert.Equal(t, "mine", remote.updates[0].Title)
	assert.Equal(t, models.PriorityHigh, remote.updates[0].Priority)
}

func TestExternalDeleteCancelsWindow(t *testing.T) {
	a := seedTask("a", 0)
	remote := newFakeRemote(a)
	r, _ := newLoaded(t, remote, Options{})

	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "b" }))
	assert.True(t, r.Apply(&ports.TaskChange{Type: ports.ChangeDelete, TaskID: a.ID, MutationID: "other"}))
	r.Flush()

	assert.Empty(t, r.Tasks())
	assert.Equal(t, 0, remote.updateCount())
}

func TestDeleteFailureRestoresAtIndex(t *testing.T) {
	a, b, c := seedTask("a", 0), seedTask("b", 1), seedTask("c", 2)
	remote := newFakeRemote(a, b, c)
	remote.failDelete = errors.New("denied")
	r, log := newLoaded(t, remote, Options{})

	remote.hold()
	require.NoError(t, r.Delete(b.ID))
	assert.Equal(t, []string{"a", "c"}, titles(r.Tasks()))

	remote.release()
	r.Flush()
	assert.Equal(t, []string{"a", "b", "c"}, titles(r.Tasks()))
	require.Len(t, log.all(), 1)
	var we *WriteError
	require.ErrorAs(t, log.all()[0], &we)
	assert.Equal(t, "delete", we.Op)
	assert.Equal(t, b.ID, we.TaskID)
}

func TestDeleteSuccess(t *testing.T) {
	a := seedTask("a", 0)
	remote := newFakeRemote(a)
	r, _ := newLoaded(t, remote, Options{})

	require.NoError(t, r.Delete(a.ID))
	r.Flush()
	assert.Empty(t, r.Tasks())
	assert.Equal(t, []uuid.UUID{a.ID}, remote.deletes)
	assert.False(t, r.Apply(&ports.TaskChange{Type: ports.ChangeDelete, TaskID: a.ID, MutationID: remote.lastMut}))
	assert.ErrorIs(t, r.Delete(a.ID), ErrTaskNotFound)
}

func TestReorderSuppressesOneEchoPerTask(t *testing.T) {
	a, b, c := seedTask("a", 0), seedTask("b", 1), seedTask("c", 2)
	remote := newFakeRemote(a, b, c)
	r, _ := newLoaded(t, remote, Options{})

	require.NoError(t, r.Reorder([]uuid.UUID{c.ID, a.ID, b.ID}))
	r.Flush()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"c", "a", "b"}, titles(r.Views(now).Migration))

	for _, tk := range r.Tasks() {
		assert.False(t, r.Apply(updateEcho(tk, remote.lastMut)))
	}
	assert.Equal(t, 0, r.PendingEchoes())
}

func TestReorderFailureRestoresPositions(t *testing.T) {
	a, b := seedTask("a", 0), seedTask("b", 1)
	remote := newFakeRemote(a, b)
	remote.failReord = errors.New("conflict")
	r, log := newLoaded(t, remote, Options{})

	require.NoError(t, r.Reorder([]uuid.UUID{b.ID, a.ID}))
	r.Flush()

	gotA, _ := r.Get(a.ID)
	gotB, _ := r.Get(b.ID)
	assert.Equal(t, 0, gotA.Position)
	assert.Equal(t, 1, gotB.Position)
	assert.Len(t, log.all(), 1)
}

func TestPendingEchoExpires(t *testing.T) {
	var mu sync.Mutex
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}

	a := seedTask("a", 0)
	remote := newFakeRemote(a)
	r, _ := newLoaded(t, remote, Options{EchoTTL: time.Minute, Now: now})

	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "b" }))
	r.Flush()
	require.Equal(t, 1, r.PendingEchoes())

	mu.Lock()
	clock = clock.Add(2 * time.Minute)
	mu.Unlock()

	late := a.Clone()
	late.Title = "late"
	assert.True(t, r.Apply(updateEcho(late, remote.mutationFor(a.ID))))
	assert.Equal(t, 0, r.PendingEchoes())
}

func TestCloseSendsOpenWindow(t *testing.T) {
	a := seedTask("a", 0)
	remote := newFakeRemote(a)
	r := New(remote, Options{Debounce: time.Hour})
	require.NoError(t, r.Load(context.Background()))

	require.NoError(t, r.Update(a.ID, func(t *models.Task) { t.Title = "renamed" }))
	require.NoError(t, r.Close())

	require.Equal(t, 1, remote.updateCount())
	assert.Equal(t, "renamed", remote.updates[0].Title)
}

func TestUpdatesRacingCloseAreNeverDropped(t *testing.T) {
	a := seedTask("a", 0)
	remote := newFakeRemote(a)
	r := New(remote, Options{Debounce: time.Hour})
	require.NoError(t, r.Load(context.Background()))

	accepted := make(chan string, 1)
	go func() {
		last := ""
		for i := 0; ; i++ {
			title := fmt.Sprintf("v%d", i)
			if err := r.Update(a.ID, func(t *models.Task) { t.Title = title }); err != nil {
				accepted <- last
				return
			}
			last = title
		}
	}()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, r.Close())
	last := <-accepted

	remote.mu.Lock()
	defer remote.mu.Unlock()
	if last == "" {
		assert.Empty(t, remote.updates)
		return
	}
	require.NotEmpty(t, remote.updates)
	assert.Equal(t, last, remote.updates[len(remote.updates)-1].Title)
}

func TestClosedReplicaRejectsWrites(t *testing.T) {
	a := seedTask("a", 0)
	r := New(newFakeRemote(a), Options{Debounce: time.Hour})
	require.NoError(t, r.Load(context.Background()))
	require.NoError(t, r.Close())

	_, err := r.Create(models.Task{Title: "x"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Update(a.ID, func(*models.Task) {}), ErrClosed)
	assert.ErrorIs(t, r.Delete(a.ID), ErrClosed)
}
