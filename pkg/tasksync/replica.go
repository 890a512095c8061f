// Package tasksync keeps a local replica of one user's tasks consistent with the
// server. Local mutations are applied optimistically and persisted in the
// background; rapid edits to the same task coalesce into one write. Every write
// carries its own mutation id, and change-feed events bearing a pending id are
// recognised as echoes of our own writes and dropped. A failed write is always
// rolled back and reported through OnError.
package tasksync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"bullet-ai/domain/models"
	"bullet-ai/domain/ports"
	"bullet-ai/pkg/views"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrNotPersisted = errors.New("task has not been saved yet")
	ErrClosed       = errors.New("replica closed")
)

// Remote is the server side of the replica.
type Remote interface {
	Fetch(ctx context.Context) ([]models.Task, error)
	Insert(ctx context.Context, task models.Task, mutationID string) (models.Task, error)
	Update(ctx context.Context, task models.Task, mutationID string) (models.Task, error)
	Delete(ctx context.Context, id uuid.UUID, mutationID string) error
	Reorder(ctx context.Context, ids []uuid.UUID, mutationID string) error
}

// WriteError is what OnError listeners receive after a rollback.
type WriteError struct {
	Op     string
	TaskID uuid.UUID
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type Options struct {
	// Debounce is the coalescing window for edits to the same task.
	Debounce time.Duration
	// EchoTTL bounds how long a mutation id waits for its echo.
	EchoTTL time.Duration
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = 400 * time.Millisecond
	}
	if o.EchoTTL <= 0 {
		o.EchoTTL = time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type echo struct {
	remaining int
	expires   time.Time
}

// window collects the edits made to one task inside the debounce period.
type window struct {
	snapshot models.Task
	patches  []func(*models.Task)
	timer    *time.Timer
}

type Replica struct {
	remote Remote
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	idle     *sync.Cond
	tasks    []models.Task
	temps    map[uuid.UUID]bool
	windows  map[uuid.UUID]*window
	pending  map[string]*echo
	inflight int
	closed   bool

	onChange []func()
	onError  []func(error)
}

func New(remote Remote, opts Options) *Replica {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Replica{
		remote:  remote,
		opts:    opts.withDefaults(),
		ctx:     ctx,
		cancel:  cancel,
		temps:   make(map[uuid.UUID]bool),
		windows: make(map[uuid.UUID]*window),
		pending: make(map[string]*echo),
	}
	r.idle = sync.NewCond(&r.mu)
	return r
}

// OnChange registers a listener called after every local state change.
func (r *Replica) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = append(r.onChange, fn)
	r.mu.Unlock()
}

// OnError registers a listener for failed (and rolled back) writes.
func (r *Replica) OnError(fn func(error)) {
	r.mu.Lock()
	r.onError = append(r.onError, fn)
	r.mu.Unlock()
}

// Load replaces the confirmed part of the replica with the remote collection.
// Rows still waiting for their insert are kept, open edit windows are replayed.
func (r *Replica) Load(ctx context.Context) error {
	rows, err := r.remote.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch tasks: %w", err)
	}

	r.mu.Lock()
	next := make([]models.Task, 0, len(rows)+len(r.temps))
	for _, row := range rows {
		cur := row.Clone()
		if w := r.windows[row.ID]; w != nil {
			w.snapshot = row.Clone()
			replay(&cur, w.patches)
		}
		next = append(next, cur)
	}
	for _, t := range r.tasks {
		if r.temps[t.ID] {
			next = append(next, t)
		}
	}
	r.tasks = next
	r.mu.Unlock()

	r.emitChange()
	return nil
}

// Tasks returns a copy of the current local collection.
func (r *Replica) Tasks() []models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Task, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (r *Replica) Get(id uuid.UUID) (models.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return models.Task{}, false
	}
	return r.tasks[idx].Clone(), true
}

// Views classifies the current collection at now.
func (r *Replica) Views(now time.Time) views.Views {
	return views.Classify(r.Tasks(), now)
}

// Create inserts draft optimistically under a temporary id and returns it.
// The row is swapped for the server's once the insert succeeds.
func (r *Replica) Create(draft models.Task) (uuid.UUID, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return uuid.Nil, ErrClosed
	}
	row := draft.Clone()
	row.ID = uuid.New()
	if row.Priority == "" {
		row.Priority = models.PriorityMedium
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = r.opts.Now()
	}
	row.Position = r.nextPosition()
	tempID := row.ID
	r.tasks = append(r.tasks, row)
	r.temps[tempID] = true
	mutationID := r.track(1)
	r.inflight++
	r.mu.Unlock()

	r.emitChange()
	go r.insert(tempID, row, mutationID)
	return tempID, nil
}

func (r *Replica) insert(tempID uuid.UUID, row models.Task, mutationID string) {
	saved, err := r.remote.Insert(r.ctx, row, mutationID)

	r.mu.Lock()
	delete(r.temps, tempID)
	idx := r.indexOf(tempID)
	if err != nil {
		r.forget(mutationID)
		if idx >= 0 {
			r.removeAt(idx)
		}
	} else if idx >= 0 {
		if r.indexOf(saved.ID) >= 0 {
			r.removeAt(idx)
		} else {
			r.tasks[idx] = saved.Clone()
		}
	}
	r.mu.Unlock()

	if err != nil {
		r.emitError(&WriteError{Op: "create", TaskID: tempID, Err: err})
	}
	r.emitChange()
	r.done()
}

// Update applies patch now and schedules a coalesced remote write.
func (r *Replica) Update(id uuid.UUID, patch func(*models.Task)) error {
	r.mu.Lock()
	if err := r.checkWritable(id); err != nil {
		r.mu.Unlock()
		return err
	}
	idx := r.indexOf(id)
	w := r.windows[id]
	if w == nil {
		w = &window{snapshot: r.tasks[idx].Clone()}
		r.windows[id] = w
		w.timer = time.AfterFunc(r.opts.Debounce, func() { r.fire(id, w) })
	} else {
		w.timer.Reset(r.opts.Debounce)
	}
	patch(&r.tasks[idx])
	w.patches = append(w.patches, patch)
	r.mu.Unlock()

	r.emitChange()
	return nil
}

func (r *Replica) Toggle(id uuid.UUID) error {
	t, ok := r.Get(id)
	if !ok {
		return ErrTaskNotFound
	}
	completed := !t.IsCompleted
	return r.Update(id, func(t *models.Task) { t.IsCompleted = completed })
}

// Migrate clears the due date, moving the task to the migration view.
func (r *Replica) Migrate(id uuid.UUID) error {
	return r.Update(id, func(t *models.Task) { t.DueDate = nil })
}

func (r *Replica) Schedule(id uuid.UUID, due time.Time) error {
	return r.Update(id, func(t *models.Task) {
		d := due
		t.DueDate = &d
	})
}

func (r *Replica) fire(id uuid.UUID, w *window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.windows[id] != w || r.closed {
		return
	}
	r.dispatchLocked(id, w)
}

func (r *Replica) dispatchLocked(id uuid.UUID, w *window) {
	delete(r.windows, id)
	idx := r.indexOf(id)
	if idx < 0 {
		return
	}
	payload := r.tasks[idx].Clone()
	mutationID := r.track(1)
	r.inflight++
	go r.update(id, w, payload, mutationID)
}

func (r *Replica) update(id uuid.UUID, w *window, payload models.Task, mutationID string) {
	saved, err := r.remote.Update(r.ctx, payload, mutationID)

	r.mu.Lock()
	idx := r.indexOf(id)
	base := saved
	if err != nil {
		r.forget(mutationID)
		base = w.snapshot
	}
	if idx >= 0 {
		cur := base.Clone()
		if open := r.windows[id]; open != nil {
			open.snapshot = base.Clone()
			replay(&cur, open.patches)
		}
		r.tasks[idx] = cur
	}
	r.mu.Unlock()

	if err != nil {
		r.emitError(&WriteError{Op: "update", TaskID: id, Err: err})
	}
	r.emitChange()
	r.done()
}

// Delete removes the task now; a failed delete puts it back at its index.
func (r *Replica) Delete(id uuid.UUID) error {
	r.mu.Lock()
	if err := r.checkWritable(id); err != nil {
		r.mu.Unlock()
		return err
	}
	idx := r.indexOf(id)
	removed := r.tasks[idx]
	cancelled := r.windows[id]
	if cancelled != nil {
		cancelled.timer.Stop()
		delete(r.windows, id)
	}
	r.removeAt(idx)
	mutationID := r.track(1)
	r.inflight++
	r.mu.Unlock()

	r.emitChange()
	go r.delete(idx, removed, cancelled, mutationID)
	return nil
}

func (r *Replica) delete(idx int, removed models.Task, cancelled *window, mutationID string) {
	err := r.remote.Delete(r.ctx, removed.ID, mutationID)
	if err == nil {
		r.done()
		return
	}

	r.mu.Lock()
	r.forget(mutationID)
	if r.indexOf(removed.ID) < 0 {
		if idx > len(r.tasks) {
			idx = len(r.tasks)
		}
		r.tasks = append(r.tasks, models.Task{})
		copy(r.tasks[idx+1:], r.tasks[idx:])
		r.tasks[idx] = removed
		switch {
		case cancelled == nil:
		case r.closed:
			// Close กำลังรอ inflight อยู่ ส่ง edit ที่ค้างไปเลย
			r.dispatchLocked(removed.ID, cancelled)
		default:
			r.windows[removed.ID] = cancelled
			cancelled.timer = time.AfterFunc(r.opts.Debounce, func() { r.fire(removed.ID, cancelled) })
		}
	}
	r.mu.Unlock()

	r.emitError(&WriteError{Op: "delete", TaskID: removed.ID, Err: err})
	r.emitChange()
	r.done()
}

// Reorder rewrites Position to follow ids in one remote call.
func (r *Replica) Reorder(ids []uuid.UUID) error {
	r.mu.Lock()
	for _, id := range ids {
		if err := r.checkWritable(id); err != nil {
			r.mu.Unlock()
			return err
		}
	}
	before := make(map[uuid.UUID]int, len(ids))
	for pos, id := range ids {
		idx := r.indexOf(id)
		before[id] = r.tasks[idx].Position
		r.tasks[idx].Position = pos
		if w := r.windows[id]; w != nil {
			w.snapshot.Position = pos
		}
	}
	mutationID := r.track(len(ids))
	r.inflight++
	r.mu.Unlock()

	r.emitChange()
	go r.reorder(ids, before, mutationID)
	return nil
}

func (r *Replica) reorder(ids []uuid.UUID, before map[uuid.UUID]int, mutationID string) {
	err := r.remote.Reorder(r.ctx, ids, mutationID)
	if err == nil {
		r.done()
		return
	}

	r.mu.Lock()
	r.forget(mutationID)
	for id, pos := range before {
		if idx := r.indexOf(id); idx >= 0 {
			r.tasks[idx].Position = pos
		}
		if w := r.windows[id]; w != nil {
			w.snapshot.Position = pos
		}
	}
	r.mu.Unlock()

	r.emitError(&WriteError{Op: "reorder", Err: err})
	r.emitChange()
	r.done()
}

// Apply merges one change-feed event. It reports false when the event was the
// echo of one of our own writes and was dropped.
func (r *Replica) Apply(change *ports.TaskChange) bool {
	if change == nil {
		return false
	}

	r.mu.Lock()
	r.expireLocked()
	if change.MutationID != "" {
		if e, ok := r.pending[change.MutationID]; ok {
			e.remaining--
			if e.remaining <= 0 {
				delete(r.pending, change.MutationID)
			}
			r.mu.Unlock()
			return false
		}
	}

	switch change.Type {
	case ports.ChangeInsert, ports.ChangeUpdate:
		if change.Task == nil {
			r.mu.Unlock()
			return false
		}
		cur := change.Task.Clone()
		if w := r.windows[cur.ID]; w != nil {
			w.snapshot = change.Task.Clone()
			replay(&cur, w.patches)
		}
		if idx := r.indexOf(cur.ID); idx >= 0 {
			r.tasks[idx] = cur
		} else {
			r.tasks = append(r.tasks, cur)
		}
	case ports.ChangeDelete:
		if w := r.windows[change.TaskID]; w != nil {
			w.timer.Stop()
			delete(r.windows, change.TaskID)
		}
		if idx := r.indexOf(change.TaskID); idx >= 0 {
			r.removeAt(idx)
		}
	default:
		r.mu.Unlock()
		return false
	}
	r.mu.Unlock()

	r.emitChange()
	return true
}

// Flush sends every open edit window now and waits for all in-flight writes.
func (r *Replica) Flush() {
	r.mu.Lock()
	for id, w := range r.windows {
		w.timer.Stop()
		r.dispatchLocked(id, w)
	}
	for r.inflight > 0 {
		r.idle.Wait()
	}
	r.mu.Unlock()
}

// Close rejects further mutations, then sends every open edit window and
// waits for all in-flight writes. Edits accepted before Close are never dropped.
func (r *Replica) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for id, w := range r.windows {
		w.timer.Stop()
		r.dispatchLocked(id, w)
	}
	for r.inflight > 0 {
		r.idle.Wait()
	}
	r.mu.Unlock()
	r.cancel()
	return nil
}

// PendingEchoes reports how many mutation ids are still waiting for their echo.
func (r *Replica) PendingEchoes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireLocked()
	return len(r.pending)
}

func (r *Replica) checkWritable(id uuid.UUID) error {
	if r.closed {
		return ErrClosed
	}
	if r.indexOf(id) < 0 {
		return ErrTaskNotFound
	}
	if r.temps[id] {
		return ErrNotPersisted
	}
	return nil
}

// track registers a fresh mutation id expecting n echoes.
func (r *Replica) track(n int) string {
	r.expireLocked()
	id := uuid.NewString()
	r.pending[id] = &echo{remaining: n, expires: r.opts.Now().Add(r.opts.EchoTTL)}
	return id
}

func (r *Replica) forget(mutationID string) {
	delete(r.pending, mutationID)
}

func (r *Replica) expireLocked() {
	now := r.opts.Now()
	for id, e := range r.pending {
		if now.After(e.expires) {
			delete(r.pending, id)
		}
	}
}

func (r *Replica) done() {
	r.mu.Lock()
	r.inflight--
	if r.inflight == 0 {
		r.idle.Broadcast()
	}
	r.mu.Unlock()
}

func (r *Replica) indexOf(id uuid.UUID) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Replica) removeAt(idx int) {
	r.tasks = append(r.tasks[:idx], r.tasks[idx+1:]...)
}

func (r *Replica) nextPosition() int {
	pos := 0
	for _, t := range r.tasks {
		if t.Position >= pos {
			pos = t.Position + 1
		}
	}
	return pos
}

func (r *Replica) emitChange() {
	r.mu.Lock()
	listeners := append([]func(){}, r.onChange...)
	r.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (r *Replica) emitError(err error) {
	r.mu.Lock()
	listeners := append([]func(error){}, r.onError...)
	r.mu.Unlock()
	for _, fn := range listeners {
		fn(err)
	}
}

func replay(t *models.Task, patches []func(*models.Task)) {
	for _, p := range patches {
		p(t)
	}
}
