// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Dispatch hands a fired callback to whoever owns the room, usually its actor.
type Dispatch func(roomID string, fn func())

type timerTask struct {
	roomID   string
	gen      uint64
	execute  time.Time
	callback func()
	index    int
}

type timerQueue []*timerTask

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	return q[i].execute.Before(q[j].execute)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*timerTask)
	task.index = n
	*q = append(*q, task)
}

func (q *timerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// Registry holds at most one pending timer per room. Scheduling a room replaces its
// previous timer, and a fire that was already dispatched is dropped if the room was
// rescheduled or cancelled before the callback ran.
type Registry struct {
	queue    timerQueue
	byRoom   map[string]*timerTask
	gens     map[string]uint64
	seq      uint64
	mutex    sync.Mutex
	dispatch Dispatch
	tick     time.Duration
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type Option func(*Registry)

// WithTick sets the polling interval of the queue.
func WithTick(d time.Duration) Option {
	return func(r *Registry) { r.tick = d }
}

func NewRegistry(dispatch Dispatch, opts ...Option) *Registry {
	if dispatch == nil {
		dispatch = func(_ string, fn func()) { go fn() }
	}
	r := &Registry{
		queue:    make(timerQueue, 0),
		byRoom:   make(map[string]*timerTask),
		gens:     make(map[string]uint64),
		dispatch: dispatch,
		tick:     50 * time.Millisecond,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	heap.Init(&r.queue)
	go r.process()
	return r
}

// Schedule cancels the room's pending timer and arms a new one.
func (r *Registry) Schedule(roomID string, delay time.Duration, fn func()) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.cancelLocked(roomID)
	r.seq++
	r.gens[roomID] = r.seq
	task := &timerTask{
		roomID:   roomID,
		gen:      r.seq,
		execute:  r.now().Add(delay),
		callback: fn,
	}
	heap.Push(&r.queue, task)
	r.byRoom[roomID] = task
}

// Cancel drops the room's pending timer. Cancelling an idle room is a no-op.
func (r *Registry) Cancel(roomID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.cancelLocked(roomID)
	r.seq++
	r.gens[roomID] = r.seq
}

// Forget releases all bookkeeping of a room.
func (r *Registry) Forget(roomID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.cancelLocked(roomID)
	delete(r.gens, roomID)
}

func (r *Registry) cancelLocked(roomID string) {
	if task, ok := r.byRoom[roomID]; ok {
		if task.index >= 0 {
			heap.Remove(&r.queue, task.index)
		}
		delete(r.byRoom, roomID)
	}
}

// Pending reports when the room's timer is due.
func (r *Registry) Pending(roomID string) (time.Time, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	task, ok := r.byRoom[roomID]
	if !ok {
		return time.Time{}, false
	}
	return task.execute, true
}

// Len returns the number of armed timers.
func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.queue.Len()
}

// Stop halts the polling goroutine; pending timers never fire.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Registry) process() {
	defer close(r.done)
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			for _, task := range r.due() {
				r.dispatch(task.roomID, r.guarded(task))
			}
		}
	}
}

func (r *Registry) due() []*timerTask {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	var fired []*timerTask
	for r.queue.Len() > 0 {
		task := r.queue[0]
		if task.execute.After(now) {
			break
		}
		heap.Pop(&r.queue)
		delete(r.byRoom, task.roomID)
		fired = append(fired, task)
	}
	return fired
}

// guarded wraps the callback so it only runs if the room was not rescheduled meanwhile.
func (r *Registry) guarded(task *timerTask) func() {
	return func() {
		r.mutex.Lock()
		current := r.gens[task.roomID] == task.gen
		r.mutex.Unlock()
		if current {
			task.callback()
		}
	}
}
