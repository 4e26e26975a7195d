// room/manager.go
package room

import (
	"sync"
	"sync/atomic"

	"github.com/wfunc/sketchparty/logger"
)

const actorQueueSize = 128

// actor runs every task of one room on a single goroutine.
type actor struct {
	id    string
	tasks chan func()
	quit  chan struct{}
}

func (a *actor) loop(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case fn := <-a.tasks:
			a.run(fn)
		case <-a.quit:
			return
		}
	}
}

func (a *actor) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("room %s: task panicked: %v", a.id, r)
		}
	}()
	fn()
}

// Manager 管理所有房间的 actor
type Manager struct {
	actors   map[string]*actor
	mutex    sync.Mutex
	wg       sync.WaitGroup
	closed   bool
	onChange func(active int)
}

// NewRoomManager creates a manager; onChange, if set, is told the actor count after every change.
func NewRoomManager(onChange func(active int)) *Manager {
	return &Manager{
		actors:   make(map[string]*actor),
		onChange: onChange,
	}
}

func (m *Manager) actorFor(roomID string) (*actor, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if a, ok := m.actors[roomID]; ok {
		return a, nil
	}
	a := &actor{
		id:    roomID,
		tasks: make(chan func(), actorQueueSize),
		quit:  make(chan struct{}),
	}
	m.actors[roomID] = a
	m.wg.Add(1)
	go a.loop(&m.wg)
	m.notify()
	return a, nil
}

// Do runs fn on the room's actor and waits for it to finish. If the actor is removed
// before fn starts, fn is moved to a fresh actor so it still runs exactly once.
// Do must not be called from inside a task of the same room.
func (m *Manager) Do(roomID string, fn func()) error {
	for {
		a, err := m.actorFor(roomID)
		if err != nil {
			return err
		}

		var claimed atomic.Bool
		done := make(chan struct{})
		task := func() {
			if !claimed.CompareAndSwap(false, true) {
				return
			}
			defer close(done)
			fn()
		}

		select {
		case a.tasks <- task:
		case <-a.quit:
			continue
		}
		select {
		case <-done:
			return nil
		case <-a.quit:
			if claimed.CompareAndSwap(false, true) {
				continue
			}
			<-done
			return nil
		}
	}
}

// Post queues fn on the room's actor without waiting.
func (m *Manager) Post(roomID string, fn func()) {
	a, err := m.actorFor(roomID)
	if err != nil {
		return
	}
	select {
	case a.tasks <- fn:
	case <-a.quit:
	}
}

// Remove stops the room's actor. Queued tasks are discarded.
func (m *Manager) Remove(roomID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if a, ok := m.actors[roomID]; ok {
		close(a.quit)
		delete(m.actors, roomID)
		m.notify()
	}
}

// Active returns the number of running room actors.
func (m *Manager) Active() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.actors)
}

// Close stops every actor and waits for running tasks to return.
func (m *Manager) Close() {
	m.mutex.Lock()
	if m.closed {
		m.mutex.Unlock()
		return
	}
	m.closed = true
	for id, a := range m.actors {
		close(a.quit)
		delete(m.actors, id)
	}
	m.notify()
	m.mutex.Unlock()
	m.wg.Wait()
}

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange(len(m.actors))
	}
}
