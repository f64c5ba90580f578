package main

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	errGuardRevoked    = errors.New("in-flight guard was revoked")
	errDeletionPending = errors.New("deletion already pending")
)

// Store holds the in-flight guard and the pending deletion registry. Both are
// process-local and die with the process.
type Store struct {
	mu       sync.Mutex
	inflight map[messageKey]map[*guardLease]struct{}
	pending  map[messageKey]*deletionTask
}

func NewStore() *Store {
	return &Store{
		inflight: make(map[messageKey]map[*guardLease]struct{}),
		pending:  make(map[messageKey]*deletionTask),
	}
}

// guardLease is one handling pass's claim on a message key. Several passes
// may hold leases on the same key at once.
type guardLease struct {
	store *Store
	key   messageKey
	once  sync.Once
}

// Acquire marks key as in flight for one handling pass. The lease stays held
// until it is released or the key is revoked.
func (s *Store) Acquire(key messageKey) *guardLease {
	s.mu.Lock()
	defer s.mu.Unlock()
	lease := &guardLease{store: s, key: key}
	leases, ok := s.inflight[key]
	if !ok {
		leases = make(map[*guardLease]struct{})
		s.inflight[key] = leases
	}
	leases[lease] = struct{}{}
	return lease
}

func (l *guardLease) Held() bool {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return l.store.heldLocked(l)
}

func (s *Store) heldLocked(l *guardLease) bool {
	_, ok := s.inflight[l.key][l]
	return ok
}

// Release drops the lease. Safe to call more than once; it never affects
// other passes on the same key.
func (l *guardLease) Release() {
	l.once.Do(func() {
		l.store.mu.Lock()
		defer l.store.mu.Unlock()
		leases := l.store.inflight[l.key]
		delete(leases, l)
		if len(leases) == 0 {
			delete(l.store.inflight, l.key)
		}
	})
}

// Revoke drops every lease held on key and reports whether there was one.
func (s *Store) Revoke(key messageKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inflight[key]) == 0 {
		return false
	}
	delete(s.inflight, key)
	return true
}

func (s *Store) InFlight(key messageKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight[key]) > 0
}

// Reserve registers a new deletion for the lease's key. The lease check and
// the uniqueness check happen under one lock so two passes can never both
// reserve the same key.
func (s *Store) Reserve(lease *guardLease) (*deletionTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.heldLocked(lease) {
		return nil, errGuardRevoked
	}
	if _, ok := s.pending[lease.key]; ok {
		return nil, errDeletionPending
	}
	task := &deletionTask{id: uuid.NewString(), key: lease.key}
	s.pending[lease.key] = task
	return task, nil
}

func (s *Store) Pending(key messageKey) (*deletionTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.pending[key]
	return task, ok
}

// Remove deletes task's registry entry if it is still the registered one.
func (s *Store) Remove(task *deletionTask) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[task.key] != task {
		return false
	}
	delete(s.pending, task.key)
	return true
}

func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

type taskState int

const (
	taskReserved taskState = iota
	taskArmed
	taskCancelled
	taskFired
)

func (s taskState) String() string {
	switch s {
	case taskReserved:
		return "reserved"
	case taskArmed:
		return "armed"
	case taskCancelled:
		return "cancelled"
	case taskFired:
		return "fired"
	default:
		return "invalid"
	}
}

// deletionTask is a one-shot cancellable cleanup. It moves
// reserved -> armed -> fired, or to cancelled from reserved or armed, and
// never leaves cancelled or fired.
type deletionTask struct {
	id  string
	key messageKey

	mu        sync.Mutex
	state     taskState
	timer     *Timer
	warningTS string
}

// arm records the warning message and starts the timer. It returns false if
// the task was cancelled before arming.
func (t *deletionTask) arm(clock Clock, delay time.Duration, warningTS string, fire func()) bool {
	t.mu.Lock()
	if t.state != taskReserved {
		t.mu.Unlock()
		return false
	}
	t.warningTS = warningTS
	t.state = taskArmed
	t.mu.Unlock()

	// The clock may run fire synchronously, so it is started without t.mu held.
	timer := clock.AfterFunc(delay, fire)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == taskCancelled {
		timer.Stop()
		return true
	}
	t.timer = timer
	return true
}

// cancel stops the task and returns the warning timestamp to clean up.
func (t *deletionTask) cancel() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != taskReserved && t.state != taskArmed {
		return "", false
	}
	t.state = taskCancelled
	if t.timer != nil {
		t.timer.Stop()
	}
	return t.warningTS, true
}

// fire claims the task for execution. Only an armed task can fire.
func (t *deletionTask) fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != taskArmed {
		return false
	}
	t.state = taskFired
	return true
}

func (t *deletionTask) State() taskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *deletionTask) WarningTS() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.warningTS
}
