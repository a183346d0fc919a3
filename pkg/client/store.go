package client

import "sync"

// Operation identifies a store slice's loading/error pair. Each
// operation tracks its own flags so one in-flight request never
// visually blocks an unrelated one.
type Operation int

const (
	OpLoadJob Operation = iota
	OpLoadApplications
	OpApply
	OpUpdateStatus
	OpCancel
	OpRevokeAll
)

// OpState is one operation's loading flag and last error. Err is reset
// when the operation starts and set on failure; prior data is left
// untouched on failure.
type OpState struct {
	Loading bool
	Err     error
}

// Snapshot is an immutable copy of the store's state.
type Snapshot struct {
	Job          *Job
	Applications []Application
	Ops          map[Operation]OpState
}

// Store is the single source of truth for a job's detail view and its
// applications. It holds at most one current job at a time. All
// mutation goes through the Lifecycle operations; a successful
// mutation replaces the relevant slice wholesale with the server's
// payload, never patches it locally.
type Store struct {
	mu           sync.RWMutex
	job          *Job
	applications []Application
	ops          map[Operation]OpState
	nextSubID    int
	subscribers  map[int]func()
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		ops:         make(map[Operation]OpState),
		subscribers: make(map[int]func()),
	}
}

// Subscribe registers fn to run after every state change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state. Mutating the returned
// value does not affect the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Ops: make(map[Operation]OpState, len(s.ops)),
	}
	if s.job != nil {
		job := *s.job
		if s.job.Application != nil {
			app := *s.job.Application
			job.Application = &app
		}
		snap.Job = &job
	}
	if s.applications != nil {
		snap.Applications = make([]Application, len(s.applications))
		copy(snap.Applications, s.applications)
	}
	for op, state := range s.ops {
		snap.Ops[op] = state
	}
	return snap
}

// Op returns one operation's state.
func (s *Store) Op(op Operation) OpState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ops[op]
}

// Reset drops all state, for view unmount or role switch.
func (s *Store) Reset() {
	s.mu.Lock()
	s.job = nil
	s.applications = nil
	s.ops = make(map[Operation]OpState)
	s.mu.Unlock()
	s.notify()
}

// begin marks an operation in flight and clears its previous error.
func (s *Store) begin(op Operation) {
	s.mu.Lock()
	s.ops[op] = OpState{Loading: true}
	s.mu.Unlock()
	s.notify()
}

// fail records an operation's error. Data slices are untouched: prior
// state survives a failed call.
func (s *Store) fail(op Operation, err error) {
	s.mu.Lock()
	s.ops[op] = OpState{Err: err}
	s.mu.Unlock()
	s.notify()
}

// finishJob replaces the current job with the server's payload.
func (s *Store) finishJob(job *Job) {
	s.mu.Lock()
	s.job = job
	s.ops[OpLoadJob] = OpState{}
	s.mu.Unlock()
	s.notify()
}

// finishApplications replaces the applications list wholesale. Entries
// absent from the server's payload are gone; the list is authoritative.
func (s *Store) finishApplications(op Operation, apps []Application) {
	s.mu.Lock()
	s.applications = apps
	s.ops[op] = OpState{}
	s.mu.Unlock()
	s.notify()
}

// finishOwnApplication attaches the employee's own application to the
// current job view.
func (s *Store) finishOwnApplication(app *Application) {
	s.mu.Lock()
	if s.job != nil && (app == nil || s.job.ID == app.JobID) {
		s.job.Application = app
	}
	s.ops[OpApply] = OpState{}
	s.mu.Unlock()
	s.notify()
}

// finishCancel clears the employee's own application from the job view.
func (s *Store) finishCancel() {
	s.mu.Lock()
	if s.job != nil {
		s.job.Application = nil
	}
	s.ops[OpCancel] = OpState{}
	s.mu.Unlock()
	s.notify()
}

// notify runs subscribers outside the state lock.
func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
