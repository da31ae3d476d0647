// Package simulator is an in-memory server implementing the wire contract
// the client consumes: scan submission, status polling, the push channel,
// and the organizational CRUD around them. It exists so the client can be
// developed and exercised end to end without the real backend; scans are
// simulated, nothing is persisted.
package simulator

import (
	"sync"
	"time"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

// envelope is one named push-channel event.
type envelope struct {
	Name string
	Data interface{}
}

// job tracks one simulated scan: its public state, accumulated findings,
// the full event history (replayed to late stream subscribers), and the
// live subscriber set.
type job struct {
	mu       sync.Mutex
	state    aiptx.ScanJob
	request  aiptx.ScanRequest
	findings []aiptx.Finding
	history  []envelope
	subs     map[int]chan envelope
	nextSub  int
	terminal bool
}

// snapshot returns a copy of the public job state.
func (j *job) snapshot() aiptx.ScanJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// publish appends an event to the history and fans it out to subscribers.
func (j *job) publish(name string, data interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()

	ev := envelope{Name: name, Data: data}
	j.history = append(j.history, ev)
	if name == "complete" || name == "error" {
		j.terminal = true
	}

	for _, sub := range j.subs {
		sub <- ev
	}
}

// subscribe replays the event history and then delivers live events. The
// returned cancel func detaches the subscriber.
func (j *job) subscribe() (<-chan envelope, func()) {
	j.mu.Lock()
	defer j.mu.Unlock()

	ch := make(chan envelope, len(j.history)+256)
	for _, ev := range j.history {
		ch <- ev
	}

	if j.terminal {
		// History already ends with a terminal event; no live delivery.
		close(ch)
		return ch, func() {}
	}

	id := j.nextSub
	j.nextSub++
	j.subs[id] = ch

	cancel := func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if _, ok := j.subs[id]; ok {
			delete(j.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// closeSubs detaches all subscribers once the scan is over.
func (j *job) closeSubs() {
	j.mu.Lock()
	defer j.mu.Unlock()

	for id, sub := range j.subs {
		delete(j.subs, id)
		close(sub)
	}
}

// Store holds all simulated server state.
type Store struct {
	mu       sync.Mutex
	jobs     map[string]*job
	projects map[int64]aiptx.Project
	sessions map[int64]aiptx.Session
	nextID   int64
	started  time.Time
}

func NewStore() *Store {
	return &Store{
		jobs:     make(map[string]*job),
		projects: make(map[int64]aiptx.Project),
		sessions: make(map[int64]aiptx.Session),
		nextID:   1,
		started:  time.Now(),
	}
}

func (s *Store) addJob(id string, req aiptx.ScanRequest, state aiptx.ScanJob) *job {
	j := &job{
		state:   state,
		request: req,
		subs:    make(map[int]chan envelope),
	}

	s.mu.Lock()
	s.jobs[id] = j
	s.mu.Unlock()
	return j
}

func (s *Store) getJob(id string) (*job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *Store) allocID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// allFindings collects findings across jobs, newest job first not
// guaranteed; callers filter as needed.
func (s *Store) allFindings() []aiptx.Finding {
	s.mu.Lock()
	jobs := make([]*job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	var out []aiptx.Finding
	for _, j := range jobs {
		j.mu.Lock()
		out = append(out, j.findings...)
		j.mu.Unlock()
	}
	return out
}

func (s *Store) uptime() int64 {
	return int64(time.Since(s.started).Seconds())
}
