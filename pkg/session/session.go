// Package session manages the client side of one long-running scan job:
// submission, ordered consumption of incremental events over the push
// channel or a polling fallback, accumulation of findings, and
// cancellation.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
	"github.com/aiptx/aiptx-go/pkg/logger"
)

// State is the client-side lifecycle state of a scan session.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StatePending
	StateRunning
	StateCompleted
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session can change state again.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateErrored
}

// Session owns the lifecycle of one scan job. The zero of everything is an
// idle session; Start submits the scan and launches the single consumption
// goroutine. The caller observes the session through Events and through
// snapshot reads; job state is mutated only here.
type Session struct {
	client *aiptx.Client
	log    *logger.Logger

	strategy       Strategy
	pollInterval   time.Duration
	maxReconnects  int
	reconnectDelay time.Duration

	mu        sync.Mutex
	state     State
	cancelled bool
	job       aiptx.ScanJob

	agg    *Aggregator
	events chan Event
	done   chan struct{}

	cancelOnce    sync.Once
	cancelConsume context.CancelFunc
}

// New creates an idle session bound to a client.
func New(client *aiptx.Client, opts ...Option) *Session {
	s := &Session{
		client:         client,
		log:            logger.NewLogger(defaultLogLevel()),
		strategy:       StrategyAuto,
		pollInterval:   2 * time.Second,
		maxReconnects:  3,
		reconnectDelay: time.Second,
		agg:            NewAggregator(),
		events:         make(chan Event, 64),
		done:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start submits the scan request and begins consuming events. Valid only
// once, from the idle state. A submit failure leaves the session idle so
// the caller may retry; a success returns the acknowledged job handle.
func (s *Session) Start(ctx context.Context, req *aiptx.ScanRequest) (*aiptx.ScanJob, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, aiptx.ErrSessionStarted
	}
	if s.cancelled {
		s.mu.Unlock()
		return nil, context.Canceled
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	job, err := s.client.StartScan(ctx, req)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.job = *job
	if job.Status == aiptx.StatusRunning {
		s.state = StateRunning
	} else {
		s.state = StatePending
	}
	s.mu.Unlock()

	s.log.WithFields(logger.Fields{
		"job_id": job.ID,
		"target": req.Target,
		"mode":   req.Mode,
		"status": job.Status,
	}).Info("Scan submitted")

	consumeCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelConsume = cancel
	s.mu.Unlock()

	// Releasing the context on exit unblocks anything still watching it;
	// the session must not pin resources for the caller's context lifetime.
	go func() {
		defer cancel()
		s.consume(consumeCtx, job.ID)
	}()

	snapshot := *job
	return &snapshot, nil
}

// Events returns the ordered event channel. It is closed after a terminal
// event or cancellation; the caller must drain it to keep the session
// moving.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed when the consumption goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Cancel detaches the session from the job. It stops the stream or poll
// loop within one delivery interval and marks the session cancelled from
// the caller's perspective; the server may keep executing the scan.
// Safe to call any number of times.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		s.mu.Lock()
		if !s.state.Terminal() {
			s.cancelled = true
		}
		cancel := s.cancelConsume
		jobID := s.job.ID
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		s.log.WithFields(logger.Fields{"job_id": jobID}).Info("Scan session cancelled")
	})
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancelled reports whether Cancel preempted the session.
func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Job returns a snapshot of the tracked job.
func (s *Session) Job() aiptx.ScanJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

// Findings returns the accumulated findings in arrival order.
func (s *Session) Findings() []aiptx.Finding {
	return s.agg.All()
}

// FindingsBySeverity returns the accumulated findings, critical first.
func (s *Session) FindingsBySeverity() []aiptx.Finding {
	return s.agg.BySeverity()
}

// Aggregator exposes the findings aggregator for duplicate accounting.
func (s *Session) Aggregator() *Aggregator {
	return s.agg
}

// consume runs the selected event source and owns the event channel. Errors
// inside consumption never escape asynchronously; they are turned into a
// terminal error event on the same channel the caller already observes.
func (s *Session) consume(ctx context.Context, jobID string) {
	defer close(s.done)
	defer close(s.events)

	deliver := func(ev Event) bool {
		if !s.applyEvent(ev) {
			return false
		}
		s.emit(ctx, ev)
		return true
	}

	var stream eventSource = newStreamSource(s.client, s.log, s.maxReconnects, s.reconnectDelay)
	var poll eventSource = newPollSource(s.client, s.log, s.pollInterval)

	var err error
	switch s.strategy {
	case StrategyPoll:
		err = poll.Run(ctx, jobID, deliver)
	default:
		err = stream.Run(ctx, jobID, deliver)

		var lost *aiptx.StreamLostError
		if s.strategy == StrategyAuto && errors.As(err, &lost) {
			s.log.WithFields(logger.Fields{
				"job_id": jobID,
				"error":  err,
			}).Warn("Push channel unavailable, falling back to polling")
			err = poll.Run(ctx, jobID, deliver)
		}
	}

	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Terminal event delivered, or the caller cancelled. Cancellation
		// is not an error.
		return
	}

	deliver(Event{Kind: KindError, JobID: jobID, Err: err, Time: time.Now()})
}

// applyEvent advances the state machine. It refuses events after a terminal
// state or cancellation, which makes duplicate terminal delivery from a
// reconnecting stream or an overlapping poll harmless.
func (s *Session) applyEvent(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() || s.cancelled {
		s.log.WithFields(logger.Fields{
			"job_id": ev.JobID,
			"event":  ev.Kind.String(),
			"state":  s.state.String(),
		}).Debug("Discarding event for finished session")
		return false
	}

	switch ev.Kind {
	case KindProgress:
		s.job.Phase = ev.Phase
		// The server does not guarantee monotonic percentages; the
		// last-delivered value wins.
		s.job.Progress = ev.Percent
		if s.state == StatePending {
			s.state = StateRunning
			s.job.Status = aiptx.StatusRunning
		}

	case KindFinding:
		if s.agg.Add(*ev.Finding) {
			s.job.FindingsCount = s.agg.Count()
		} else {
			// Duplicate id: already aggregated, nothing new to report.
			return false
		}

	case KindComplete:
		s.state = StateCompleted
		s.job.Status = aiptx.StatusCompleted
		if ev.Job != nil {
			s.job.Phase = ev.Job.Phase
			s.job.Progress = ev.Job.Progress
			if ev.Job.FindingsCount > 0 {
				s.job.FindingsCount = ev.Job.FindingsCount
			}
			s.job.StartedAt = ev.Job.StartedAt
			s.job.CompletedAt = ev.Job.CompletedAt
		}

	case KindError:
		s.state = StateErrored
		s.job.Status = aiptx.StatusError
		if ev.Err != nil {
			// The job carries the server's own message; decoration like the
			// "scan failed:" prefix belongs to Error() rendering only.
			var failed *ScanFailedError
			if errors.As(ev.Err, &failed) {
				s.job.Error = failed.Message
			} else {
				s.job.Error = ev.Err.Error()
			}
		}

	case KindWarning:
		// Surfaced to the caller, no state change.
	}

	return true
}

// emit delivers an event to the caller in order. Delivery gives up when the
// consumption context ends so cancellation is never blocked by a slow
// reader.
func (s *Session) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
