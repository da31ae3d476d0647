package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

// fakeBackend wires the three endpoints a session touches: submission,
// status polling, and the push stream.
type fakeBackend struct {
	submit http.HandlerFunc
	status http.HandlerFunc
	stream http.HandlerFunc
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	if b.submit != nil {
		mux.HandleFunc("POST /scan", b.submit)
	}
	if b.status != nil {
		mux.HandleFunc("GET /scans/{id}", b.status)
	}
	if b.stream != nil {
		mux.HandleFunc("GET /scans/{id}/stream", b.stream)
	}
	return mux
}

func acceptScan(t *testing.T, job aiptx.ScanJob) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req aiptx.ScanRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Target)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(job))
	}
}

func drain(t *testing.T, sess *Session) []Event {
	t.Helper()

	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-sess.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out draining session events")
		}
	}
}

func TestSessionStreamHappyPath(t *testing.T) {
	backend := &fakeBackend{
		submit: acceptScan(t, aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusPending}),
		stream: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			sseWriter(w, "progress", `{"phase":"recon","percent":20}`)
			sseWriter(w, "finding", `{"id":"f-1","type":"port","value":"22/tcp","severity":"info"}`)
			sseWriter(w, "finding", `{"id":"f-1","type":"port","value":"22/tcp","severity":"info"}`)
			sseWriter(w, "finding", `{"id":"f-2","type":"vuln","value":"CVE-2021-41773","severity":"high"}`)
			sseWriter(w, "progress", `{"phase":"scan","percent":90}`)
			sseWriter(w, "complete", `{"id":"job-1","status":"completed","progress":100,"findings_count":2}`)
		},
	}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	client := aiptx.NewClient(ts.URL, "")
	sess := New(client, WithLogger(testLogger()))

	job, err := sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com", Mode: aiptx.ModeQuick})
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, StatePending, sess.State())

	events := drain(t, sess)
	<-sess.Done()

	// The duplicate finding is absorbed, everything else arrives in order.
	kinds := make([]Kind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []Kind{KindProgress, KindFinding, KindFinding, KindProgress, KindComplete}, kinds)

	assert.Equal(t, StateCompleted, sess.State())
	assert.False(t, sess.Cancelled())

	findings := sess.Findings()
	require.Len(t, findings, 2)
	assert.Equal(t, "f-1", findings[0].ID)
	assert.Equal(t, "f-2", findings[1].ID)
	assert.Equal(t, 1, sess.Aggregator().Duplicates())

	bySeverity := sess.FindingsBySeverity()
	assert.Equal(t, "f-2", bySeverity[0].ID)

	final := sess.Job()
	assert.Equal(t, aiptx.StatusCompleted, final.Status)
	assert.Equal(t, 2, final.FindingsCount)
	assert.Equal(t, 100, final.Progress)
}

func TestSessionQuickScanScript(t *testing.T) {
	backend := &fakeBackend{
		submit: acceptScan(t, aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusPending}),
		stream: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			sseWriter(w, "progress", `{"phase":"recon","percent":10}`)
			sseWriter(w, "finding", `{"id":"f1","type":"port","value":"22/tcp","severity":"info"}`)
			sseWriter(w, "progress", `{"phase":"recon","percent":100}`)
			sseWriter(w, "complete", `{"id":"job-1","status":"completed","findings_count":1}`)
		},
	}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	sess := New(aiptx.NewClient(ts.URL, ""), WithLogger(testLogger()))

	job, err := sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com", Mode: aiptx.ModeQuick})
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)

	drain(t, sess)

	assert.Equal(t, StateCompleted, sess.State())
	assert.Equal(t, aiptx.StatusCompleted, sess.Job().Status)
	assert.Equal(t, 1, sess.Job().FindingsCount)

	findings := sess.Findings()
	require.Len(t, findings, 1)
	assert.Equal(t, "f1", findings[0].ID)
}

func TestSessionStreamDropRecoveredByPolling(t *testing.T) {
	backend := &fakeBackend{
		submit: acceptScan(t, aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusPending}),
		stream: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			// The connection drops mid-scan with no terminal event.
			sseWriter(w, "progress", `{"phase":"enum","percent":40}`)
		},
		status: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusCompleted, Progress: 100})
		},
	}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	sess := New(aiptx.NewClient(ts.URL, ""),
		WithLogger(testLogger()),
		WithMaxReconnects(0),
		WithReconnectDelay(time.Millisecond),
		WithPollInterval(time.Millisecond),
	)

	_, err := sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
	require.NoError(t, err)

	events := drain(t, sess)

	// The session completes even though no stream complete event arrived.
	require.NotEmpty(t, events)
	assert.Equal(t, KindComplete, events[len(events)-1].Kind)
	assert.Equal(t, StateCompleted, sess.State())
	assert.Equal(t, 100, sess.Job().Progress)
}

func TestSessionStartOnlyOnce(t *testing.T) {
	backend := &fakeBackend{
		submit: acceptScan(t, aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusPending}),
		stream: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			sseWriter(w, "complete", `{"id":"job-1","status":"completed"}`)
		},
	}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	sess := New(aiptx.NewClient(ts.URL, ""), WithLogger(testLogger()))

	_, err := sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
	require.NoError(t, err)

	_, err = sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
	assert.ErrorIs(t, err, aiptx.ErrSessionStarted)

	drain(t, sess)
}

func TestSessionSubmitFailureLeavesIdle(t *testing.T) {
	var attempts int32
	backend := &fakeBackend{
		submit: func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusPending})
		},
		stream: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			sseWriter(w, "complete", `{"id":"job-1","status":"completed"}`)
		},
	}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	sess := New(aiptx.NewClient(ts.URL, ""), WithLogger(testLogger()))

	_, err := sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
	var apiErr *aiptx.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Retryable())
	assert.Equal(t, StateIdle, sess.State())

	// The failed submit did not consume the session.
	_, err = sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
	require.NoError(t, err)
	drain(t, sess)
	assert.Equal(t, StateCompleted, sess.State())
}

func TestSessionAutoFallsBackToPolling(t *testing.T) {
	var polls int32
	backend := &fakeBackend{
		submit: acceptScan(t, aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusPending}),
		stream: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"streaming disabled"}`, http.StatusNotImplemented)
		},
		status: func(w http.ResponseWriter, r *http.Request) {
			job := aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusRunning, Phase: "recon", Progress: 50}
			if atomic.AddInt32(&polls, 1) > 2 {
				job = aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusCompleted, Progress: 100, FindingsCount: 3}
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(job)
		},
	}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	sess := New(aiptx.NewClient(ts.URL, ""),
		WithLogger(testLogger()),
		WithMaxReconnects(1),
		WithReconnectDelay(time.Millisecond),
		WithPollInterval(time.Millisecond),
	)

	_, err := sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
	require.NoError(t, err)

	events := drain(t, sess)
	require.NotEmpty(t, events)

	// The broken stream is invisible to the caller: the session still ends
	// in the same terminal state the stream would have produced.
	last := events[len(events)-1]
	assert.Equal(t, KindComplete, last.Kind)
	assert.Equal(t, StateCompleted, sess.State())
	assert.Equal(t, 3, sess.Job().FindingsCount)
}

func TestSessionStreamOnlyReportsLostStream(t *testing.T) {
	backend := &fakeBackend{
		submit: acceptScan(t, aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusPending}),
		stream: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			// Connection ends without a terminal event, every time.
			sseWriter(w, "progress", `{"phase":"recon","percent":10}`)
		},
	}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	sess := New(aiptx.NewClient(ts.URL, ""),
		WithLogger(testLogger()),
		WithStrategy(StrategyStream),
		WithMaxReconnects(1),
		WithReconnectDelay(time.Millisecond),
	)

	_, err := sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
	require.NoError(t, err)

	events := drain(t, sess)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.Equal(t, KindError, last.Kind)

	// Losing contact is distinguishable from the scan itself failing.
	var lost *aiptx.StreamLostError
	require.ErrorAs(t, last.Err, &lost)
	var failed *ScanFailedError
	assert.False(t, errors.As(last.Err, &failed))

	assert.Equal(t, StateErrored, sess.State())
}

func TestSessionPollStrategyReportsScanFailure(t *testing.T) {
	backend := &fakeBackend{
		submit: acceptScan(t, aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusPending}),
		status: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusError, Error: "target unreachable"})
		},
		stream: func(w http.ResponseWriter, r *http.Request) {
			t.Error("poll strategy must not open the stream")
		},
	}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	sess := New(aiptx.NewClient(ts.URL, ""),
		WithLogger(testLogger()),
		WithStrategy(StrategyPoll),
		WithPollInterval(time.Millisecond),
	)

	_, err := sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
	require.NoError(t, err)

	events := drain(t, sess)
	require.Len(t, events, 1)
	require.Equal(t, KindError, events[0].Kind)

	var failed *ScanFailedError
	require.ErrorAs(t, events[0].Err, &failed)

	assert.Equal(t, StateErrored, sess.State())
	assert.Equal(t, "target unreachable", sess.Job().Error)
}

func TestSessionCancel(t *testing.T) {
	firstEvent := make(chan struct{})
	backend := &fakeBackend{
		submit: acceptScan(t, aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusRunning}),
		stream: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			sseWriter(w, "progress", `{"phase":"recon","percent":10}`)
			close(firstEvent)
			// Keep the stream open until the client walks away.
			<-r.Context().Done()
		},
	}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	sess := New(aiptx.NewClient(ts.URL, ""), WithLogger(testLogger()))

	_, err := sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
	require.NoError(t, err)

	<-firstEvent
	sess.Cancel()
	sess.Cancel() // idempotent

	drain(t, sess)

	select {
	case <-sess.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop after cancel")
	}

	assert.True(t, sess.Cancelled())
	assert.False(t, sess.State().Terminal())

	// A cancelled session refuses a restart.
	_, err = sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
	assert.Error(t, err)
}

func TestSessionDuplicateTerminalEventIgnored(t *testing.T) {
	sess := New(aiptx.NewClient("http://127.0.0.1:1", ""), WithLogger(testLogger()))

	require.True(t, sess.applyEvent(Event{Kind: KindProgress, JobID: "job-1", Phase: "recon", Percent: 40}))

	complete := Event{
		Kind:  KindComplete,
		JobID: "job-1",
		Job:   &aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusCompleted, Progress: 100, FindingsCount: 2},
	}
	require.True(t, sess.applyEvent(complete))
	assert.Equal(t, StateCompleted, sess.State())
	first := sess.Job()

	// A replayed terminal event changes nothing.
	assert.False(t, sess.applyEvent(complete))
	assert.Equal(t, first, sess.Job())
	assert.Equal(t, StateCompleted, sess.State())

	// Neither does a late conflicting terminal event.
	late := Event{Kind: KindError, JobID: "job-1", Err: &ScanFailedError{Message: "late failure"}}
	assert.False(t, sess.applyEvent(late))
	assert.Equal(t, first, sess.Job())
	assert.Equal(t, StateCompleted, sess.State())
}

func TestSessionReleasesGoroutinesOnCompletion(t *testing.T) {
	backend := &fakeBackend{
		submit: acceptScan(t, aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusPending}),
		stream: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			sseWriter(w, "complete", `{"id":"job-1","status":"completed"}`)
		},
	}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	client := aiptx.NewClient(ts.URL, "")
	before := runtime.NumGoroutine()

	// Completed sessions under a long-lived parent context must not keep
	// their internal goroutines parked on it.
	for i := 0; i < 20; i++ {
		sess := New(client, WithLogger(testLogger()))
		_, err := sess.Start(context.Background(), &aiptx.ScanRequest{Target: "example.com"})
		require.NoError(t, err)
		drain(t, sess)
		<-sess.Done()
	}

	assert.Eventually(t, func() bool {
		// Allow for idle HTTP connection pool goroutines.
		return runtime.NumGoroutine() <= before+10
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.True(t, StateErrored.Terminal())
	assert.False(t, StatePending.Terminal())
}
