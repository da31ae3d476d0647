package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
	"github.com/aiptx/aiptx-go/pkg/logger"
)

// streamSource consumes the server's push channel for one job. The wire
// format is a text/event-stream: named events with a JSON data payload.
//
// A malformed event is delivered as a warning and the stream keeps going.
// A broken connection triggers bounded reconnects; once they are exhausted
// the source fails with *aiptx.StreamLostError.
type streamSource struct {
	client         *aiptx.Client
	log            *logger.Logger
	maxReconnects  int
	reconnectDelay time.Duration
}

func newStreamSource(client *aiptx.Client, log *logger.Logger, maxReconnects int, reconnectDelay time.Duration) *streamSource {
	return &streamSource{
		client:         client,
		log:            log,
		maxReconnects:  maxReconnects,
		reconnectDelay: reconnectDelay,
	}
}

func (s *streamSource) Run(ctx context.Context, jobID string, deliver sink) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			s.log.WithFields(logger.Fields{
				"job_id":  jobID,
				"attempt": attempt,
				"error":   lastErr,
			}).Warn("Stream connection lost, reconnecting")

			select {
			case <-time.After(s.reconnectDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if attempt > s.maxReconnects {
			return aiptx.NewStreamLostError(s.maxReconnects, lastErr)
		}

		terminal, err := s.consumeOnce(ctx, jobID, deliver)
		if terminal {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			// Server closed the stream cleanly without a terminal event.
			// Treat like a dropped connection and retry.
			err = io.ErrUnexpectedEOF
		}
		lastErr = err
	}
}

// consumeOnce opens the push channel and dispatches events until a terminal
// event is delivered or the connection breaks. It reports whether a terminal
// event went through.
func (s *streamSource) consumeOnce(ctx context.Context, jobID string, deliver sink) (bool, error) {
	body, err := s.client.OpenScanStream(ctx, jobID)
	if err != nil {
		return false, err
	}

	// Closing the body on cancellation unblocks the reader below. done ends
	// the watcher as soon as this connection is finished with, so it never
	// outlives the attempt.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		body.Close()
	}()

	var (
		eventName string
		data      strings.Builder
	)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if eventName != "" || data.Len() > 0 {
				terminal := s.dispatch(jobID, eventName, data.String(), deliver)
				eventName = ""
				data.Reset()
				if terminal {
					return true, nil
				}
			}
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		default:
			// Comments, ids and retry hints are not part of the contract.
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return false, err
	}
	return false, nil
}

// dispatch decodes one wire event and hands it to the sink. Malformed
// events become warnings; the stream is not torn down for them.
func (s *streamSource) dispatch(jobID, name, data string, deliver sink) bool {
	ev, err := decodeWireEvent(jobID, name, []byte(data))
	if err != nil {
		s.log.WithFields(logger.Fields{
			"job_id": jobID,
			"event":  name,
			"error":  err,
		}).Warn("Dropping malformed stream event")

		deliver(Event{Kind: KindWarning, JobID: jobID, Err: err, Time: time.Now()})
		return false
	}

	deliver(ev)
	return ev.Terminal()
}
