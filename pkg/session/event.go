package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

// Kind classifies session events delivered to the caller.
type Kind int

const (
	KindProgress Kind = iota // phase/percent update
	KindFinding              // new finding discovered
	KindComplete             // scan finished, terminal
	KindError                // scan failed or contact lost, terminal
	KindWarning              // dropped malformed stream event, non-terminal
)

func (k Kind) String() string {
	switch k {
	case KindProgress:
		return "progress"
	case KindFinding:
		return "finding"
	case KindComplete:
		return "complete"
	case KindError:
		return "error"
	case KindWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Event is one notification from a scan session. Exactly the fields for its
// Kind are set: Phase/Percent for progress, Finding for findings, Job for
// completion, Err for errors and warnings.
//
// All kinds arrive in order on a single channel. After a terminal event
// (complete or error) the channel is closed; warnings report a dropped
// malformed stream message and do not end the session.
type Event struct {
	Kind    Kind
	JobID   string
	Phase   string
	Percent int
	Finding *aiptx.Finding
	Job     *aiptx.ScanJob
	Err     error
	Time    time.Time
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	return e.Kind == KindComplete || e.Kind == KindError
}

// Wire event names used by the push channel.
const (
	wireProgress = "progress"
	wireFinding  = "finding"
	wireComplete = "complete"
	wireError    = "error"
)

type progressPayload struct {
	Phase   string `json:"phase"`
	Percent int    `json:"percent"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// decodeWireEvent turns a named stream event into a session Event.
func decodeWireEvent(jobID, name string, data []byte) (Event, error) {
	ev := Event{JobID: jobID, Time: time.Now()}

	switch name {
	case wireProgress:
		var p progressPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, aiptx.NewStreamDecodeError(name, err)
		}
		ev.Kind = KindProgress
		ev.Phase = p.Phase
		ev.Percent = p.Percent

	case wireFinding:
		var f aiptx.Finding
		if err := json.Unmarshal(data, &f); err != nil {
			return Event{}, aiptx.NewStreamDecodeError(name, err)
		}
		if f.ID == "" {
			return Event{}, aiptx.NewStreamDecodeError(name, errors.New("finding without an id"))
		}
		ev.Kind = KindFinding
		ev.Finding = &f

	case wireComplete:
		var job aiptx.ScanJob
		if err := json.Unmarshal(data, &job); err != nil {
			return Event{}, aiptx.NewStreamDecodeError(name, err)
		}
		ev.Kind = KindComplete
		ev.Job = &job

	case wireError:
		var p errorPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, aiptx.NewStreamDecodeError(name, err)
		}
		ev.Kind = KindError
		ev.Err = &ScanFailedError{Message: p.Message}

	default:
		return Event{}, aiptx.NewStreamDecodeError(name, fmt.Errorf("unknown event name"))
	}

	return ev, nil
}

// ScanFailedError is a failure reported by the scan itself, as opposed to a
// lost connection (aiptx.StreamLostError) or a transport fault.
type ScanFailedError struct {
	Message string
}

func (e *ScanFailedError) Error() string {
	return fmt.Sprintf("scan failed: %s", e.Message)
}
