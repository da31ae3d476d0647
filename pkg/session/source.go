package session

import "context"

// Strategy selects how a session consumes events.
type Strategy int

const (
	// StrategyAuto uses the push stream and falls back to polling when the
	// stream cannot be kept alive.
	StrategyAuto Strategy = iota
	// StrategyStream uses only the push stream; losing it fails the session.
	StrategyStream
	// StrategyPoll never opens a push stream and only polls job status.
	StrategyPoll
)

func (s Strategy) String() string {
	switch s {
	case StrategyStream:
		return "stream"
	case StrategyPoll:
		return "poll"
	default:
		return "auto"
	}
}

// sink receives decoded events in delivery order. It reports whether the
// event was applied; events arriving after a terminal event are refused.
type sink func(Event) bool

// eventSource produces the ordered event sequence for one job until a
// terminal event has been delivered, ctx is cancelled, or the source fails.
// The push stream and the poll loop both implement this, so the session
// drives a single state machine regardless of transport.
type eventSource interface {
	Run(ctx context.Context, jobID string, deliver sink) error
}
