package session

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aiptx/aiptx-go/pkg/logger"
)

// Option adjusts session construction.
type Option func(*Session)

// WithLogger replaces the session logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithStrategy fixes the consumption strategy instead of auto-selecting.
func WithStrategy(strategy Strategy) Option {
	return func(s *Session) {
		s.strategy = strategy
	}
}

// WithPollInterval sets the status poll interval for the fallback path.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithMaxReconnects bounds push-channel reconnection attempts.
func WithMaxReconnects(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.maxReconnects = n
		}
	}
}

// WithReconnectDelay sets the pause between reconnection attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.reconnectDelay = d
		}
	}
}

// WithEventBuffer resizes the event channel. Only effective before Start.
func WithEventBuffer(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.events = make(chan Event, n)
		}
	}
}

func defaultLogLevel() logrus.Level {
	if os.Getenv("AIPTX_DEBUG") != "" {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}
