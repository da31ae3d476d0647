package session

import (
	"context"
	"time"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
	"github.com/aiptx/aiptx-go/pkg/logger"
)

// maxPollFailures bounds consecutive status-poll failures before the
// session gives up on the job.
const maxPollFailures = 10

// pollSource tracks a job through periodic status polling. It produces the
// same event sequence shape as the push stream: status snapshots become
// progress events, a terminal snapshot becomes a complete or error event.
// Individual findings are not visible on this path, only their count.
type pollSource struct {
	client   *aiptx.Client
	log      *logger.Logger
	interval time.Duration
}

func newPollSource(client *aiptx.Client, log *logger.Logger, interval time.Duration) *pollSource {
	return &pollSource{client: client, log: log, interval: interval}
}

func (p *pollSource) Run(ctx context.Context, jobID string, deliver sink) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var (
		lastPhase    string
		lastProgress = -1
		failures     int
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		job, err := p.client.GetScanStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			p.log.WithFields(logger.Fields{
				"job_id":   jobID,
				"failures": failures,
				"error":    err,
			}).Warn("Status poll failed")

			if failures >= maxPollFailures {
				return err
			}
			continue
		}
		failures = 0

		switch {
		case job.Status == aiptx.StatusCompleted:
			deliver(Event{Kind: KindComplete, JobID: jobID, Job: job, Time: time.Now()})
			return nil

		case job.Status == aiptx.StatusError:
			msg := job.Error
			if msg == "" {
				msg = "scan reported an error without a message"
			}
			deliver(Event{
				Kind:  KindError,
				JobID: jobID,
				Err:   &ScanFailedError{Message: msg},
				Time:  time.Now(),
			})
			return nil

		case job.Status == aiptx.StatusRunning:
			if job.Phase != lastPhase || job.Progress != lastProgress {
				lastPhase, lastProgress = job.Phase, job.Progress
				deliver(Event{
					Kind:    KindProgress,
					JobID:   jobID,
					Phase:   job.Phase,
					Percent: job.Progress,
					Time:    time.Now(),
				})
			}

		case job.Status == aiptx.StatusPending:
			// Nothing to report until the job starts.

		default:
			p.log.WithFields(logger.Fields{
				"job_id": jobID,
				"status": job.Status,
			}).Warn("Unknown job status from poll")
		}
	}
}
