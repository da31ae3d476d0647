// Package history keeps a local record of submitted scans. This is the only
// state shared across sessions, and all access funnels through one mutex.
package history

import (
	"sync"
	"time"

	"github.com/aiptx/aiptx-go/internal/dao"
	"github.com/aiptx/aiptx-go/internal/models"
	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

// Recorder persists job submissions and outcomes.
type Recorder struct {
	mu  sync.Mutex
	dao dao.HistoryDAO
}

func NewRecorder(historyDAO dao.HistoryDAO) *Recorder {
	return &Recorder{dao: historyDAO}
}

// RecordSubmitted stores the freshly acknowledged job.
func (r *Recorder) RecordSubmitted(req *aiptx.ScanRequest, job *aiptx.ScanJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	return r.dao.SaveRecord(&models.ScanRecord{
		JobID:     job.ID,
		Target:    req.Target,
		Mode:      string(req.Mode),
		Status:    string(job.Status),
		Phase:     job.Phase,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// RecordOutcome updates the stored record with the job's final state.
func (r *Recorder) RecordOutcome(job aiptx.ScanJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.dao.GetRecordByJobID(job.ID)
	if err != nil {
		return err
	}

	record.Status = string(job.Status)
	record.Phase = job.Phase
	record.FindingsCount = job.FindingsCount
	record.Error = job.Error
	record.UpdatedAt = time.Now().Unix()
	return r.dao.UpdateRecord(record)
}

// List returns the most recent records.
func (r *Recorder) List(limit int) ([]models.ScanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dao.ListRecords(limit)
}
