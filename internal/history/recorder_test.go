package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aiptx/aiptx-go/internal/models"
	"github.com/aiptx/aiptx-go/pkg/aiptx"
)

type MockHistoryDAO struct {
	mock.Mock
}

func (m *MockHistoryDAO) SaveRecord(record *models.ScanRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockHistoryDAO) GetRecordByJobID(jobID string) (*models.ScanRecord, error) {
	args := m.Called(jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanRecord), args.Error(1)
}

func (m *MockHistoryDAO) ListRecords(limit int) ([]models.ScanRecord, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScanRecord), args.Error(1)
}

func (m *MockHistoryDAO) UpdateRecord(record *models.ScanRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockHistoryDAO) DeleteRecord(jobID string) error {
	args := m.Called(jobID)
	return args.Error(0)
}

func TestRecordSubmitted(t *testing.T) {
	mockDAO := new(MockHistoryDAO)
	mockDAO.On("SaveRecord", mock.MatchedBy(func(r *models.ScanRecord) bool {
		return r.JobID == "job-1" &&
			r.Target == "example.com" &&
			r.Mode == "quick" &&
			r.Status == "pending" &&
			r.CreatedAt > 0
	})).Return(nil)

	recorder := NewRecorder(mockDAO)
	err := recorder.RecordSubmitted(
		&aiptx.ScanRequest{Target: "example.com", Mode: aiptx.ModeQuick},
		&aiptx.ScanJob{ID: "job-1", Status: aiptx.StatusPending},
	)
	require.NoError(t, err)
	mockDAO.AssertExpectations(t)
}

func TestRecordOutcome(t *testing.T) {
	existing := &models.ScanRecord{
		JobID:     "job-1",
		Target:    "example.com",
		Mode:      "quick",
		Status:    "pending",
		CreatedAt: 100,
		UpdatedAt: 100,
	}

	mockDAO := new(MockHistoryDAO)
	mockDAO.On("GetRecordByJobID", "job-1").Return(existing, nil)
	mockDAO.On("UpdateRecord", mock.MatchedBy(func(r *models.ScanRecord) bool {
		return r.JobID == "job-1" &&
			r.Status == "completed" &&
			r.FindingsCount == 4 &&
			r.UpdatedAt > 100
	})).Return(nil)

	recorder := NewRecorder(mockDAO)
	err := recorder.RecordOutcome(aiptx.ScanJob{
		ID:            "job-1",
		Status:        aiptx.StatusCompleted,
		Phase:         "scan",
		FindingsCount: 4,
	})
	require.NoError(t, err)
	mockDAO.AssertExpectations(t)
}

func TestRecordOutcomeUnknownJob(t *testing.T) {
	mockDAO := new(MockHistoryDAO)
	mockDAO.On("GetRecordByJobID", "missing").Return(nil, errors.New("record not found"))

	recorder := NewRecorder(mockDAO)
	err := recorder.RecordOutcome(aiptx.ScanJob{ID: "missing", Status: aiptx.StatusCompleted})
	assert.Error(t, err)
	mockDAO.AssertNumberOfCalls(t, "UpdateRecord", 0)
}

func TestList(t *testing.T) {
	mockDAO := new(MockHistoryDAO)
	mockDAO.On("ListRecords", 10).Return([]models.ScanRecord{
		{JobID: "job-2"},
		{JobID: "job-1"},
	}, nil)

	recorder := NewRecorder(mockDAO)
	records, err := recorder.List(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "job-2", records[0].JobID)
}
