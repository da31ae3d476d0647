package dao

import (
	"github.com/aiptx/aiptx-go/internal/models"

	"gorm.io/gorm"
)

type HistoryDAO interface {
	SaveRecord(record *models.ScanRecord) error
	GetRecordByJobID(jobID string) (*models.ScanRecord, error)
	ListRecords(limit int) ([]models.ScanRecord, error)
	UpdateRecord(record *models.ScanRecord) error
	DeleteRecord(jobID string) error
}

type historyDAO struct {
	db *gorm.DB
}

func NewHistoryDAO(db *gorm.DB) HistoryDAO {
	return &historyDAO{db: db}
}

func (dao *historyDAO) SaveRecord(record *models.ScanRecord) error {
	return dao.db.Create(record).Error
}

func (dao *historyDAO) UpdateRecord(record *models.ScanRecord) error {
	return dao.db.Save(record).Error
}

func (dao *historyDAO) GetRecordByJobID(jobID string) (*models.ScanRecord, error) {
	var record models.ScanRecord
	if err := dao.db.Where("job_id = ?", jobID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (dao *historyDAO) ListRecords(limit int) ([]models.ScanRecord, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var records []models.ScanRecord
	if err := dao.db.Order("created_at desc").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (dao *historyDAO) DeleteRecord(jobID string) error {
	result := dao.db.Where("job_id = ?", jobID).Delete(&models.ScanRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
