package models

// ScanRecord is the locally persisted trace of one submitted scan: what was
// asked for, which job the server assigned, and how it ended.
type ScanRecord struct {
	JobID         string `gorm:"primaryKey;type:varchar(64)" json:"job_id"`
	Target        string `json:"target"`
	Mode          string `json:"mode"`
	Status        string `json:"status"`
	Phase         string `json:"phase"`
	FindingsCount int    `json:"findings_count"`
	Error         string `json:"error,omitempty"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
}
