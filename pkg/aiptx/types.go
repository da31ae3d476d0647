package aiptx

import "time"

// ScanMode selects how aggressive a scan is.
type ScanMode string

const (
	ModeQuick    ScanMode = "quick"
	ModeStandard ScanMode = "standard"
	ModeFull     ScanMode = "full"
	// ModeAI is accepted by the CLI as shorthand for an AI-assisted
	// standard scan; on the wire it becomes standard + ai=true.
	ModeAI ScanMode = "ai"
)

// JobStatus is the server-reported lifecycle state of a scan job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusError     JobStatus = "error"
)

// Terminal reports whether no further status changes can follow.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Severity classifies a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

var severityRanks = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityInfo:     4,
}

// Rank returns the sort position of the severity, critical first.
// Unknown severities sort after info.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return len(severityRanks)
}

// FindingType classifies what a finding describes.
type FindingType string

const (
	FindingPort       FindingType = "port"
	FindingService    FindingType = "service"
	FindingVuln       FindingType = "vuln"
	FindingCredential FindingType = "credential"
	FindingHost       FindingType = "host"
	FindingPath       FindingType = "path"
	FindingInfo       FindingType = "info"
)

// ScanRequest describes a scan to submit. It is immutable once submitted.
type ScanRequest struct {
	Target  string   `json:"target"`
	Mode    ScanMode `json:"mode,omitempty"`
	AI      bool     `json:"ai,omitempty"`
	Exploit bool     `json:"exploit,omitempty"`
	Phases  []string `json:"phases,omitempty"`
}

// ScanJob is the server's view of one scan execution, identified by an
// opaque id. StartedAt/CompletedAt are nil until the server sets them.
type ScanJob struct {
	ID            string     `json:"id"`
	Status        JobStatus  `json:"status"`
	Phase         string     `json:"phase,omitempty"`
	Progress      int        `json:"progress"`
	FindingsCount int        `json:"findings_count"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Finding is one discrete piece of discovered information. Findings are
// append-only: the server never edits one in place, corrections arrive as
// new findings with FalsePositive set.
type Finding struct {
	ID            string      `json:"id"`
	ProjectID     int64       `json:"project_id,omitempty"`
	SessionID     int64       `json:"session_id,omitempty"`
	Type          FindingType `json:"type"`
	Value         string      `json:"value"`
	Description   string      `json:"description,omitempty"`
	Severity      Severity    `json:"severity"`
	Phase         string      `json:"phase,omitempty"`
	Tool          string      `json:"tool,omitempty"`
	Verified      bool        `json:"verified"`
	FalsePositive bool        `json:"false_positive"`
	DiscoveredAt  time.Time   `json:"discovered_at"`
}

// Project groups scans against one target.
type Project struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Target      string     `json:"target"`
	Description string     `json:"description,omitempty"`
	Scope       []string   `json:"scope,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// ProjectCreate is the payload for creating or updating a project.
type ProjectCreate struct {
	Name        string   `json:"name"`
	Target      string   `json:"target"`
	Description string   `json:"description,omitempty"`
	Scope       []string `json:"scope,omitempty"`
}

// Session is one organizational scan session within a project.
type Session struct {
	ID            int64      `json:"id"`
	ProjectID     int64      `json:"project_id"`
	Name          string     `json:"name"`
	Phase         string     `json:"phase,omitempty"`
	Status        string     `json:"status,omitempty"`
	Iteration     int        `json:"iteration,omitempty"`
	MaxIterations int        `json:"max_iterations,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// SessionCreate is the payload for creating a session.
type SessionCreate struct {
	Name          string `json:"name"`
	MaxIterations int    `json:"max_iterations,omitempty"`
}

// Tool describes a security tool the server can run.
type Tool struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Phase       string   `json:"phase,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Available   bool     `json:"available"`
}

// HealthStatus is the server liveness report.
type HealthStatus struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Uptime     int64  `json:"uptime"`
	Components struct {
		Database bool            `json:"database"`
		LLM      bool            `json:"llm"`
		Scanners map[string]bool `json:"scanners,omitempty"`
	} `json:"components"`
}

// FindingsFilter narrows ListFindings results. Zero values are omitted.
type FindingsFilter struct {
	ProjectID int64
	Severity  Severity
	Type      FindingType
}
