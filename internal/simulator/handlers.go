package simulator

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aiptx/aiptx-go/pkg/aiptx"
	"github.com/aiptx/aiptx-go/pkg/logger"
)

// Server serves the simulated backend.
type Server struct {
	store   *Store
	log     *logger.Logger
	tick    time.Duration
	version string
}

// ServerOption configures the simulator.
type ServerOption func(*Server)

// WithTick sets how fast simulated scans advance.
func WithTick(d time.Duration) ServerOption {
	return func(s *Server) { s.tick = d }
}

func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		store:   NewStore(),
		log:     logger.NewLogger(logrus.InfoLevel),
		tick:    200 * time.Millisecond,
		version: "0.1.0-sim",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) StartScan(c *gin.Context) {
	var req aiptx.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.WithFields(logger.Fields{"error": err}).Error("Failed to bind JSON")
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}
	if strings.TrimSpace(req.Target) == "" {
		c.JSON(422, gin.H{"error": "target is required"})
		return
	}
	if req.Mode == "" {
		req.Mode = aiptx.ModeStandard
	}

	id := uuid.New().String()
	state := aiptx.ScanJob{ID: id, Status: aiptx.StatusPending}
	j := s.store.addJob(id, req, state)

	s.log.WithJob(id, req.Target).Info("Starting simulated scan")
	go s.runScan(id, j, s.tick)

	c.JSON(200, state)
}

func (s *Server) GetScan(c *gin.Context) {
	j, ok := s.store.getJob(c.Param("id"))
	if !ok {
		c.JSON(404, gin.H{"error": "Scan not found"})
		return
	}
	c.JSON(200, j.snapshot())
}

// StreamScan replays the job's event history and follows it live until a
// terminal event or the client hangs up.
func (s *Server) StreamScan(c *gin.Context) {
	j, ok := s.store.getJob(c.Param("id"))
	if !ok {
		c.JSON(404, gin.H{"error": "Scan not found"})
		return
	}

	ch, cancel := j.subscribe()
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return ev.Name != "complete" && ev.Name != "error"
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Server) ListProjects(c *gin.Context) {
	s.store.mu.Lock()
	projects := make([]aiptx.Project, 0, len(s.store.projects))
	for _, p := range s.store.projects {
		projects = append(projects, p)
	}
	s.store.mu.Unlock()
	c.JSON(200, projects)
}

func (s *Server) CreateProject(c *gin.Context) {
	var req aiptx.ProjectCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}
	if req.Name == "" || req.Target == "" {
		c.JSON(422, gin.H{"error": "name and target are required"})
		return
	}

	project := aiptx.Project{
		ID:          s.store.allocID(),
		Name:        req.Name,
		Target:      req.Target,
		Description: req.Description,
		Scope:       req.Scope,
		CreatedAt:   time.Now(),
	}

	s.store.mu.Lock()
	s.store.projects[project.ID] = project
	s.store.mu.Unlock()

	c.JSON(200, project)
}

func (s *Server) GetProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid project id"})
		return
	}

	s.store.mu.Lock()
	project, ok := s.store.projects[id]
	s.store.mu.Unlock()
	if !ok {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	c.JSON(200, project)
}

func (s *Server) UpdateProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid project id"})
		return
	}

	var req aiptx.ProjectCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	s.store.mu.Lock()
	project, ok := s.store.projects[id]
	if ok {
		now := time.Now()
		project.Name = req.Name
		project.Target = req.Target
		project.Description = req.Description
		project.Scope = req.Scope
		project.UpdatedAt = &now
		s.store.projects[id] = project
	}
	s.store.mu.Unlock()

	if !ok {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	c.JSON(200, project)
}

func (s *Server) DeleteProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid project id"})
		return
	}

	s.store.mu.Lock()
	_, ok := s.store.projects[id]
	delete(s.store.projects, id)
	s.store.mu.Unlock()

	if !ok {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}
	c.Status(204)
}

func (s *Server) ListSessions(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid project id"})
		return
	}

	s.store.mu.Lock()
	sessions := make([]aiptx.Session, 0)
	for _, sess := range s.store.sessions {
		if sess.ProjectID == projectID {
			sessions = append(sessions, sess)
		}
	}
	s.store.mu.Unlock()
	c.JSON(200, sessions)
}

func (s *Server) CreateSession(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid project id"})
		return
	}

	var req aiptx.SessionCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	s.store.mu.Lock()
	_, ok := s.store.projects[projectID]
	s.store.mu.Unlock()
	if !ok {
		c.JSON(404, gin.H{"error": "Project not found"})
		return
	}

	sess := aiptx.Session{
		ID:            s.store.allocID(),
		ProjectID:     projectID,
		Name:          req.Name,
		Status:        "created",
		MaxIterations: req.MaxIterations,
		CreatedAt:     time.Now(),
	}

	s.store.mu.Lock()
	s.store.sessions[sess.ID] = sess
	s.store.mu.Unlock()

	c.JSON(200, sess)
}

func (s *Server) GetSession(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid session id"})
		return
	}

	s.store.mu.Lock()
	sess, ok := s.store.sessions[id]
	s.store.mu.Unlock()
	if !ok {
		c.JSON(404, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(200, sess)
}

func (s *Server) ListFindings(c *gin.Context) {
	var projectID int64
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid project_id"})
			return
		}
		projectID = id
	}
	severity := c.Query("severity")
	findingType := c.Query("type")

	findings := make([]aiptx.Finding, 0)
	for _, f := range s.store.allFindings() {
		if projectID != 0 && f.ProjectID != projectID {
			continue
		}
		if severity != "" && string(f.Severity) != severity {
			continue
		}
		if findingType != "" && string(f.Type) != findingType {
			continue
		}
		findings = append(findings, f)
	}
	c.JSON(200, findings)
}

func (s *Server) GetProjectFindings(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid project id"})
		return
	}

	findings := make([]aiptx.Finding, 0)
	for _, f := range s.store.allFindings() {
		if f.ProjectID == projectID {
			findings = append(findings, f)
		}
	}
	c.JSON(200, findings)
}

func (s *Server) GetFinding(c *gin.Context) {
	id := c.Param("id")
	for _, f := range s.store.allFindings() {
		if f.ID == id {
			c.JSON(200, f)
			return
		}
	}
	c.JSON(404, gin.H{"error": "Finding not found"})
}

func (s *Server) ListTools(c *gin.Context) {
	c.JSON(200, []aiptx.Tool{
		{Name: "nmap", Description: "Port scanner", Phase: "recon", Keywords: []string{"port", "service"}, Available: true},
		{Name: "subfinder", Description: "Subdomain discovery", Phase: "recon", Keywords: []string{"subdomain"}, Available: true},
		{Name: "httpx", Description: "HTTP probe", Phase: "enum", Keywords: []string{"http"}, Available: true},
		{Name: "ffuf", Description: "Content discovery", Phase: "enum", Keywords: []string{"fuzz", "path"}, Available: true},
		{Name: "nuclei", Description: "Template vulnerability scanner", Phase: "scan", Keywords: []string{"cve", "vuln"}, Available: true},
		{Name: "hydra", Description: "Credential brute forcer", Phase: "exploit", Keywords: []string{"brute", "credential"}, Available: false},
	})
}

func (s *Server) Health(c *gin.Context) {
	var health aiptx.HealthStatus
	health.Status = "ok"
	health.Version = s.version
	health.Uptime = s.store.uptime()
	health.Components.Database = true
	health.Components.LLM = true
	health.Components.Scanners = map[string]bool{"nmap": true, "nuclei": true}
	c.JSON(200, health)
}

func (s *Server) Ready(c *gin.Context) {
	c.JSON(200, gin.H{"ready": true})
}
