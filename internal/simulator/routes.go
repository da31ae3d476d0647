package simulator

import "github.com/gin-gonic/gin"

// InitRouter wires the simulated backend's routes.
func InitRouter(s *Server) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/scan", s.StartScan)
	router.GET("/scans/:id", s.GetScan)
	router.GET("/scans/:id/stream", s.StreamScan)

	router.GET("/projects", s.ListProjects)
	router.POST("/projects", s.CreateProject)
	router.GET("/projects/:id", s.GetProject)
	router.PUT("/projects/:id", s.UpdateProject)
	router.DELETE("/projects/:id", s.DeleteProject)
	router.GET("/projects/:id/sessions", s.ListSessions)
	router.POST("/projects/:id/sessions", s.CreateSession)
	router.GET("/projects/:id/findings", s.GetProjectFindings)
	router.GET("/sessions/:id", s.GetSession)

	router.GET("/findings", s.ListFindings)
	router.GET("/findings/:id", s.GetFinding)
	router.GET("/tools", s.ListTools)

	router.GET("/health", s.Health)
	router.GET("/health/ready", s.Ready)

	return router
}
