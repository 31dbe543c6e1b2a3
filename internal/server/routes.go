package server

import "github.com/gin-gonic/gin"

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.health)

	auditGroup := s.router.Group("/audit")
	{
		auditGroup.POST("", s.createAudit)
		auditGroup.POST("/batch", s.createBatch)
		auditGroup.GET("/history", s.history)
		auditGroup.GET("/stats", s.stats)
	}

	s.router.GET("/rules", s.listRules)

	if s.opts.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.opts.Metrics.Handler()))
	}
}
