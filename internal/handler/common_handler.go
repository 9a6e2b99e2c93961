package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Health reports process liveness plus a database ping. Unauthenticated.
func (s *Server) Health(c *gin.Context) {
	status := http.StatusOK
	payload := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(startTime).String(),
	}

	sqlDB, err := s.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		status = http.StatusServiceUnavailable
		payload["status"] = "unhealthy"
		payload["database"] = err.Error()
	}

	c.JSON(status, payload)
}
