package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// health is the liveness probe; it never touches dependencies.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ready reports whether the ledger cache answers.
func (s *Server) ready(c *gin.Context) {
	if s.deps.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": "store not initialised"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.Store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
