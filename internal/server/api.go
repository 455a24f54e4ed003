package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smallbiznis/tillsync/internal/pos/domain"
)

// RegisterRoutes mounts the diagnostics API under /api/v1.
func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api/v1")
	api.GET("/state", s.getState)
	api.GET("/metrics", s.getMetrics)
	api.GET("/transactions", s.getTransactions)
	api.GET("/inventory", s.getInventory)
	api.GET("/trace", s.getTrace)
	api.GET("/trace/stats", s.getTraceStats)
	api.POST("/commands", s.postCommand)
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.State())
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Metrics())
}

func (s *Server) getTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Transactions())
}

func (s *Server) getInventory(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.InventoryItems())
}

func (s *Server) getTrace(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}
	c.JSON(http.StatusOK, s.tracer.History(limit))
}

func (s *Server) getTraceStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.tracer.Stats())
}

// postCommand dispatches a JSON command. Command rejections are ordinary
// payloads, not HTTP errors; only malformed JSON is a 400.
func (s *Server) postCommand(c *gin.Context) {
	var cmd domain.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid command payload"})
		return
	}
	res := s.store.Dispatch(c.Request.Context(), cmd, "ops-api")
	c.JSON(http.StatusOK, res)
}
