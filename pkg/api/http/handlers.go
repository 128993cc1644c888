package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleGetStatus returns the run's aggregate progress
func (s *Server) handleGetStatus(c *gin.Context) {
	if s.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NO_WORKFLOW",
				Message: "No workflow is loaded",
			},
		})
		return
	}

	p := s.scheduler.Progress()
	c.JSON(http.StatusOK, gin.H{
		"run_id":    p.RunID,
		"total":     p.Total,
		"completed": p.Completed,
		"failed":    p.Failed,
		"running":   p.Running,
	})
}

// handleListTasks returns per-task state and retry counts
func (s *Server) handleListTasks(c *gin.Context) {
	if s.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NO_WORKFLOW",
				Message: "No workflow is loaded",
			},
		})
		return
	}

	p := s.scheduler.Progress()
	c.JSON(http.StatusOK, gin.H{
		"run_id": p.RunID,
		"tasks":  p.Tasks,
	})
}

// handleGetTask returns one task's state
func (s *Server) handleGetTask(c *gin.Context) {
	if s.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NO_WORKFLOW",
				Message: "No workflow is loaded",
			},
		})
		return
	}

	name := c.Param("name")
	p := s.scheduler.Progress()
	status, ok := p.Tasks[name]
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "TASK_NOT_FOUND",
				Message: "Task not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":      p.RunID,
		"name":        name,
		"state":       status.State,
		"retry_count": status.RetryCount,
	})
}
