// Package http holds the plain HTTP health checks served next to the API.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Counter reports how many of something are live. Used for readiness detail.
type Counter interface {
	Len() int
}

type HealthHandler struct {
	service  string
	sessions Counter
	conns    Counter
}

func NewHealthHandler(service string, sessions, conns Counter) *HealthHandler {
	return &HealthHandler{service: service, sessions: sessions, conns: conns}
}

// Health responds to GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.service,
		"time":    time.Now().Unix(),
	})
}

// Ready responds to GET /ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	body := gin.H{"status": "ready"}
	if h.sessions != nil {
		body["sessions"] = h.sessions.Len()
	}
	if h.conns != nil {
		body["connections"] = h.conns.Len()
	}
	c.JSON(http.StatusOK, body)
}
