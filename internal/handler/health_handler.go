package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/exstem-assessment/internal/database"
	"github.com/stemsi/exstem-assessment/internal/response"
)

// HealthHandler reports dependency status.
type HealthHandler struct {
	check func(ctx context.Context) database.HealthReport
}

// NewHealthHandler creates a new HealthHandler around a dependency check,
// normally a closure over database.Check.
func NewHealthHandler(check func(ctx context.Context) database.HealthReport) *HealthHandler {
	return &HealthHandler{check: check}
}

// Health godoc
// GET /health
// 200 while PostgreSQL answers; 503 otherwise. Redis is reported but advisory.
func (h *HealthHandler) Health(c *gin.Context) {
	report := h.check(c.Request.Context())
	status := http.StatusOK
	if !report.OK() {
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, report)
}
