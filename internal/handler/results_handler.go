package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/exstem-assessment/internal/response"
)

// ResultsHandler serves session result summaries to teachers.
type ResultsHandler struct {
	results ResultsReader
}

// NewResultsHandler creates a new ResultsHandler.
func NewResultsHandler(results ResultsReader) *ResultsHandler {
	return &ResultsHandler{results: results}
}

// GetSessionResults godoc
// GET /api/v1/teacher/sessions/:session_id/results
func (h *ResultsHandler) GetSessionResults(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	summary, err := h.results.GetSessionResults(c.Request.Context(), actor, sessionID)
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// ListSessionAttempts godoc
// GET /api/v1/teacher/sessions/:session_id/attempts
func (h *ResultsHandler) ListSessionAttempts(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	attempts, err := h.results.ListSessionAttempts(c.Request.Context(), actor, sessionID)
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}
