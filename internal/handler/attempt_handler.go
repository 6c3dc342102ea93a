package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/response"
	"github.com/stemsi/exstem-assessment/internal/validator"
)

// AttemptHandler handles the student side of the attempt lifecycle.
type AttemptHandler struct {
	attempts AttemptRunner
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attempts AttemptRunner) *AttemptHandler {
	return &AttemptHandler{attempts: attempts}
}

// StartAttempt godoc
// POST /api/v1/sessions/:session_id/attempts
// Opens a new attempt and returns the per-attempt question order. Teachers and
// admins may start one to preview the paper.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	started, err := h.attempts.Start(c.Request.Context(), sessionID, actor)
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": started})
}

// GetAttempt godoc
// GET /api/v1/attempts/:attempt_id
// Returns the attempt with its question order; graded answers once submitted.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}

	paper, err := h.attempts.GetAttempt(c.Request.Context(), attemptID, actor)
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// ListMyAttempts godoc
// GET /api/v1/sessions/:session_id/attempts
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	list, err := h.attempts.ListMyAttempts(c.Request.Context(), sessionID, actor.UserID)
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": list})
}

// SubmitAttempt godoc
// POST /api/v1/sessions/:session_id/attempts/:attempt_id/submit
// Grades the answers and closes the attempt.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attempts.Submit(c.Request.Context(), sessionID, attemptID, actor.UserID, req.Answers)
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
