package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/response"
	"github.com/stemsi/exstem-assessment/internal/validator"
)

// SessionHandler handles session scheduling endpoints.
type SessionHandler struct {
	sessions SessionManager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CreateSession godoc
// POST /api/v1/teacher/classes/:class_id/sessions
// Schedules an exam for a class. The session starts out active.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	classID, ok := paramID(c, "class_id")
	if !ok {
		return
	}

	var req model.SessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), actor, classID, req.Params())
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// UpdateSession godoc
// PUT /api/v1/teacher/sessions/:session_id
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	var req model.SessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessions.Update(c.Request.Context(), actor, sessionID, req.Params())
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// ActivateSession godoc
// POST /api/v1/teacher/sessions/:session_id/activate
func (h *SessionHandler) ActivateSession(c *gin.Context) {
	h.setActive(c, true)
}

// DeactivateSession godoc
// POST /api/v1/teacher/sessions/:session_id/deactivate
// Running attempts may still be submitted; no new attempt can start.
func (h *SessionHandler) DeactivateSession(c *gin.Context) {
	h.setActive(c, false)
}

func (h *SessionHandler) setActive(c *gin.Context, active bool) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	if err := h.sessions.SetActive(c.Request.Context(), actor, sessionID, active); err != nil {
		response.FailError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteSession godoc
// DELETE /api/v1/teacher/sessions/:session_id
// Removes the session together with all attempts and answers.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), actor, sessionID); err != nil {
		response.FailError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSession godoc
// GET /api/v1/sessions/:session_id
func (h *SessionHandler) GetSession(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	view, err := h.sessions.Get(c.Request.Context(), actor, sessionID)
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// ListClassSessions godoc
// GET /api/v1/classes/:class_id/sessions
func (h *SessionHandler) ListClassSessions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	classID, ok := paramID(c, "class_id")
	if !ok {
		return
	}

	views, err := h.sessions.ListByClass(c.Request.Context(), actor, classID)
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": views})
}

// ListMySessions godoc
// GET /api/v1/student/sessions
// Active sessions across every class the student is enrolled in.
func (h *SessionHandler) ListMySessions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	views, err := h.sessions.ListForStudent(c.Request.Context(), actor)
	if err != nil {
		response.FailError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": views})
}
