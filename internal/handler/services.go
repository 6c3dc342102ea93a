package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/results"
)

// SessionManager is the session administration surface used by SessionHandler.
// Implemented by service.SessionService.
type SessionManager interface {
	Create(ctx context.Context, actor model.Actor, classID uuid.UUID, p model.SessionParams) (*model.SessionSchedule, error)
	Update(ctx context.Context, actor model.Actor, sessionID uuid.UUID, p model.SessionParams) (*model.SessionSchedule, error)
	SetActive(ctx context.Context, actor model.Actor, sessionID uuid.UUID, active bool) error
	Delete(ctx context.Context, actor model.Actor, sessionID uuid.UUID) error
	Get(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.SessionView, error)
	ListByClass(ctx context.Context, actor model.Actor, classID uuid.UUID) ([]model.SessionView, error)
	ListForStudent(ctx context.Context, actor model.Actor) ([]model.SessionView, error)
}

// AttemptRunner is the attempt lifecycle surface used by AttemptHandler.
// Implemented by service.AttemptService.
type AttemptRunner interface {
	Start(ctx context.Context, sessionID uuid.UUID, actor model.Actor) (*model.StartedAttempt, error)
	Submit(ctx context.Context, sessionID, attemptID, studentID uuid.UUID, answers []model.SubmittedAnswer) (*results.AttemptResult, error)
	GetAttempt(ctx context.Context, attemptID uuid.UUID, actor model.Actor) (*model.AttemptPaper, error)
	ListMyAttempts(ctx context.Context, sessionID, studentID uuid.UUID) ([]results.AttemptResult, error)
}

// ResultsReader builds session summaries. Implemented by service.ResultsService.
type ResultsReader interface {
	GetSessionResults(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*results.SessionResults, error)
	ListSessionAttempts(ctx context.Context, actor model.Actor, sessionID uuid.UUID) ([]results.AttemptSummary, error)
}
