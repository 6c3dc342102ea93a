package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/results"
)

// ResultsService builds session-level result summaries for teachers.
type ResultsService struct {
	sessions SessionStore
	attempts AttemptStore
	classes  ClassDirectory
}

// NewResultsService creates a new ResultsService.
func NewResultsService(sessions SessionStore, attempts AttemptStore, classes ClassDirectory) *ResultsService {
	return &ResultsService{sessions: sessions, attempts: attempts, classes: classes}
}

// GetSessionResults returns every student's best and latest attempt plus class
// statistics. Only the class teacher and admins may read them.
func (s *ResultsService) GetSessionResults(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*results.SessionResults, error) {
	session, err := s.loadForTeacher(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}

	var (
		attempts []model.StudentAttempt
		enrolled int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attempts, err = s.attempts.ListBySession(gctx, sessionID)
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		enrolled, err = s.classes.CountEnrolled(gctx, session.ClassID)
		if err != nil {
			return fmt.Errorf("count enrolled: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := results.ComputeSessionResults(sessionID, attempts, enrolled)
	return &summary, nil
}

// ListSessionAttempts returns every attempt of a session, grouped by student.
func (s *ResultsService) ListSessionAttempts(ctx context.Context, actor model.Actor, sessionID uuid.UUID) ([]results.AttemptSummary, error) {
	if _, err := s.loadForTeacher(ctx, actor, sessionID); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return results.SummarizeAttempts(attempts), nil
}

func (s *ResultsService) loadForTeacher(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.SessionSchedule, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, lookupErr(err, "session", sessionID)
	}
	class, err := s.classes.GetClass(ctx, session.ClassID)
	if err != nil {
		return nil, lookupErr(err, "class", session.ClassID)
	}
	if err := authorizeClassTeacher(actor, class); err != nil {
		return nil, err
	}
	return session, nil
}
