package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exstem-assessment/internal/apperror"
	"github.com/stemsi/exstem-assessment/internal/events"
	"github.com/stemsi/exstem-assessment/internal/model"
)

// SessionStore persists session schedules. Implemented by repository.SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, s *model.SessionSchedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SessionSchedule, error)
	Update(ctx context.Context, s *model.SessionSchedule) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClass(ctx context.Context, classID uuid.UUID) ([]model.SessionSchedule, error)
	ListActiveForStudent(ctx context.Context, studentID uuid.UUID) ([]model.SessionSchedule, error)
	CountAttempts(ctx context.Context, id uuid.UUID) (int, error)
}

// AttemptStore persists attempts and their answers. Implemented by repository.AttemptRepository.
type AttemptStore interface {
	CountByStudent(ctx context.Context, sessionID, studentID uuid.UUID) (int, error)
	CreateNext(ctx context.Context, a *model.StudentAttempt, limit int) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.StudentAttempt, error)
	Submit(ctx context.Context, a *model.StudentAttempt, answers []model.AnswerRecord) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAttempt, error)
	ListByStudent(ctx context.Context, sessionID, studentID uuid.UUID) ([]model.StudentAttempt, error)
	ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]model.AnswerRecord, error)
	ExpireStale(ctx context.Context, cutoff time.Time) ([]model.StudentAttempt, error)
}

// QuestionBank is the read-only question lookup. Implemented by repository.QuestionBankRepository.
type QuestionBank interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	// ListByExamFresh bypasses any cache. Used for grading.
	ListByExamFresh(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	Invalidate(ctx context.Context, examID uuid.UUID) error
}

// ClassDirectory answers class ownership and enrollment questions.
// Implemented by repository.ClassRepository.
type ClassDirectory interface {
	GetClass(ctx context.Context, id uuid.UUID) (*model.Classroom, error)
	IsEnrolled(ctx context.Context, classID, studentID uuid.UUID) (bool, error)
	CountEnrolled(ctx context.Context, classID uuid.UUID) (int, error)
}

// EventPublisher receives committed lifecycle changes.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event)
}

// lookupErr converts a missing row into a NotFound error and wraps anything else.
func lookupErr(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound(entity, id)
	}
	return fmt.Errorf("get %s: %w", entity, err)
}

// authorizeClassTeacher allows admins and the teacher owning class.
func authorizeClassTeacher(actor model.Actor, class *model.Classroom) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == model.RoleTeacher && class.TeacherID == actor.UserID {
		return nil
	}
	return apperror.ErrNotClassTeacher
}

// authorizeClassViewer allows the owning teacher, admins and enrolled students.
func authorizeClassViewer(ctx context.Context, classes ClassDirectory, actor model.Actor, class *model.Classroom) error {
	if actor.Role != model.RoleStudent {
		return authorizeClassTeacher(actor, class)
	}
	ok, err := classes.IsEnrolled(ctx, class.ID, actor.UserID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !ok {
		return apperror.ErrNotEnrolled
	}
	return nil
}
